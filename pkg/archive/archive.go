// Package archive exports audit chain snapshots to content-addressed
// blob storage. A snapshot is only taken from a chain that verifies; the
// blob key is the SHA-256 of the canonical snapshot document, so
// re-exporting an unchanged chain is a no-op.
package archive

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"

	"github.com/Cairn-Labs/listing-steward/pkg/store"
)

// Store is the contract for content-addressed snapshot storage.
type Store interface {
	// Store persists data and returns its content hash (sha256:<hex>).
	Store(ctx context.Context, data []byte) (string, error)
	// Get retrieves data by its content hash.
	Get(ctx context.Context, hash string) ([]byte, error)
	// Exists checks if a blob exists by its content hash.
	Exists(ctx context.Context, hash string) (bool, error)
}

// Snapshot is the exported form of the audit chain.
type Snapshot struct {
	ExportedAt time.Time           `json:"exported_at"`
	ChainHead  string              `json:"chain_head"`
	Entries    []*store.AuditEntry `json:"entries"`
}

// Exporter writes verified audit snapshots to a Store.
type Exporter struct {
	audit *store.AuditLog
	blobs Store
	clock func() time.Time
}

// NewExporter creates an exporter over the audit log and blob store.
func NewExporter(audit *store.AuditLog, blobs Store) *Exporter {
	return &Exporter{audit: audit, blobs: blobs, clock: time.Now}
}

// WithClock overrides the clock for deterministic testing.
func (e *Exporter) WithClock(clock func() time.Time) *Exporter {
	e.clock = clock
	return e
}

// Export verifies the chain and writes a snapshot blob, returning its
// content hash.
func (e *Exporter) Export(ctx context.Context) (string, error) {
	if err := e.audit.Verify(); err != nil {
		return "", fmt.Errorf("refusing to export a broken chain: %w", err)
	}

	snapshot := Snapshot{
		ExportedAt: e.clock().UTC(),
		ChainHead:  e.audit.ChainHead(),
		Entries:    e.audit.Entries(),
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("serialize snapshot: %w", err)
	}
	canonical, err := jcs.Transform(data)
	if err != nil {
		return "", fmt.Errorf("canonicalize snapshot: %w", err)
	}

	hash, err := e.blobs.Store(ctx, canonical)
	if err != nil {
		return "", fmt.Errorf("store snapshot: %w", err)
	}
	return hash, nil
}

// Load retrieves and decodes a snapshot by hash.
func (e *Exporter) Load(ctx context.Context, hash string) (*Snapshot, error) {
	data, err := e.blobs.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", hash, err)
	}
	return &snapshot, nil
}

// parseHash strips and validates the sha256: prefix.
func parseHash(hash string) (string, error) {
	if len(hash) < 7 || hash[:7] != "sha256:" {
		return "", fmt.Errorf("invalid hash format: %s", hash)
	}
	raw := hash[7:]
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("invalid hash hex: %w", err)
	}
	return raw, nil
}
