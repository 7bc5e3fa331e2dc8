package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
)

var (
	// ErrEntryNotFound indicates no audit entry exists under the id.
	ErrEntryNotFound = errors.New("audit entry not found")
	// ErrChainBroken indicates the hash chain failed verification.
	ErrChainBroken = errors.New("audit chain is broken")
)

// AuditAction categorizes audit entries by steward transition.
type AuditAction string

// AuditAction constants.
const (
	AuditProposed      AuditAction = "proposal_created"
	AuditExecuted      AuditAction = "proposal_executed"
	AuditCancelled     AuditAction = "proposal_cancelled"
	AuditParamsUpdated AuditAction = "params_updated"
	AuditFrozen        AuditAction = "frozen"
	AuditUnfrozen      AuditAction = "unfrozen"
)

// AuditEntry is a single immutable entry in the audit chain. The payload
// is canonicalized (RFC 8785 JCS) before hashing so the chain is stable
// across encoders.
type AuditEntry struct {
	EntryID      string          `json:"entry_id"`
	Sequence     uint64          `json:"sequence"`
	Timestamp    time.Time       `json:"timestamp"`
	Action       AuditAction     `json:"action"`
	SubjectID    string          `json:"subject_id"`
	Caller       string          `json:"caller"`
	Payload      json.RawMessage `json:"payload"`
	PayloadHash  string          `json:"payload_hash"`
	PreviousHash string          `json:"previous_hash"`
	EntryHash    string          `json:"entry_hash"`
}

// AuditLog is an append-only audit trail with hash chaining.
type AuditLog struct {
	mu        sync.RWMutex
	entries   []*AuditEntry
	entryByID map[string]*AuditEntry
	sequence  uint64
	chainHead string
	clock     func() time.Time
}

// NewAuditLog creates an empty audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{
		entryByID: make(map[string]*AuditEntry),
		chainHead: "genesis",
		clock:     time.Now,
	}
}

// WithClock overrides the clock for deterministic testing.
func (l *AuditLog) WithClock(clock func() time.Time) *AuditLog {
	l.clock = clock
	return l
}

// Append adds a new entry. The payload is serialized, canonicalized and
// hashed; the entry hash covers the previous hash so any rewrite breaks
// every later entry.
func (l *AuditLog) Append(action AuditAction, subjectID, caller string, payload any) (*AuditEntry, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("serialize audit payload: %w", err)
	}
	canonical, err := jcs.Transform(payloadBytes)
	if err != nil {
		return nil, fmt.Errorf("canonicalize audit payload: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sequence++
	entry := &AuditEntry{
		EntryID:      uuid.New().String(),
		Sequence:     l.sequence,
		Timestamp:    l.clock().UTC(),
		Action:       action,
		SubjectID:    subjectID,
		Caller:       caller,
		Payload:      canonical,
		PayloadHash:  computeHash(canonical),
		PreviousHash: l.chainHead,
	}
	entryHash, err := computeEntryHash(entry)
	if err != nil {
		l.sequence--
		return nil, err
	}
	entry.EntryHash = entryHash
	l.chainHead = entryHash

	l.entries = append(l.entries, entry)
	l.entryByID[entry.EntryID] = entry
	return entry, nil
}

// Get retrieves an entry by id.
func (l *AuditLog) Get(entryID string) (*AuditEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.entryByID[entryID]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

// Entries returns a snapshot of all entries in append order.
func (l *AuditLog) Entries() []*AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ChainHead returns the current head hash.
func (l *AuditLog) ChainHead() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chainHead
}

// Verify walks the chain from genesis and recomputes every hash.
func (l *AuditLog) Verify() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return VerifyEntries(l.entries, l.chainHead)
}

// VerifyEntries checks a detached chain snapshot against its head. Used
// for exported snapshots where no live log exists.
func VerifyEntries(entries []*AuditEntry, head string) error {
	previous := "genesis"
	for i, entry := range entries {
		if entry.PreviousHash != previous {
			return fmt.Errorf("%w: entry %d previous hash mismatch", ErrChainBroken, i)
		}
		if entry.PayloadHash != computeHash(entry.Payload) {
			return fmt.Errorf("%w: entry %d payload hash mismatch", ErrChainBroken, i)
		}
		recomputed, err := computeEntryHash(entry)
		if err != nil {
			return err
		}
		if recomputed != entry.EntryHash {
			return fmt.Errorf("%w: entry %d entry hash mismatch", ErrChainBroken, i)
		}
		previous = entry.EntryHash
	}
	if previous != head {
		return fmt.Errorf("%w: chain head mismatch", ErrChainBroken)
	}
	return nil
}

func computeHash(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}

func computeEntryHash(entry *AuditEntry) (string, error) {
	hashable := struct {
		Sequence     uint64      `json:"sequence"`
		Timestamp    time.Time   `json:"timestamp"`
		Action       AuditAction `json:"action"`
		SubjectID    string      `json:"subject_id"`
		Caller       string      `json:"caller"`
		PayloadHash  string      `json:"payload_hash"`
		PreviousHash string      `json:"previous_hash"`
	}{
		Sequence:     entry.Sequence,
		Timestamp:    entry.Timestamp,
		Action:       entry.Action,
		SubjectID:    entry.SubjectID,
		Caller:       entry.Caller,
		PayloadHash:  entry.PayloadHash,
		PreviousHash: entry.PreviousHash,
	}
	data, err := json.Marshal(hashable)
	if err != nil {
		return "", fmt.Errorf("marshal entry for hashing: %w", err)
	}
	canonical, err := jcs.Transform(data)
	if err != nil {
		return "", fmt.Errorf("canonicalize entry for hashing: %w", err)
	}
	return computeHash(canonical), nil
}
