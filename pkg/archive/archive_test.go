package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cairn-Labs/listing-steward/pkg/store"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	hash, err := fs.Store(ctx, []byte(`{"hello":"world"}`))
	require.NoError(t, err)
	assert.Contains(t, hash, "sha256:")

	// Idempotent re-store.
	again, err := fs.Store(ctx, []byte(`{"hello":"world"}`))
	require.NoError(t, err)
	assert.Equal(t, hash, again)

	ok, err := fs.Exists(ctx, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := fs.Get(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"hello":"world"}`), data)
}

func TestFileStoreRejectsBadHash(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = fs.Get(ctx, "md5:abc")
	assert.Error(t, err)

	_, err = fs.Get(ctx, "sha256:not-hex")
	assert.Error(t, err)
}

func TestExporterRoundTrip(t *testing.T) {
	audit := store.NewAuditLog().WithClock(fixedClock)
	_, err := audit.Append(store.AuditProposed, "asset-1", "0xa11ce", map[string]any{"proposal_id": 1})
	require.NoError(t, err)
	_, err = audit.Append(store.AuditExecuted, "asset-1", "0xc0unc11", map[string]any{"proposal_id": 1})
	require.NoError(t, err)

	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	exporter := NewExporter(audit, fs).WithClock(fixedClock)
	ctx := context.Background()

	hash, err := exporter.Export(ctx)
	require.NoError(t, err)

	snapshot, err := exporter.Load(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, audit.ChainHead(), snapshot.ChainHead)
	require.Len(t, snapshot.Entries, 2)
	assert.Equal(t, store.AuditProposed, snapshot.Entries[0].Action)

	// Unchanged chain exports to the same address.
	again, err := exporter.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, hash, again)
}

func TestFactoryDefaultsToFS(t *testing.T) {
	t.Setenv("ARCHIVE_STORAGE_TYPE", "")
	t.Setenv("DATA_DIR", t.TempDir())

	blobs, err := NewStoreFromEnv(context.Background())
	require.NoError(t, err)
	_, ok := blobs.(*FileStore)
	assert.True(t, ok)
}

func TestFactoryRejectsUnknownType(t *testing.T) {
	t.Setenv("ARCHIVE_STORAGE_TYPE", "tape")
	_, err := NewStoreFromEnv(context.Background())
	assert.Error(t, err)
}

func TestFactoryS3RequiresBucket(t *testing.T) {
	t.Setenv("ARCHIVE_STORAGE_TYPE", "s3")
	t.Setenv("ARCHIVE_S3_BUCKET", "")
	_, err := NewStoreFromEnv(context.Background())
	assert.Error(t, err)
}
