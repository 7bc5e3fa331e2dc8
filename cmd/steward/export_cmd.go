package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Cairn-Labs/listing-steward/pkg/archive"
	"github.com/Cairn-Labs/listing-steward/pkg/store"
)

// runExportCmd pulls the audit chain from a running steward, verifies it
// and writes a content-addressed snapshot to the configured archive
// backend (ARCHIVE_STORAGE_TYPE et al).
func runExportCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("export", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		serverURL  string
		token      string
		outPath    string
		jsonOutput bool
	)
	cmd.StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the running steward")
	cmd.StringVar(&token, "token", "", "Bearer token for the audit endpoints")
	cmd.StringVar(&outPath, "out", "", "Also write the snapshot JSON to this file")
	cmd.BoolVar(&jsonOutput, "json", false, "Output result as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entries, err := fetchEntries(ctx, serverURL, token)
	if err != nil {
		fmt.Fprintf(stderr, "Error fetching audit chain: %v\n", err)
		return 1
	}

	head := "genesis"
	if len(entries) > 0 {
		head = entries[len(entries)-1].EntryHash
	}
	if err := store.VerifyEntries(entries, head); err != nil {
		fmt.Fprintf(stderr, "Refusing to export: %v\n", err)
		return 1
	}

	snapshot := archive.Snapshot{
		ExportedAt: time.Now().UTC(),
		ChainHead:  head,
		Entries:    entries,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "Error serializing snapshot: %v\n", err)
		return 1
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			fmt.Fprintf(stderr, "Error writing %s: %v\n", outPath, err)
			return 1
		}
	}

	blobs, err := archive.NewStoreFromEnv(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening archive store: %v\n", err)
		return 1
	}
	hash, err := blobs.Store(ctx, data)
	if err != nil {
		fmt.Fprintf(stderr, "Error storing snapshot: %v\n", err)
		return 1
	}

	if jsonOutput {
		_ = json.NewEncoder(stdout).Encode(map[string]any{
			"hash":    hash,
			"entries": len(entries),
			"head":    head,
		})
	} else {
		fmt.Fprintf(stdout, "Exported %d entries\n", len(entries))
		fmt.Fprintf(stdout, "Chain head: %s\n", head)
		fmt.Fprintf(stdout, "Snapshot:   %s\n", hash)
	}
	return 0
}

func fetchEntries(ctx context.Context, serverURL, token string) ([]*store.AuditEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/v1/audit", nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
	}

	var entries []*store.AuditEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode audit entries: %w", err)
	}
	return entries, nil
}
