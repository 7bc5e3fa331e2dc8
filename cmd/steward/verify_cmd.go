package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Cairn-Labs/listing-steward/pkg/archive"
	"github.com/Cairn-Labs/listing-steward/pkg/store"
)

// runVerifyCmd re-verifies an exported snapshot, either from a local
// file or from the archive backend by content hash.
func runVerifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		snapshotPath string
		snapshotHash string
		jsonOutput   bool
	)
	cmd.StringVar(&snapshotPath, "snapshot", "", "Path to a snapshot JSON file")
	cmd.StringVar(&snapshotHash, "hash", "", "Content hash of a snapshot in the archive store")
	cmd.BoolVar(&jsonOutput, "json", false, "Output result as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if snapshotPath == "" && snapshotHash == "" {
		fmt.Fprintln(stderr, "Error: --snapshot or --hash is required")
		cmd.Usage()
		return 2
	}

	var data []byte
	var err error
	if snapshotPath != "" {
		data, err = os.ReadFile(snapshotPath)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		var blobs archive.Store
		if blobs, err = archive.NewStoreFromEnv(ctx); err == nil {
			data, err = blobs.Get(ctx, snapshotHash)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error loading snapshot: %v\n", err)
		return 1
	}

	var snapshot archive.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		fmt.Fprintf(stderr, "Error decoding snapshot: %v\n", err)
		return 1
	}

	verifyErr := store.VerifyEntries(snapshot.Entries, snapshot.ChainHead)
	if jsonOutput {
		result := map[string]any{
			"valid":   verifyErr == nil,
			"entries": len(snapshot.Entries),
			"head":    snapshot.ChainHead,
		}
		if verifyErr != nil {
			result["error"] = verifyErr.Error()
		}
		_ = json.NewEncoder(stdout).Encode(result)
	} else if verifyErr != nil {
		fmt.Fprintf(stderr, "Chain verification FAILED: %v\n", verifyErr)
	} else {
		fmt.Fprintf(stdout, "Chain verified: %d entries, head %s\n", len(snapshot.Entries), snapshot.ChainHead)
	}

	if verifyErr != nil {
		return 1
	}
	return 0
}
