package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

func sampleProposal(subject string) contracts.Proposal {
	return contracts.Proposal{
		SubjectID: subject,
		Proposer:  "0xabc",
		Params:    contracts.RiskParams{LTV: 7000, LiquidationThreshold: 7500},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestMemoryStoreSequentialIDs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for want := uint64(1); want <= 5; want++ {
		id, err := s.Create(ctx, sampleProposal("asset"))
		if err != nil {
			t.Fatal(err)
		}
		if id != want {
			t.Fatalf("expected id %d, got %d", want, id)
		}
	}

	// Cancelling a proposal must not free its id.
	if err := s.SetState(ctx, 3, contracts.StateCancelled); err != nil {
		t.Fatal(err)
	}
	id, err := s.Create(ctx, sampleProposal("asset"))
	if err != nil {
		t.Fatal(err)
	}
	if id != 6 {
		t.Fatalf("ids must never be reused, got %d", id)
	}
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), 99)
	if !errors.Is(err, contracts.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreSetStateCAS(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id, err := s.Create(ctx, sampleProposal("asset"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetState(ctx, id, contracts.StateExecuted); err != nil {
		t.Fatal(err)
	}
	if err := s.SetState(ctx, id, contracts.StateCancelled); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on terminal record, got %v", err)
	}
	record, err := s.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if record.State != contracts.StateExecuted {
		t.Fatalf("state regressed to %s", record.State)
	}
}

func TestMemoryStoreConcurrentTransitions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id, err := s.Create(ctx, sampleProposal("asset"))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	successes := make(chan contracts.ProposalState, 2)
	for _, next := range []contracts.ProposalState{contracts.StateExecuted, contracts.StateCancelled} {
		wg.Add(1)
		go func(next contracts.ProposalState) {
			defer wg.Done()
			if err := s.SetState(ctx, id, next); err == nil {
				successes <- next
			}
		}(next)
	}
	wg.Wait()
	close(successes)

	var won []contracts.ProposalState
	for state := range successes {
		won = append(won, state)
	}
	if len(won) != 1 {
		t.Fatalf("exactly one transition must win, got %d", len(won))
	}
}
