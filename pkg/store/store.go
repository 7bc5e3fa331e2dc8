// Package store persists proposal records and the append-only audit
// chain. Proposal ids are monotonically increasing integers assigned at
// creation and never reused; records are never deleted.
package store

import (
	"context"
	"errors"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

// ErrConflict indicates a state transition raced with another writer:
// the record was not in the expected prior state.
var ErrConflict = errors.New("proposal state conflict")

// ProposalStore is the authoritative proposal registry.
type ProposalStore interface {
	// Create assigns the next id, persists the record in Pending, and
	// returns the id. The record's ID and State fields are overwritten.
	Create(ctx context.Context, record contracts.Proposal) (uint64, error)

	// Get returns the record under id, or contracts.ErrNotFound.
	Get(ctx context.Context, id uint64) (contracts.Proposal, error)

	// SetState transitions id from the Pending state to next. It returns
	// contracts.ErrNotFound for unknown ids and ErrConflict when the
	// record is no longer Pending. Internal to the lifecycle engine.
	SetState(ctx context.Context, id uint64, next contracts.ProposalState) error
}
