package store

import (
	"context"
	"sync"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

// MemoryStore is the in-process proposal store. Ids start at 1 and are
// handed out under the same lock that guards the map, so the counter is
// monotonic process-wide.
type MemoryStore struct {
	mu        sync.RWMutex
	proposals map[uint64]contracts.Proposal
	nextID    uint64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{proposals: make(map[uint64]contracts.Proposal)}
}

// Create assigns the next id and stores the record in Pending.
func (s *MemoryStore) Create(ctx context.Context, record contracts.Proposal) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	record.ID = s.nextID
	record.State = contracts.StatePending
	s.proposals[record.ID] = record
	return record.ID, nil
}

// Get returns the record under id.
func (s *MemoryStore) Get(ctx context.Context, id uint64) (contracts.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return contracts.Proposal{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.proposals[id]
	if !ok {
		return contracts.Proposal{}, contracts.ErrNotFound
	}
	return record, nil
}

// SetState transitions id from Pending to next.
func (s *MemoryStore) SetState(ctx context.Context, id uint64, next contracts.ProposalState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.proposals[id]
	if !ok {
		return contracts.ErrNotFound
	}
	if record.State != contracts.StatePending {
		return ErrConflict
	}
	record.State = next
	s.proposals[id] = record
	return nil
}
