package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

// MemoryEngine is an in-process pool backend. It mints receipt
// identifiers itself and honors the keep-current semantics for zero caps.
type MemoryEngine struct {
	mu     sync.Mutex
	assets map[string]*memoryAsset
	clock  func() time.Time
}

type memoryAsset struct {
	params  contracts.RiskParams
	frozen  bool
	receipt contracts.ListingReceipt
}

// NewMemoryEngine creates an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		assets: make(map[string]*memoryAsset),
		clock:  time.Now,
	}
}

// WithClock overrides the clock for deterministic testing.
func (e *MemoryEngine) WithClock(clock func() time.Time) *MemoryEngine {
	e.clock = clock
	return e
}

// ListAsset activates the subject. Listing an already-listed subject is
// rejected here; the steward deliberately does not pre-check this, so the
// error surfaces through the approve path as an engine failure.
func (e *MemoryEngine) ListAsset(ctx context.Context, callCtx contracts.CallContext, subjectID string, params contracts.RiskParams) (contracts.ListingReceipt, error) {
	if err := ctx.Err(); err != nil {
		return contracts.ListingReceipt{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.assets[subjectID]; ok {
		return contracts.ListingReceipt{}, fmt.Errorf("subject %s is already listed", subjectID)
	}

	receipt := contracts.ListingReceipt{
		SubjectID:     subjectID,
		PoolTokenID:   "pool-" + uuid.New().String(),
		DebtTokenID:   "debt-" + uuid.New().String(),
		InterestModel: params.InterestRateStrategy,
		ListedAt:      e.clock().UTC(),
	}
	e.assets[subjectID] = &memoryAsset{params: params, receipt: receipt}
	return receipt, nil
}

// Status reports the subject's listing and frozen flags.
func (e *MemoryEngine) Status(ctx context.Context, subjectID string) (contracts.SubjectStatus, error) {
	if err := ctx.Err(); err != nil {
		return contracts.SubjectStatus{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	asset, ok := e.assets[subjectID]
	if !ok {
		return contracts.SubjectStatus{Listed: false}, nil
	}
	receipt := asset.receipt
	return contracts.SubjectStatus{Listed: true, Frozen: asset.frozen, Receipt: &receipt}, nil
}

// SetFrozen flips the frozen flag on a listed subject.
func (e *MemoryEngine) SetFrozen(ctx context.Context, subjectID string, frozen bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	asset, ok := e.assets[subjectID]
	if !ok {
		return fmt.Errorf("subject %s is not listed", subjectID)
	}
	asset.frozen = frozen
	return nil
}

// UpdateRiskParams replaces live parameters. Zero caps keep the current
// values.
func (e *MemoryEngine) UpdateRiskParams(ctx context.Context, subjectID string, params contracts.RiskParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	asset, ok := e.assets[subjectID]
	if !ok {
		return fmt.Errorf("subject %s is not listed", subjectID)
	}
	if params.SupplyCap == 0 {
		params.SupplyCap = asset.params.SupplyCap
	}
	if params.BorrowCap == 0 {
		params.BorrowCap = asset.params.BorrowCap
	}
	asset.params = params
	return nil
}

// Params returns the live parameters of a listed subject. Test helper.
func (e *MemoryEngine) Params(subjectID string) (contracts.RiskParams, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	asset, ok := e.assets[subjectID]
	if !ok {
		return contracts.RiskParams{}, false
	}
	return asset.params, true
}
