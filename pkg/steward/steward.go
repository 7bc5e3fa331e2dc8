// Package steward implements the governed proposal lifecycle: any party
// may propose a listing, the proposal sits through a mandatory delay and
// veto window, and only the configured approver can execute it. The
// emergency responder can cancel and freeze, but never execute or
// unfreeze.
//
// All shared mutation happens inside this package's transition functions;
// the validator and the authorization policy are pure. Every failure is
// surfaced synchronously to the caller; the steward never retries.
package steward

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gowebpki/jcs"

	"github.com/Cairn-Labs/listing-steward/pkg/authz"
	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
	"github.com/Cairn-Labs/listing-steward/pkg/events"
	"github.com/Cairn-Labs/listing-steward/pkg/policy"
	"github.com/Cairn-Labs/listing-steward/pkg/registry"
	"github.com/Cairn-Labs/listing-steward/pkg/riskparams"
	"github.com/Cairn-Labs/listing-steward/pkg/signing"
	"github.com/Cairn-Labs/listing-steward/pkg/store"
)

// ProposalDelay is the mandatory window between proposal creation and
// eligibility for approval. Cancellation is allowed at any time inside
// the window; execution never before it closes.
const ProposalDelay = 24 * time.Hour

// Steward orchestrates proposal transitions. Role identities are fixed at
// construction; no runtime reconfiguration exists.
type Steward struct {
	store     store.ProposalStore
	engine    registry.ConfigEngine
	policy    *authz.Policy
	admission *policy.Admission
	audit     *store.AuditLog
	emitter   events.Emitter
	signer    signing.KeyProvider
	clock     Clock
	delay     time.Duration
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// Option customizes a Steward at construction.
type Option func(*Steward)

// WithClock injects an authority clock. Used by tests.
func WithClock(clock Clock) Option {
	return func(s *Steward) { s.clock = clock }
}

// WithDelay overrides the proposal delay. Used by deployments that run a
// different governance cadence; the default is ProposalDelay.
func WithDelay(delay time.Duration) Option {
	return func(s *Steward) { s.delay = delay }
}

// WithAdmission installs CEL admission rules evaluated at propose time.
func WithAdmission(admission *policy.Admission) Option {
	return func(s *Steward) { s.admission = admission }
}

// WithAudit installs the audit log.
func WithAudit(audit *store.AuditLog) Option {
	return func(s *Steward) { s.audit = audit }
}

// WithEmitter installs the event emitter.
func WithEmitter(emitter events.Emitter) Option {
	return func(s *Steward) { s.emitter = emitter }
}

// WithSigner installs the receipt signer for Approved events.
func WithSigner(signer signing.KeyProvider) Option {
	return func(s *Steward) { s.signer = signer }
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Steward) { s.logger = logger }
}

// New creates a Steward over the proposal store, the configuration engine
// collaborator, and the fixed authorization policy.
func New(proposals store.ProposalStore, engine registry.ConfigEngine, policy *authz.Policy, opts ...Option) *Steward {
	s := &Steward{
		store:   proposals,
		engine:  engine,
		policy:  policy,
		emitter: events.NewLogEmitter(nil),
		clock:   wallClock{},
		delay:   ProposalDelay,
		logger:  slog.Default().With("component", "steward"),
		locks:   make(map[uint64]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Propose validates and stores a new listing proposal in Pending. Open to
// any caller; no authorization check. Nothing is persisted when
// validation or admission fails.
func (s *Steward) Propose(ctx context.Context, subjectID string, params contracts.RiskParams, callCtx contracts.CallContext, caller contracts.Identity) (contracts.Proposal, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return contracts.Proposal{}, contracts.ErrInvalidSubject
	}
	if err := riskparams.Validate(params); err != nil {
		return contracts.Proposal{}, err
	}
	if err := s.admission.Check(subjectID, caller, params); err != nil {
		return contracts.Proposal{}, err
	}

	record := contracts.Proposal{
		SubjectID: subjectID,
		Proposer:  caller,
		Params:    params,
		Context:   callCtx,
		CreatedAt: s.clock.Now().UTC(),
		State:     contracts.StatePending,
	}
	id, err := s.store.Create(ctx, record)
	if err != nil {
		return contracts.Proposal{}, fmt.Errorf("store proposal: %w", err)
	}
	record.ID = id

	s.recordAudit(store.AuditProposed, subjectID, caller, record)
	s.emit(ctx, contracts.Event{
		Name:       contracts.EventProposed,
		ProposalID: id,
		SubjectID:  subjectID,
		Caller:     caller,
		At:         record.CreatedAt,
	})
	return record, nil
}

// Approve executes a pending proposal once the delay has elapsed. The
// engine listing call runs before the state transition: the record only
// advances to Executed after the engine confirms success, and the per-id
// lock makes the check-call-transition sequence atomic against concurrent
// approve/cancel on the same proposal.
func (s *Steward) Approve(ctx context.Context, id uint64, caller contracts.Identity) (contracts.ListingReceipt, error) {
	unlock := s.lock(id)
	defer unlock()

	record, err := s.store.Get(ctx, id)
	if err != nil {
		return contracts.ListingReceipt{}, err
	}
	if record.State.Terminal() {
		return contracts.ListingReceipt{}, contracts.ErrAlreadyTerminal
	}

	now := s.clock.Now()
	if now.Before(record.CreatedAt.Add(s.delay)) {
		return contracts.ListingReceipt{}, contracts.ErrDelayNotElapsed
	}
	if err := s.policy.Authorize(authz.OpApprove, caller, record.Proposer); err != nil {
		return contracts.ListingReceipt{}, err
	}

	receipt, err := s.engine.ListAsset(ctx, record.Context, record.SubjectID, record.Params)
	if err != nil {
		return contracts.ListingReceipt{}, &contracts.EngineError{Operation: "list_asset", Err: err}
	}

	if err := s.store.SetState(ctx, id, contracts.StateExecuted); err != nil {
		// The asset is listed but the record could not advance. Surface
		// loudly: the operator must reconcile, the steward never retries.
		s.logger.Error("listing succeeded but state transition failed",
			"proposal_id", id, "subject_id", record.SubjectID, "error", err)
		return contracts.ListingReceipt{}, fmt.Errorf("mark proposal executed: %w", err)
	}

	event := contracts.Event{
		Name:       contracts.EventApproved,
		ProposalID: id,
		SubjectID:  record.SubjectID,
		Caller:     caller,
		Receipt:    &receipt,
		At:         now.UTC(),
	}
	event.Signature = s.signEvent(event)

	s.recordAudit(store.AuditExecuted, record.SubjectID, caller, map[string]any{
		"proposal_id": id,
		"receipt":     receipt,
	})
	s.emit(ctx, event)
	return receipt, nil
}

// Cancel terminates a pending proposal. Allowed for the original
// proposer, the approver, and the emergency responder, at any time before
// execution. The delay never applies to cancellation.
func (s *Steward) Cancel(ctx context.Context, id uint64, caller contracts.Identity) error {
	unlock := s.lock(id)
	defer unlock()

	record, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if record.State.Terminal() {
		return contracts.ErrAlreadyTerminal
	}
	if err := s.policy.Authorize(authz.OpCancel, caller, record.Proposer); err != nil {
		return err
	}

	if err := s.store.SetState(ctx, id, contracts.StateCancelled); err != nil {
		return fmt.Errorf("mark proposal cancelled: %w", err)
	}

	s.recordAudit(store.AuditCancelled, record.SubjectID, caller, map[string]any{"proposal_id": id})
	s.emit(ctx, contracts.Event{
		Name:       contracts.EventCancelled,
		ProposalID: id,
		SubjectID:  record.SubjectID,
		Caller:     caller,
		At:         s.clock.Now().UTC(),
	})
	return nil
}

// UpdateRiskParams applies a batch of live parameter updates. Every entry
// is checked for authorization, subject activity and parameter bounds
// before the first engine call, so a client error can never leave the
// batch half-applied. An engine failure mid-batch still aborts at the
// failing entry; earlier entries stay applied and the error names the
// failing subject.
func (s *Steward) UpdateRiskParams(ctx context.Context, entries []contracts.UpdateEntry, caller contracts.Identity) error {
	if err := s.policy.Authorize(authz.OpUpdateParams, caller, ""); err != nil {
		return err
	}

	for _, entry := range entries {
		subject := strings.TrimSpace(entry.SubjectID)
		if subject == "" {
			return contracts.ErrInvalidSubject
		}
		if err := riskparams.Validate(entry.Params); err != nil {
			return err
		}
		status, err := s.engine.Status(ctx, subject)
		if err != nil {
			return &contracts.EngineError{Operation: "status", Err: err}
		}
		if !status.Listed {
			return fmt.Errorf("%w: %s", contracts.ErrSubjectNotActive, subject)
		}
	}

	for _, entry := range entries {
		subject := strings.TrimSpace(entry.SubjectID)
		if err := s.engine.UpdateRiskParams(ctx, subject, entry.Params); err != nil {
			return &contracts.EngineError{
				Operation: "update_risk_params",
				Err:       fmt.Errorf("subject %s: %w", subject, err),
			}
		}
		s.recordAudit(store.AuditParamsUpdated, subject, caller, entry.Params)
		s.emit(ctx, contracts.Event{
			Name:      contracts.EventParamsUpdated,
			SubjectID: subject,
			Caller:    caller,
			At:        s.clock.Now().UTC(),
		})
	}
	return nil
}

// Freeze halts operations on a listed subject immediately. Available to
// both the approver and the emergency responder; no delay applies.
func (s *Steward) Freeze(ctx context.Context, subjectID string, caller contracts.Identity) error {
	return s.setFrozen(ctx, subjectID, caller, true)
}

// Unfreeze resumes operations. Approver only: the emergency responder can
// stop damage but cannot unilaterally resume operation.
func (s *Steward) Unfreeze(ctx context.Context, subjectID string, caller contracts.Identity) error {
	return s.setFrozen(ctx, subjectID, caller, false)
}

// Proposal returns the stored record for id.
func (s *Steward) Proposal(ctx context.Context, id uint64) (contracts.Proposal, error) {
	return s.store.Get(ctx, id)
}

func (s *Steward) setFrozen(ctx context.Context, subjectID string, caller contracts.Identity, frozen bool) error {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return contracts.ErrInvalidSubject
	}

	op := authz.OpFreeze
	if !frozen {
		op = authz.OpUnfreeze
	}
	if err := s.policy.Authorize(op, caller, ""); err != nil {
		return err
	}

	status, err := s.engine.Status(ctx, subjectID)
	if err != nil {
		return &contracts.EngineError{Operation: "status", Err: err}
	}
	if !status.Listed {
		return fmt.Errorf("%w: %s", contracts.ErrSubjectNotActive, subjectID)
	}
	if err := s.engine.SetFrozen(ctx, subjectID, frozen); err != nil {
		return &contracts.EngineError{Operation: "set_frozen", Err: err}
	}

	action := store.AuditFrozen
	name := contracts.EventFrozen
	if !frozen {
		action = store.AuditUnfrozen
		name = contracts.EventUnfrozen
	}
	s.recordAudit(action, subjectID, caller, map[string]any{"frozen": frozen})
	s.emit(ctx, contracts.Event{
		Name:      name,
		SubjectID: subjectID,
		Caller:    caller,
		At:        s.clock.Now().UTC(),
	})
	return nil
}

// lock returns an unlock function for the per-proposal mutex. Locks are
// kept for the process lifetime; the id space grows by one per proposal,
// matching the store's permanent retention.
func (s *Steward) lock(id uint64) func() {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// recordAudit appends to the audit chain. The store is authoritative;
// an audit failure is logged, not propagated.
func (s *Steward) recordAudit(action store.AuditAction, subjectID string, caller contracts.Identity, payload any) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Append(action, subjectID, string(caller), payload); err != nil {
		s.logger.Error("audit append failed", "action", string(action), "subject_id", subjectID, "error", err)
	}
}

// emit publishes an event. Events are advisory: failures are logged and
// the transition stands.
func (s *Steward) emit(ctx context.Context, event contracts.Event) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Warn("event emission failed", "event", event.Name, "subject_id", event.SubjectID, "error", err)
	}
}

// signEvent signs the canonicalized event body (signature field empty).
// Returns an empty string when no signer is configured.
func (s *Steward) signEvent(event contracts.Event) string {
	if s.signer == nil {
		return ""
	}
	event.Signature = ""
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("event signing failed", "event", event.Name, "error", err)
		return ""
	}
	canonical, err := jcs.Transform(payload)
	if err != nil {
		s.logger.Warn("event signing failed", "event", event.Name, "error", err)
		return ""
	}
	sig, err := s.signer.Sign(canonical)
	if err != nil {
		s.logger.Warn("event signing failed", "event", event.Name, "error", err)
		return ""
	}
	return fmt.Sprintf("%x", sig)
}
