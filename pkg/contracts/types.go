// Package contracts defines the shared records of the listing steward:
// proposals, risk parameters, the engine collaborator payloads, and the
// error taxonomy every layer reports against.
package contracts

import "time"

// Identity is an opaque caller address. The steward compares identities
// byte-for-byte; it attaches no meaning to their format.
type Identity string

// ProposalState is the lifecycle state of a listing proposal.
type ProposalState string

// ProposalState constants. Pending is the only non-terminal state.
const (
	StatePending   ProposalState = "PENDING"
	StateExecuted  ProposalState = "EXECUTED"
	StateCancelled ProposalState = "CANCELLED"
)

// Terminal reports whether the state admits no further transitions.
func (s ProposalState) Terminal() bool {
	return s == StateExecuted || s == StateCancelled
}

// RiskParams is a full candidate risk configuration for one asset.
// Ratio fields are in basis points (10000 = 100%).
type RiskParams struct {
	LTV                  uint64 `json:"ltv"`
	LiquidationThreshold uint64 `json:"liquidation_threshold"`
	LiquidationBonus     uint64 `json:"liquidation_bonus"`
	ReserveFactor        uint64 `json:"reserve_factor"`

	BorrowEnabled bool `json:"borrow_enabled"`

	// SupplyCap and BorrowCap are in whole tokens. On the live-update path
	// a zero cap means "leave the current cap unchanged"; zeroing a cap is
	// not possible through the steward.
	SupplyCap uint64 `json:"supply_cap"`
	BorrowCap uint64 `json:"borrow_cap"`

	// InterestRateStrategy is an opaque reference the configuration engine
	// resolves; the steward passes it through unmodified.
	InterestRateStrategy string `json:"interest_rate_strategy,omitempty"`
}

// CallContext is auxiliary metadata recorded at propose time and handed to
// the configuration engine unchanged on execution.
type CallContext struct {
	Network string            `json:"network,omitempty"`
	Labels  map[string]string `json:"labels,omitempty"`
}

// Proposal is the central governed entity. Only State mutates after
// creation; everything else is immutable for the life of the record.
type Proposal struct {
	ID        uint64        `json:"id"`
	SubjectID string        `json:"subject_id"`
	Proposer  Identity      `json:"proposer"`
	Params    RiskParams    `json:"params"`
	Context   CallContext   `json:"context"`
	CreatedAt time.Time     `json:"created_at"`
	State     ProposalState `json:"state"`
}

// ListingReceipt is returned by the configuration engine after a
// successful listing. Its identifiers are authoritative; the steward
// threads them back into the Approved event rather than substituting
// placeholders.
type ListingReceipt struct {
	SubjectID     string    `json:"subject_id"`
	PoolTokenID   string    `json:"pool_token_id"`
	DebtTokenID   string    `json:"debt_token_id"`
	InterestModel string    `json:"interest_model,omitempty"`
	ListedAt      time.Time `json:"listed_at"`
}

// SubjectStatus is the configuration engine's view of one subject.
type SubjectStatus struct {
	Listed  bool            `json:"listed"`
	Frozen  bool            `json:"frozen"`
	Receipt *ListingReceipt `json:"receipt,omitempty"`
}

// UpdateEntry is one element of a live risk-parameter update batch.
type UpdateEntry struct {
	SubjectID string     `json:"subject_id"`
	Params    RiskParams `json:"params"`
}
