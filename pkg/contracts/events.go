package contracts

import "time"

// Event names emitted by the steward. Consumed by external monitoring;
// the steward itself never reads them back.
const (
	EventProposed      = "proposed"
	EventApproved      = "approved"
	EventCancelled     = "cancelled"
	EventParamsUpdated = "risk_parameters_updated"
	EventFrozen        = "emergency_frozen"
	EventUnfrozen      = "emergency_unfrozen"
)

// Event is one monitoring event. Receipt is populated only for approvals,
// where it carries the engine's authoritative identifiers. Signature, when
// present, is a hex Ed25519 signature over the canonicalized event body.
type Event struct {
	Name       string          `json:"name"`
	ProposalID uint64          `json:"proposal_id,omitempty"`
	SubjectID  string          `json:"subject_id"`
	Caller     Identity        `json:"caller"`
	Receipt    *ListingReceipt `json:"receipt,omitempty"`
	At         time.Time       `json:"at"`
	Signature  string          `json:"signature,omitempty"`
}
