// Package authz decides, per steward operation, which callers may invoke
// it. The policy is stateless and evaluated fresh on every call: there is
// no caching and no session concept.
package authz

import "github.com/Cairn-Labs/listing-steward/pkg/contracts"

// Operation names used in authorization decisions and Unauthorized errors.
type Operation string

// Operation constants.
const (
	OpPropose      Operation = "propose"
	OpApprove      Operation = "approve"
	OpCancel       Operation = "cancel"
	OpUpdateParams Operation = "update_risk_params"
	OpFreeze       Operation = "freeze"
	OpUnfreeze     Operation = "unfreeze"
)

// Policy holds the two privileged identities. They are fixed at
// construction and immutable for the lifetime of the process; there is
// deliberately no role-transfer operation.
type Policy struct {
	approver  contracts.Identity
	responder contracts.Identity
}

// NewPolicy builds the policy from the configured Approver (risk council)
// and EmergencyResponder (guardian) identities.
func NewPolicy(approver, responder contracts.Identity) *Policy {
	return &Policy{approver: approver, responder: responder}
}

// Approver returns the configured approver identity.
func (p *Policy) Approver() contracts.Identity { return p.approver }

// EmergencyResponder returns the configured responder identity.
func (p *Policy) EmergencyResponder() contracts.Identity { return p.responder }

// Authorize checks whether caller may invoke op. For OpCancel the original
// proposer is also permitted; pass it in proposer (ignored for every other
// operation). A refusal never partially applies anything: it is returned
// before any state is touched.
func (p *Policy) Authorize(op Operation, caller, proposer contracts.Identity) error {
	allowed := false
	switch op {
	case OpPropose:
		allowed = true
	case OpApprove, OpUpdateParams, OpUnfreeze:
		allowed = caller == p.approver
	case OpCancel:
		allowed = caller == proposer || caller == p.approver || caller == p.responder
	case OpFreeze:
		allowed = caller == p.approver || caller == p.responder
	}
	if !allowed {
		return &contracts.UnauthorizedError{Operation: string(op), Caller: caller}
	}
	return nil
}
