// Package registry defines the configuration-engine collaborator the
// steward calls into, and ships two implementations: an in-memory pool
// backend for development and tests, and an HTTP client for a remote
// configuration service.
//
// The engine is a black box to the steward: ListAsset is side-effecting
// and not idempotent, Status is a pure query, and the steward never
// retries a failed call.
package registry

import (
	"context"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

// ConfigEngine is the external registry collaborator contract.
type ConfigEngine interface {
	// ListAsset activates the subject with the given parameters and
	// returns the receipt with the real identifiers of the created
	// accounting objects. Calling it twice for the same subject is
	// engine-defined behavior.
	ListAsset(ctx context.Context, callCtx contracts.CallContext, subjectID string, params contracts.RiskParams) (contracts.ListingReceipt, error)

	// Status reports whether the subject is listed and/or frozen.
	Status(ctx context.Context, subjectID string) (contracts.SubjectStatus, error)

	// SetFrozen halts or resumes operations on a listed subject.
	SetFrozen(ctx context.Context, subjectID string, frozen bool) error

	// UpdateRiskParams replaces the live risk parameters of a listed
	// subject. Zero caps in params mean "keep the current cap".
	UpdateRiskParams(ctx context.Context, subjectID string, params contracts.RiskParams) error
}
