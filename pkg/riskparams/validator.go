// Package riskparams validates candidate risk configurations against the
// steward's static bounds. Validation is pure and total; the same rule set
// gates new-listing proposals and live parameter updates.
package riskparams

import (
	"fmt"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

// Static bounds in basis points. These are module constants, not
// configuration: loosening them is a code change, not an operation.
const (
	// MaxLTV caps loan-to-value at 75.00%.
	MaxLTV uint64 = 7500
	// MaxLiquidationThreshold caps the liquidation threshold at 85.00%.
	MaxLiquidationThreshold uint64 = 8500
	// BpsDenominator is the basis-point scale (10000 = 100%).
	BpsDenominator uint64 = 10000
)

// Validate checks params against the static bounds and the cross-field
// constraint. Checks run in a fixed order (LTV bound, threshold bound,
// then the cross-field rule) and the first violation is the one reported.
func Validate(params contracts.RiskParams) error {
	if params.LTV > MaxLTV {
		return &contracts.ValidationError{
			Field:  "ltv",
			Reason: fmt.Sprintf("%d bps exceeds maximum %d bps", params.LTV, MaxLTV),
		}
	}
	if params.LiquidationThreshold > MaxLiquidationThreshold {
		return &contracts.ValidationError{
			Field:  "liquidation_threshold",
			Reason: fmt.Sprintf("%d bps exceeds maximum %d bps", params.LiquidationThreshold, MaxLiquidationThreshold),
		}
	}
	if params.LTV > params.LiquidationThreshold {
		return &contracts.ValidationError{
			Field:  "ltv",
			Reason: fmt.Sprintf("ltv %d bps exceeds liquidation threshold %d bps", params.LTV, params.LiquidationThreshold),
		}
	}
	return nil
}
