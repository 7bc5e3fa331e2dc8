// Package policy evaluates optional CEL admission rules at propose time.
// Rules run before any record is stored; a deny surfaces as
// contracts.PolicyDeniedError and nothing is persisted. With no rules
// configured the policy admits everything.
package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

// Admission holds compiled CEL programs. Every rule must evaluate to true
// for a proposal to be admitted.
type Admission struct {
	rules    []string
	programs []cel.Program
}

// NewAdmission compiles the rules. Each rule sees three variables:
// subject (string), proposer (string), and params (map with ltv,
// liquidation_threshold, supply_cap, borrow_cap, borrow_enabled).
func NewAdmission(rules []string) (*Admission, error) {
	env, err := cel.NewEnv(
		cel.Variable("subject", cel.StringType),
		cel.Variable("proposer", cel.StringType),
		cel.Variable("params", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	programs := make([]cel.Program, 0, len(rules))
	for i, rule := range rules {
		ast, issues := env.Compile(rule)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compile admission rule %d: %w", i, issues.Err())
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("build admission rule %d: %w", i, err)
		}
		programs = append(programs, program)
	}
	return &Admission{rules: rules, programs: programs}, nil
}

// Check evaluates every rule against the proposal input. The first rule
// that evaluates to false (or fails to evaluate) denies admission.
func (a *Admission) Check(subjectID string, proposer contracts.Identity, params contracts.RiskParams) error {
	if a == nil || len(a.programs) == 0 {
		return nil
	}

	input := map[string]any{
		"subject":  subjectID,
		"proposer": string(proposer),
		"params": map[string]any{
			"ltv":                   params.LTV,
			"liquidation_threshold": params.LiquidationThreshold,
			"supply_cap":            params.SupplyCap,
			"borrow_cap":            params.BorrowCap,
			"borrow_enabled":        params.BorrowEnabled,
		},
	}

	for i, program := range a.programs {
		out, _, err := program.Eval(input)
		if err != nil {
			return &contracts.PolicyDeniedError{Rule: fmt.Sprintf("%d: %v", i, err)}
		}
		allowed, ok := out.Value().(bool)
		if !ok || !allowed {
			return &contracts.PolicyDeniedError{Rule: a.rules[i]}
		}
	}
	return nil
}
