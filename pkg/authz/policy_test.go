package authz

import (
	"errors"
	"testing"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

const (
	council   = contracts.Identity("0xc0unc11")
	guardian  = contracts.Identity("0x9uard1an")
	proposer  = contracts.Identity("0xpr0p0ser")
	stranger  = contracts.Identity("0x5tranger")
)

func TestAuthorizeTable(t *testing.T) {
	policy := NewPolicy(council, guardian)

	cases := []struct {
		name    string
		op      Operation
		caller  contracts.Identity
		allowed bool
	}{
		{"propose anyone", OpPropose, stranger, true},
		{"approve council", OpApprove, council, true},
		{"approve guardian denied", OpApprove, guardian, false},
		{"approve proposer denied", OpApprove, proposer, false},
		{"cancel proposer", OpCancel, proposer, true},
		{"cancel council", OpCancel, council, true},
		{"cancel guardian", OpCancel, guardian, true},
		{"cancel stranger denied", OpCancel, stranger, false},
		{"update council", OpUpdateParams, council, true},
		{"update guardian denied", OpUpdateParams, guardian, false},
		{"freeze council", OpFreeze, council, true},
		{"freeze guardian", OpFreeze, guardian, true},
		{"freeze stranger denied", OpFreeze, stranger, false},
		{"unfreeze council", OpUnfreeze, council, true},
		{"unfreeze guardian denied", OpUnfreeze, guardian, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Authorize(tc.op, tc.caller, proposer)
			if tc.allowed && err != nil {
				t.Fatalf("expected allow, got %v", err)
			}
			if !tc.allowed {
				var uerr *contracts.UnauthorizedError
				if !errors.As(err, &uerr) {
					t.Fatalf("expected UnauthorizedError, got %v", err)
				}
				if uerr.Operation != string(tc.op) {
					t.Fatalf("expected operation %s in error, got %s", tc.op, uerr.Operation)
				}
				if uerr.Caller != tc.caller {
					t.Fatalf("expected caller %s in error, got %s", tc.caller, uerr.Caller)
				}
			}
		})
	}
}

func TestUnknownOperationDenied(t *testing.T) {
	policy := NewPolicy(council, guardian)
	if err := policy.Authorize(Operation("transfer_roles"), council, proposer); err == nil {
		t.Fatal("unknown operations must fail closed")
	}
}
