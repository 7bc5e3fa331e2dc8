package api

import (
	"context"
	"errors"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

type callerKey struct{}

// WithCaller attaches the authenticated caller identity to the context.
// Populated by the auth middleware.
func WithCaller(ctx context.Context, caller contracts.Identity) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom retrieves the authenticated caller from the context.
func CallerFrom(ctx context.Context) (contracts.Identity, error) {
	caller, ok := ctx.Value(callerKey{}).(contracts.Identity)
	if !ok || caller == "" {
		return "", errors.New("no caller in context")
	}
	return caller, nil
}
