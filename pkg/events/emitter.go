// Package events delivers steward lifecycle events to external
// monitoring. The steward never consumes its own events.
package events

import (
	"context"
	"log/slog"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

// Emitter publishes one event. Emission failures are reported to the
// caller but must not affect the state transition that produced the
// event: the store is authoritative, events are advisory.
type Emitter interface {
	Emit(ctx context.Context, event contracts.Event) error
}

// LogEmitter writes events to structured logs.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates an emitter over logger. If logger is nil,
// slog.Default() is used.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger.With("component", "events")}
}

// Emit logs the event.
func (e *LogEmitter) Emit(ctx context.Context, event contracts.Event) error {
	e.logger.InfoContext(ctx, "steward event",
		"event", event.Name,
		"proposal_id", event.ProposalID,
		"subject_id", event.SubjectID,
		"caller", string(event.Caller),
	)
	return nil
}

// Multi fans one event out to several emitters, returning the first
// failure after attempting all of them.
type Multi []Emitter

// Emit delivers to every emitter.
func (m Multi) Emit(ctx context.Context, event contracts.Event) error {
	var firstErr error
	for _, emitter := range m {
		if err := emitter.Emit(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
