package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

func TestLogEmitter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	emitter := NewLogEmitter(logger)
	err := emitter.Emit(context.Background(), contracts.Event{
		Name:       contracts.EventProposed,
		ProposalID: 1,
		SubjectID:  "asset-1",
		Caller:     "0xabc",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("asset-1")) {
		t.Fatal("expected subject id in log output")
	}
	if !bytes.Contains(buf.Bytes(), []byte(contracts.EventProposed)) {
		t.Fatal("expected event name in log output")
	}
}

type recordingEmitter struct {
	events []contracts.Event
	err    error
}

func (r *recordingEmitter) Emit(_ context.Context, event contracts.Event) error {
	r.events = append(r.events, event)
	return r.err
}

func TestMultiEmitsToAll(t *testing.T) {
	failing := &recordingEmitter{err: errors.New("sink down")}
	healthy := &recordingEmitter{}

	err := Multi{failing, healthy}.Emit(context.Background(), contracts.Event{Name: contracts.EventFrozen})
	if err == nil {
		t.Fatal("expected first failure to surface")
	}
	if len(healthy.events) != 1 {
		t.Fatal("later emitters must still receive the event")
	}
}
