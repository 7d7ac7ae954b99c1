package events

import (
	"context"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

type logPublisher struct{}

// NewLogPublisher writes every event to the application log. It is used when no broker is
// configured.
func NewLogPublisher() Publisher { return logPublisher{} }

func (logPublisher) Publish(_ context.Context, ev Event) error {
	entry := log.Info().
		Str("event", ev.Name).
		Str("transaction_id", ev.TransactionID).
		Time("at", ev.At)
	if ev.TerminalID != "" {
		entry = entry.Str("terminal_id", ev.TerminalID)
	}
	if ev.Code != nil {
		entry = entry.Int("code", *ev.Code).Str("label", ev.Label)
	}
	if ev.ImageBytes > 0 {
		entry = entry.Str("image", humanize.Bytes(uint64(ev.ImageBytes)))
	}
	entry.Msg("analytics event")
	return nil
}

func (logPublisher) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Names lists the published event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, ev := range r.events {
		names[i] = ev.Name
	}
	return names
}
