package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgemunganga/qrpay/internal/metrics"
)

// Store is the remote document store both roles share.
type Store interface {
	// SetMerge writes the named fields and keeps every other field of the document.
	// The document is created when it does not exist yet.
	SetMerge(ctx context.Context, path string, fields map[string]int) error
	// Get returns ErrNotFound when the document does not exist.
	Get(ctx context.Context, path string) (*Snapshot, error)
	// Subscribe emits the current document, if any, and then every change in store order.
	// The channel is closed once ctx is done.
	Subscribe(ctx context.Context, path string) (<-chan Snapshot, error)
	Close() error
}

// base carries what every driver shares: call deadlines, error classification and fan-out.
type base struct {
	driver  string
	timeout time.Duration
	hub     *hub
}

func newBase(driver string, timeout time.Duration) base {
	return base{driver: driver, timeout: timeout, hub: newHub()}
}

func (b *base) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

func (b *base) fail(op, path string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w: %v", op, path, ErrTimeout, err)
	}
	return fmt.Errorf("%s %s: %w: %v", op, path, ErrStore, err)
}

func (b *base) recordWrite(err error) {
	metrics.StoreWrites.WithLabelValues(b.driver, metrics.Result(err)).Inc()
}

// subscribe registers with the hub before reading the current document so that no change
// between the read and the registration is lost. Duplicates are dropped by version.
func (b *base) subscribe(ctx context.Context, path string, get func(context.Context, string) (*Snapshot, error)) (<-chan Snapshot, error) {
	sub := b.hub.subscribe(ctx, path)

	readCtx, cancel := b.bound(ctx)
	defer cancel()
	snap, err := get(readCtx, path)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		sub.cancel()
		return nil, b.fail("subscribe", path, err)
	default:
		sub.push(*snap)
	}
	return sub.out, nil
}
