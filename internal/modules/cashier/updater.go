package cashier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/georgemunganga/qrpay/internal/metrics"
	"github.com/georgemunganga/qrpay/internal/modules/document"
	"github.com/georgemunganga/qrpay/internal/modules/events"
	"github.com/georgemunganga/qrpay/internal/modules/status"
)

// Commit retry schedule.
const (
	retryInitialInterval = 100 * time.Millisecond
	retryMaxInterval     = 2 * time.Second
)

// Options configures an Updater.
type Options struct {
	TerminalID string
	// Retries is the number of extra commit attempts after a failed write.
	Retries   int
	Publisher events.Publisher
}

// Updater is one cashier terminal. It owns its scanner and its selection and handles a
// single scan at a time.
type Updater struct {
	id         string
	store      document.Store
	scanner    Scanner
	publisher  events.Publisher
	retries    int
	newBackOff func() backoff.BackOff

	mu        sync.Mutex
	state     State
	opened    bool
	txID      string
	selection status.PaymentStatus
	lastErr   error
}

func NewUpdater(store document.Store, scanner Scanner, opts Options) *Updater {
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &Updater{
		id:         opts.TerminalID,
		store:      store,
		scanner:    scanner,
		publisher:  opts.Publisher,
		retries:    opts.Retries,
		newBackOff: newExponentialBackOff,
		state:      StateIdle,
	}
}

func newExponentialBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = 0
	return b
}

// Open acquires the scanner and starts scanning.
func (u *Updater) Open() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.scanner.Acquire(); err != nil {
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	if err := u.scanner.Start(); err != nil {
		u.scanner.Release()
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	u.opened = true
	u.state = StateIdle
	return nil
}

// HandleScan validates a decoded payload. The scanner is stopped on the first scan it
// accepts; scans arriving while it is stopped are dropped without validation.
func (u *Updater) HandleScan(ctx context.Context, payload string) error {
	u.mu.Lock()
	if !u.opened || u.state != StateIdle || !u.scanner.Running() {
		u.mu.Unlock()
		metrics.Scans.WithLabelValues("paused").Inc()
		return ErrScannerPaused
	}
	u.scanner.Stop()
	u.state = StateValidating

	if !strings.Contains(payload, PayloadMarker) {
		u.state = StateError
		u.lastErr = fmt.Errorf("%w: %q", ErrInvalidPayload, payload)
		err := u.lastErr
		u.mu.Unlock()
		metrics.Scans.WithLabelValues("invalid").Inc()
		log.Debug().Str("terminal_id", u.id).Str("payload", payload).Msg("rejected scan")
		return err
	}

	u.txID = payload
	u.selection = status.InProgress
	u.lastErr = nil
	u.state = StateSelecting
	u.mu.Unlock()

	metrics.Scans.WithLabelValues("accepted").Inc()
	ev := events.New(events.QRScanned, payload)
	ev.TerminalID = u.id
	events.Emit(ctx, u.publisher, ev)
	return nil
}

// Select changes the operator's choice while a transaction is selected.
func (u *Updater) Select(st status.PaymentStatus) error {
	if !status.IsSelectable(st) {
		return fmt.Errorf("%w: %s", ErrNotSelectable, st)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != StateSelecting {
		return fmt.Errorf("%w: select while %s", ErrWrongState, u.state)
	}
	u.selection = st
	return nil
}

// SelectLabel selects the status shown with label.
func (u *Updater) SelectLabel(label string) error {
	st, err := status.ParseLabel(label)
	if err != nil {
		return err
	}
	return u.Select(st)
}

// SelectCode selects the status stored as code.
func (u *Updater) SelectCode(code int) error {
	st, err := status.ParseCode(code)
	if err != nil {
		return err
	}
	return u.Select(st)
}

// Confirm merge-writes the selection to the transaction's record. On success the terminal
// returns to Idle and scans again; on failure it moves to Error and keeps the cause.
func (u *Updater) Confirm(ctx context.Context) error {
	u.mu.Lock()
	if u.state != StateSelecting {
		state := u.state
		u.mu.Unlock()
		return fmt.Errorf("%w: confirm while %s", ErrWrongState, state)
	}
	u.state = StateCommitting
	txID, selection := u.txID, u.selection
	u.mu.Unlock()

	err := u.commit(ctx, txID, selection)
	metrics.Commits.WithLabelValues(selection.String(), metrics.Result(err)).Inc()

	u.mu.Lock()
	if err != nil {
		u.state = StateError
		u.lastErr = err
		u.mu.Unlock()
		log.Warn().Err(err).Str("terminal_id", u.id).Str("transaction_id", txID).Msg("status commit failed")
		return err
	}
	u.reset()
	u.mu.Unlock()

	code, label := status.Encode(selection)
	ev := events.New(events.StatusCommitted, txID).WithStatus(code, label)
	ev.TerminalID = u.id
	events.Emit(ctx, u.publisher, ev)
	return nil
}

func (u *Updater) commit(ctx context.Context, txID string, selection status.PaymentStatus) error {
	code, _ := status.Encode(selection)
	path := document.Path(txID)
	fields := map[string]int{document.StatusField: code}

	attempt := 0
	op := func() error {
		attempt++
		err := u.store.SetMerge(ctx, path, fields)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !(errors.Is(err, document.ErrStore) || errors.Is(err, document.ErrTimeout)) {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(u.newBackOff(), uint64(u.retries)), ctx)
	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		log.Debug().Err(err).Str("path", path).Int("attempt", attempt).Dur("retry_in", wait).Msg("retrying status commit")
	})
	if err == nil || errors.Is(err, document.ErrStore) || errors.Is(err, document.ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", document.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", document.ErrStore, err)
}

// Cancel drops the scanned transaction without writing and resumes scanning.
func (u *Updater) Cancel() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != StateSelecting {
		return fmt.Errorf("%w: cancel while %s", ErrWrongState, u.state)
	}
	u.reset()
	return nil
}

// Resume leaves the Error state and resumes scanning.
func (u *Updater) Resume() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	switch u.state {
	case StateIdle:
		return nil
	case StateError:
		u.reset()
		return nil
	}
	return fmt.Errorf("%w: resume while %s", ErrWrongState, u.state)
}

// reset returns to Idle and restarts the scanner. Callers hold u.mu.
func (u *Updater) reset() {
	u.state = StateIdle
	u.txID = ""
	u.selection = status.PaymentStatus{}
	u.lastErr = nil
	if u.opened {
		if err := u.scanner.Start(); err != nil {
			u.state = StateError
			u.lastErr = fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
		}
	}
}

// Close releases the scanner. The terminal accepts no further scans.
func (u *Updater) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.opened {
		return
	}
	u.opened = false
	u.scanner.Stop()
	u.scanner.Release()
}

func (u *Updater) ID() string { return u.id }

func (u *Updater) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Selection reports the current choice and whether a transaction is being handled.
func (u *Updater) Selection() (txID string, st status.PaymentStatus, ok bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != StateSelecting && u.state != StateCommitting {
		return "", status.PaymentStatus{}, false
	}
	return u.txID, u.selection, true
}

// Err is the cause of the current Error state.
func (u *Updater) Err() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastErr
}

func (u *Updater) View() TerminalView {
	u.mu.Lock()
	defer u.mu.Unlock()
	v := TerminalView{
		ID:            u.id,
		State:         u.state,
		Scanning:      u.opened && u.scanner.Running(),
		TransactionID: u.txID,
	}
	if u.state == StateSelecting || u.state == StateCommitting {
		sel := u.selection.View()
		v.Selection = &sel
	}
	if u.lastErr != nil {
		v.Error = u.lastErr.Error()
	}
	return v
}
