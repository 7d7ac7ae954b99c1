package customer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/georgemunganga/qrpay/internal/metrics"
	"github.com/georgemunganga/qrpay/internal/modules/document"
	"github.com/georgemunganga/qrpay/internal/modules/events"
	"github.com/georgemunganga/qrpay/internal/modules/qrcode"
	"github.com/georgemunganga/qrpay/internal/modules/status"
)

// Session is the customer side of one transaction: it owns the id, the QR image and the
// latest status observed on the shared record.
type Session struct {
	store     document.Store
	encoder   qrcode.Encoder
	publisher events.Publisher
	newID     func() string

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	id        string
	image     *qrcode.Image
	current   status.PaymentStatus
	version   int64
	written   bool
	started   bool
	startedAt time.Time
}

// NewSession prepares a session. Nothing is generated or written until Start.
func NewSession(store document.Store, encoder qrcode.Encoder, publisher events.Publisher) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		store:     store,
		encoder:   encoder,
		publisher: publisher,
		newID:     NewTransactionID,
		ctx:       ctx,
		cancel:    cancel,
		current:   status.Waiting,
	}
}

// Start generates the transaction id, renders it and writes the initial Waiting record.
// When the image cannot be produced the status becomes a DecodeError and nothing is written.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.started = true
	s.startedAt = time.Now().UTC()
	s.id = s.newID()
	id := s.id
	s.mu.Unlock()

	img, err := s.encoder.Encode(id)
	if err != nil {
		s.setStatus(status.DecodeError(MsgEncodeFailed))
		metrics.SessionsStarted.WithLabelValues("encode_error").Inc()
		log.Warn().Err(err).Str("transaction_id", id).Msg("qr encode failed")
		return fmt.Errorf("rendering %s: %w", id, err)
	}

	s.mu.Lock()
	s.image = img
	s.mu.Unlock()

	code, _ := status.Encode(status.Waiting)
	if err := s.store.SetMerge(ctx, document.Path(id), map[string]int{document.StatusField: code}); err != nil {
		metrics.SessionsStarted.WithLabelValues("store_error").Inc()
		return fmt.Errorf("writing initial status for %s: %w", id, err)
	}

	s.mu.Lock()
	s.written = true
	s.mu.Unlock()
	metrics.SessionsStarted.WithLabelValues("ok").Inc()

	ev := events.New(events.QRGenerated, id)
	ev.ImageBytes = len(img.PNG)
	events.Emit(ctx, s.publisher, ev)

	log.Debug().Str("transaction_id", id).Int("modules", img.Modules).Msg("session started")
	return nil
}

// ObserveStatus streams the decoded status of the record in store order. Every call opens a
// new stream. It closes when ctx is done or the session is closed.
func (s *Session) ObserveStatus(ctx context.Context) (<-chan status.PaymentStatus, error) {
	s.mu.Lock()
	id, written := s.id, s.written
	s.mu.Unlock()
	if s.ctx.Err() != nil {
		return nil, ErrSessionClosed
	}
	if !written {
		return nil, ErrNotStarted
	}

	subCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)

	snaps, err := s.store.Subscribe(subCtx, document.Path(id))
	if err != nil {
		stop()
		cancel()
		return nil, err
	}

	out := make(chan status.PaymentStatus)
	go func() {
		defer close(out)
		defer stop()
		defer cancel()
		for snap := range snaps {
			st := decodeSnapshot(snap)
			s.observe(snap.Version, st)
			select {
			case out <- st:
			case <-subCtx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Track keeps Status current until the session is closed.
func (s *Session) Track() error {
	ch, err := s.ObserveStatus(s.ctx)
	if err != nil {
		return err
	}
	go func() {
		for range ch {
		}
	}()
	return nil
}

func decodeSnapshot(snap document.Snapshot) status.PaymentStatus {
	code, ok := snap.Int(document.StatusField)
	if !ok {
		return status.DecodeError(MsgReadFailed)
	}
	return status.DecodeFromCode(code)
}

// observe records st unless a newer version was already seen by another stream.
func (s *Session) observe(version int64, st status.PaymentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if version < s.version {
		return
	}
	s.version = version
	s.current = st
}

func (s *Session) setStatus(st status.PaymentStatus) {
	s.mu.Lock()
	s.current = st
	s.mu.Unlock()
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Status returns the latest observed status.
func (s *Session) Status() status.PaymentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Image is nil until Start has rendered the QR code.
func (s *Session) Image() *qrcode.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// Close cancels every stream of the session. The record itself is left in the store.
func (s *Session) Close() {
	s.cancel()
}

func (s *Session) Closed() bool { return s.ctx.Err() != nil }

func (s *Session) View(withImage bool) SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := SessionView{ID: s.id, Payload: s.id, Status: s.current.View(), StartedAt: s.startedAt}
	if s.image != nil {
		v.QRSize = s.image.Size
		if withImage {
			v.QRPNG = s.image.PNG
		}
	}
	return v
}
