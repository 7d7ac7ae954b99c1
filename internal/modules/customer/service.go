package customer

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/georgemunganga/qrpay/internal/modules/document"
	"github.com/georgemunganga/qrpay/internal/modules/events"
	"github.com/georgemunganga/qrpay/internal/modules/qrcode"
)

// Service hosts customer sessions for HTTP clients.
type Service interface {
	// StartSession creates and starts a session. When the QR image cannot be produced the
	// failed session is returned together with the error so callers can show its status.
	StartSession(ctx context.Context) (*Session, error)

	GetSession(id string) (*Session, error)

	// EndSession closes the session and forgets it. The status record stays in the store.
	EndSession(id string) error

	// Close ends every hosted session.
	Close()
}

type service struct {
	store     document.Store
	encoder   qrcode.Encoder
	publisher events.Publisher
	sessions  *lru.Cache[string, *Session]
}

// NewService keeps at most size sessions; the least recently used one is closed when a new
// session needs room.
func NewService(store document.Store, encoder qrcode.Encoder, publisher events.Publisher, size int) (Service, error) {
	sessions, err := lru.NewWithEvict[string, *Session](size, func(_ string, s *Session) {
		s.Close()
	})
	if err != nil {
		return nil, err
	}
	return &service{store: store, encoder: encoder, publisher: publisher, sessions: sessions}, nil
}

func (s *service) StartSession(ctx context.Context) (*Session, error) {
	sess := NewSession(s.store, s.encoder, s.publisher)
	if err := sess.Start(ctx); err != nil {
		sess.Close()
		if sess.ID() != "" && sess.Status().IsError() {
			return sess, err
		}
		return nil, err
	}
	if err := sess.Track(); err != nil {
		sess.Close()
		return nil, err
	}
	s.sessions.Add(sess.ID(), sess)
	return sess, nil
}

func (s *service) GetSession(id string) (*Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *service) EndSession(id string) error {
	if !s.sessions.Remove(id) {
		return ErrSessionNotFound
	}
	return nil
}

func (s *service) Close() {
	s.sessions.Purge()
}
