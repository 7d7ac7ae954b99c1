package cashier

import (
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/georgemunganga/qrpay/internal/modules/document"
	"github.com/georgemunganga/qrpay/internal/modules/events"
)

// Service hosts cashier terminals for HTTP clients.
type Service interface {
	// OpenTerminal creates a terminal with its own scanner and starts scanning.
	OpenTerminal() (*Updater, error)
	GetTerminal(id string) (*Updater, error)
	// CloseTerminal releases the terminal's scanner and forgets it.
	CloseTerminal(id string) error
	Close()
}

type service struct {
	store      document.Store
	publisher  events.Publisher
	retries    int
	newScanner func() Scanner
	terminals  *lru.Cache[string, *Updater]
}

// NewService keeps at most size open terminals; the least recently used one is closed when
// a new terminal needs room.
func NewService(store document.Store, publisher events.Publisher, retries, size int, newScanner func() Scanner) (Service, error) {
	terminals, err := lru.NewWithEvict[string, *Updater](size, func(_ string, u *Updater) {
		u.Close()
	})
	if err != nil {
		return nil, err
	}
	if newScanner == nil {
		newScanner = func() Scanner { return NewLocalScanner() }
	}
	return &service{
		store:      store,
		publisher:  publisher,
		retries:    retries,
		newScanner: newScanner,
		terminals:  terminals,
	}, nil
}

func (s *service) OpenTerminal() (*Updater, error) {
	u := NewUpdater(s.store, s.newScanner(), Options{
		TerminalID: uuid.NewString(),
		Retries:    s.retries,
		Publisher:  s.publisher,
	})
	if err := u.Open(); err != nil {
		return nil, err
	}
	s.terminals.Add(u.ID(), u)
	return u, nil
}

func (s *service) GetTerminal(id string) (*Updater, error) {
	u, ok := s.terminals.Get(id)
	if !ok {
		return nil, ErrTerminalNotFound
	}
	return u, nil
}

func (s *service) CloseTerminal(id string) error {
	if !s.terminals.Remove(id) {
		return ErrTerminalNotFound
	}
	return nil
}

func (s *service) Close() {
	s.terminals.Purge()
}
