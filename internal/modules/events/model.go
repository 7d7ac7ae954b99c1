package events

import (
	"context"
	"time"
)

// Event names double as routing keys on the topic exchange.
const (
	QRGenerated     = "qr.generated"
	QRScanned       = "qr.scanned"
	StatusCommitted = "status.committed"
)

type Event struct {
	Name          string    `json:"event"`
	TransactionID string    `json:"transaction_id"`
	TerminalID    string    `json:"terminal_id,omitempty"`
	Code          *int      `json:"code,omitempty"`
	Label         string    `json:"label,omitempty"`
	ImageBytes    int       `json:"image_bytes,omitempty"`
	At            time.Time `json:"at"`
}

// Publisher sends analytics events. Publishing is best-effort: callers log a failure and
// carry on, a lost event never fails a payment flow.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// New stamps the event time.
func New(name, transactionID string) Event {
	return Event{Name: name, TransactionID: transactionID, At: time.Now().UTC()}
}

// WithStatus attaches a status code and label.
func (e Event) WithStatus(code int, label string) Event {
	e.Code = &code
	e.Label = label
	return e
}
