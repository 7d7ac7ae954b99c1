package customer

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/qrpay/internal/modules/status"
)

// IDPrefix carries the payload marker the cashier looks for.
const IDPrefix = "QRP-"

// Messages shown to the customer when the session cannot produce or read its status.
const (
	MsgEncodeFailed = "QR kod oluşturulurken bir hata oluştu"
	MsgReadFailed   = "Veri okunurken bir hata oluştu"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrAlreadyStarted  = errors.New("session already started")
	// ErrNotStarted is returned when the status record was never written.
	ErrNotStarted = errors.New("session has no status record")
)

// NewTransactionID returns a fresh "QRP-<UUID>" id.
func NewTransactionID() string {
	return IDPrefix + strings.ToUpper(uuid.NewString())
}

// SessionView is the JSON projection of a session.
type SessionView struct {
	ID        string      `json:"id"`
	Payload   string      `json:"payload"`
	Status    status.View `json:"status"`
	QRPNG     []byte      `json:"qr_png,omitempty"`
	QRSize    int         `json:"qr_size,omitempty"`
	StartedAt time.Time   `json:"started_at"`
}
