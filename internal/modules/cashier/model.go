package cashier

import (
	"errors"

	"github.com/georgemunganga/qrpay/internal/modules/status"
)

// PayloadMarker must appear in a scanned payload for it to be treated as a transaction id.
const PayloadMarker = "QRP"

var (
	ErrInvalidPayload    = errors.New("scanned payload is not a transaction code")
	ErrScannerPaused     = errors.New("scanner is paused")
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrWrongState        = errors.New("operation not allowed in current state")
	ErrNotSelectable     = errors.New("status cannot be selected by an operator")
	ErrTerminalNotFound  = errors.New("terminal not found")
)

// State is the position of a terminal in its scan, select and commit cycle.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSelecting
	StateCommitting
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSelecting:
		return "selecting"
	case StateCommitting:
		return "committing"
	case StateError:
		return "error"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// TerminalView is the JSON projection of a terminal.
type TerminalView struct {
	ID            string       `json:"id"`
	State         State        `json:"state"`
	Scanning      bool         `json:"scanning"`
	TransactionID string       `json:"transaction_id,omitempty"`
	Selection     *status.View `json:"selection,omitempty"`
	Error         string       `json:"error,omitempty"`
}

type scanRequest struct {
	Payload string `json:"payload"`
}

// selectRequest carries either a label or a code.
type selectRequest struct {
	Label *string `json:"label"`
	Code  *int    `json:"code"`
}
