package status

import (
	"errors"
	"fmt"
)

// Kind identifies a payment status variant.
type Kind int

const (
	KindWaiting Kind = iota
	KindInProgress
	KindSucceeded
	KindFailed
	KindDecodeError
)

// Stable wire codes stored in the "status" field of a StatusRecord.
const (
	CodeFailed     = -1
	CodeWaiting    = 0
	CodeSucceeded  = 1
	CodeInProgress = 2
)

// Display labels shown to customers and operators.
const (
	LabelWaiting     = ""
	LabelSucceeded   = "Başarılı"
	LabelFailed      = "Başarısız"
	LabelInProgress  = "Devam Ediyor"
	LabelDecodeError = "Qr generate edilirken hata"
)

// Colour is the background colour a client paints behind the status label.
type Colour string

const (
	ColourWhite  Colour = "white"
	ColourYellow Colour = "yellow"
	ColourGreen  Colour = "green"
	ColourRed    Colour = "red"
)

// ErrUnknownStatus is returned by the strict parsers for input outside the closed set.
var ErrUnknownStatus = errors.New("unknown payment status")

// PaymentStatus is the closed set of payment states shared by customer and cashier.
// The zero value is Waiting.
type PaymentStatus struct {
	kind    Kind
	message string
}

var (
	Waiting    = PaymentStatus{kind: KindWaiting}
	InProgress = PaymentStatus{kind: KindInProgress}
	Succeeded  = PaymentStatus{kind: KindSucceeded}
	Failed     = PaymentStatus{kind: KindFailed}
)

// DecodeError builds the error variant carrying a user-facing message.
func DecodeError(message string) PaymentStatus {
	return PaymentStatus{kind: KindDecodeError, message: message}
}

func (s PaymentStatus) Kind() Kind { return s.kind }

// Message is only set on the DecodeError variant.
func (s PaymentStatus) Message() string { return s.message }

func (s PaymentStatus) IsError() bool { return s.kind == KindDecodeError }

// Code returns the wire code. DecodeError has no code of its own and reports CodeFailed.
func (s PaymentStatus) Code() int {
	code, _ := Encode(s)
	return code
}

func (s PaymentStatus) Label() string {
	_, label := Encode(s)
	return label
}

func (s PaymentStatus) String() string {
	switch s.kind {
	case KindWaiting:
		return "waiting"
	case KindInProgress:
		return "in_progress"
	case KindSucceeded:
		return "succeeded"
	case KindFailed:
		return "failed"
	case KindDecodeError:
		return fmt.Sprintf("decode_error(%s)", s.message)
	default:
		return "unknown"
	}
}

func (s PaymentStatus) Colour() Colour {
	switch s.kind {
	case KindInProgress:
		return ColourYellow
	case KindSucceeded:
		return ColourGreen
	case KindFailed:
		return ColourRed
	default:
		return ColourWhite
	}
}

// View is the JSON projection of a status used by the HTTP API.
type View struct {
	Name    string `json:"name"`
	Code    int    `json:"code"`
	Label   string `json:"label"`
	Colour  Colour `json:"colour"`
	Message string `json:"message,omitempty"`
}

func (s PaymentStatus) View() View {
	code, label := Encode(s)
	name := s.String()
	if s.IsError() {
		name = "decode_error"
	}
	return View{Name: name, Code: code, Label: label, Colour: s.Colour(), Message: s.message}
}
