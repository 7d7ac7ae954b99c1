package qrcode

import (
	"errors"
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"
)

// ErrEncode is returned when a payload cannot be rendered as a QR image.
var ErrEncode = errors.New("qr image could not be produced")

// DefaultScale matches the 7x transform the mobile clients apply to the raw symbol.
const DefaultScale = 7

// Image is a rendered QR code.
type Image struct {
	Payload string
	PNG     []byte
	// Modules is the symbol width in modules, quiet zone included.
	Modules int
	Size    int
}

// Encoder renders payloads as QR images.
type Encoder interface {
	Encode(payload string) (*Image, error)
	// Text renders the symbol with block characters for terminals.
	Text(payload string) (string, error)
}

type goQREncoder struct {
	scale int
	level goqrcode.RecoveryLevel
}

// NewEncoder returns an encoder that draws each module as scale x scale pixels.
func NewEncoder(scale int) Encoder {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &goQREncoder{scale: scale, level: goqrcode.Medium}
}

func (e *goQREncoder) Encode(payload string) (*Image, error) {
	q, err := e.symbol(payload)
	if err != nil {
		return nil, err
	}
	modules := len(q.Bitmap())
	size := modules * e.scale
	png, err := q.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return &Image{Payload: payload, PNG: png, Modules: modules, Size: size}, nil
}

func (e *goQREncoder) Text(payload string) (string, error) {
	q, err := e.symbol(payload)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}

func (e *goQREncoder) symbol(payload string) (*goqrcode.QRCode, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrEncode)
	}
	q, err := goqrcode.New(payload, e.level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return q, nil
}
