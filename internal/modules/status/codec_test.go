package status

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestDecodeFromCodeCanonicalRoundTrip(t *testing.T) {
	for _, code := range []int{-1, 0, 1, 2} {
		first := DecodeFromCode(code)
		encoded, _ := Encode(first)
		if got := DecodeFromCode(encoded); got != first {
			t.Fatalf("code %d: round trip gave %v, want %v", code, got, first)
		}
		if encoded != code {
			t.Fatalf("code %d: encoded back to %d", code, encoded)
		}
	}
}

func TestDecodeFromCodeMapping(t *testing.T) {
	tests := []struct {
		code int
		want PaymentStatus
	}{
		{-1, Failed},
		{0, Waiting},
		{1, Succeeded},
		{2, InProgress},
		{3, Waiting},
		{-2, Waiting},
		{42, Waiting},
		{-1 << 31, Waiting},
	}
	for _, tt := range tests {
		if got := DecodeFromCode(tt.code); got != tt.want {
			t.Errorf("DecodeFromCode(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestDecodeFromLabel(t *testing.T) {
	tests := []struct {
		label string
		want  PaymentStatus
	}{
		{"Başarılı", Succeeded},
		{"Başarısız", Failed},
		{"Devam Ediyor", InProgress},
		{"", Waiting},
		{"basarili", InProgress},
		{"Succeeded", InProgress},
		{"Başarılı ", InProgress},
		{"Qr generate edilirken hata", InProgress},
	}
	for _, tt := range tests {
		if got := DecodeFromLabel(tt.label); got != tt.want {
			t.Errorf("DecodeFromLabel(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		status PaymentStatus
		code   int
		label  string
		colour Colour
	}{
		{Waiting, 0, "", ColourWhite},
		{Succeeded, 1, "Başarılı", ColourGreen},
		{Failed, -1, "Başarısız", ColourRed},
		{InProgress, 2, "Devam Ediyor", ColourYellow},
		{DecodeError("boom"), -1, "Qr generate edilirken hata", ColourWhite},
	}
	for _, tt := range tests {
		code, label := Encode(tt.status)
		if code != tt.code || label != tt.label {
			t.Errorf("Encode(%v) = (%d, %q), want (%d, %q)", tt.status, code, label, tt.code, tt.label)
		}
		if tt.status.Colour() != tt.colour {
			t.Errorf("%v colour = %s, want %s", tt.status, tt.status.Colour(), tt.colour)
		}
	}
}

func TestStrictParsers(t *testing.T) {
	if _, err := ParseCode(7); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("ParseCode(7) err = %v", err)
	}
	if _, err := ParseLabel("nope"); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("ParseLabel(nope) err = %v", err)
	}
	if s, err := ParseLabel(LabelFailed); err != nil || s != Failed {
		t.Fatalf("ParseLabel(failed) = %v, %v", s, err)
	}
}

func TestSelectable(t *testing.T) {
	got := Selectable()
	want := []PaymentStatus{Succeeded, Failed, InProgress}
	if len(got) != len(want) {
		t.Fatalf("Selectable() len = %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Selectable()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if IsSelectable(Waiting) || IsSelectable(DecodeError("x")) {
		t.Fatal("Waiting and DecodeError must not be selectable")
	}
}

func TestDecodeErrorEquality(t *testing.T) {
	if DecodeError("a") == DecodeError("b") {
		t.Fatal("decode errors with different messages compared equal")
	}
	if DecodeError("a").Message() != "a" || !DecodeError("a").IsError() {
		t.Fatal("decode error lost its message")
	}
}

func TestListHandler(t *testing.T) {
	r := chi.NewRouter()
	NewHandler().RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/statuses", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, label := range []string{"Başarılı", "Başarısız", "Devam Ediyor"} {
		if !strings.Contains(body, label) {
			t.Errorf("body missing %q: %s", label, body)
		}
	}
}
