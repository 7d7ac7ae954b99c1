package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupWriterLevel(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	SetupWriter(&buf, "warn", false)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q", buf.String())
	}
	if line["message"] != "shown" || line["time"] == nil {
		t.Fatalf("line = %v", line)
	}

	SetupWriter(&buf, "nonsense", false)
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("unknown level mapped to %s", zerolog.GlobalLevel())
	}
}

func TestMiddlewareAccessLog(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})
	var buf bytes.Buffer
	SetupWriter(&buf, "info", false)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Middleware())
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("access log is not one JSON line: %q", buf.String())
	}
	if line["path"] != "/ping" || line["status"] != float64(http.StatusTeapot) || line["request_id"] == "" {
		t.Fatalf("access line = %v", line)
	}
}
