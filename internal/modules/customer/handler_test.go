package customer

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/qrpay/internal/modules/document"
	"github.com/georgemunganga/qrpay/internal/modules/events"
	"github.com/georgemunganga/qrpay/internal/modules/qrcode"
	"github.com/georgemunganga/qrpay/internal/modules/status"
)

func newTestServer(t *testing.T, size int) (*httptest.Server, document.Store, Service) {
	t.Helper()
	store := document.NewMemoryStore(time.Second)
	svc, err := NewService(store, qrcode.NewEncoder(qrcode.DefaultScale), &events.Recorder{}, size)
	if err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		svc.Close()
	})
	return srv, store, svc
}

func createSession(t *testing.T, srv *httptest.Server) SessionView {
	t.Helper()
	res, err := http.Post(srv.URL+"/api/v1/transactions", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d", res.StatusCode)
	}
	var view SessionView
	if err := json.NewDecoder(res.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	return view
}

func TestSessionEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t, 8)

	view := createSession(t, srv)
	if !strings.HasPrefix(view.ID, IDPrefix) || view.Payload != view.ID {
		t.Fatalf("view = %+v", view)
	}
	if len(view.QRPNG) == 0 || view.QRSize%qrcode.DefaultScale != 0 {
		t.Fatalf("qr image missing: size %d, %d bytes", view.QRSize, len(view.QRPNG))
	}
	if view.Status.Code != status.CodeWaiting || view.Status.Colour != status.ColourWhite {
		t.Fatalf("status = %+v", view.Status)
	}

	res, err := http.Get(srv.URL + "/api/v1/transactions/" + view.ID + "/qr.png")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK || res.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("qr.png: %d %s", res.StatusCode, res.Header.Get("Content-Type"))
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/transactions/"+view.ID, nil)
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", res.StatusCode)
	}

	res, err = http.Get(srv.URL + "/api/v1/transactions/" + view.ID)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after DELETE = %d", res.StatusCode)
	}
}

func TestGetReflectsCashierWrite(t *testing.T) {
	srv, store, svc := newTestServer(t, 8)
	view := createSession(t, srv)

	if err := store.SetMerge(context.Background(), document.Path(view.ID), map[string]int{"status": status.CodeFailed}); err != nil {
		t.Fatal(err)
	}
	sess, err := svc.GetSession(view.ID)
	if err != nil {
		t.Fatal(err)
	}
	eventually(t, func() bool { return sess.Status() == status.Failed })

	res, err := http.Get(srv.URL + "/api/v1/transactions/" + view.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	var got SessionView
	json.NewDecoder(res.Body).Decode(&got)
	if got.Status.Label != status.LabelFailed || got.Status.Colour != status.ColourRed {
		t.Fatalf("status = %+v", got.Status)
	}
}

func TestStatusEventStream(t *testing.T) {
	srv, store, _ := newTestServer(t, 8)
	view := createSession(t, srv)

	res, err := http.Get(srv.URL + "/api/v1/transactions/" + view.ID + "/events")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if ct := res.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %s", ct)
	}

	lines := bufio.NewScanner(res.Body)
	readEvent := func() status.View {
		t.Helper()
		for lines.Scan() {
			line := lines.Text()
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var v status.View
				if err := json.Unmarshal([]byte(data), &v); err != nil {
					t.Fatal(err)
				}
				return v
			}
		}
		t.Fatalf("stream ended: %v", lines.Err())
		return status.View{}
	}

	if v := readEvent(); v.Code != status.CodeWaiting {
		t.Fatalf("first event = %+v", v)
	}
	if err := store.SetMerge(context.Background(), document.Path(view.ID), map[string]int{"status": status.CodeSucceeded}); err != nil {
		t.Fatal(err)
	}
	if v := readEvent(); v.Label != status.LabelSucceeded || v.Colour != status.ColourGreen {
		t.Fatalf("second event = %+v", v)
	}
}

func TestRegistryEvictionClosesSession(t *testing.T) {
	srv, _, svc := newTestServer(t, 1)
	first := createSession(t, srv)
	sess, err := svc.GetSession(first.ID)
	if err != nil {
		t.Fatal(err)
	}

	createSession(t, srv)
	if _, err := svc.GetSession(first.ID); err != ErrSessionNotFound {
		t.Fatalf("evicted session still registered: %v", err)
	}
	if !sess.Closed() {
		t.Fatal("evicted session not closed")
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrSessionNotFound, http.StatusNotFound},
		{ErrNotStarted, http.StatusConflict},
		{document.ErrTimeout, http.StatusGatewayTimeout},
		{document.ErrStore, http.StatusServiceUnavailable},
		{qrcode.ErrEncode, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := errorStatus(tt.err); got != tt.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
