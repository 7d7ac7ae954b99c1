package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/georgemunganga/qrpay/internal/config"
	"github.com/georgemunganga/qrpay/internal/modules/document"
	"github.com/georgemunganga/qrpay/internal/modules/events"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		CommitRetries:     1,
		SessionCacheSize:  8,
		TerminalCacheSize: 8,
		CORSOrigins:       []string{"https://pos.example.com"},
	}
	srv, err := New(cfg, document.NewMemoryStore(time.Second), &events.Recorder{})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	res, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("/health = %d", res.StatusCode)
	}

	res, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "qrpay_active_subscriptions") {
		t.Fatal("metrics output is missing qrpay gauges")
	}
}

func TestCustomerAndCashierShareTheStore(t *testing.T) {
	ts := newTestServer(t)
	post := func(path, body string) map[string]interface{} {
		t.Helper()
		res, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		defer res.Body.Close()
		if res.StatusCode >= 300 {
			t.Fatalf("POST %s = %d", path, res.StatusCode)
		}
		var out map[string]interface{}
		json.NewDecoder(res.Body).Decode(&out)
		return out
	}

	session := post("/api/v1/transactions", "")
	txID := session["id"].(string)
	terminal := post("/api/v1/cashier/terminals", "")
	base := "/api/v1/cashier/terminals/" + terminal["id"].(string)

	post(base+"/scan", `{"payload":"`+txID+`"}`)
	post(base+"/select", `{"label":"Başarılı"}`)
	post(base+"/confirm", "")

	deadline := time.Now().Add(2 * time.Second)
	for {
		res, err := http.Get(ts.URL + "/api/v1/transactions/" + txID)
		if err != nil {
			t.Fatal(err)
		}
		var view struct {
			Status struct {
				Label string `json:"label"`
			} `json:"status"`
		}
		json.NewDecoder(res.Body).Decode(&view)
		res.Body.Close()
		if view.Status.Label == "Başarılı" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("customer status never became Başarılı, last %q", view.Status.Label)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/transactions", nil)
	req.Header.Set("Origin", "https://pos.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "https://pos.example.com" {
		t.Fatalf("Allow-Origin = %q", got)
	}
}
