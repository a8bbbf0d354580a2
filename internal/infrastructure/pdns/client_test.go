package pdns

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/retry"
)

type recorded struct {
	method string
	path   string
	key    string
	body   []byte
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reqs = append(reqs, recorded{r.Method, r.URL.EscapedPath(), r.Header.Get("X-API-Key"), body})
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func TestClient_GetZone(t *testing.T) {
	srv, reqs := newServer(t, http.StatusOK, `{"name":"example.com.","kind":"Slave","serial":2024010100,"masters":["10.0.0.1"],"metadata":[{"kind":"X-DNSSEC-ALGO","metadata":["13"]}]}`)
	c := NewClient(srv.URL+"/api/v1", "k3y", "localhost", nil, time.Second)

	zone, err := c.GetZone(context.Background(), "Example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if zone.Serial != 2024010100 || zone.Kind != "Slave" || len(zone.Metadata) != 1 {
		t.Errorf("zone = %+v", zone)
	}
	got := (*reqs)[0]
	if got.method != http.MethodGet || got.path != "/api/v1/servers/localhost/zones/example.com." || got.key != "k3y" {
		t.Errorf("request = %+v", got)
	}
}

func TestClient_GetZoneNotFound(t *testing.T) {
	srv, _ := newServer(t, http.StatusNotFound, `{"error":"Could not find domain 'missing.com.'"}`)
	c := NewClient(srv.URL+"/api/v1/servers/localhost", "k", "", nil, time.Second)

	_, err := c.GetZone(context.Background(), "missing.com")
	if !errors.Is(err, domain.ErrZoneNotFound) {
		t.Errorf("expected ErrZoneNotFound, got %v", err)
	}
	if retry.DefaultIsRetryable(err) {
		t.Error("not-found must not be retried")
	}
}

func TestClient_ServerError(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, "backend down")
	c := NewClient(srv.URL, "k", "localhost", nil, time.Second)

	_, err := c.GetZone(context.Background(), "example.com")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 500 || httpErr.Permanent() {
		t.Fatalf("expected transient HTTPError, got %v", err)
	}
	if !errors.Is(err, domain.ErrRemoteAPI) {
		t.Error("HTTPError should match ErrRemoteAPI")
	}
	if !retry.DefaultIsRetryable(err) {
		t.Error("5xx should be retryable")
	}
}

func TestHTTPError_Permanent(t *testing.T) {
	tests := map[int]bool{400: true, 401: true, 422: true, 429: false, 500: false, 503: false}
	for code, want := range tests {
		if got := (&HTTPError{StatusCode: code}).Permanent(); got != want {
			t.Errorf("Permanent(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestClient_CreateZone(t *testing.T) {
	srv, reqs := newServer(t, http.StatusCreated, `{"name":"example.com."}`)
	c := NewClient(srv.URL, "k", "localhost", []string{"ns1.example.net.", "ns2.example.net."}, time.Second)

	if err := c.CreateZone(context.Background(), "example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := (*reqs)[0]
	if got.method != http.MethodPost || got.path != "/servers/localhost/zones" {
		t.Errorf("request = %+v", got)
	}
	var body map[string]any
	if err := json.Unmarshal(got.body, &body); err != nil {
		t.Fatal(err)
	}
	if body["name"] != "example.com." || body["kind"] != "Native" || body["soa_edit_api"] != "INCEPTION-INCREMENT" {
		t.Errorf("body = %v", body)
	}
	if masters, ok := body["masters"].([]any); !ok || len(masters) != 0 {
		t.Errorf("masters = %v", body["masters"])
	}
}

func TestClient_UpdateAndDelete(t *testing.T) {
	srv, reqs := newServer(t, http.StatusNoContent, "")
	c := NewClient(srv.URL, "k", "localhost", nil, time.Second)

	zone := &entity.Zone{Name: "example.com.", Kind: "Native", Masters: []string{}}
	if err := c.UpdateZone(context.Background(), "example.com", zone); err != nil {
		t.Fatalf("UpdateZone: %v", err)
	}
	if err := c.DeleteZone(context.Background(), "example.com"); err != nil {
		t.Fatalf("DeleteZone: %v", err)
	}
	if (*reqs)[0].method != http.MethodPut || (*reqs)[1].method != http.MethodDelete {
		t.Errorf("requests = %+v", *reqs)
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "k", "localhost", nil, 50*time.Millisecond)

	_, err := c.GetZone(context.Background(), "example.com")
	if !errors.Is(err, domain.ErrNetworkTimeout) {
		t.Errorf("expected ErrNetworkTimeout, got %v", err)
	}
}
