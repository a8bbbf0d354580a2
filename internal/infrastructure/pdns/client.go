// Package pdns talks to the PowerDNS authoritative server HTTP API.
package pdns

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lite-lake/dnssync/internal/constants"
	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
)

var _ contract.ZoneAPI = (*Client)(nil)

// HTTPError is a non-2xx API reply. Client errors other than 429 are
// permanent and are not retried.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("powerdns %s %s: %d %s", e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *HTTPError) Unwrap() error { return domain.ErrRemoteAPI }

func (e *HTTPError) Permanent() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

type Client struct {
	baseURL     string
	apiKey      string
	nameservers []string
	http        *http.Client
}

// NewClient expects baseURL to address one server, for example
// http://127.0.0.1:8081/api/v1/servers/localhost. A bare API root gets
// /servers/<serverID> appended.
func NewClient(baseURL, apiKey, serverID string, nameservers []string, timeout time.Duration) *Client {
	base := strings.TrimRight(baseURL, "/")
	if !strings.Contains(base, "/servers/") {
		base += "/servers/" + url.PathEscape(serverID)
	}
	if timeout <= 0 {
		timeout = domain.DefaultCallTimeout
	}
	return &Client{
		baseURL:     base,
		apiKey:      apiKey,
		nameservers: nameservers,
		http:        &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string { return "powerdns" }

func (c *Client) zoneURL(name string) string {
	return c.baseURL + "/zones/" + url.PathEscape(entity.FQDN(name))
}

func (c *Client) GetZone(ctx context.Context, name string) (*entity.Zone, error) {
	var zone entity.Zone
	if err := c.do(ctx, http.MethodGet, c.zoneURL(name), nil, &zone); err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && (httpErr.StatusCode == http.StatusNotFound || httpErr.StatusCode == http.StatusUnprocessableEntity) {
			return nil, fmt.Errorf("%w: %s", domain.ErrZoneNotFound, name)
		}
		return nil, err
	}
	return &zone, nil
}

// CreateZone creates a Native zone served by the configured nameservers.
func (c *Client) CreateZone(ctx context.Context, name string) error {
	body := entity.Zone{
		Name:        entity.FQDN(name),
		Kind:        constants.RemoteZoneKind,
		Masters:     []string{},
		Nameservers: c.nameservers,
		SOAEditAPI:  constants.RemoteSOAEditAPI,
	}
	return c.do(ctx, http.MethodPost, c.baseURL+"/zones", body, nil)
}

func (c *Client) UpdateZone(ctx context.Context, name string, zone *entity.Zone) error {
	return c.do(ctx, http.MethodPut, c.zoneURL(name), zone, nil)
}

func (c *Client) DeleteZone(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, c.zoneURL(name), nil, nil)
}

func (c *Client) do(ctx context.Context, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return classify(err)
	}
	if resp.StatusCode >= 300 {
		return &HTTPError{Method: method, URL: u, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: decode response: %v", domain.ErrRemoteAPI, err)
		}
	}
	return nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", domain.ErrNetworkTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrNetworkUnreachable, err)
}
