package tinxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the production Tinxy cloud endpoint.
const DefaultBaseURL = "https://backend.tinxy.in/"

// requestSource is sent with every command payload. The vendor uses it to
// attribute API traffic; this value matches what the cloud accepts for
// third-party home-automation callers.
const requestSource = "Home Assistant"

// defaultRequestTimeout bounds a single API call when the caller's context
// carries no deadline of its own.
const defaultRequestTimeout = 10 * time.Second

// Vendor API paths.
const (
	pathDevices      = "v2/devices/"
	pathDevicesState = "v2/devices_state"
)

// Config carries the credentials for the vendor API.
//
// Both fields are validated at construction: a missing token and a missing
// base URL each fail with their own distinct error before any network call.
type Config struct {
	// Token is the bearer token issued by the vendor.
	Token string

	// BaseURL is the API root, e.g. https://backend.tinxy.in/.
	BaseURL string
}

// Client issues authenticated requests to the Tinxy cloud API.
//
// It owns no device state; the Registry and Synchronizer build on top of
// it. All methods are safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
	log  Logger
}

// NewClient creates a vendor API client.
//
// The HTTP client is injected so callers control transport-level behaviour
// (timeouts, proxies, test servers); nil selects a default client with a
// 10 second timeout.
//
// Returns ErrMissingToken or ErrMissingBaseURL when the configuration is
// incomplete. No network traffic is attempted here.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingBaseURL, err)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}

	return &Client{
		cfg:  cfg,
		http: httpClient,
		log:  noopLogger{},
	}, nil
}

// SetLogger sets the logger for request failures.
func (c *Client) SetLogger(log Logger) {
	if log != nil {
		c.log = log
	}
}

// Request performs one API call and returns the raw JSON response body.
//
// A non-nil payload is sent as a JSON body with the source field injected.
// Responses are classified per the error taxonomy: 401/403 maps to
// ErrAuthentication, any other non-2xx status or transport failure maps to
// ErrCommunication.
func (c *Client) Request(ctx context.Context, path string, payload map[string]any, method string) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		payload["source"] = requestSource
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding payload: %v", ErrUnexpected, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrUnexpected, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("API call failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrCommunication, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrCommunication, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.log.Error("API rejected credentials", "method", method, "path", path, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrAuthentication, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.log.Error("API call failed", "method", method, "path", path, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrCommunication, method, path, resp.StatusCode)
	}

	return json.RawMessage(data), nil
}

// FetchDevices retrieves the full hardware inventory.
func (c *Client) FetchDevices(ctx context.Context) ([]HardwareUnit, error) {
	data, err := c.Request(ctx, pathDevices, nil, http.MethodGet)
	if err != nil {
		return nil, err
	}

	var units []HardwareUnit
	if err := json.Unmarshal(data, &units); err != nil {
		return nil, fmt.Errorf("%w: decoding inventory: %v", ErrUnexpected, err)
	}
	return units, nil
}

// FetchStatuses retrieves the aggregate status feed for all units.
func (c *Client) FetchStatuses(ctx context.Context) ([]StatusRecord, error) {
	data, err := c.Request(ctx, pathDevicesState, nil, http.MethodGet)
	if err != nil {
		return nil, err
	}

	var records []StatusRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding status feed: %v", ErrUnexpected, err)
	}
	return records, nil
}

// FetchDeviceState retrieves the current state of a single relay.
func (c *Client) FetchDeviceState(ctx context.Context, hardwareID string, relay int) (DeviceState, error) {
	path := fmt.Sprintf("v2/devices/%s/state?deviceNumber=%d", hardwareID, relay)
	data, err := c.Request(ctx, path, nil, http.MethodGet)
	if err != nil {
		return DeviceState{}, err
	}

	var raw rawState
	if err := json.Unmarshal(data, &raw); err != nil {
		return DeviceState{}, fmt.Errorf("%w: decoding device state: %v", ErrUnexpected, err)
	}
	return fromRawState(raw), nil
}
