package tinxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"missing token", Config{BaseURL: DefaultBaseURL}, ErrMissingToken},
		{"missing base URL", Config{Token: "abc"}, ErrMissingBaseURL},
		{"both missing reports token first", Config{}, ErrMissingToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewClient() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewClientValid(t *testing.T) {
	client, err := NewClient(Config{Token: "abc", BaseURL: "https://example.test"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.cfg.BaseURL != "https://example.test/" {
		t.Errorf("base URL must be normalized with a trailing slash, got %q", client.cfg.BaseURL)
	}
}

func TestRequestSendsBearerToken(t *testing.T) {
	var gotAuth, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, err := NewClient(Config{Token: "secret-token", BaseURL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.Request(context.Background(), "v2/devices/", nil, http.MethodGet); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", gotContentType)
	}
}

func TestRequestInjectsSource(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{Token: "t", BaseURL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload := map[string]any{"request": map[string]any{"state": 1}, "deviceNumber": 2}
	if _, err := client.Request(context.Background(), "v2/devices/U1/toggle", payload, http.MethodPost); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if body["source"] != requestSource {
		t.Errorf("expected source %q in payload, got %v", requestSource, body["source"])
	}
}

func TestRequestErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrAuthentication},
		{"forbidden", http.StatusForbidden, ErrAuthentication},
		{"server error", http.StatusInternalServerError, ErrCommunication},
		{"not found", http.StatusNotFound, ErrCommunication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client, err := NewClient(Config{Token: "t", BaseURL: server.URL}, server.Client())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			_, err = client.Request(context.Background(), "v2/devices/", nil, http.MethodGet)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("status %d: error = %v, want %v", tt.status, err, tt.wantErr)
			}
		})
	}
}

func TestRequestNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client, err := NewClient(Config{Token: "t", BaseURL: server.URL}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	server.Close()

	_, err = client.Request(context.Background(), "v2/devices/", nil, http.MethodGet)
	if !errors.Is(err, ErrCommunication) {
		t.Errorf("expected ErrCommunication for refused connection, got %v", err)
	}
}

func TestFetchDevices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/devices/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`[{"_id": "U1", "name": "Home", "typeId": {"name": "WIFI_SWITCH", "long_name": "Switch", "traits": [], "gtype": "action.devices.types.SWITCH"}, "devices": [], "firmwareVersion": "1.0"}]`))
	}))
	defer server.Close()

	client, err := NewClient(Config{Token: "t", BaseURL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	units, err := client.FetchDevices(context.Background())
	if err != nil {
		t.Fatalf("FetchDevices failed: %v", err)
	}
	if len(units) != 1 || units[0].ID != "U1" || units[0].TypeID.Name != "WIFI_SWITCH" {
		t.Errorf("unexpected inventory: %+v", units)
	}
}

func TestFetchDevicesDecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{Token: "t", BaseURL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.FetchDevices(context.Background())
	if !errors.Is(err, ErrUnexpected) {
		t.Errorf("expected ErrUnexpected for malformed body, got %v", err)
	}
}

func TestFetchDeviceStatePath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/devices/U1/state" || r.URL.RawQuery != "deviceNumber=2" {
			t.Errorf("unexpected URL %q", r.URL.String())
		}
		w.Write([]byte(`{"state": "ON", "status": 1}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{Token: "t", BaseURL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state, err := client.FetchDeviceState(context.Background(), "U1", 2)
	if err != nil {
		t.Fatalf("FetchDeviceState failed: %v", err)
	}
	if !state.IsOn() || !state.Online() {
		t.Errorf("unexpected state: %+v", state)
	}
}
