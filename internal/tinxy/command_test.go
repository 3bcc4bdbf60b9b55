package tinxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func intPtr(v int) *int { return &v }

func lightDevice(colorTemp bool) Device {
	traits := []string{TraitOnOff, TraitBrightness}
	if colorTemp {
		traits = append(traits, TraitColorSetting)
	}
	return Device{
		Key:         "L1-1",
		HardwareID:  "L1",
		RelayNumber: 1,
		Class:       ClassLight,
		Traits:      traits,
	}
}

func TestBuildCommandBasic(t *testing.T) {
	dev := Device{HardwareID: "U1", RelayNumber: 3, Class: ClassSwitch}

	cmd := BuildCommand(dev, true, nil, nil)
	if cmd.HardwareID != "U1" || cmd.RelayNumber != 3 {
		t.Errorf("addressing not carried over: %+v", cmd)
	}
	if cmd.State != 1 {
		t.Errorf("expected state 1, got %d", cmd.State)
	}
	if cmd.Brightness != nil || cmd.ColorTemperature != nil {
		t.Errorf("optional fields must stay nil when unset")
	}

	if off := BuildCommand(dev, false, nil, nil); off.State != 0 {
		t.Errorf("expected state 0, got %d", off.State)
	}
}

func TestBuildCommandColorTempGating(t *testing.T) {
	tests := []struct {
		name     string
		dev      Device
		wantTemp bool
	}{
		{"light with color temperature", lightDevice(true), true},
		{"brightness-only light", lightDevice(false), false},
		{"switch never gets color temperature", Device{Class: ClassSwitch}, false},
		{"fan never gets color temperature", Device{Class: ClassFan, Traits: []string{TraitBrightness, TraitColorSetting}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := BuildCommand(tt.dev, true, nil, intPtr(4000))
			got := cmd.ColorTemperature != nil
			if got != tt.wantTemp {
				t.Errorf("color temperature included = %v, want %v", got, tt.wantTemp)
			}
		})
	}
}

func TestCommandPayload(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want map[string]any
	}{
		{
			name: "state only",
			cmd:  Command{RelayNumber: 2, State: 1},
			want: map[string]any{
				"request":      map[string]any{"state": 1},
				"deviceNumber": 2,
			},
		},
		{
			name: "with brightness",
			cmd:  Command{RelayNumber: 1, State: 1, Brightness: intPtr(66)},
			want: map[string]any{
				"request":      map[string]any{"state": 1, "brightness": 66},
				"deviceNumber": 1,
			},
		},
		{
			name: "with color temperature",
			cmd:  Command{RelayNumber: 1, State: 1, Brightness: intPtr(50), ColorTemperature: intPtr(2700)},
			want: map[string]any{
				"request":      map[string]any{"state": 1, "brightness": 50, "colorTemperatureInKelvin": 2700},
				"deviceNumber": 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.Payload(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Payload() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSendPostsToToggleEndpoint(t *testing.T) {
	var gotPath, gotMethod string
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{Token: "t", BaseURL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmd := Command{HardwareID: "U1", RelayNumber: 2, State: 1, Brightness: intPtr(66)}
	if _, err := client.Send(context.Background(), cmd); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotPath != "/v2/devices/U1/toggle" || gotMethod != http.MethodPost {
		t.Errorf("unexpected request %s %s", gotMethod, gotPath)
	}
	if body["deviceNumber"] != float64(2) {
		t.Errorf("expected deviceNumber 2, got %v", body["deviceNumber"])
	}
	request, ok := body["request"].(map[string]any)
	if !ok {
		t.Fatalf("missing request object in %v", body)
	}
	if request["state"] != float64(1) || request["brightness"] != float64(66) {
		t.Errorf("unexpected request payload %v", request)
	}
}

func TestFanPresets(t *testing.T) {
	tests := []struct {
		preset  string
		percent int
	}{
		{FanPresetLow, 33},
		{FanPresetMedium, 66},
		{FanPresetHigh, 100},
	}

	for _, tt := range tests {
		if got := FanPresetToPercent(tt.preset); got != tt.percent {
			t.Errorf("FanPresetToPercent(%q) = %d, want %d", tt.preset, got, tt.percent)
		}
		preset, ok := FanPercentToPreset(tt.percent)
		if !ok || preset != tt.preset {
			t.Errorf("FanPercentToPreset(%d) = %q, %v; want %q", tt.percent, preset, ok, tt.preset)
		}
	}

	if got := FanPresetToPercent("Turbo"); got != 33 {
		t.Errorf("unknown preset must fall back to Low, got %d", got)
	}
	if _, ok := FanPercentToPreset(42); ok {
		t.Errorf("non-preset percentage must not map to a preset")
	}
}

func TestHostToVendorBrightness(t *testing.T) {
	tests := []struct {
		host   int
		vendor int
	}{
		{0, 1},
		{1, 1},
		{128, 50},
		{254, 100},
		{255, 100},
	}

	for _, tt := range tests {
		if got := HostToVendorBrightness(tt.host); got != tt.vendor {
			t.Errorf("HostToVendorBrightness(%d) = %d, want %d", tt.host, got, tt.vendor)
		}
	}
}
