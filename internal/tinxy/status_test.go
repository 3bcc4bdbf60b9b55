package tinxy

import (
	"encoding/json"
	"reflect"
	"testing"
)

func record(t *testing.T, id, stateJSON string) StatusRecord {
	t.Helper()
	return StatusRecord{ID: id, State: json.RawMessage(stateJSON)}
}

func TestExtractStatusesMultiRelay(t *testing.T) {
	feed := []StatusRecord{
		record(t, "U1", `[{"number": 2, "state": {"state": "ON", "status": 1, "brightness": 66}}]`),
	}

	statuses := ExtractStatuses(feed)
	if len(statuses) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(statuses))
	}

	state, ok := statuses["U1-2"]
	if !ok {
		t.Fatalf("expected key U1-2, got %v", keys(statuses))
	}
	if state.On == nil || !*state.On {
		t.Errorf("expected state true")
	}
	if state.Status == nil || *state.Status != 1 {
		t.Errorf("expected status 1")
	}
	if state.Brightness == nil || *state.Brightness != 66 {
		t.Errorf("expected brightness 66")
	}
	if state.Door != nil || state.ColorTemperature != nil {
		t.Errorf("absent fields must stay nil")
	}

	for _, key := range []string{"U1-1", "U1-3", "U1-4"} {
		if _, ok := statuses[key]; ok {
			t.Errorf("unexpected entry for %s", key)
		}
	}
}

func TestExtractStatusesListItemWithoutNumber(t *testing.T) {
	feed := []StatusRecord{
		record(t, "U3", `[{"state": {"state": "OFF", "status": 1}}]`),
	}

	statuses := ExtractStatuses(feed)
	state, ok := statuses["U3-1"]
	if !ok {
		t.Fatalf("item without number must key as relay 1, got %v", keys(statuses))
	}
	if state.On == nil || *state.On {
		t.Errorf("expected state false")
	}
	if state.Item == nil {
		t.Errorf("item without number must retain the raw item")
	}
}

func TestExtractStatusesSingleObject(t *testing.T) {
	feed := []StatusRecord{
		record(t, "U4", `{"state": "ON", "status": 1, "door": "OPEN", "colorTemperatureInKelvin": 4000}`),
	}

	statuses := ExtractStatuses(feed)
	state, ok := statuses["U4-1"]
	if !ok {
		t.Fatalf("single-object payload must key as relay 1, got %v", keys(statuses))
	}
	if state.Door == nil || *state.Door != "OPEN" {
		t.Errorf("expected door OPEN")
	}
	if !state.DoorOpen() {
		t.Errorf("DoorOpen() should report true")
	}
	if state.Locked() {
		t.Errorf("open door must not read as locked")
	}
	if state.ColorTemperature == nil || *state.ColorTemperature != 4000 {
		t.Errorf("expected color temperature 4000")
	}
	if state.Item != nil {
		t.Errorf("single-object payloads must not retain an item")
	}
}

func TestExtractStatusesSkipsRecordsWithoutState(t *testing.T) {
	feed := []StatusRecord{
		{ID: "U5"},
		record(t, "U6", `null`),
		record(t, "", `{"state": "ON"}`),
	}

	if statuses := ExtractStatuses(feed); len(statuses) != 0 {
		t.Errorf("expected empty mapping, got %v", keys(statuses))
	}
}

func TestExtractStatusesMissingFieldsOmitted(t *testing.T) {
	feed := []StatusRecord{
		record(t, "U7", `{"status": 0}`),
	}

	state, ok := ExtractStatuses(feed)["U7-1"]
	if !ok {
		t.Fatal("expected entry for U7-1")
	}
	if state.On != nil {
		t.Errorf("unreported on/off state must stay nil, not default to false")
	}
	if state.Status == nil || *state.Status != 0 {
		t.Errorf("explicit zero status must be kept")
	}
	if state.Online() {
		t.Errorf("status 0 is offline")
	}
}

func TestExtractStatusesIdempotent(t *testing.T) {
	feed := []StatusRecord{
		record(t, "U1", `[{"number": 1, "state": {"state": "ON", "status": 1}}, {"number": 2, "state": {"state": "OFF"}}]`),
		record(t, "U2", `{"state": "OFF", "status": 1}`),
	}

	first := ExtractStatuses(feed)
	second := ExtractStatuses(feed)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("extraction must be deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestStateToBool(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ON", true},
		{"OFF", false},
		{"on", false},
		{"", false},
		{"garbage", false},
	}

	for _, tt := range tests {
		if got := stateToBool(tt.in); got != tt.want {
			t.Errorf("stateToBool(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func keys(m map[string]DeviceState) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
