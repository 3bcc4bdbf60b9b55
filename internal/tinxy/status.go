package tinxy

import (
	"encoding/json"
	"fmt"
)

// rawState is the vendor's per-relay dynamic state object.
// Pointer fields distinguish absent fields from zero values.
type rawState struct {
	State            *string `json:"state"`
	Status           *int    `json:"status"`
	Brightness       *int    `json:"brightness"`
	Door             *string `json:"door"`
	ColorTemperature *int    `json:"colorTemperatureInKelvin"`
}

// relayStatus is one element of a multi-relay status list.
type relayStatus struct {
	Number *int     `json:"number"`
	State  rawState `json:"state"`
}

// stateToBool normalizes the vendor's on/off string. Only "ON" is true;
// any other value, including unknown strings, is false.
func stateToBool(state string) bool {
	return state == "ON"
}

// ExtractStatuses converts the raw status feed into a mapping of logical
// device keys to their observed state fields.
//
// Records with no state payload are skipped without synthesizing a key.
// A multi-relay list item keys on its own relay number; an item lacking an
// explicit number is treated as relay 1 and retains the raw item for
// downstream disambiguation. A single-object payload implies relay 1.
//
// Missing optional fields are omitted, never defaulted; extraction requires
// only the top-level unit identifier and never fails on malformed entries.
func ExtractStatuses(feed []StatusRecord) map[string]DeviceState {
	statuses := make(map[string]DeviceState, len(feed))

	for _, record := range feed {
		if record.ID == "" || len(record.State) == 0 || string(record.State) == "null" {
			continue
		}

		var items []json.RawMessage
		if err := json.Unmarshal(record.State, &items); err == nil {
			for _, rawItem := range items {
				var item relayStatus
				if err := json.Unmarshal(rawItem, &item); err != nil {
					continue
				}

				number := 1
				if item.Number != nil {
					number = *item.Number
				}

				state := fromRawState(item.State)
				if item.Number == nil {
					// Keep the undisambiguated item for callers that
					// need to inspect the original payload.
					var raw map[string]any
					if err := json.Unmarshal(rawItem, &raw); err == nil {
						state.Item = raw
					}
				}

				statuses[fmt.Sprintf("%s-%d", record.ID, number)] = state
			}
			continue
		}

		var single rawState
		if err := json.Unmarshal(record.State, &single); err != nil {
			continue
		}
		statuses[fmt.Sprintf("%s-1", record.ID)] = fromRawState(single)
	}

	return statuses
}

// fromRawState copies only the fields the vendor reported.
func fromRawState(raw rawState) DeviceState {
	var state DeviceState

	if raw.State != nil {
		on := stateToBool(*raw.State)
		state.On = &on
	}
	if raw.Status != nil {
		status := *raw.Status
		state.Status = &status
	}
	if raw.Brightness != nil {
		brightness := *raw.Brightness
		state.Brightness = &brightness
	}
	if raw.Door != nil {
		door := *raw.Door
		state.Door = &door
	}
	if raw.ColorTemperature != nil {
		kelvin := *raw.ColorTemperature
		state.ColorTemperature = &kelvin
	}

	return state
}
