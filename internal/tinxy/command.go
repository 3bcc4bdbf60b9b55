package tinxy

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
)

// Command is a vendor command for one relay.
//
// State is the vendor's 1/0 on-off flag. Brightness and ColorTemperature
// are included in the payload only when non-nil: the vendor API treats an
// absent field as "leave unchanged". Brightness is on the vendor's 0-100
// scale; callers owning other scales convert before building a Command.
type Command struct {
	HardwareID       string
	RelayNumber      int
	State            int
	Brightness       *int
	ColorTemperature *int
}

// BuildCommand translates a desired action on a logical device into a
// vendor command. Colour temperature is dropped unless the device is a
// light with colour-temperature support; brightness passes through as
// given. Pure: no I/O.
func BuildCommand(dev Device, on bool, brightness, colorTemp *int) Command {
	state := 0
	if on {
		state = 1
	}

	cmd := Command{
		HardwareID:  dev.HardwareID,
		RelayNumber: dev.RelayNumber,
		State:       state,
		Brightness:  brightness,
	}
	if colorTemp != nil && dev.Class == ClassLight && dev.SupportsColorTemperature() {
		cmd.ColorTemperature = colorTemp
	}
	return cmd
}

// Payload builds the vendor wire payload:
//
//	{"request": {"state": 1, "brightness": 66, "colorTemperatureInKelvin": 4000}, "deviceNumber": 2}
//
// Optional fields appear only when set. The transport layer adds the
// source field on send.
func (cmd Command) Payload() map[string]any {
	request := map[string]any{"state": cmd.State}
	if cmd.Brightness != nil {
		request["brightness"] = *cmd.Brightness
	}
	if cmd.ColorTemperature != nil {
		request["colorTemperatureInKelvin"] = *cmd.ColorTemperature
	}

	return map[string]any{
		"request":      request,
		"deviceNumber": cmd.RelayNumber,
	}
}

// Send posts a command to the vendor's toggle endpoint and returns the raw
// API response.
func (c *Client) Send(ctx context.Context, cmd Command) (json.RawMessage, error) {
	path := fmt.Sprintf("v2/devices/%s/toggle", cmd.HardwareID)
	return c.Request(ctx, path, cmd.Payload(), http.MethodPost)
}

// SetDeviceState builds and sends a command in one step, for callers that
// address relays directly rather than through a parsed Device.
func (c *Client) SetDeviceState(ctx context.Context, hardwareID string, relay, state int, brightness, colorTemp *int) (json.RawMessage, error) {
	cmd := Command{
		HardwareID:       hardwareID,
		RelayNumber:      relay,
		State:            state,
		Brightness:       brightness,
		ColorTemperature: colorTemp,
	}
	return c.Send(ctx, cmd)
}

// Fan preset modes and their vendor brightness percentages.
const (
	FanPresetLow    = "Low"
	FanPresetMedium = "Medium"
	FanPresetHigh   = "High"
)

var fanPresetPercent = map[string]int{
	FanPresetLow:    33,
	FanPresetMedium: 66,
	FanPresetHigh:   100,
}

// FanPresetToPercent converts a fan preset to the vendor's speed value.
// Unknown presets fall back to Low.
func FanPresetToPercent(preset string) int {
	if percent, ok := fanPresetPercent[preset]; ok {
		return percent
	}
	return fanPresetPercent[FanPresetLow]
}

// FanPercentToPreset converts a vendor speed value back to a preset.
// Values that are not exact preset speeds report false.
func FanPercentToPreset(percent int) (string, bool) {
	for preset, p := range fanPresetPercent {
		if p == percent {
			return preset, true
		}
	}
	return "", false
}

// HostBrightnessMax is the top of the 0-255 brightness scale used by host
// platforms. The vendor cloud expects 1-100.
const HostBrightnessMax = 255

// HostToVendorBrightness converts a host 0-255 brightness to the vendor's
// 1-100 scale. Zero rounds up to 1: the vendor rejects brightness 0, the
// host signals off through the on flag instead.
func HostToVendorBrightness(brightness int) int {
	vendor := int(math.Round(float64(brightness) * 100.0 / float64(HostBrightnessMax)))
	if vendor < 1 {
		vendor = 1
	}
	if vendor > 100 {
		vendor = 100
	}
	return vendor
}
