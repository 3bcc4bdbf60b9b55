package mqtt

import "fmt"

// Topic prefixes for the Tinxy bridge.
//
// The bridge publishes retained device state under tinxy/device/{key}/state
// and accepts commands from the host platform on tinxy/device/{key}/set.
const (
	// TopicPrefix is the base for all bridge topics.
	TopicPrefix = "tinxy"

	// TopicPrefixDevice is the base for per-device topics.
	TopicPrefixDevice = "tinxy/device"

	// TopicPrefixBridge is the base for bridge lifecycle topics.
	TopicPrefixBridge = "tinxy/bridge"
)

// Topics provides builders for bridge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DeviceState("64a1b2c3d4e5f6a7b8c9d0e1-2")
//	// Returns: "tinxy/device/64a1b2c3d4e5f6a7b8c9d0e1-2/state"
type Topics struct{}

// DeviceState returns the retained state topic for a logical device.
//
// Example: tinxy/device/64a1b2c3d4e5f6a7b8c9d0e1-2/state
func (Topics) DeviceState(deviceKey string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixDevice, deviceKey)
}

// DeviceSet returns the command topic for a logical device.
// The host platform publishes here; the bridge subscribes.
//
// Example: tinxy/device/64a1b2c3d4e5f6a7b8c9d0e1-2/set
func (Topics) DeviceSet(deviceKey string) string {
	return fmt.Sprintf("%s/%s/set", TopicPrefixDevice, deviceKey)
}

// DeviceAvailability returns the availability topic for a logical device.
//
// Example: tinxy/device/64a1b2c3d4e5f6a7b8c9d0e1-2/availability
func (Topics) DeviceAvailability(deviceKey string) string {
	return fmt.Sprintf("%s/%s/availability", TopicPrefixDevice, deviceKey)
}

// BridgeStatus returns the bridge lifecycle status topic.
// The LWT is registered here so subscribers can detect a crashed bridge.
//
// Example: tinxy/bridge/status
func (Topics) BridgeStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixBridge)
}

// BridgeDevices returns the topic carrying the full device inventory.
// Published retained after each registry sync.
//
// Example: tinxy/bridge/devices
func (Topics) BridgeDevices() string {
	return fmt.Sprintf("%s/devices", TopicPrefixBridge)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllDeviceSets returns a pattern matching all device command topics.
//
// Pattern: tinxy/device/+/set
func (Topics) AllDeviceSets() string {
	return fmt.Sprintf("%s/+/set", TopicPrefixDevice)
}

// AllDeviceStates returns a pattern matching all device state topics.
//
// Pattern: tinxy/device/+/state
func (Topics) AllDeviceStates() string {
	return fmt.Sprintf("%s/+/state", TopicPrefixDevice)
}

// AllTopics returns a pattern matching all bridge topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: tinxy/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}

// DeviceKeyFromTopic extracts the logical device key from a per-device topic.
// Returns the key and true, or "" and false if the topic does not match
// the tinxy/device/{key}/{suffix} shape.
func DeviceKeyFromTopic(topic string) (string, bool) {
	prefix := TopicPrefixDevice + "/"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return "", false
	}
	rest := topic[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			if i == 0 || i == len(rest)-1 {
				return "", false
			}
			return rest[:i], true
		}
	}
	return "", false
}
