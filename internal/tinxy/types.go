package tinxy

import "encoding/json"

// CapabilityClass is the derived control-surface category of a logical device.
type CapabilityClass string

// CapabilityClass constants.
const (
	ClassSwitch CapabilityClass = "Switch"
	ClassLight  CapabilityClass = "Light"
	ClassFan    CapabilityClass = "Fan"
	ClassLock   CapabilityClass = "Lock"
)

// AllCapabilityClasses returns all valid capability class values.
func AllCapabilityClasses() []CapabilityClass {
	return []CapabilityClass{ClassSwitch, ClassLight, ClassFan, ClassLock}
}

// ParseCapabilityClass converts a string to a CapabilityClass.
// Returns false if the value is not one of the four known classes;
// user-assigned subtypes like "Socket" or "Heater" are not classes.
func ParseCapabilityClass(s string) (CapabilityClass, bool) {
	switch CapabilityClass(s) {
	case ClassSwitch, ClassLight, ClassFan, ClassLock:
		return CapabilityClass(s), true
	default:
		return "", false
	}
}

// Vendor capability traits attached to a hardware unit's type descriptor.
// Used to refine Light behaviour (brightness-only vs colour temperature).
const (
	TraitBrightness   = "action.devices.traits.Brightness"
	TraitColorSetting = "action.devices.traits.ColorSetting"
	TraitOnOff        = "action.devices.traits.OnOff"
)

// TypeDescriptor is the vendor's type metadata nested inside a hardware unit.
type TypeDescriptor struct {
	Name     string   `json:"name"`
	LongName string   `json:"long_name"`
	Traits   []string `json:"traits"`
	GType    string   `json:"gtype"`
}

// HardwareUnit is one physical device as reported by the inventory endpoint.
//
// A unit with an empty Devices list is a single-node device (one relay).
// A unit with N slot labels exposes N independently controllable relays;
// DeviceTypes carries the per-slot user-assigned subtype, parallel to Devices.
type HardwareUnit struct {
	ID              string         `json:"_id"`
	Name            string         `json:"name"`
	TypeID          TypeDescriptor `json:"typeId"`
	Devices         []string       `json:"devices"`
	DeviceTypes     []string       `json:"deviceTypes"`
	FirmwareVersion string         `json:"firmwareVersion"`
}

// StatusRecord is one hardware unit's entry in the status feed.
//
// State is either a single object (implying relay 1) or a list of per-relay
// objects; it is kept raw here and decoded by ExtractStatuses.
type StatusRecord struct {
	ID    string          `json:"_id"`
	State json.RawMessage `json:"state"`
}

// DeviceInfo is the denormalized registry-style metadata for a hardware
// unit. Identical for every relay of one unit.
type DeviceInfo struct {
	Manufacturer    string `json:"manufacturer"`
	Model           string `json:"model"`
	FirmwareVersion string `json:"sw_version"`
}

// Device is a logical controllable entity: one relay of a hardware unit.
//
// Key is "{hardware_unit_id}-{relay_number}" with a 1-based relay number,
// globally unique and stable across syncs while the hardware configuration
// is unchanged.
type Device struct {
	Key         string          `json:"id"`
	HardwareID  string          `json:"device_id"`
	Name        string          `json:"name"`
	RelayNumber int             `json:"relay_no"`
	Class       CapabilityClass `json:"device_type"`

	// UserType is the user-assigned subtype for this relay ("Socket",
	// "Heater", "TV", ...). Falls back to the derived class. Drives the
	// icon, never the capability class of slot 0.
	UserType string `json:"user_device_type"`

	GType       string   `json:"gtype"`
	Traits      []string `json:"traits"`
	Description string   `json:"device_desc"`
	TypeName    string   `json:"tinxy_type"`
	Icon        string   `json:"icon"`

	Info DeviceInfo `json:"device"`
}

// SupportsBrightness reports whether the unit's traits include brightness.
func (d Device) SupportsBrightness() bool {
	return d.hasTrait(TraitBrightness)
}

// SupportsColorTemperature reports whether the unit's traits include colour
// setting as well as brightness (the vendor ships them together on CCT bulbs).
func (d Device) SupportsColorTemperature() bool {
	return d.hasTrait(TraitColorSetting) && d.hasTrait(TraitBrightness)
}

func (d Device) hasTrait(trait string) bool {
	for _, t := range d.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// copy returns an independent copy of the Device. The traits slice is
// cloned so callers cannot mutate registry-owned state.
func (d Device) copy() Device {
	cpy := d
	if d.Traits != nil {
		cpy.Traits = make([]string, len(d.Traits))
		copy(cpy.Traits, d.Traits)
	}
	return cpy
}

// DeviceState holds the dynamic fields observed for one relay.
//
// All fields are optional: a nil pointer means the vendor did not report
// the field, which is distinct from a zero value. Absent fields are never
// defaulted.
type DeviceState struct {
	// On is the normalized on/off state ("ON" == true).
	On *bool `json:"state,omitempty"`

	// Status is the availability flag; 1 means online.
	Status *int `json:"status,omitempty"`

	// Brightness is a 0-100 percentage.
	Brightness *int `json:"brightness,omitempty"`

	// Door is the lock/door flag ("OPEN" or other).
	Door *string `json:"door,omitempty"`

	// ColorTemperature is in Kelvin.
	ColorTemperature *int `json:"colorTemperatureInKelvin,omitempty"`

	// Item retains the raw status item when a multi-relay entry carried no
	// explicit relay number, for downstream disambiguation.
	Item map[string]any `json:"item,omitempty"`
}

// DoorStateOpen is the vendor's door-open flag value.
const DoorStateOpen = "OPEN"

// IsOn reports the on/off state, treating an unreported state as off.
func (s DeviceState) IsOn() bool {
	return s.On != nil && *s.On
}

// Online reports whether the relay was reported reachable.
func (s DeviceState) Online() bool {
	return s.Status != nil && *s.Status == 1
}

// DoorOpen reports whether a lock's door flag reads open.
func (s DeviceState) DoorOpen() bool {
	return s.Door != nil && *s.Door == DoorStateOpen
}

// Locked reports the lock state. Uses the door flag when present,
// otherwise falls back to the on/off state.
func (s DeviceState) Locked() bool {
	if s.Door != nil {
		return *s.Door != DoorStateOpen
	}
	return !s.IsOn()
}

// MergedDevice is the union of a logical device's static attributes and its
// most recently observed dynamic state. The merge is explicit: static fields
// come from the registry entry, dynamic fields from the status feed, and the
// dynamic side wins by construction since it is the newer observation.
type MergedDevice struct {
	Device
	State DeviceState `json:"state"`
}

// Snapshot maps logical device keys to merged views. A snapshot is built
// once per refresh and never mutated afterwards; readers always observe a
// complete, consistent mapping.
type Snapshot map[string]MergedDevice
