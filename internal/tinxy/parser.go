package tinxy

import "fmt"

// Vendor type-name sets driving parsing and classification.
//
// Type names are opaque vendor tokens; nothing is inferred from their
// spelling. The sets mirror the vendor's published device matrix.
var (
	// disabledTypes contribute no logical devices and no warnings.
	disabledTypes = stringSet("EVA_HUB")

	// enabledTypes are the recognised controllable hardware types.
	enabledTypes = stringSet(
		"Dimmable Light", "EM_DOOR_LOCK", "EVA_BULB", "EVA_BULB_WW", "Fan",
		"WIFI_2SWITCH_V1", "WIFI_2SWITCH_V3", "WIFI_3SWITCH_1FAN", "WIFI_3SWITCH_1FAN_V3",
		"WIFI_4DIMMER", "WIFI_4SWITCH", "WIFI_4SWITCH_V2", "WIFI_4SWITCH_V3",
		"WIFI_6SWITCH_V1", "WIFI_6SWITCH_V3", "WIFI_BULB_WHITE_V1", "WIFI_SWITCH",
		"WIFI_SWITCH_1FAN_V1", "WIFI_SWITCH_V2", "WIFI_SWITCH_V3", "WIRED_DOOR_LOCK",
		"WIRED_DOOR_LOCK_V2", "WIRED_DOOR_LOCK_V3",
	)

	// evaBulbTypes are always lights regardless of slot rules.
	evaBulbTypes = stringSet("EVA_BULB_WW", "EVA_BULB")

	// fanComboTypes have a fan on relay 1 and switches on the rest.
	fanComboTypes = stringSet("WIFI_3SWITCH_1FAN", "Fan", "WIFI_SWITCH_1FAN_V1", "WIFI_3SWITCH_1FAN_V3")

	// lockTypes classify as locks in the generic rule.
	lockTypes = stringSet("WIRED_DOOR_LOCK_V3")

	// lightTypeNames classify as lights in the generic rule.
	lightTypeNames = stringSet("Tubelight", "LED Bulb", "EVA_BULB_WW")
)

// iconTable maps user-facing subtypes to Material Design icon hints.
var iconTable = map[string]string{
	"Heater":             "mdi:radiator",
	"Tubelight":          "mdi:lightbulb-fluorescent-tube",
	"LED Bulb":           "mdi:lightbulb",
	"Dimmable Light":     "mdi:lightbulb",
	"LED Dimmable Bulb":  "mdi:lightbulb",
	"Music System":       "mdi:music",
	"Fan":                "mdi:fan",
	"Socket":             "mdi:power-socket-eu",
	"TV":                 "mdi:television",
	"Lock":               "mdi:lock",
}

// iconFallback is used for subtypes with no table entry.
const iconFallback = "mdi:toggle-switch"

// Manufacturer reported in device metadata for every unit.
const Manufacturer = "Tinxy.in"

func stringSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// ClassifyRelay derives the capability class for one relay of a hardware
// unit. slot is the 0-based slot index. The rule order is fixed:
//
//  1. fan-combo types classify slot 0 as Fan
//  2. known light type names classify as Light
//  3. known lock types classify as Lock
//  4. everything else is a Switch
//
// Eva bulbs are not part of this rule. Their models never reach the
// multi-node path, so the single-node caller forces Light for them
// before this function's result is used.
//
// Pure: the same (typeName, slot) always yields the same class.
func ClassifyRelay(typeName string, slot int) CapabilityClass {
	if _, ok := fanComboTypes[typeName]; ok && slot == 0 {
		return ClassFan
	}
	if _, ok := lightTypeNames[typeName]; ok {
		return ClassLight
	}
	if _, ok := lockTypes[typeName]; ok {
		return ClassLock
	}
	return ClassSwitch
}

// IconFor returns the icon hint for a user-facing subtype.
func IconFor(subtype string) string {
	if _, ok := evaBulbTypes[subtype]; ok {
		return "mdi:lightbulb"
	}
	if icon, ok := iconTable[subtype]; ok {
		return icon
	}
	return iconFallback
}

// Parser converts raw hardware units into logical devices.
//
// Parsing never fails: unknown hardware degrades to a warning and an empty
// result so one unrecognised unit cannot block the rest of the fleet.
type Parser struct {
	log Logger
}

// NewParser creates a Parser with a no-op logger.
func NewParser() *Parser {
	return &Parser{log: noopLogger{}}
}

// SetLogger sets the logger used for unknown-type warnings.
func (p *Parser) SetLogger(log Logger) {
	if log != nil {
		p.log = log
	}
}

// ParseUnit converts one hardware unit into zero or more logical devices.
//
// Disabled types return nothing, silently. Unrecognised types return
// nothing and log a single warning. Enabled single-node units yield exactly
// one device with relay number 1; multi-node units yield one device per
// declared slot with relay numbers 1..N.
func (p *Parser) ParseUnit(unit HardwareUnit) []Device {
	typeName := unit.TypeID.Name

	if _, ok := disabledTypes[typeName]; ok {
		return nil
	}

	if len(unit.Devices) == 0 {
		if _, ok := enabledTypes[typeName]; !ok {
			p.log.Warn("unknown device type", "type", typeName, "unit_id", unit.ID)
			return nil
		}

		class := ClassifyRelay(typeName, 0)
		if _, ok := evaBulbTypes[typeName]; ok {
			class = ClassLight
		}
		return []Device{p.makeDevice(unit, class, 1, "", "")}
	}

	if _, ok := enabledTypes[typeName]; !ok {
		p.log.Warn("unknown multi-node device type", "type", typeName, "unit_id", unit.ID)
		return nil
	}

	devices := make([]Device, 0, len(unit.Devices))
	for slot, label := range unit.Devices {
		var userType string
		if slot < len(unit.DeviceTypes) {
			userType = unit.DeviceTypes[slot]
		}

		// Class depends only on the hardware type and slot. The
		// user-assigned subtype feeds UserType and the icon, never
		// the class.
		class := ClassifyRelay(typeName, slot)

		devices = append(devices, p.makeDevice(unit, class, slot+1, label, userType))
	}
	return devices
}

// makeDevice builds a logical device record for one relay.
func (p *Parser) makeDevice(unit HardwareUnit, class CapabilityClass, relay int, label, userType string) Device {
	name := unit.Name
	if label != "" {
		name = fmt.Sprintf("%s %s", unit.Name, label)
	}
	if userType == "" {
		userType = string(class)
	}

	return Device{
		Key:         fmt.Sprintf("%s-%d", unit.ID, relay),
		HardwareID:  unit.ID,
		Name:        name,
		RelayNumber: relay,
		Class:       class,
		UserType:    userType,
		GType:       unit.TypeID.GType,
		Traits:      unit.TypeID.Traits,
		Description: unit.TypeID.LongName,
		TypeName:    unit.TypeID.Name,
		Icon:        IconFor(userType),
		Info: DeviceInfo{
			Manufacturer:    Manufacturer,
			Model:           unit.TypeID.LongName,
			FirmwareVersion: unit.FirmwareVersion,
		},
	}
}
