package tinxy

import (
	"context"
	"fmt"
	"sync"
)

// InventoryFetcher supplies the raw hardware inventory. *Client satisfies
// this; tests substitute fakes.
type InventoryFetcher interface {
	FetchDevices(ctx context.Context) ([]HardwareUnit, error)
}

// Registry holds the synchronized list of logical devices and offers
// capability-filtered views over it.
//
// The device list is owned exclusively by the Registry instance. Sync
// replaces it atomically; reads return copies, so callers can never mutate
// registry state. All methods are safe for concurrent use.
type Registry struct {
	fetcher InventoryFetcher
	parser  *Parser

	mu      sync.RWMutex
	devices []Device

	log Logger
}

// NewRegistry creates an empty registry. Call Sync to populate it.
func NewRegistry(fetcher InventoryFetcher) *Registry {
	return &Registry{
		fetcher: fetcher,
		parser:  NewParser(),
		log:     noopLogger{},
	}
}

// SetLogger sets the logger for the registry and its parser.
func (r *Registry) SetLogger(log Logger) {
	if log == nil {
		return
	}
	r.log = log
	r.parser.SetLogger(log)
}

// Sync fetches the full inventory, parses every hardware unit and replaces
// the device list in one step.
//
// All-or-nothing: a failed fetch leaves the previous list untouched and
// propagates the transport error. Individual unparseable units degrade to
// warnings inside the parser and never abort the sync.
func (r *Registry) Sync(ctx context.Context) error {
	units, err := r.fetcher.FetchDevices(ctx)
	if err != nil {
		return fmt.Errorf("syncing devices: %w", err)
	}

	devices := make([]Device, 0, len(units))
	for _, unit := range units {
		devices = append(devices, r.parser.ParseUnit(unit)...)
	}

	r.mu.Lock()
	r.devices = devices
	r.mu.Unlock()

	r.log.Info("device registry synced", "units", len(units), "devices", len(devices))
	return nil
}

// All returns every logical device. The returned slice and its elements
// are copies; callers can safely modify them.
func (r *Registry) All() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, d.copy())
	}
	return devices
}

// ByClass returns the devices with the given capability class.
func (r *Registry) ByClass(class CapabilityClass) []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var devices []Device
	for _, d := range r.devices {
		if d.Class == class {
			devices = append(devices, d.copy())
		}
	}
	return devices
}

// Switches returns all switch devices.
func (r *Registry) Switches() []Device { return r.ByClass(ClassSwitch) }

// Lights returns all light devices.
func (r *Registry) Lights() []Device { return r.ByClass(ClassLight) }

// Fans returns all fan devices.
func (r *Registry) Fans() []Device { return r.ByClass(ClassFan) }

// Locks returns all lock devices.
func (r *Registry) Locks() []Device { return r.ByClass(ClassLock) }

// Get returns the device with the given key.
// Returns ErrDeviceNotFound if the key is not in the current list.
func (r *Registry) Get(key string) (Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.devices {
		if d.Key == key {
			return d.copy(), nil
		}
	}
	return Device{}, ErrDeviceNotFound
}

// Count returns the number of logical devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}
