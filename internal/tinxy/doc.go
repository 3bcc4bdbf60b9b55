// Package tinxy implements the device-normalization and state-synchronization
// core of the Tinxy cloud bridge.
//
// The Tinxy cloud reports physical hardware units, some of which expose
// several independently controllable relays. This package flattens that
// inventory into uniquely-keyed logical devices, reconciles the separately
// shaped status feed against them, and translates host-platform commands
// into vendor API calls.
//
// # Key Types
//
//   - Client: authenticated transport to the vendor API
//   - HardwareUnit / StatusRecord: raw vendor wire shapes
//   - Device: one logical controllable entity (one relay), keyed "{unit}-{relay}"
//   - Parser: hardware unit -> logical devices, with capability classification
//   - Registry: the synced device list with capability-filtered views
//   - Synchronizer: periodic status merge producing an atomic Snapshot
//   - Command: pure translation of desired actions into vendor payloads
//
// # Usage
//
//	client, err := tinxy.NewClient(tinxy.Config{Token: token, BaseURL: tinxy.DefaultBaseURL}, nil)
//	if err != nil {
//	    return err
//	}
//
//	registry := tinxy.NewRegistry(client)
//	if err := registry.Sync(ctx); err != nil {
//	    return err
//	}
//
//	sync := tinxy.NewSynchronizer(registry, client)
//	snapshot, err := sync.Refresh(ctx)
//
//	for key, merged := range snapshot {
//	    fmt.Println(key, merged.Name, merged.State.IsOn())
//	}
//
// # Error Taxonomy
//
// Construction fails fast with ErrMissingToken / ErrMissingBaseURL.
// Runtime failures divide into ErrAuthentication (terminal for the session,
// stop retrying until credentials change), ErrCommunication (transient,
// retry next cycle) and ErrUnexpected (transient, logged with context).
// Parsing-level anomalies never raise: unknown hardware types and missing
// status fields degrade to warnings and omissions.
//
// # Thread Safety
//
// Client, Registry and Synchronizer are safe for concurrent use. The
// Synchronizer guarantees refreshes never overlap and snapshots are
// replaced whole, never patched in place.
package tinxy
