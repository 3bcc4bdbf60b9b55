// Package bridge runs the synchronization loop between the Tinxy cloud
// and the local integrations.
//
// # Purpose
//
// The bridge polls the cloud status feed on a fixed interval, detects
// per-device state changes against the previous snapshot, and fans each
// change out to its sinks:
//
//   - MQTT: retained state and availability messages per device, plus a
//     retained inventory and a bridge lifecycle status topic
//   - InfluxDB: on/off, reachability, and brightness points, plus a poll
//     duration metric
//   - SQLite: an append-only state change trail
//
// In the opposite direction, it subscribes to the per-device set topics
// and translates host commands into vendor cloud requests, then requests
// a debounced refresh so the observed state catches up.
//
// # Usage
//
//	b, err := bridge.New(bridge.Deps{
//		Logger:       logger,
//		Registry:     registry,
//		Synchronizer: syncer,
//		Commands:     client,
//		Publisher:    mqttClient,
//	})
//	if err != nil {
//		return err
//	}
//	if err := b.Start(ctx); err != nil {
//		return err
//	}
//	defer b.Close()
//
// Every sink is optional: a nil Publisher, Telemetry, or History simply
// disables that sink, so the bridge degrades gracefully when a backing
// service is not configured.
//
// # Thread Safety
//
// The poll loop runs on its own goroutine and owns the previous-snapshot
// diff state. MQTT command handling runs on the client's callback
// goroutine and touches only thread-safe collaborators.
package bridge
