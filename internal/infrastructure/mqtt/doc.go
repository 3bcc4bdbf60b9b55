// Package mqtt provides MQTT client connectivity for the Tinxy bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The bridge publishes retained device state to the broker so host
// platforms can consume it without talking to the vendor cloud, and
// subscribes to per-device command topics to accept writes.
//
//	Tinxy cloud ↔ bridge ↔ MQTT broker ↔ host platform
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all device command topics
//	err = client.Subscribe(mqtt.Topics{}.AllDeviceSets(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish retained device state
//	topic := mqtt.Topics{}.DeviceState("64a1b2c3d4e5f6a7b8c9d0e1-2")
//	client.PublishRetained(topic, []byte(`{"state":true,"online":true}`))
package mqtt
