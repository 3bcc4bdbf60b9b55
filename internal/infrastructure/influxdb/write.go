package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDeviceState writes an observed device state to InfluxDB.
//
// This is the primary method for recording polled device telemetry.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceKey: Logical device key (e.g., "64a1b2c3d4e5f6a7b8c9d0e1-2")
//   - class: Capability class tag (e.g., "Switch", "Fan")
//   - on: Whether the relay is switched on
//   - online: Whether the device was reachable at poll time
//
// Example:
//
//	client.WriteDeviceState("64a1...e1-1", "Light", true, true)
func (c *Client) WriteDeviceState(deviceKey, class string, on, online bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_state",
		map[string]string{
			"device_key": deviceKey,
			"class":      class,
		},
		map[string]interface{}{
			"on":     boolToInt(on),
			"online": boolToInt(online),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteBrightness writes a brightness level observation.
//
// Used for dimmable lights and fan speed, which the vendor reports on
// the same 1-100 scale.
//
// Parameters:
//   - deviceKey: Logical device key
//   - class: Capability class tag
//   - percent: Brightness or speed percentage (1-100)
func (c *Client) WriteBrightness(deviceKey, class string, percent int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"brightness",
		map[string]string{
			"device_key": deviceKey,
			"class":      class,
		},
		map[string]interface{}{
			"percent": percent,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePollMetric writes a synchronization cycle measurement.
//
// Used for tracking refresh latency and snapshot size over time.
//
// Parameters:
//   - durationMillis: How long the refresh took, in milliseconds
//   - deviceCount: Number of devices in the resulting snapshot
//   - success: Whether the refresh completed without error
func (c *Client) WritePollMetric(durationMillis int64, deviceCount int, success bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"poll",
		map[string]string{},
		map[string]interface{}{
			"duration_ms":  durationMillis,
			"device_count": deviceCount,
			"success":      boolToInt(success),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}

// boolToInt converts a bool to 0/1 for InfluxDB fields.
// Integer fields make threshold queries simpler than boolean fields.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
