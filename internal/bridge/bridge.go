package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/nerrad567/tinxy-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/tinxy-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/tinxy-bridge/internal/tinxy"
)

const (
	// DefaultPollInterval is how often the cloud status feed is polled.
	DefaultPollInterval = 7 * time.Second

	// commandTimeout bounds a single vendor command round trip.
	commandTimeout = 10 * time.Second

	// closeTimeout bounds the wait for the poll loop to drain on Close.
	closeTimeout = 5 * time.Second
)

// Availability payload values.
const (
	payloadOnline  = "online"
	payloadOffline = "offline"
)

// CommandSender delivers device commands to the vendor cloud.
// Satisfied by *tinxy.Client.
type CommandSender interface {
	Send(ctx context.Context, cmd tinxy.Command) (json.RawMessage, error)
}

// Publisher is the MQTT surface the bridge needs. Satisfied by
// *mqtt.Client; an interface so tests run without a broker.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	PublishString(topic string, payload string, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// TelemetryWriter receives time-series points for observed device state.
// Satisfied by *influxdb.Client.
type TelemetryWriter interface {
	WriteDeviceState(deviceKey, class string, on, online bool)
	WriteBrightness(deviceKey, class string, percent int)
	WritePollMetric(durationMillis int64, deviceCount int, success bool)
}

// Deps holds the dependencies for the bridge loop.
type Deps struct {
	Logger       *logging.Logger
	Registry     *tinxy.Registry
	Synchronizer *tinxy.Synchronizer

	// Commands is optional. When nil, MQTT set messages are rejected.
	Commands CommandSender

	// Publisher is optional. When nil, no MQTT traffic is produced or
	// consumed and the bridge only maintains the snapshot and history.
	Publisher Publisher

	// Telemetry is optional.
	Telemetry TelemetryWriter

	// History is optional.
	History tinxy.StateHistoryRepository

	// PollInterval defaults to DefaultPollInterval when zero.
	PollInterval time.Duration

	// QoS is used for all bridge publishes and subscriptions.
	QoS byte
}

// Bridge drives the poll cycle: refresh the cloud snapshot, detect state
// changes, and fan them out to MQTT, telemetry, and the history store. It
// also consumes MQTT set messages and turns them into vendor commands.
//
// Start launches the loop; Close stops it. All exported methods are safe
// for concurrent use.
type Bridge struct {
	logger    *logging.Logger
	registry  *tinxy.Registry
	syncer    *tinxy.Synchronizer
	commands  CommandSender
	publisher Publisher
	telemetry TelemetryWriter
	history   tinxy.StateHistoryRepository

	pollInterval time.Duration
	qos          byte
	topics       mqtt.Topics

	// prev is the snapshot from the previous completed poll. It is only
	// touched from the poll goroutine.
	prev tinxy.Snapshot

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a bridge. Call Start to begin polling.
func New(deps Deps) (*Bridge, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Synchronizer == nil {
		return nil, fmt.Errorf("status synchronizer is required")
	}

	interval := deps.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Bridge{
		logger:       deps.Logger,
		registry:     deps.Registry,
		syncer:       deps.Synchronizer,
		commands:     deps.Commands,
		publisher:    deps.Publisher,
		telemetry:    deps.Telemetry,
		history:      deps.History,
		pollInterval: interval,
		qos:          deps.QoS,
	}, nil
}

// Start subscribes to command topics, announces the bridge, and launches
// the poll loop. The loop stops when ctx is cancelled or Close is called.
func (b *Bridge) Start(ctx context.Context) error {
	if b.publisher != nil {
		if err := b.publisher.Subscribe(b.topics.AllDeviceSets(), b.qos, b.handleSetMessage); err != nil {
			return fmt.Errorf("subscribing to command topics: %w", err)
		}
		if err := b.publisher.PublishString(b.topics.BridgeStatus(), payloadOnline, b.qos, true); err != nil {
			b.logger.Warn("failed to publish bridge status", "error", err)
		}
		b.publishInventory()
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.pollLoop(ctx)

	b.logger.Info("bridge started", "poll_interval", b.pollInterval)
	return nil
}

// Close stops the poll loop and marks the bridge offline.
func (b *Bridge) Close() error {
	if b.cancel == nil {
		return nil
	}
	b.cancel()

	select {
	case <-b.done:
	case <-time.After(closeTimeout):
		b.logger.Warn("poll loop did not stop in time")
	}

	if b.publisher != nil {
		if err := b.publisher.PublishString(b.topics.BridgeStatus(), payloadOffline, b.qos, true); err != nil {
			b.logger.Warn("failed to publish bridge offline status", "error", err)
		}
	}

	b.logger.Info("bridge stopped")
	return nil
}

// pollLoop runs one poll immediately, then one per tick.
func (b *Bridge) pollLoop(ctx context.Context) {
	defer close(b.done)

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	b.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.poll(ctx)
		}
	}
}

// poll refreshes the snapshot and fans out everything that changed.
func (b *Bridge) poll(ctx context.Context) {
	start := time.Now()

	snapshot, err := b.syncer.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			b.logger.Warn("poll refresh failed", "error", err)
		}
		if b.telemetry != nil {
			b.telemetry.WritePollMetric(time.Since(start).Milliseconds(), 0, false)
		}
		return
	}

	b.fanOut(ctx, snapshot)
	b.prev = snapshot

	if b.telemetry != nil {
		b.telemetry.WritePollMetric(time.Since(start).Milliseconds(), len(snapshot), true)
	}
}

// fanOut publishes every changed device state and records it. Devices that
// dropped out of the snapshot are marked unavailable.
func (b *Bridge) fanOut(ctx context.Context, snapshot tinxy.Snapshot) {
	for key, merged := range snapshot {
		prev, seen := b.prev[key]
		if seen && reflect.DeepEqual(prev.State, merged.State) {
			continue
		}
		b.announceState(ctx, key, merged)
	}

	for key := range b.prev {
		if _, ok := snapshot[key]; !ok {
			b.publishAvailability(key, false)
		}
	}
}

// announceState pushes one device's state to MQTT, telemetry, and history.
func (b *Bridge) announceState(ctx context.Context, key string, merged tinxy.MergedDevice) {
	if b.publisher != nil {
		payload, err := json.Marshal(newStatePayload(merged))
		if err != nil {
			b.logger.Error("failed to encode device state", "device", key, "error", err)
		} else if err := b.publisher.Publish(b.topics.DeviceState(key), payload, b.qos, true); err != nil {
			b.logger.Warn("failed to publish device state", "device", key, "error", err)
		}
		b.publishAvailability(key, merged.State.Online())
	}

	if b.telemetry != nil {
		b.telemetry.WriteDeviceState(key, string(merged.Class), merged.State.IsOn(), merged.State.Online())
		if merged.State.Brightness != nil {
			b.telemetry.WriteBrightness(key, string(merged.Class), *merged.State.Brightness)
		}
	}

	if b.history != nil {
		if err := b.history.RecordStateChange(ctx, key, merged.State, tinxy.StateHistorySourcePoll); err != nil {
			b.logger.Warn("failed to record state change", "device", key, "error", err)
		}
	}
}

// publishAvailability publishes the retained availability flag for a device.
func (b *Bridge) publishAvailability(key string, online bool) {
	if b.publisher == nil {
		return
	}
	payload := payloadOffline
	if online {
		payload = payloadOnline
	}
	if err := b.publisher.PublishString(b.topics.DeviceAvailability(key), payload, b.qos, true); err != nil {
		b.logger.Warn("failed to publish availability", "device", key, "error", err)
	}
}

// publishInventory publishes the retained logical device inventory.
func (b *Bridge) publishInventory() {
	devices := b.registry.All()
	payload, err := json.Marshal(devices)
	if err != nil {
		b.logger.Error("failed to encode device inventory", "error", err)
		return
	}
	if err := b.publisher.Publish(b.topics.BridgeDevices(), payload, b.qos, true); err != nil {
		b.logger.Warn("failed to publish device inventory", "error", err)
	}
}

// statePayload is the JSON body published on a device state topic.
type statePayload struct {
	On         bool    `json:"on"`
	Online     bool    `json:"online"`
	Brightness *int    `json:"brightness,omitempty"`
	Door       *string `json:"door,omitempty"`
	ColorTemp  *int    `json:"color_temp,omitempty"`
}

func newStatePayload(merged tinxy.MergedDevice) statePayload {
	return statePayload{
		On:         merged.State.IsOn(),
		Online:     merged.State.Online(),
		Brightness: merged.State.Brightness,
		Door:       merged.State.Door,
		ColorTemp:  merged.State.ColorTemperature,
	}
}

// setMessage is the JSON body accepted on a device set topic. Brightness
// uses the host 0-255 scale. A bare ON or OFF payload is also accepted.
type setMessage struct {
	On         *bool   `json:"on"`
	Brightness *int    `json:"brightness,omitempty"`
	ColorTemp  *int    `json:"color_temp,omitempty"`
	Preset     *string `json:"preset,omitempty"`
}

// handleSetMessage turns an MQTT set message into a vendor command and
// requests a refresh to confirm the result.
func (b *Bridge) handleSetMessage(topic string, payload []byte) error {
	key, ok := mqtt.DeviceKeyFromTopic(topic)
	if !ok {
		return fmt.Errorf("unrecognized command topic: %s", topic)
	}

	dev, err := b.registry.Get(key)
	if err != nil {
		return fmt.Errorf("command for unknown device %s: %w", key, err)
	}

	if b.commands == nil {
		return fmt.Errorf("command channel unavailable")
	}

	msg, err := parseSetMessage(payload)
	if err != nil {
		return fmt.Errorf("invalid command for %s: %w", key, err)
	}

	brightness := msg.Brightness
	if brightness != nil {
		if *brightness < 0 || *brightness > tinxy.HostBrightnessMax {
			return fmt.Errorf("brightness out of range for %s: %d", key, *brightness)
		}
		vendor := tinxy.HostToVendorBrightness(*brightness)
		brightness = &vendor
	}
	if msg.Preset != nil {
		if dev.Class != tinxy.ClassFan {
			return fmt.Errorf("preset command for non-fan device %s", key)
		}
		vendor := tinxy.FanPresetToPercent(*msg.Preset)
		brightness = &vendor
	}

	cmd := tinxy.BuildCommand(dev, *msg.On, brightness, msg.ColorTemp)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if _, err := b.commands.Send(ctx, cmd); err != nil {
		return fmt.Errorf("sending command for %s: %w", key, err)
	}

	b.logger.Info("device command sent", "device", key, "on", *msg.On)

	if b.history != nil {
		intended := tinxy.DeviceState{On: msg.On, Brightness: brightness}
		if err := b.history.RecordStateChange(ctx, key, intended, tinxy.StateHistorySourceCommand); err != nil {
			b.logger.Warn("failed to record command", "device", key, "error", err)
		}
	}

	// Confirm the observed state on the next debounced refresh.
	if _, err := b.syncer.RequestRefresh(ctx); err != nil {
		b.logger.Warn("post-command refresh failed", "device", key, "error", err)
	}
	return nil
}

// parseSetMessage decodes a set payload. Bare ON/OFF strings are accepted
// alongside the JSON form; the on field is mandatory either way.
func parseSetMessage(payload []byte) (setMessage, error) {
	switch strings.ToUpper(strings.TrimSpace(string(payload))) {
	case "ON":
		on := true
		return setMessage{On: &on}, nil
	case "OFF":
		on := false
		return setMessage{On: &on}, nil
	}

	var msg setMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return setMessage{}, fmt.Errorf("decoding payload: %w", err)
	}
	if msg.On == nil {
		return setMessage{}, fmt.Errorf("on field is required")
	}
	if msg.Brightness != nil && msg.Preset != nil {
		return setMessage{}, fmt.Errorf("brightness and preset are mutually exclusive")
	}
	return msg, nil
}
