package tinxy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Timing defaults for the refresh cycle.
const (
	// DefaultPollInterval is the cadence the host scheduler is expected to
	// call Refresh at.
	DefaultPollInterval = 7 * time.Second

	// DefaultRefreshTimeout bounds one whole refresh operation.
	DefaultRefreshTimeout = 10 * time.Second

	// DefaultRefreshCooldown coalesces bursts of externally requested
	// refreshes (e.g. rapid sequential commands) into one network call.
	DefaultRefreshCooldown = 350 * time.Millisecond
)

// StatusFetcher supplies the raw status feed. *Client satisfies this;
// tests substitute fakes.
type StatusFetcher interface {
	FetchStatuses(ctx context.Context) ([]StatusRecord, error)
}

// Synchronizer reconciles the status feed against the device registry and
// exposes the merged snapshot.
//
// Refreshes never overlap: a second Refresh arriving while one is in
// flight waits for and shares that refresh's result instead of issuing a
// parallel fetch. The snapshot is replaced atomically, so readers always
// observe a complete mapping. All methods are safe for concurrent use.
type Synchronizer struct {
	registry *Registry
	fetcher  StatusFetcher

	timeout  time.Duration
	cooldown time.Duration

	// mu guards in-flight coordination and the cooldown clock.
	mu          sync.Mutex
	inflight    *refreshCall
	lastRefresh time.Time

	// snapMu guards the published snapshot.
	snapMu   sync.RWMutex
	snapshot Snapshot

	log Logger
}

// refreshCall is the single-flight slot shared by coalesced callers.
type refreshCall struct {
	done chan struct{}
	snap Snapshot
	err  error
}

// NewSynchronizer creates a synchronizer over a registry and status source
// with the default timeout and cooldown.
func NewSynchronizer(registry *Registry, fetcher StatusFetcher) *Synchronizer {
	return &Synchronizer{
		registry: registry,
		fetcher:  fetcher,
		timeout:  DefaultRefreshTimeout,
		cooldown: DefaultRefreshCooldown,
		log:      noopLogger{},
	}
}

// SetLogger sets the logger for refresh diagnostics.
func (s *Synchronizer) SetLogger(log Logger) {
	if log != nil {
		s.log = log
	}
}

// SetTimeout overrides the per-refresh time budget.
func (s *Synchronizer) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		s.timeout = timeout
	}
}

// SetCooldown overrides the request-refresh coalescing window.
func (s *Synchronizer) SetCooldown(cooldown time.Duration) {
	if cooldown >= 0 {
		s.cooldown = cooldown
	}
}

// Refresh fetches the status feed, merges it with the registry's device
// list by key and publishes the result as the new snapshot.
//
// Devices without a matching status entry are excluded from the snapshot
// and logged at warning level; absence of status means "unknown", not
// "off". If a refresh is already in flight, the call waits for it and
// returns its result rather than starting a second fetch.
//
// Errors follow the package taxonomy: ErrAuthentication is terminal for
// the session, ErrCommunication (including timeout) and ErrUnexpected are
// transient.
func (s *Synchronizer) Refresh(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.inflight != nil {
		call := s.inflight
		s.mu.Unlock()
		<-call.done
		return call.snap, call.err
	}
	call := &refreshCall{done: make(chan struct{})}
	s.inflight = call
	s.mu.Unlock()

	call.snap, call.err = s.doRefresh(ctx)
	close(call.done)

	s.mu.Lock()
	s.inflight = nil
	s.lastRefresh = time.Now()
	s.mu.Unlock()

	return call.snap, call.err
}

// RequestRefresh is the debounced entry point for event-driven refreshes,
// typically issued right after a command. Requests arriving within the
// cooldown window of the previous completed refresh return the current
// snapshot without touching the network.
func (s *Synchronizer) RequestRefresh(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	withinCooldown := s.inflight == nil && time.Since(s.lastRefresh) < s.cooldown
	s.mu.Unlock()

	if withinCooldown {
		return s.Snapshot(), nil
	}
	return s.Refresh(ctx)
}

// Snapshot returns the most recently published merged view. The returned
// mapping is never mutated after publication; callers may read it freely
// but must not modify it.
func (s *Synchronizer) Snapshot() Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snapshot
}

// Device returns one merged view from the current snapshot.
func (s *Synchronizer) Device(key string) (MergedDevice, bool) {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	merged, ok := s.snapshot[key]
	return merged, ok
}

// doRefresh performs the fetch-extract-merge cycle under the time budget.
func (s *Synchronizer) doRefresh(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	records, err := s.fetcher.FetchStatuses(ctx)
	if err != nil {
		return nil, s.classify(ctx, err)
	}

	statuses := ExtractStatuses(records)
	devices := s.registry.All()

	snapshot := make(Snapshot, len(devices))
	for _, dev := range devices {
		state, ok := statuses[dev.Key]
		if !ok {
			s.log.Warn("no status found for device", "key", dev.Key)
			continue
		}
		snapshot[dev.Key] = MergedDevice{Device: dev, State: state}
	}

	s.snapMu.Lock()
	s.snapshot = snapshot
	s.snapMu.Unlock()

	s.log.Debug("refresh complete", "devices", len(devices), "merged", len(snapshot))
	return snapshot, nil
}

// classify maps a fetch failure onto the package error taxonomy. Exceeding
// the refresh budget is a communication failure, never an authentication
// one.
func (s *Synchronizer) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrAuthentication):
		s.log.Error("authentication failed during refresh", "error", err)
		return err
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		s.log.Error("refresh timed out", "timeout", s.timeout)
		return fmt.Errorf("%w: refresh timed out after %v", ErrCommunication, s.timeout)
	case errors.Is(err, ErrCommunication), errors.Is(err, ErrUnexpected):
		s.log.Error("refresh failed", "error", err)
		return err
	default:
		s.log.Error("unexpected refresh failure", "error", err)
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
}
