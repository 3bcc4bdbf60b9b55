package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/tinxy-bridge/internal/tinxy"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// handleListDevices returns all logical devices, with an optional class filter.
//
// Query parameters:
//   - class: filter by capability class (Switch, Light, Fan, Lock)
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	if classStr := r.URL.Query().Get("class"); classStr != "" {
		class, ok := tinxy.ParseCapabilityClass(classStr)
		if !ok {
			writeBadRequest(w, "unknown device class: "+classStr)
			return
		}
		devices := s.registry.ByClass(class)
		writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
		return
	}

	devices := s.registry.All()
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by its logical key.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	dev, err := s.registry.Get(key)
	if err != nil {
		if errors.Is(err, tinxy.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleGetDeviceState returns the current state of a device from the
// latest snapshot. If the device is registered but absent from the
// snapshot, a debounced refresh is attempted before giving up.
func (s *Server) handleGetDeviceState(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if _, err := s.registry.Get(key); err != nil {
		if errors.Is(err, tinxy.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	merged, ok := s.syncer.Device(key)
	if !ok {
		// Snapshot may be stale or empty; try a debounced refresh.
		if _, err := s.syncer.RequestRefresh(r.Context()); err != nil {
			s.writeRefreshError(w, err)
			return
		}
		merged, ok = s.syncer.Device(key)
	}
	if !ok {
		writeNotFound(w, "no status for device")
		return
	}

	writeJSON(w, http.StatusOK, merged)
}

// commandRequest is the body for POST /devices/{key}/command.
//
// Brightness uses the host platform 0-255 scale and is converted to the
// vendor 1-100 scale here. Preset is an alternative to brightness for
// fans (Low, Medium, High).
type commandRequest struct {
	On         *bool   `json:"on"`
	Brightness *int    `json:"brightness,omitempty"`
	ColorTemp  *int    `json:"color_temp,omitempty"`
	Preset     *string `json:"preset,omitempty"`
}

// handleDeviceCommand translates a host command into a vendor request
// and sends it to the cloud.
func (s *Server) handleDeviceCommand(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	dev, err := s.registry.Get(key)
	if err != nil {
		if errors.Is(err, tinxy.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	if s.commands == nil {
		writeUnavailable(w, "command channel unavailable")
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.On == nil {
		writeBadRequest(w, "on field is required")
		return
	}
	if req.Brightness != nil && (*req.Brightness < 0 || *req.Brightness > tinxy.HostBrightnessMax) {
		writeBadRequest(w, "brightness must be between 0 and 255")
		return
	}
	if req.Brightness != nil && req.Preset != nil {
		writeBadRequest(w, "brightness and preset are mutually exclusive")
		return
	}

	brightness := req.Brightness
	if brightness != nil {
		pct := tinxy.HostToVendorBrightness(*brightness)
		brightness = &pct
	}
	if req.Preset != nil {
		if dev.Class != tinxy.ClassFan {
			writeBadRequest(w, "preset is only valid for fans")
			return
		}
		pct := tinxy.FanPresetToPercent(*req.Preset)
		brightness = &pct
	}

	cmd := tinxy.BuildCommand(dev, *req.On, brightness, req.ColorTemp)
	if _, err := s.commands.Send(r.Context(), cmd); err != nil {
		s.logger.Warn("device command failed", "device", key, "error", err)
		s.writeRefreshError(w, err)
		return
	}

	// Confirm the new state on the next debounced refresh cycle.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), tinxy.DefaultRefreshTimeout)
		defer cancel()
		if _, err := s.syncer.RequestRefresh(ctx); err != nil {
			s.logger.Warn("post-command refresh failed", "device", key, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "accepted",
		"device": key,
	})
}

// handleGetDeviceHistory returns recorded state transitions for a device.
//
// Query parameters:
//   - limit: maximum entries to return (default 50, max 200)
func (s *Server) handleGetDeviceHistory(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if _, err := s.registry.Get(key); err != nil {
		if errors.Is(err, tinxy.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	if s.history == nil {
		writeUnavailable(w, "state history unavailable")
		return
	}

	limit := defaultHistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		if parsed > maxHistoryLimit {
			parsed = maxHistoryLimit
		}
		limit = parsed
	}

	entries, err := s.history.GetHistory(r.Context(), key, limit)
	if err != nil {
		s.logger.Error("failed to load device history", "device", key, "error", err)
		writeInternalError(w, "failed to load device history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device":  key,
		"entries": entries,
		"count":   len(entries),
	})
}

// writeRefreshError maps cloud error taxonomy to HTTP responses.
func (s *Server) writeRefreshError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tinxy.ErrAuthentication):
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, "cloud authentication failed")
	case errors.Is(err, tinxy.ErrCommunication):
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, "cloud unreachable")
	default:
		writeInternalError(w, "unexpected cloud error")
	}
}

