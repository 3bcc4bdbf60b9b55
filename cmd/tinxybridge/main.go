// Tinxy Bridge - Smart Home Cloud Bridge
//
// This is the main entry point for the Tinxy bridge. It normalizes the
// vendor's hardware units into per-relay logical devices and keeps an
// atomic state snapshot synchronized with the cloud, exposing both over:
//   - A REST API for local integrations
//   - MQTT state/command topics for host platforms
//   - InfluxDB telemetry and a SQLite state history trail
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/tinxy-bridge/migrations"

	"github.com/nerrad567/tinxy-bridge/internal/api"
	"github.com/nerrad567/tinxy-bridge/internal/bridge"
	"github.com/nerrad567/tinxy-bridge/internal/infrastructure/config"
	"github.com/nerrad567/tinxy-bridge/internal/infrastructure/database"
	"github.com/nerrad567/tinxy-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/tinxy-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/tinxy-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/tinxy-bridge/internal/tinxy"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Tinxy bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	history := tinxy.NewSQLiteStateHistoryRepository(db.DB)

	// Create the vendor cloud client
	client, err := tinxy.NewClient(tinxy.Config{
		Token:   cfg.Vendor.Token,
		BaseURL: cfg.Vendor.BaseURL,
	}, &http.Client{Timeout: cfg.GetVendorTimeout()})
	if err != nil {
		return fmt.Errorf("creating cloud client: %w", err)
	}
	client.SetLogger(log)

	// Build the device registry and pull the hardware inventory
	registry := tinxy.NewRegistry(client)
	registry.SetLogger(log)
	if syncErr := registry.Sync(ctx); syncErr != nil {
		return fmt.Errorf("syncing device inventory: %w", syncErr)
	}
	log.Info("device inventory synced", "devices", registry.Count())

	// Build the status synchronizer and take the first snapshot
	syncer := tinxy.NewSynchronizer(registry, client)
	syncer.SetLogger(log)
	syncer.SetTimeout(cfg.GetVendorTimeout())
	syncer.SetCooldown(cfg.GetDebounce())
	if _, refreshErr := syncer.Refresh(ctx); refreshErr != nil {
		// A cold cloud feed is not fatal; the poll loop keeps retrying.
		log.Warn("initial status refresh failed", "error", refreshErr)
	} else {
		log.Info("initial snapshot loaded", "devices", len(syncer.Snapshot()))
	}

	// Connect to the MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the poll loop and MQTT command handling
	bridgeLoop, err := newBridge(cfg, log, registry, syncer, client, mqttClient, influxClient, history)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	if startErr := bridgeLoop.Start(ctx); startErr != nil {
		return fmt.Errorf("starting bridge: %w", startErr)
	}
	defer func() {
		log.Info("stopping bridge")
		if closeErr := bridgeLoop.Close(); closeErr != nil {
			log.Error("error stopping bridge", "error", closeErr)
		}
	}()

	// Start the REST API server
	apiServer, err := api.New(api.Deps{
		Config:       cfg.API,
		Logger:       log,
		Registry:     registry,
		Synchronizer: syncer,
		Commands:     client,
		History:      history,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Bridge loop
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if enabled)
	// 5. Database

	log.Info("Tinxy bridge stopped")
	return nil
}

// newBridge wires the poll loop with whichever optional sinks are
// configured. Nil interface values must stay nil, so the optional clients
// are only assigned when their concrete pointers are non-nil.
func newBridge(
	cfg *config.Config,
	log *logging.Logger,
	registry *tinxy.Registry,
	syncer *tinxy.Synchronizer,
	client *tinxy.Client,
	mqttClient *mqtt.Client,
	influxClient *influxdb.Client,
	history tinxy.StateHistoryRepository,
) (*bridge.Bridge, error) {
	deps := bridge.Deps{
		Logger:       log,
		Registry:     registry,
		Synchronizer: syncer,
		Commands:     client,
		History:      history,
		PollInterval: cfg.GetPollInterval(),
		QoS:          byte(cfg.MQTT.QoS),
	}
	if mqttClient != nil {
		deps.Publisher = mqttClient
	}
	if influxClient != nil {
		deps.Telemetry = influxClient
	}
	return bridge.New(deps)
}

// getConfigPath returns the configuration file path.
// Uses TINXY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TINXY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
