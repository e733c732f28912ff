// Gray Logic Detector - field sensor agent
//
// The detector samples its enabled climate and gas sensors every few
// seconds and uploads the readings to the central collector. Which sensors
// are enabled is decided by the registry at boot and can be changed at any
// time through the control endpoint (PUT /update).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"sort"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"periph.io/x/conn/v3/analog"

	"github.com/nerrad567/gray-logic-detector/internal/agent"
	"github.com/nerrad567/gray-logic-detector/internal/control"
	"github.com/nerrad567/gray-logic-detector/internal/diagnostics"
	"github.com/nerrad567/gray-logic-detector/internal/dispatch"
	"github.com/nerrad567/gray-logic-detector/internal/history"
	"github.com/nerrad567/gray-logic-detector/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-detector/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-detector/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-detector/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-detector/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-detector/internal/metrics"
	"github.com/nerrad567/gray-logic-detector/internal/netlink"
	"github.com/nerrad567/gray-logic-detector/internal/registry"
	"github.com/nerrad567/gray-logic-detector/internal/sensor"
	"github.com/nerrad567/gray-logic-detector/internal/state"
	"github.com/nerrad567/gray-logic-detector/internal/telemetry"
	"github.com/nerrad567/gray-logic-detector/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/detector.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the command-line flags.
type options struct {
	configPath  string
	showVersion bool
}

// parseFlags reads args. The config path falls back to DETECTOR_CONFIG and
// then to defaultConfigPath.
func parseFlags(args []string) (options, error) {
	var opts options

	fs := pflag.NewFlagSet("detector", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "path to the YAML configuration file (env DETECTOR_CONFIG)")
	fs.BoolVar(&opts.showVersion, "version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.configPath == "" {
		opts.configPath = os.Getenv("DETECTOR_CONFIG")
	}
	if opts.configPath == "" {
		opts.configPath = defaultConfigPath
	}
	return opts, nil
}

// run is the actual application logic, separated from main for testability.
//
// Returns:
//   - error: nil on clean shutdown, or error describing a bootstrap failure
func run(ctx context.Context, args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.showVersion {
		fmt.Printf("detector %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	log := logging.Default()
	log.Info("starting Gray Logic Detector",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", opts.configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := state.NewStore()

	// Dispatch journal (optional)
	var journal history.Journal
	var pruner agent.Pruner
	checks := map[string]diagnostics.Checker{}
	if cfg.Database.Enabled {
		db, openErr := database.Open(ctx, database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if openErr != nil {
			return fmt.Errorf("opening database: %w", openErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("dispatch journal ready", "path", cfg.Database.Path)

		sj := history.NewSQLiteJournal(db.DB, nil)
		journal = sj
		pruner = sj
		checks["database"] = db
	}

	// Optional InfluxDB mirror
	var mirrors []dispatch.Mirror
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if influxErr != nil {
			log.Warn("InfluxDB unavailable, continuing without it", "error", influxErr)
		} else {
			defer func() {
				log.Info("closing InfluxDB connection")
				if closeErr := influxClient.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
			log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
			mirrors = append(mirrors, dispatch.NewInfluxMirror(influxClient, nil))
			checks["influxdb"] = influxClient
		}
	}

	registryClient := registry.NewClient(cfg.Registry.BaseURL, cfg.Registry.Timeout)

	dispatcher, err := dispatch.NewDispatcher(dispatch.Deps{
		Poster:   registryClient,
		Mirrors:  mirrors,
		Journal:  journal,
		Observer: m,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	collector, err := newCollector(cfg, m, log)
	if err != nil {
		return fmt.Errorf("creating collector: %w", err)
	}

	endpoint, err := control.New(control.Deps{
		Config:   cfg.Control,
		Applier:  store,
		Observer: m,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("creating control endpoint: %w", err)
	}
	defer func() {
		log.Info("stopping control endpoint")
		if closeErr := endpoint.Close(); closeErr != nil {
			log.Error("error stopping control endpoint", "error", closeErr)
		}
	}()
	checks["control"] = endpoint

	synchronizer := registry.NewSynchronizer(registryClient, store)
	synchronizer.SetLogger(log)

	driver, err := agent.New(agent.Deps{
		Store:       store,
		Link:        netlink.NewInterfaceLink(cfg.Device.Interface, cfg.Device.MACAddress, cfg.Device.IPv4),
		Sync:        synchronizer,
		Control:     endpoint,
		Collector:   collector,
		Uploader:    dispatcher,
		Journal:     pruner,
		Retention:   cfg.Database.Retention,
		Observer:    m,
		Logger:      log,
		Interval:    cfg.Loop.Interval,
		WarmUp:      cfg.Loop.WarmUp,
		ConnectPoll: cfg.Loop.ConnectPoll,
	})
	if err != nil {
		return fmt.Errorf("creating agent: %w", err)
	}

	if err := driver.Boot(ctx); err != nil {
		if ctx.Err() != nil {
			log.Info("shutdown requested during boot")
			return nil
		}
		return fmt.Errorf("booting: %w", err)
	}
	id := driver.Identity()

	// MQTT needs the device MAC for its topics, so it connects after boot.
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT, id.MACAddress)
		if mqttErr != nil {
			log.Warn("MQTT unavailable, continuing without it", "error", mqttErr)
		} else {
			mqttClient.SetLogger(log)
			defer func() {
				log.Info("disconnecting from MQTT")
				if closeErr := mqttClient.Close(); closeErr != nil {
					log.Error("error closing MQTT", "error", closeErr)
				}
			}()
			log.Info("MQTT connected",
				"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
				"telemetry_topic", mqttClient.Topics().Telemetry(),
			)
			dispatcher.AddMirror(dispatch.NewMQTTMirror(mqttClient))
			checks["mqtt"] = mqttClient
		}
	}

	if cfg.Metrics.Enabled {
		diag := diagnostics.New(diagnostics.Deps{
			Config:   cfg.Metrics,
			Gatherer: reg,
			Journal:  journal,
			Checks:   checks,
			Version:  version,
			Logger:   log,
		})
		if err := diag.Start(ctx); err != nil {
			return fmt.Errorf("starting diagnostics: %w", err)
		}
		defer func() {
			if closeErr := diag.Close(); closeErr != nil {
				log.Error("error stopping diagnostics", "error", closeErr)
			}
		}()
	}

	log.Info("Gray Logic Detector started",
		"mac", id.MACAddress,
		"registry", registryClient.BaseURL(),
		"control", endpoint.Addr(),
	)

	if err := driver.Run(ctx); err != nil {
		return fmt.Errorf("main loop: %w", err)
	}

	log.Info("shutdown signal received, stopping...")
	return nil
}

// newCollector wires the sensor drivers named in cfg into a collector.
func newCollector(cfg *config.Config, m *metrics.Metrics, log *logging.Logger) (*telemetry.Collector, error) {
	dir := sensor.DefaultDirectory().
		WithSettleDelay("DHT-11", cfg.Sensors.DHT11.SettleDelay).
		WithSettleDelay("DHT-22", cfg.Sensors.DHT22.SettleDelay)

	dht := map[string]sensor.Thermohygrometer{}
	if cfg.Sensors.DHT11.Device != "" {
		dht["DHT-11"] = sensor.NewIIOThermohygrometer(cfg.Sensors.DHT11.Device)
	}
	if cfg.Sensors.DHT22.Device != "" {
		dht["DHT-22"] = sensor.NewIIOThermohygrometer(cfg.Sensors.DHT22.Device)
	}

	var gas analog.PinADC
	if cfg.Sensors.Gas.Channel != "" {
		gas = sensor.NewIIOADC(cfg.Sensors.Gas.Channel, cfg.Sensors.Gas.MaxRaw)
	}

	if err := checkGasChannels(dir, cfg.Sensors.Gas.Channels); err != nil {
		return nil, err
	}

	var channels map[string]analog.PinADC
	if len(cfg.Sensors.Gas.Channels) > 0 {
		channels = make(map[string]analog.PinADC, len(cfg.Sensors.Gas.Channels))
		for name, path := range cfg.Sensors.Gas.Channels {
			channels[name] = sensor.NewIIOADC(path, cfg.Sensors.Gas.MaxRaw)
		}
	}

	return telemetry.NewCollector(telemetry.Deps{
		Directory:         dir,
		Thermohygrometers: dht,
		GasADC:            gas,
		GasChannels:       channels,
		Logger:            log,
		Observer:          m,
	})
}

// checkGasChannels rejects per-sensor channel entries whose key is not a gas
// sensor of dir, so a typo cannot silently fall back to the shared input.
func checkGasChannels(dir *sensor.Directory, channels map[string]string) error {
	known := dir.Names(sensor.KindGas)

	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !slices.Contains(known, name) {
			return fmt.Errorf("%w: sensors.gas.channels key %q (known: %s)",
				sensor.ErrUnknownSensor, name, strings.Join(known, ", "))
		}
	}
	return nil
}
