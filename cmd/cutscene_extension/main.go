package main

/*
#include <stdlib.h>
#include <stdio.h>
#include <string.h>
*/
import "C" // This is required to import the C code

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/OCAP2/cutscene/internal/config"
	"github.com/OCAP2/cutscene/internal/database"
	"github.com/OCAP2/cutscene/internal/dispatcher"
	"github.com/OCAP2/cutscene/internal/influx"
	"github.com/OCAP2/cutscene/internal/library"
	"github.com/OCAP2/cutscene/internal/logging"
	"github.com/OCAP2/cutscene/internal/monitor"
	intOtel "github.com/OCAP2/cutscene/internal/otel"
	"github.com/OCAP2/cutscene/internal/storage"
	"github.com/OCAP2/cutscene/internal/worker"
	"github.com/OCAP2/cutscene/pkg/hostinterface"

	"github.com/spf13/viper"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentExtensionVersion string = "0.1.0"
	BuildDate               string = "unknown"

	ExtensionName string = "cutscene_extension"
)

// file paths
var (
	// ModulePath is the absolute path to this library file.
	ModulePath string

	// ModuleFolder is the parent folder of ModulePath. Relative paths in
	// the config are resolved against it.
	ModuleFolder string

	LogFilePath string
	LogFile     *os.File
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// logAttrs are added to every log record
	logAttrs = logging.NewAttrs()

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime time.Time = time.Now()

	// Services
	registry        = library.NewRegistry()
	workerManager   *worker.Manager
	monitorService  *monitor.Service
	influxManager   *influx.Manager
	dbManager       *database.Manager
	definitionWatch *library.Watcher
	eventDispatcher *dispatcher.Dispatcher

	storageBackend storage.Backend
	storageOnce    sync.Once
)

// init is run automatically when the module is loaded
func init() {
	var err error

	ModulePath = hostinterface.ModulePath()
	ModuleFolder = hostinterface.ModuleDir()

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(logging.Options{Level: "info"})
	Logger = SlogManager.Logger()

	// load config; defaults stay in place when the file is missing
	if err = config.Load(ModuleFolder); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	LogFile, err = logging.OpenLogFile(resolvePath(viper.GetString("logsDir")), ExtensionName, SessionStartTime)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err)
	} else {
		LogFilePath = LogFile.Name()
	}

	setupLogging()

	Logger.Info("Setting up host interface...")
	if err = setupHostInterface(); err != nil {
		Logger.Error("Failed to set up host interface!", "error", err)
		panic(err)
	}
	Logger.Info("Set up host interface", "module", ModulePath)
}

// setupLogging rebuilds the logger with the file, OTel and Graylog sinks.
func setupLogging() {
	var err error
	OTelProvider, err = intOtel.New(intOtel.FromConfig(config.GetOTelConfig(), CurrentExtensionVersion, LogFile))
	if err != nil {
		Logger.Error("Failed to initialize OTel provider", "error", err)
		OTelProvider, _ = intOtel.New(intOtel.Config{})
	}

	opts := logging.Options{
		Level:    viper.GetString("logLevel"),
		Provider: OTelProvider.LoggerProvider(),
		Context:  logAttrs.Provider(),
		Scope:    ExtensionName,
	}
	if LogFile != nil {
		opts.File = LogFile
	}
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGraylogWriter(gl.Address)
		if err != nil {
			Logger.Warn("Failed to connect to Graylog", "address", gl.Address, "error", err)
		} else {
			opts.Graylog = w
		}
	}

	SlogManager.Setup(opts)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath, "otel", OTelProvider.Enabled())
}

func setupHostInterface() error {
	hostinterface.SetVersion(CurrentExtensionVersion)
	hostinterface.SetExtensionName(ExtensionName)

	zl := logging.NewZerolog(logWriter(), viper.GetString("logLevel"), "dispatcher")
	d, err := dispatcher.New(logging.NewDispatcherLogger(zl), OTelProvider.Meter("cutscene/dispatcher"))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	if err := registerLifecycleHandlers(d); err != nil {
		return err
	}
	hostinterface.SetDispatcher(d)
	eventDispatcher = d

	Logger.Info("Dispatcher initialized with lifecycle handlers")
	return nil
}

func registerLifecycleHandlers(d *dispatcher.Dispatcher) error {
	handlers := map[string]dispatcher.HandlerFunc{
		":INIT:": func(e dispatcher.Event) (any, error) {
			go initExtension()
			return "ok", nil
		},
		":INIT:STORAGE:": func(e dispatcher.Event) (any, error) {
			go func() {
				if err := initStorage(); err != nil {
					Logger.Error("Storage initialization failed", "error", err)
				}
			}()
			return "ok", nil
		},
		":VERSION:": func(e dispatcher.Event) (any, error) {
			return []string{CurrentExtensionVersion, BuildDate}, nil
		},
		":GETDIR:MODULE:": func(e dispatcher.Event) (any, error) {
			return ModulePath, nil
		},
		":GETDIR:LOG:": func(e dispatcher.Event) (any, error) {
			return LogFilePath, nil
		},
		":SAVE:": func(e dispatcher.Event) (any, error) {
			Logger.Info("Received :SAVE: command, flushing storage")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := save(ctx); err != nil {
				Logger.Error("Failed to save", "error", err)
				return nil, err
			}
			if exp, ok := storageBackend.(storage.Exporter); ok && exp.LastExportPath() != "" {
				return exp.LastExportPath(), nil
			}
			return "ok", nil
		},
		":SHUTDOWN:": func(e dispatcher.Event) (any, error) {
			shutdown()
			return "ok", nil
		},
	}
	for cmd, h := range handlers {
		if err := d.Register(cmd, h, dispatcher.Logged()); err != nil {
			return fmt.Errorf("failed to register %s: %w", cmd, err)
		}
	}
	return nil
}

func initExtension() {
	writeCallback(":EXT:READY:")
	writeCallback(":VERSION:", CurrentExtensionVersion, BuildDate)
}

// save flushes storage, telemetry and OTel logs.
func save(ctx context.Context) error {
	otelFlush := func(ctx context.Context) error {
		return OTelProvider.Flush(ctx)
	}
	if workerManager == nil {
		return otelFlush(ctx)
	}
	return workerManager.Flush(ctx, otelFlush)
}

// shutdown stops every service started by initStorage.
func shutdown() {
	Logger.Info("Shutting down")
	if definitionWatch != nil {
		if err := definitionWatch.Close(); err != nil {
			Logger.Warn("Failed to close definition watcher", "error", err)
		}
	}
	if monitorService != nil {
		monitorService.Stop()
	}
	if workerManager != nil {
		workerManager.Close()
	}
	if storageBackend != nil {
		if err := storageBackend.Close(); err != nil {
			Logger.Error("Failed to close storage backend", "error", err)
		}
	}
	if dbManager != nil {
		if err := dbManager.Close(); err != nil {
			Logger.Error("Failed to close database", "error", err)
		}
	}
	if influxManager != nil {
		if err := influxManager.Close(); err != nil {
			Logger.Error("Failed to close InfluxDB", "error", err)
		}
	}
	eventDispatcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := OTelProvider.Shutdown(ctx); err != nil {
		Logger.Warn("Failed to shut down OTel provider", "error", err)
	}
}

// writeCallback sends function with data encoded as a JSON array.
func writeCallback(function string, data ...string) {
	payload, err := json.Marshal(data)
	if err != nil {
		Logger.Error("Failed to encode callback", "function", function, "error", err)
		return
	}
	if err := hostinterface.WriteCallback(function, string(payload)); err != nil {
		Logger.Warn("Failed to send callback", "function", function, "error", err)
	}
}

// resolvePath makes config paths relative to the module folder.
func resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(ModuleFolder, p)
}

func logWriter() *os.File {
	if LogFile != nil {
		return LogFile
	}
	return os.Stdout
}

// main runs the extension as a standalone program for local testing:
// list, play <name>, or history [name].
func main() {
	Logger.Info("Starting up...")
	if err := initStorage(); err != nil {
		panic(err)
	}
	defer shutdown()

	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Println("No arguments provided.")
		return
	}

	switch strings.ToLower(args[0]) {
	case "list":
		for _, name := range registry.Names() {
			fmt.Println(name)
		}
	case "play":
		if len(args) < 2 {
			fmt.Println("No cutscene name provided.")
			return
		}
		if err := playLocal(args[1]); err != nil {
			panic(err)
		}
	case "history":
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		fmt.Println(hostinterface.Call(":CUTSCENE:HISTORY:", []string{name}))
	default:
		fmt.Printf("Unknown command %q.\n", args[0])
	}
}

// playLocal drives a cutscene at 25 ticks per second, printing every frame.
func playLocal(name string) error {
	const dt = 1.0 / 25
	if err := workerManager.Play(name, nil); err != nil {
		return err
	}
	for {
		snap, err := workerManager.Tick(dt, false, 1)
		if err != nil {
			return err
		}
		line, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		fmt.Println(string(line))
		if snap.Done {
			return nil
		}
	}
}
