package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/OCAP2/cutscene/internal/config"
	"github.com/OCAP2/cutscene/internal/database"
	"github.com/OCAP2/cutscene/internal/influx"
	"github.com/OCAP2/cutscene/internal/library"
	"github.com/OCAP2/cutscene/internal/logging"
	"github.com/OCAP2/cutscene/internal/monitor"
	"github.com/OCAP2/cutscene/internal/storage"
	gormstorage "github.com/OCAP2/cutscene/internal/storage/gorm"
	"github.com/OCAP2/cutscene/internal/storage/memory"
	sqlitestorage "github.com/OCAP2/cutscene/internal/storage/sqlite"
	"github.com/OCAP2/cutscene/internal/worker"
	"github.com/OCAP2/cutscene/pkg/hostinterface"
	"github.com/spf13/viper"
)

var errStorageInitialized = errors.New("storage already initialized")

func initStorage() error {
	err := errStorageInitialized
	storageOnce.Do(func() { err = startStorage() })
	if err != nil {
		writeCallback(":STORAGE:ERROR:", err.Error())
		return err
	}
	return nil
}

func startStorage() error {
	Logger.Debug("Received :INIT:STORAGE: call")
	ctx := context.Background()
	storageCfg := config.GetStorageConfig()

	backend, err := createStorageBackend(storageCfg)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return err
	}
	if err := backend.Init(ctx); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err)
		return err
	}
	storageBackend = backend
	logAttrs.Set("storage", storageCfg.Type)

	telemetry := initTelemetry(ctx)

	definitionsDir := resolvePath(viper.GetString("definitionsDir"))
	if err := os.MkdirAll(definitionsDir, 0o755); err != nil {
		Logger.Warn("Failed to create definitions directory", "dir", definitionsDir, "error", err)
	}

	workerManager, err = worker.NewManager(worker.Dependencies{
		Registry:       registry,
		Backend:        storageBackend,
		Telemetry:      telemetry,
		Logger:         Logger,
		Attrs:          logAttrs,
		Meter:          OTelProvider.Meter("cutscene/worker"),
		Notify:         hostinterface.WriteCallback,
		Playback:       config.GetPlaybackConfig(),
		DefinitionsDir: definitionsDir,
		StorageType:    storageCfg.Type,
	})
	if err != nil {
		return fmt.Errorf("failed to create worker manager: %w", err)
	}

	res, err := workerManager.Reload(ctx)
	if err != nil {
		Logger.Warn("Failed to load definitions", "dir", definitionsDir, "error", err)
	}
	for _, f := range res.Failed {
		Logger.Warn("Cutscene definition skipped", "error", f)
	}
	stored, err := workerManager.LoadStored(ctx)
	if err != nil {
		Logger.Warn("Failed to load stored cutscenes", "error", err)
	}
	Logger.Info("Cutscenes loaded", "files", res.Loaded, "stored", stored, "total", registry.Len())

	if viper.GetBool("watchDefinitions") {
		w, err := library.NewWatcher(definitionsDir, registry, Logger)
		if err != nil {
			Logger.Warn("Failed to watch definitions directory", "dir", definitionsDir, "error", err)
		} else {
			definitionWatch = w
			go workerManager.Watch(w)
		}
	}

	Logger.Debug("Registering cutscene handlers with dispatcher")
	if err := workerManager.RegisterHandlers(eventDispatcher); err != nil {
		return err
	}
	Logger.Info("Cutscene handlers registered with dispatcher")

	monitorService = monitor.NewService(monitor.Dependencies{
		Logger: Logger,
		Dir:    ModuleFolder,
		State:  workerManager.State,
	})
	monitorService.Start()

	writeCallback(":STORAGE:OK:", storageCfg.Type)
	return nil
}

func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		dbManager = database.NewManager(logging.NewZerolog(logWriter(), viper.GetString("logLevel"), "database"))
		if err := dbManager.Connect(config.GetDBConfig()); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if dbManager.Local {
			Logger.Warn("Postgres unavailable, using local SQLite with periodic disk dump")
			db := dbManager.DB
			// the sqlite backend owns the fallback connection from here on
			dbManager = nil
			return sqlitestorage.NewWithDB(db, sqliteConfig(storageCfg), Logger), nil
		}
		Logger.Info("Postgres storage backend initialized")
		return gormstorage.New(gormstorage.Dependencies{DB: dbManager.DB, Logger: Logger}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqliteConfig(storageCfg), Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend initialized")
		return backend, nil

	default:
		memCfg := storageCfg.Memory
		memCfg.OutputDir = resolvePath(memCfg.OutputDir)
		Logger.Info("Memory storage backend initialized", "outputDir", memCfg.OutputDir)
		return memory.New(memCfg), nil
	}
}

func sqliteConfig(storageCfg config.StorageConfig) sqlitestorage.Config {
	return sqlitestorage.Config{
		Name:         ExtensionName,
		DumpInterval: storageCfg.SQLite.DumpInterval,
		DumpPath: filepath.Join(
			resolvePath(storageCfg.SQLite.OutputDir),
			fmt.Sprintf("%s_%s.db", ExtensionName, SessionStartTime.Format("20060102_150405")),
		),
	}
}

// initTelemetry connects playback telemetry. A nil result disables it.
func initTelemetry(ctx context.Context) worker.Telemetry {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return nil
	}
	influxManager = influx.NewManager(
		cfg,
		logging.NewZerolog(logWriter(), viper.GetString("logLevel"), "influx"),
		filepath.Join(ModuleFolder, "influx_backup.log.gz"),
	)
	if err := influxManager.Connect(ctx); err != nil {
		Logger.Error("Failed to set up playback telemetry", "error", err)
		return nil
	}
	return influxManager
}
