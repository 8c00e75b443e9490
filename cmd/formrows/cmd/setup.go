package cmd

import (
	"context"
	"fmt"

	"github.com/dbsmedya/formrows/internal/config"
	"github.com/dbsmedya/formrows/internal/database"
	"github.com/dbsmedya/formrows/internal/logger"
	"github.com/dbsmedya/formrows/internal/metrics"
	"github.com/dbsmedya/formrows/internal/schema"
	"github.com/dbsmedya/formrows/internal/store"
)

// loadConfig loads the config file, applies CLI overrides and validates it.
func loadConfig(requireDatabase bool) (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat, overrides.Workers, overrides.WKT)

	if err := cfg.Validate(requireDatabase); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the logger. Commands that write data to stdout pass
// dataOnStdout so log lines go to stderr instead.
func newLogger(cfg *config.Config, dataOnStdout bool) (*logger.Logger, error) {
	logCfg := cfg.Logging
	if dataOnStdout && (logCfg.Output == "" || logCfg.Output == "stdout") {
		logCfg.Output = "stderr"
	}
	log, err := logger.New(&logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

// buildForm returns a form's configuration and its schema tree.
func buildForm(cfg *config.Config, name string) (*config.FormConfig, *schema.Field, error) {
	form, err := cfg.GetForm(name)
	if err != nil {
		return nil, nil, err
	}
	root, err := schema.NewBuilder(form).Build()
	if err != nil {
		return nil, nil, fmt.Errorf("form %q: %w", name, err)
	}
	return form, root, nil
}

// openStore connects to the submission store and makes sure its tables exist.
// The caller closes the returned manager.
func openStore(ctx context.Context, cfg *config.Config) (*database.Manager, *store.Store, error) {
	manager := database.NewManager(&cfg.Database)
	if err := manager.Connect(ctx); err != nil {
		return nil, nil, err
	}

	st, err := store.New(manager.DB, manager.Driver(), cfg.Database.SubmissionsTable, cfg.Database.AttachmentsTable)
	if err != nil {
		manager.Close()
		return nil, nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		manager.Close()
		return nil, nil, err
	}
	return manager, st, nil
}

// newMetrics returns a collector, or nil when metrics are disabled.
func newMetrics(cfg *config.Config) *metrics.Collector {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.NewCollector(&cfg.Metrics, nil)
}

// flushMetrics writes the metrics textfile, logging rather than failing.
func flushMetrics(m *metrics.Collector, log *logger.Logger) {
	if err := m.WriteTextfile(); err != nil {
		log.Warnw("Failed to write metrics textfile", "error", err)
	}
}
