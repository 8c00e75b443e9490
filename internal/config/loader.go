package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
// Relative schema_file paths are resolved against the config file directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := LoadFromViper(v)
	if err != nil {
		return nil, err
	}

	cfg.resolveSchemaFiles(filepath.Dir(configPath))
	return cfg, nil
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := substituteEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) error {
	cfg.Database.Host = expandEnvVar(cfg.Database.Host)
	cfg.Database.User = expandEnvVar(cfg.Database.User)
	cfg.Database.Password = expandEnvVar(cfg.Database.Password)
	cfg.Database.Database = expandEnvVar(cfg.Database.Database)
	cfg.Database.Path = expandEnvVar(cfg.Database.Path)

	for name, form := range cfg.Forms {
		form.SchemaFile = expandEnvVar(form.SchemaFile)
		cfg.Forms[name] = form
	}

	cfg.Metrics.Textfile = expandEnvVar(cfg.Metrics.Textfile)
	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

func (c *Config) resolveSchemaFiles(baseDir string) {
	for name, form := range c.Forms {
		if form.SchemaFile != "" && !filepath.IsAbs(form.SchemaFile) {
			form.SchemaFile = filepath.Join(baseDir, form.SchemaFile)
			c.Forms[name] = form
		}
	}
}

// GetForm retrieves a specific form configuration by name.
func (c *Config) GetForm(name string) (*FormConfig, error) {
	form, exists := c.Forms[name]
	if !exists {
		return nil, fmt.Errorf("form %q not found in configuration", name)
	}
	return &form, nil
}

// ListForms returns all form names defined in the configuration.
func (c *Config) ListForms() []string {
	forms := make([]string, 0, len(c.Forms))
	for name := range c.Forms {
		forms = append(forms, name)
	}
	return forms
}

// ApplyOverrides applies CLI flag overrides to the global configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat string, workers int, wkt bool) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if workers > 0 {
		c.Export.Workers = workers
	}
	if wkt {
		c.Export.WKT = true
	}
}

// ApplyFormOverrides combines global, form-specific and CLI export settings.
func (c *Config) ApplyFormOverrides(formName string, workers int, wkt bool) ExportConfig {
	export := c.GetFormExport(formName)

	if workers > 0 {
		export.Workers = workers
	}
	if wkt {
		export.WKT = true
	}

	return export
}
