// Package config provides configuration structures and loading for formrows.
package config

// Config represents the complete application configuration.
type Config struct {
	Database DatabaseConfig        `yaml:"database" mapstructure:"database"`
	Forms    map[string]FormConfig `yaml:"forms" mapstructure:"forms"`
	Export   ExportConfig          `yaml:"export" mapstructure:"export"`
	Ingest   IngestConfig          `yaml:"ingest" mapstructure:"ingest"`
	Metrics  MetricsConfig         `yaml:"metrics" mapstructure:"metrics"`
	Logging  LoggingConfig         `yaml:"logging" mapstructure:"logging"`
}

// DatabaseConfig represents the submission store connection.
type DatabaseConfig struct {
	Driver             string `yaml:"driver" mapstructure:"driver"` // mysql or sqlite
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	Path               string `yaml:"path" mapstructure:"path"` // sqlite file path
	TLS                string `yaml:"tls" mapstructure:"tls"`   // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
	SubmissionsTable   string `yaml:"submissions_table" mapstructure:"submissions_table"`
	AttachmentsTable   string `yaml:"attachments_table" mapstructure:"attachments_table"`
}

// FormConfig describes one form: its root table name and its field tree.
// Fields may be given inline or in a separate YAML file.
type FormConfig struct {
	RootTable  string        `yaml:"root_table" mapstructure:"root_table"`
	SchemaFile string        `yaml:"schema_file" mapstructure:"schema_file"`
	Fields     []FieldConfig `yaml:"fields" mapstructure:"fields"`
	Export     *ExportConfig `yaml:"export,omitempty" mapstructure:"export"`
}

// FieldConfig is one schema field. Children are only valid for
// structure and repeat fields.
type FieldConfig struct {
	Name     string        `yaml:"name" mapstructure:"name"`
	Type     string        `yaml:"type" mapstructure:"type"` // structure, repeat, int, decimal, geopoint, text, binary
	Children []FieldConfig `yaml:"children" mapstructure:"children"`
}

// ExportConfig represents row output settings.
type ExportConfig struct {
	WKT     bool `yaml:"wkt" mapstructure:"wkt"`
	Workers int  `yaml:"workers" mapstructure:"workers"`
}

// IngestConfig represents submission ingestion settings.
type IngestConfig struct {
	AdvisoryLock       bool `yaml:"advisory_lock" mapstructure:"advisory_lock"`
	LockTimeoutSeconds int  `yaml:"lock_timeout_seconds" mapstructure:"lock_timeout_seconds"`
}

// MetricsConfig represents Prometheus metric settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
	Textfile  string `yaml:"textfile" mapstructure:"textfile"` // node_exporter textfile output path
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultRootTable is the root table name used when a form does not set one.
const DefaultRootTable = "Submissions"

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:             "mysql",
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     10,
			MaxIdleConnections: 5,
			SubmissionsTable:   "submissions",
			AttachmentsTable:   "submission_attachments",
		},
		Export: ExportConfig{
			WKT:     false,
			Workers: 4,
		},
		Ingest: IngestConfig{
			AdvisoryLock:       true,
			LockTimeoutSeconds: 10,
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "formrows",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// GetFormExport returns the export config for a form by name, falling back to global if not set.
func (c *Config) GetFormExport(formName string) ExportConfig {
	form, err := c.GetForm(formName)
	if err != nil {
		return c.Export
	}
	return form.GetFormExport(c.Export)
}

// GetFormExport returns the export config for a form, falling back to global if not set.
func (fc *FormConfig) GetFormExport(global ExportConfig) ExportConfig {
	if fc.Export == nil {
		return global
	}

	result := global
	result.WKT = fc.Export.WKT || global.WKT
	if fc.Export.Workers > 0 {
		result.Workers = fc.Export.Workers
	}
	return result
}

// GetRootTable returns the form's root table name, or DefaultRootTable.
func (fc *FormConfig) GetRootTable() string {
	if fc.RootTable == "" {
		return DefaultRootTable
	}
	return fc.RootTable
}
