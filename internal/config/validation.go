package config

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/formrows/internal/sqlutil"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// FieldTypes lists the accepted values of FieldConfig.Type.
var FieldTypes = map[string]bool{
	"structure": true,
	"repeat":    true,
	"int":       true,
	"decimal":   true,
	"geopoint":  true,
	"text":      true,
	"binary":    true,
}

// Validate checks the configuration for required fields and valid values.
// The database section is only checked when requireDatabase is set, so that
// file-only commands work without store credentials.
func (c *Config) Validate(requireDatabase bool) error {
	var errors ValidationErrors

	if requireDatabase {
		if err := c.validateDatabase(); err != nil {
			errors = append(errors, err...)
		}
	}

	if len(c.Forms) == 0 {
		errors = append(errors, ValidationError{
			Field:   "forms",
			Message: "at least one form must be defined",
		})
	}
	for name, form := range c.Forms {
		if err := c.validateForm(name, &form); err != nil {
			errors = append(errors, err...)
		}
	}

	if err := c.validateExport("export", &c.Export); err != nil {
		errors = append(errors, err...)
	}

	if c.Ingest.LockTimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "ingest.lock_timeout_seconds",
			Message: "lock_timeout_seconds cannot be negative",
		})
	}

	if err := c.validateLogging(); err != nil {
		errors = append(errors, err...)
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateDatabase() ValidationErrors {
	var errors ValidationErrors
	db := &c.Database

	switch db.Driver {
	case "mysql", "":
		if db.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "database.host",
				Message: "host is required",
			})
		}
		if db.Port <= 0 || db.Port > 65535 {
			errors = append(errors, ValidationError{
				Field:   "database.port",
				Message: "port must be between 1 and 65535",
			})
		}
		if db.User == "" {
			errors = append(errors, ValidationError{
				Field:   "database.user",
				Message: "user is required",
			})
		}
		if db.Database == "" {
			errors = append(errors, ValidationError{
				Field:   "database.database",
				Message: "database name is required",
			})
		}
	case "sqlite":
		if db.Path == "" {
			errors = append(errors, ValidationError{
				Field:   "database.path",
				Message: "path is required for the sqlite driver",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "database.driver",
			Message: "driver must be 'mysql' or 'sqlite'",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[db.TLS] {
		errors = append(errors, ValidationError{
			Field:   "database.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if db.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "database.max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if db.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "database.max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	for field, table := range map[string]string{
		"database.submissions_table": db.SubmissionsTable,
		"database.attachments_table": db.AttachmentsTable,
	} {
		if !sqlutil.IsValidIdentifier(table) {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%q is not a valid table name", table),
			})
		}
	}

	return errors
}

func (c *Config) validateForm(name string, form *FormConfig) ValidationErrors {
	var errors ValidationErrors
	prefix := fmt.Sprintf("forms.%s", name)

	if strings.ContainsAny(form.RootTable, ".-") {
		errors = append(errors, ValidationError{
			Field:   prefix + ".root_table",
			Message: "root_table cannot contain '.' or '-'",
		})
	}

	if form.SchemaFile == "" && len(form.Fields) == 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".fields",
			Message: "either fields or schema_file is required",
		})
	}
	if form.SchemaFile != "" && len(form.Fields) > 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".schema_file",
			Message: "schema_file and inline fields are mutually exclusive",
		})
	}

	errors = append(errors, ValidateFields(prefix+".fields", form.Fields)...)

	if form.Export != nil {
		if err := c.validateExport(prefix+".export", form.Export); err != nil {
			errors = append(errors, err...)
		}
	}

	return errors
}

// ValidateFields checks a field list recursively. It is shared with the
// schema loader so that schema files get the same checks as inline fields.
func ValidateFields(prefix string, fields []FieldConfig) ValidationErrors {
	var errors ValidationErrors
	seen := make(map[string]bool, len(fields))

	for i, field := range fields {
		fieldPrefix := fmt.Sprintf("%s[%d]", prefix, i)

		if field.Name == "" {
			errors = append(errors, ValidationError{
				Field:   fieldPrefix + ".name",
				Message: "name is required",
			})
		} else if strings.ContainsAny(field.Name, ".-/") {
			errors = append(errors, ValidationError{
				Field:   fieldPrefix + ".name",
				Message: fmt.Sprintf("name %q cannot contain '.', '-' or '/'", field.Name),
			})
		} else if seen[field.Name] {
			errors = append(errors, ValidationError{
				Field:   fieldPrefix + ".name",
				Message: fmt.Sprintf("duplicate field %q", field.Name),
			})
		}
		seen[field.Name] = true

		if !FieldTypes[field.Type] {
			errors = append(errors, ValidationError{
				Field:   fieldPrefix + ".type",
				Message: fmt.Sprintf("unknown type %q", field.Type),
			})
		}

		container := field.Type == "structure" || field.Type == "repeat"
		if !container && len(field.Children) > 0 {
			errors = append(errors, ValidationError{
				Field:   fieldPrefix + ".children",
				Message: fmt.Sprintf("%s fields cannot have children", field.Type),
			})
		}

		errors = append(errors, ValidateFields(fieldPrefix+".children", field.Children)...)
	}

	return errors
}

func (c *Config) validateExport(prefix string, export *ExportConfig) ValidationErrors {
	var errors ValidationErrors

	if export.Workers < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".workers",
			Message: "workers cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
