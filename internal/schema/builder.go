package schema

import (
	"fmt"

	"github.com/dbsmedya/formrows/internal/config"
)

// Builder constructs a schema tree from form configuration.
type Builder struct {
	form *config.FormConfig
}

// NewBuilder creates a new schema builder for the given form configuration.
func NewBuilder(form *config.FormConfig) *Builder {
	return &Builder{form: form}
}

// Build validates the form's fields (inline or from its schema file) and
// returns the root field, named after the form's root table.
func (b *Builder) Build() (*Field, error) {
	if b.form == nil {
		return nil, fmt.Errorf("form configuration is nil")
	}

	fields := b.form.Fields
	if b.form.SchemaFile != "" {
		loaded, err := LoadFile(b.form.SchemaFile)
		if err != nil {
			return nil, err
		}
		fields = loaded
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("form defines no fields")
	}

	if errs := config.ValidateFields("fields", fields); len(errs) > 0 {
		return nil, fmt.Errorf("invalid schema: %w", errs)
	}

	root := &Field{Name: b.form.GetRootTable(), Kind: Structure}
	if err := b.addFields(root, fields); err != nil {
		return nil, fmt.Errorf("failed to build schema: %w", err)
	}
	return root, nil
}

// addFields recursively attaches configured fields under parent.
func (b *Builder) addFields(parent *Field, fields []config.FieldConfig) error {
	for _, fc := range fields {
		field := &Field{Name: fc.Name, Kind: Kind(fc.Type)}
		if err := parent.add(field); err != nil {
			return err
		}
		if len(fc.Children) > 0 {
			if err := b.addFields(field, fc.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

// BuildFromForm is a convenience function that builds a schema directly from a form config.
func BuildFromForm(form *config.FormConfig) (*Field, error) {
	return NewBuilder(form).Build()
}
