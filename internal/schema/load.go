package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/formrows/internal/config"
)

// schemaFile is the layout of a standalone schema file:
//
//	fields:
//	  - name: household
//	    type: repeat
//	    children:
//	      - name: age
//	        type: int
type schemaFile struct {
	Fields []config.FieldConfig `yaml:"fields"`
}

// LoadFile reads a YAML schema file and returns its field list.
func LoadFile(path string) ([]config.FieldConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	return sf.Fields, nil
}
