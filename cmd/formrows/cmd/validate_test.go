package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommandStructure(t *testing.T) {
	assert.NotNil(t, validateCmd)
	assert.Equal(t, "validate", validateCmd.Use)
	assert.Contains(t, validateCmd.Short, "Validate")
	assert.Contains(t, validateCmd.Long, "Checks performed")
	assert.Contains(t, validateCmd.Long, "formrows validate")
	assert.NotNil(t, validateCmd.RunE)

	offline := validateCmd.Flags().Lookup("offline")
	require.NotNil(t, offline)
	assert.Equal(t, "false", offline.DefValue)
}

func TestRunValidate(t *testing.T) {
	tests := []struct {
		name    string
		offline bool
		want    []string
	}{
		{
			name:    "offline",
			offline: true,
			want:    []string{"Forms found: 1", "--- Form: household ---", "Tables: 3", "Validation Complete"},
		},
		{
			name:    "with store",
			offline: false,
			want:    []string{"Store reachable (sqlite)", "Validation Complete"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeTestConfig(t)

			old := validateOffline
			defer func() { validateOffline = old }()
			validateOffline = tt.offline

			var buf bytes.Buffer
			setOutputWriter(&buf)

			require.NoError(t, runValidate(validateCmd, nil))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestRunValidateInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formrows.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`forms:
  broken:
    fields:
      - name: a.b
        type: text
`), 0o644))

	old, oldOffline := cfgFile, validateOffline
	defer func() { cfgFile, validateOffline = old, oldOffline }()
	cfgFile, validateOffline = path, true

	err := runValidate(validateCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot contain")
}
