package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testConfig = `database:
  driver: sqlite
  path: %s
logging:
  level: error
  format: text
  output: stderr
forms:
  household:
    fields:
      - name: name
        type: text
      - name: age
        type: int
      - name: photo
        type: binary
      - name: meta
        type: structure
        children:
          - name: instanceID
            type: text
      - name: household
        type: repeat
        children:
          - name: member
            type: text
          - name: pets
            type: repeat
            children:
              - name: species
                type: text
`

const testSubmission = `<?xml version="1.0"?>
<data id="household">
  <name>Alice</name>
  <age>41</age>
  <photo>front.jpg</photo>
  <household>
    <member>Ann</member>
    <pets><species>cat</species></pets>
    <pets><species>dog</species></pets>
  </household>
  <household>
    <member>Ben</member>
  </household>
  <meta><instanceID>uuid:42</instanceID></meta>
</data>`

// writeTestConfig writes a config and a submission file to a temp dir and
// points the --config flag at it. Flag globals are restored on cleanup.
func writeTestConfig(t *testing.T) (dir, submission string) {
	t.Helper()

	dir = t.TempDir()
	configPath := filepath.Join(dir, "formrows.yaml")
	dbPath := filepath.Join(dir, "store.db")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(testConfig, dbPath)), 0o644))

	submission = filepath.Join(dir, "submission.xml")
	require.NoError(t, os.WriteFile(submission, []byte(testSubmission), 0o644))

	oldCfg := cfgFile
	cfgFile = configPath
	t.Cleanup(func() {
		cfgFile = oldCfg
		resetOutputWriter()
	})
	return dir, submission
}
