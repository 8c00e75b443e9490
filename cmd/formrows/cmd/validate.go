package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/dbsmedya/formrows/internal/schema"
	"github.com/spf13/cobra"
)

var validateOffline bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and form schemas",
	Long: `Validate checks the configuration file, builds every form schema and,
unless --offline is given, connects to the submission store.

Checks performed:
  - Configuration syntax and required fields
  - Field names, types and nesting of every form
  - Schema files referenced by forms
  - Store connectivity and table creation

Example:
  formrows validate --config formrows.yaml`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateOffline, "offline", false,
		"Skip the database section and store connectivity check")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(!validateOffline)
	if err != nil {
		return err
	}

	fmt.Fprintf(outputWriter, "\n=== Configuration Validation ===\n")
	fmt.Fprintf(outputWriter, "Config file: %s\n", GetConfigFile())
	fmt.Fprintf(outputWriter, "Forms found: %d\n\n", len(cfg.Forms))

	names := cfg.ListForms()
	sort.Strings(names)

	hasErrors := false
	for _, name := range names {
		fmt.Fprintf(outputWriter, "--- Form: %s ---\n", name)

		_, root, err := buildForm(cfg, name)
		if err != nil {
			fmt.Fprintf(outputWriter, "❌ Schema build failed: %v\n\n", err)
			hasErrors = true
			continue
		}

		fields := 0
		root.Fields(func(string, *schema.Field) { fields++ })
		fmt.Fprintf(outputWriter, "Root table: %s\n", root.Name)
		fmt.Fprintf(outputWriter, "Fields: %d\n", fields)
		fmt.Fprintf(outputWriter, "Tables: %d\n", len(root.Tables()))
		fmt.Fprintf(outputWriter, "✅ Schema valid\n\n")
	}

	if !validateOffline {
		ctx := context.Background()
		manager, _, err := openStore(ctx, cfg)
		if err != nil {
			fmt.Fprintf(outputWriter, "❌ Store check failed: %v\n\n", err)
			hasErrors = true
		} else {
			manager.Close()
			fmt.Fprintf(outputWriter, "✅ Store reachable (%s)\n\n", manager.Driver())
		}
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}

	fmt.Fprintln(outputWriter, "=== Validation Complete ===")
	return nil
}
