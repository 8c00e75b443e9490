package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dbsmedya/formrows/internal/database"
	"github.com/dbsmedya/formrows/internal/export"
	"github.com/dbsmedya/formrows/internal/rows"
	"github.com/dbsmedya/formrows/internal/schema"
	"github.com/spf13/cobra"
)

var (
	convertForm       string
	convertTable      string
	convertFile       string
	convertInstanceID string
	convertFormat     string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert one submission file into table rows",
	Long: `Convert reads a single submission XML file and prints the rows of one
table. No database is needed.

The table is a dot path from the root table, e.g. "Submissions" for the
submission row itself or "Submissions.household.member" for a nested repeat.
The instance id defaults to the document's meta/instanceID.

Output formats:
  - json:  {"value": [...]} with keys in document order
  - csv:   one column per key, geopoints as WKT
  - table: aligned console table

Example:
  formrows convert --form household --file submission.xml --table Submissions.household`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertForm, "form", "f", "",
		"Form name from configuration file (required)")
	convertCmd.MarkFlagRequired("form")

	convertCmd.Flags().StringVar(&convertFile, "file", "",
		"Submission XML file, or - for stdin (required)")
	convertCmd.MarkFlagRequired("file")

	convertCmd.Flags().StringVarP(&convertTable, "table", "t", "",
		"Table to produce (default: the form's root table)")
	convertCmd.Flags().StringVar(&convertInstanceID, "instance-id", "",
		"Instance id (default: meta/instanceID from the document)")
	convertCmd.Flags().StringVarP(&convertFormat, "format", "o", "json",
		"Output format (json, csv, table)")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer log.Sync()

	_, root, err := buildForm(cfg, convertForm)
	if err != nil {
		return err
	}

	table := convertTable
	if table == "" {
		table = root.Name
	}
	if _, err := root.Lookup(table); err != nil {
		return err
	}

	doc, err := readSubmission(cmd, convertFile)
	if err != nil {
		return err
	}

	ctx, cancel := database.SignalContext(context.Background(), nil)
	defer cancel()

	instanceID := convertInstanceID
	if instanceID == "" {
		if instanceID, err = rows.InstanceID(ctx, doc); err != nil {
			return fmt.Errorf("%w (use --instance-id)", err)
		}
	}

	exportCfg := cfg.ApplyFormOverrides(convertForm, workers, wkt)
	log = log.WithForm(convertForm).WithTable(table).WithInstance(instanceID)

	opts := rows.Options{
		WKT: exportCfg.WKT,
		OnCoercionFailure: func(key string, kind schema.Kind, text string) {
			log.Warnw("Dropped value that does not parse", "key", key, "kind", kind, "text", text)
		},
	}

	out, err := rows.Convert(ctx, root, rows.Submission{InstanceID: instanceID, XML: doc}, table, opts)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", convertFile, err)
	}
	log.Debugw("Submission converted", "rows", len(out))

	return writeRows(outputWriter, out, convertFormat)
}

func readSubmission(cmd *cobra.Command, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read submission: %w", err)
	}
	return string(data), nil
}

func writeRows(w io.Writer, out []*rows.Row, format string) error {
	switch format {
	case "json", "":
		return export.WriteJSON(w, out)
	case "csv":
		return export.WriteCSV(w, out)
	case "table":
		return export.WriteTable(w, out, w == os.Stdout)
	default:
		return fmt.Errorf("unknown output format %q (json, csv, table)", format)
	}
}
