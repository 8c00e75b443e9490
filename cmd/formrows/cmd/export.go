package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/dbsmedya/formrows/internal/database"
	"github.com/dbsmedya/formrows/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportForm        string
	exportTable       string
	exportOut         string
	exportFormat      string
	exportPassphrases []string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored submissions of a form",
	Long: `Export converts every stored submission of a form.

With --out, a zip archive is written containing one CSV per table
("<table>.csv") and the received attachments under
"media/<instanceId>/<name>". With --table, the rows of that one table are
written to stdout instead.

Submissions are converted in parallel (see --workers); output keeps the
order in which submissions were stored.

Example:
  formrows export --form household --out household.zip
  formrows export --form household --table Submissions.household --format csv`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportForm, "form", "f", "",
		"Form name from configuration file (required)")
	exportCmd.MarkFlagRequired("form")

	exportCmd.Flags().StringVar(&exportOut, "out", "",
		"Write a zip archive of all tables and attachments to this path")
	exportCmd.Flags().StringVarP(&exportTable, "table", "t", "",
		"Write the rows of one table to stdout")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "o", "csv",
		"Output format with --table (json, csv, table)")
	exportCmd.Flags().StringArrayVar(&exportPassphrases, "passphrase", nil,
		"Passphrase for encrypted submissions; repeatable")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if (exportOut == "") == (exportTable == "") {
		return fmt.Errorf("exactly one of --out or --table is required")
	}

	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, exportOut == "")
	if err != nil {
		return err
	}
	defer log.Sync()

	_, root, err := buildForm(cfg, exportForm)
	if err != nil {
		return err
	}

	ctx, cancel := database.SignalContext(context.Background(), func(sig os.Signal) {
		log.Warnw("Received shutdown signal - stopping export", "signal", sig.String())
	})
	defer cancel()

	manager, st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	m := newMetrics(cfg)
	defer flushMetrics(m, log)

	exportCfg := cfg.ApplyFormOverrides(exportForm, workers, wkt)
	exporter := export.New(st, exportForm, root, exportCfg, log, m)

	if exportTable != "" {
		out, err := exporter.Table(ctx, exportTable, exportPassphrases)
		if err != nil {
			return err
		}
		return writeRows(outputWriter, out, exportFormat)
	}

	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOut, err)
	}
	if err := exporter.WriteZip(ctx, f, exportPassphrases); err != nil {
		f.Close()
		os.Remove(exportOut)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", exportOut, err)
	}

	fmt.Fprintf(outputWriter, "Exported %s to %s\n", exportForm, exportOut)
	return nil
}
