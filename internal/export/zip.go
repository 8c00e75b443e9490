package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// WriteZip writes every table of the form as "<table>.csv", followed by the
// received attachments under "media/<instanceId>/<name>".
func (e *Exporter) WriteZip(ctx context.Context, w io.Writer, passphrases []string) error {
	tables := e.root.Tables()
	converted, err := e.convert(ctx, tables, passphrases)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	for i, table := range tables {
		f, err := zw.Create(table + ".csv")
		if err != nil {
			return fmt.Errorf("failed to add %s.csv: %w", table, err)
		}
		if err := WriteCSV(f, converted[i]); err != nil {
			return fmt.Errorf("failed to write %s.csv: %w", table, err)
		}
		e.log.Debugw("Table written", "table", table, "rows", len(converted[i]))
	}

	media := 0
	err = e.source.EachAttachment(ctx, e.formID, func(instanceID, name string, content []byte) error {
		f, err := zw.Create(mediaPath(instanceID, name))
		if err != nil {
			return err
		}
		if _, err := f.Write(content); err != nil {
			return err
		}
		media++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add attachments: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}

	e.log.Infow("Export written", "tables", len(tables), "attachments", media)
	return nil
}

var segmentReplacer = strings.NewReplacer("/", "_", "\\", "_")

// mediaPath returns "media/<instanceId>/<name>" with both parts reduced to a
// single path segment, so entries never leave the media directory.
func mediaPath(instanceID, name string) string {
	return path.Join("media", segment(instanceID), segment(name))
}

func segment(s string) string {
	s = segmentReplacer.Replace(s)
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}
