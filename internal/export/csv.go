package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/formrows/internal/rows"
)

// Columns returns the union of row keys in first-seen order.
func Columns(rs []*rows.Row) []string {
	cols := orderedmap.NewOrderedMap[string, struct{}]()
	for _, r := range rs {
		for _, key := range r.Keys() {
			if _, ok := cols.Get(key); !ok {
				cols.Set(key, struct{}{})
			}
		}
	}
	return cols.Keys()
}

// WriteCSV writes rs with a header of Columns(rs). Keys a row lacks, such
// as values dropped by coercion, are empty cells. Geopoints are written as WKT.
func WriteCSV(w io.Writer, rs []*rows.Row) error {
	cols := Columns(rs)
	cw := csv.NewWriter(w)

	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(cols))
	for _, r := range rs {
		for i, col := range cols {
			v, _ := r.Get(col)
			record[i] = FormatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %s: %w", r.ID(), err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatValue renders a row value as a single text cell.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case rows.Point:
		return v.WKT()
	default:
		return fmt.Sprint(v)
	}
}
