package export

import (
	"io"

	json "github.com/goccy/go-json"

	"github.com/dbsmedya/formrows/internal/rows"
)

type jsonDocument struct {
	Value []*rows.Row `json:"value"`
}

// WriteJSON writes rs as {"value": [...]}, each row keeping its key order.
func WriteJSON(w io.Writer, rs []*rows.Row) error {
	if rs == nil {
		rs = []*rows.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonDocument{Value: rs})
}
