package rows

import (
	"bytes"

	"github.com/elliotchance/orderedmap/v2"
	json "github.com/goccy/go-json"
)

// Reserved keys.
const (
	IDKey                = "__id"
	NavigationLinkSuffix = "@odata.navigationLink"
)

// Row is one flat output record. Keys keep the order in which they were
// first written, which follows document order.
type Row struct {
	fields *orderedmap.OrderedMap[string, any]
}

// NewRow creates a row holding only its id.
func NewRow(id string) *Row {
	r := &Row{fields: orderedmap.NewOrderedMap[string, any]()}
	r.fields.Set(IDKey, id)
	return r
}

// ID returns the row's __id.
func (r *Row) ID() string {
	id, _ := r.fields.Get(IDKey)
	s, _ := id.(string)
	return s
}

// Get returns the value stored under key.
func (r *Row) Get(key string) (any, bool) {
	return r.fields.Get(key)
}

// Set stores value under key. Overwriting keeps the key's position.
func (r *Row) Set(key string, value any) {
	r.fields.Set(key, value)
}

// Keys returns the row's keys in insertion order.
func (r *Row) Keys() []string {
	return r.fields.Keys()
}

// Len returns the number of keys.
func (r *Row) Len() int {
	return r.fields.Len()
}

// Map returns an unordered copy of the row.
func (r *Row) Map() map[string]any {
	m := make(map[string]any, r.fields.Len())
	for el := r.fields.Front(); el != nil; el = el.Next() {
		m[el.Key] = el.Value
	}
	return m
}

// MarshalJSON encodes the row as a JSON object in key order.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for el := r.fields.Front(); el != nil; el = el.Next() {
		if el != r.fields.Front() {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(el.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(el.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
