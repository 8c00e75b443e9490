package rows

import (
	"math"
	"strconv"
	"strings"

	"github.com/dbsmedya/formrows/internal/schema"
)

// Point is the structured (GeoJSON) form of a geopoint value.
// Coordinates are [longitude, latitude] with an optional altitude.
type Point struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// WKT renders the point as well-known text, e.g. "POINT (2 1)".
func (p Point) WKT() string {
	coords := make([]string, len(p.Coordinates))
	for i, c := range p.Coordinates {
		coords[i] = strconv.FormatFloat(c, 'f', -1, 64)
	}
	return "POINT (" + strings.Join(coords, " ") + ")"
}

// coerce converts field text to its output value. ok is false when the text
// is not a valid value for the kind; the caller then leaves the key unset.
func coerce(kind schema.Kind, text string, wkt bool) (value any, ok bool) {
	switch kind {
	case schema.Int:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	case schema.Decimal:
		f, ok := parseFinite(text)
		if !ok {
			return nil, false
		}
		return f, true
	case schema.GeoPoint:
		p, ok := parsePoint(text)
		if !ok {
			return nil, false
		}
		if wkt {
			return p.WKT(), true
		}
		return p, true
	default:
		return text, true
	}
}

// parsePoint reads "lat lon [alt [accuracy]]". Latitude and longitude are
// required; an invalid altitude is dropped.
func parsePoint(text string) (Point, bool) {
	tokens := strings.Fields(text)
	if len(tokens) < 2 {
		return Point{}, false
	}

	lat, ok := parseFinite(tokens[0])
	if !ok {
		return Point{}, false
	}
	lon, ok := parseFinite(tokens[1])
	if !ok {
		return Point{}, false
	}

	coords := []float64{lon, lat}
	if len(tokens) > 2 {
		if alt, ok := parseFinite(tokens[2]); ok {
			coords = append(coords, alt)
		}
	}
	return Point{Type: "Point", Coordinates: coords}, true
}

// parseFinite rejects NaN and infinities, which have no JSON encoding.
func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
