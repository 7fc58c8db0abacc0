package geo

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// decodeGeometry turns the text produced by ST_AsGeoJSON into a geometry.
func decodeGeometry(v any) (*geojson.Geometry, error) {
	switch g := v.(type) {
	case nil:
		return nil, nil
	case *geojson.Geometry:
		return g, nil
	case string:
		return geojson.UnmarshalGeometry([]byte(g))
	case []byte:
		return geojson.UnmarshalGeometry(g)
	case map[string]any:
		data, err := json.Marshal(g)
		if err != nil {
			return nil, err
		}
		return geojson.UnmarshalGeometry(data)
	default:
		return nil, fmt.Errorf("unexpected geometry value %T", v)
	}
}

// encodeGeometry renders a caller-supplied geometry as GeoJSON text for
// ST_GeomFromGeoJSON. Text input is parsed first so malformed GeoJSON fails
// before reaching the database.
func encodeGeometry(v any) (string, error) {
	var g *geojson.Geometry
	switch x := v.(type) {
	case *geojson.Geometry:
		g = x
	case geojson.Geometry:
		g = &x
	case orb.Geometry:
		g = geojson.NewGeometry(x)
	case string, []byte, json.RawMessage, map[string]any:
		if raw, ok := x.(json.RawMessage); ok {
			v = []byte(raw)
		}
		decoded, err := decodeGeometry(v)
		if err != nil {
			return "", fmt.Errorf("invalid GeoJSON geometry: %w", err)
		}
		g = decoded
	default:
		return "", fmt.Errorf("unsupported geometry value %T", v)
	}
	if g == nil {
		return "", fmt.Errorf("invalid GeoJSON geometry: empty")
	}

	data, err := g.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}
