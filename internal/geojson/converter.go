// Package geojson converts between this module's simplified
// types.FeatureCollection (client-supplied overlay features passed through
// a render or export request) and paulmach/orb's GeoJSON object model.
package geojson

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/freemap-slovakia/maprender/internal/types"
)

// FromGeoJSON decodes raw GeoJSON (a Feature or a FeatureCollection) into a
// types.FeatureCollection, mirroring the original's geojson_to_features.
func FromGeoJSON(data []byte) (*types.FeatureCollection, error) {
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		return &types.FeatureCollection{Features: toFeatures(fc.Features)}, nil
	}

	if f, err := geojson.UnmarshalFeature(data); err == nil {
		return &types.FeatureCollection{Features: toFeatures([]*geojson.Feature{f})}, nil
	}

	return nil, fmt.Errorf("geojson: unsupported GeoJSON object")
}

func toFeatures(in []*geojson.Feature) []types.Feature {
	out := make([]types.Feature, 0, len(in))
	for _, f := range in {
		if f == nil || f.Geometry == nil {
			continue
		}

		id := ""
		if f.ID != nil {
			id = fmt.Sprintf("%v", f.ID)
		}

		out = append(out, types.Feature{ID: id, Geometry: f.Geometry, Properties: map[string]interface{}(f.Properties)})
	}
	return out
}

// ToGeoJSON converts a types.FeatureCollection back to an orb
// geojson.FeatureCollection, for debugging or round-tripping client overlays.
func ToGeoJSON(fc types.FeatureCollection) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()

	for _, f := range fc.Features {
		gf := geojson.NewFeature(f.Geometry)
		if gf.Properties == nil {
			gf.Properties = make(map[string]interface{})
		}
		for k, v := range f.Properties {
			gf.Properties[k] = v
		}
		if f.ID != "" {
			gf.ID = f.ID
		}
		out.Append(gf)
	}

	return out
}

// ToGeoJSONBytes marshals fc to GeoJSON bytes.
func ToGeoJSONBytes(fc types.FeatureCollection) ([]byte, error) {
	data, err := json.Marshal(ToGeoJSON(fc))
	if err != nil {
		return nil, fmt.Errorf("geojson: marshal: %w", err)
	}
	return data, nil
}
