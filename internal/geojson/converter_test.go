package geojson

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"

	"github.com/freemap-slovakia/maprender/internal/types"
)

func TestFromGeoJSONFeatureCollection(t *testing.T) {
	raw := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"id": "way/12345",
				"geometry": {"type": "Polygon", "coordinates": [[[9.73,52.37],[9.74,52.37],[9.74,52.38],[9.73,52.38],[9.73,52.37]]]},
				"properties": {"natural": "water", "name": "Test Lake"}
			},
			{
				"type": "Feature",
				"id": "way/67890",
				"geometry": {"type": "LineString", "coordinates": [[9.73,52.37],[9.74,52.37],[9.75,52.38]]},
				"properties": {"highway": "primary"}
			}
		]
	}`)

	fc, err := FromGeoJSON(raw)
	if err != nil {
		t.Fatalf("FromGeoJSON failed: %v", err)
	}

	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(fc.Features))
	}

	if fc.Features[0].ID != "way/12345" {
		t.Errorf("expected ID way/12345, got %q", fc.Features[0].ID)
	}
	if _, ok := fc.Features[0].Geometry.(orb.Polygon); !ok {
		t.Errorf("expected Polygon geometry, got %T", fc.Features[0].Geometry)
	}
	if fc.Features[0].Properties["natural"] != "water" {
		t.Errorf("expected natural=water property")
	}

	if _, ok := fc.Features[1].Geometry.(orb.LineString); !ok {
		t.Errorf("expected LineString geometry, got %T", fc.Features[1].Geometry)
	}
	if fc.Features[1].Properties["highway"] != "primary" {
		t.Errorf("expected highway=primary property")
	}
}

func TestFromGeoJSONSingleFeature(t *testing.T) {
	raw := []byte(`{
		"type": "Feature",
		"id": "node/123",
		"geometry": {"type": "Point", "coordinates": [9.73, 52.37]},
		"properties": {"natural": "spring"}
	}`)

	fc, err := FromGeoJSON(raw)
	if err != nil {
		t.Fatalf("FromGeoJSON failed: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(fc.Features))
	}
	if fc.Features[0].Properties["natural"] != "spring" {
		t.Errorf("expected natural=spring property")
	}
}

func TestFromGeoJSONInvalid(t *testing.T) {
	if _, err := FromGeoJSON([]byte(`{"type": "NotAThing"}`)); err == nil {
		t.Error("expected error for unsupported GeoJSON object")
	}
}

func TestToGeoJSONRoundTrip(t *testing.T) {
	fc := types.FeatureCollection{
		Features: []types.Feature{
			{
				ID:         "way/12345",
				Geometry:   orb.Polygon{{{9.73, 52.37}, {9.74, 52.37}, {9.74, 52.38}, {9.73, 52.38}, {9.73, 52.37}}},
				Properties: map[string]interface{}{"natural": "water"},
			},
			{
				ID:         "way/67890",
				Geometry:   orb.LineString{{9.73, 52.37}, {9.74, 52.37}, {9.75, 52.38}},
				Properties: map[string]interface{}{"highway": "primary"},
			},
		},
	}

	out := ToGeoJSON(fc)
	if len(out.Features) != 2 {
		t.Fatalf("expected 2 GeoJSON features, got %d", len(out.Features))
	}
	if out.Features[0].Geometry.GeoJSONType() != "Polygon" {
		t.Errorf("expected Polygon, got %s", out.Features[0].Geometry.GeoJSONType())
	}
	if out.Features[0].Properties["natural"] != "water" {
		t.Errorf("expected natural=water property")
	}
	if out.Features[0].ID != "way/12345" {
		t.Errorf("expected ID way/12345, got %v", out.Features[0].ID)
	}
}

func TestToGeoJSONBytes(t *testing.T) {
	fc := types.FeatureCollection{
		Features: []types.Feature{
			{ID: "node/123", Geometry: orb.Point{9.73, 52.37}, Properties: map[string]interface{}{"natural": "spring"}},
		},
	}

	data, err := ToGeoJSONBytes(fc)
	if err != nil {
		t.Fatalf("ToGeoJSONBytes failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty GeoJSON bytes")
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result["type"] != "FeatureCollection" {
		t.Errorf("expected FeatureCollection type")
	}
}

func TestToGeoJSONEmpty(t *testing.T) {
	out := ToGeoJSON(types.FeatureCollection{})
	if len(out.Features) != 0 {
		t.Errorf("expected 0 GeoJSON features, got %d", len(out.Features))
	}
}

func TestFromGeoJSONSkipsNilGeometryFeatures(t *testing.T) {
	raw := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "id": "invalid1", "geometry": null, "properties": {}},
			{"type": "Feature", "id": "valid1", "geometry": {"type": "Point", "coordinates": [9.73, 52.37]}, "properties": {}}
		]
	}`)

	fc, err := FromGeoJSON(raw)
	if err != nil {
		t.Fatalf("FromGeoJSON failed: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature (nil geometry skipped), got %d", len(fc.Features))
	}
	if fc.Features[0].ID != "valid1" {
		t.Errorf("expected valid feature to survive, got ID %q", fc.Features[0].ID)
	}
}
