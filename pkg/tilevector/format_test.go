package tilevector

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
)

func TestFormatKind(t *testing.T) {
	tests := []struct {
		kind  FormatKind
		name  string
		valid bool
	}{
		{FormatJSON, "JSON", true},
		{FormatText, "TEXT", true},
		{FormatXML, "XML", true},
		{FormatKind(0), "FormatKind(0)", false},
		{FormatKind(9), "FormatKind(9)", false},
	}

	for _, tt := range tests {
		if tt.kind.String() != tt.name {
			t.Errorf("Expected %s, got %s", tt.name, tt.kind.String())
		}
		if tt.kind.Valid() != tt.valid {
			t.Errorf("%s: expected valid=%v", tt.name, tt.valid)
		}
	}
}

const testFeatureCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "a", "geometry": {"type": "Point", "coordinates": [3, 13]}, "properties": {"name": "alpha"}},
    {"type": "Feature", "id": "b", "geometry": {"type": "LineString", "coordinates": [[2, 12], [4, 14]]}, "properties": {"lanes": 2}}
  ]
}`

func TestGeoJSONFeatureCollection(t *testing.T) {
	features, err := GeoJSON{}.ReadFeatures(FormatSource{Text: testFeatureCollection}, ReadOptions{})
	if err != nil {
		t.Fatalf("Failed to read features: %v", err)
	}
	if len(features) != 2 {
		t.Fatalf("Expected 2 features, got %d", len(features))
	}

	if features[0].ID != "a" {
		t.Errorf("Expected ID 'a', got %v", features[0].ID)
	}
	if p, ok := features[0].Geometry.(orb.Point); !ok || !p.Equal(orb.Point{3, 13}) {
		t.Errorf("Expected point (3 13), got %v", features[0].Geometry)
	}
	if name, _ := features[0].Property("name"); name != "alpha" {
		t.Errorf("Expected name 'alpha', got %v", name)
	}

	if _, ok := features[1].Geometry.(orb.LineString); !ok {
		t.Errorf("Expected LineString, got %T", features[1].Geometry)
	}
	if lanes, _ := features[1].Property("lanes"); lanes != float64(2) {
		t.Errorf("Expected lanes 2, got %v", lanes)
	}
}

func TestGeoJSONSingleFeatureAndGeometry(t *testing.T) {
	single := `{"type": "Feature", "geometry": {"type": "Point", "coordinates": [1, 2]}, "properties": null}`
	features, err := GeoJSON{}.ReadFeatures(FormatSource{Text: single}, ReadOptions{})
	if err != nil {
		t.Fatalf("Failed to read feature: %v", err)
	}
	if len(features) != 1 {
		t.Fatalf("Expected 1 feature, got %d", len(features))
	}

	bare := `{"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}`
	features, err = GeoJSON{}.ReadFeatures(FormatSource{Text: bare}, ReadOptions{})
	if err != nil {
		t.Fatalf("Failed to read geometry: %v", err)
	}
	if len(features) != 1 {
		t.Fatalf("Expected 1 feature, got %d", len(features))
	}
	if _, ok := features[0].Geometry.(orb.Polygon); !ok {
		t.Errorf("Expected Polygon, got %T", features[0].Geometry)
	}
}

func TestGeoJSONErrors(t *testing.T) {
	for _, body := range []string{"", "not json", `{"features": []}`} {
		if _, err := (GeoJSON{}).ReadFeatures(FormatSource{Text: body}, ReadOptions{}); err == nil {
			t.Errorf("Expected error for body %q", body)
		}
	}
}

func TestWKT(t *testing.T) {
	text := "POINT(1 2)\n\n  LINESTRING(0 0,1 1)  \nPOLYGON((0 0,1 0,1 1,0 0))\n"

	features, err := WKT{}.ReadFeatures(FormatSource{Text: text}, ReadOptions{})
	if err != nil {
		t.Fatalf("Failed to read WKT: %v", err)
	}
	if len(features) != 3 {
		t.Fatalf("Expected 3 features, got %d", len(features))
	}

	wantIDs := []int{1, 3, 4}
	for i, f := range features {
		if f.ID != wantIDs[i] {
			t.Errorf("Feature %d: expected ID %d, got %v", i, wantIDs[i], f.ID)
		}
	}
	if _, ok := features[2].Geometry.(orb.Polygon); !ok {
		t.Errorf("Expected Polygon, got %T", features[2].Geometry)
	}

	if _, err := (WKT{}).ReadFeatures(FormatSource{Text: "POINT(1 2)\nBOGUS(1)"}, ReadOptions{}); err == nil {
		t.Error("Expected error for invalid WKT")
	}
}

const testOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="1" lon="2"><tag k="amenity" v="cafe"/></node>
  <node id="2" lat="0" lon="0"/>
  <node id="3" lat="0" lon="1"/>
  <node id="4" lat="1" lon="1"/>
  <way id="10">
    <nd ref="2"/><nd ref="3"/><nd ref="4"/><nd ref="2"/>
    <tag k="building" v="yes"/>
  </way>
  <way id="11">
    <nd ref="2"/><nd ref="3"/>
    <tag k="highway" v="path"/>
  </way>
</osm>`

func TestOSMXML(t *testing.T) {
	doc, err := ParseXML(testOSM)
	if err != nil {
		t.Fatalf("Failed to parse XML: %v", err)
	}

	features, err := OSMXML{}.ReadFeatures(FormatSource{Document: doc}, ReadOptions{})
	if err != nil {
		t.Fatalf("Failed to read OSM: %v", err)
	}
	if len(features) != 3 {
		t.Fatalf("Expected 3 features, got %d", len(features))
	}

	cafe := features[0]
	if cafe.ID != "node/1" {
		t.Errorf("Expected ID node/1, got %v", cafe.ID)
	}
	if p, ok := cafe.Geometry.(orb.Point); !ok || !p.Equal(orb.Point{2, 1}) {
		t.Errorf("Expected point (2 1), got %v", cafe.Geometry)
	}
	if v, _ := cafe.Property("amenity"); v != "cafe" {
		t.Errorf("Expected amenity=cafe, got %v", v)
	}

	building := features[1]
	if building.ID != "way/10" {
		t.Errorf("Expected ID way/10, got %v", building.ID)
	}
	if _, ok := building.Geometry.(orb.Polygon); !ok {
		t.Errorf("Expected closed building way to be a Polygon, got %T", building.Geometry)
	}

	path := features[2]
	if ls, ok := path.Geometry.(orb.LineString); !ok || len(ls) != 2 {
		t.Errorf("Expected 2-point LineString, got %v", path.Geometry)
	}
}

func TestOSMXMLWithoutDocument(t *testing.T) {
	_, err := OSMXML{}.ReadFeatures(FormatSource{Text: testOSM}, ReadOptions{})
	if !errors.Is(err, ErrNoDocument) {
		t.Errorf("Expected ErrNoDocument, got %v", err)
	}
}

func TestParseXML(t *testing.T) {
	doc, err := ParseXML(`<?xml version="1.0"?><root a="1"><child/></root>`)
	if err != nil {
		t.Fatalf("Failed to parse XML: %v", err)
	}
	if doc.Root.Name.Local != "root" {
		t.Errorf("Expected root element 'root', got %s", doc.Root.Name.Local)
	}

	var v struct {
		A string `xml:"a,attr"`
	}
	if err := doc.Decode(&v); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if v.A != "1" {
		t.Errorf("Expected attribute a=1, got %q", v.A)
	}

	for _, bad := range []string{"", "plain text", "<root>", "<a></b>"} {
		if _, err := ParseXML(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}
