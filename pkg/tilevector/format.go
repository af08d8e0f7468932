package tilevector

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"
)

// FormatKind tells the loader which representation of the response body a
// Format consumes.
type FormatKind int

const (
	// FormatJSON formats read the body as text.
	FormatJSON FormatKind = iota + 1

	// FormatText formats read the body as text.
	FormatText

	// FormatXML formats read a parsed XML document.
	FormatXML
)

// String returns the kind's name.
func (k FormatKind) String() string {
	switch k {
	case FormatJSON:
		return "JSON"
	case FormatText:
		return "TEXT"
	case FormatXML:
		return "XML"
	default:
		return fmt.Sprintf("FormatKind(%d)", int(k))
	}
}

// Valid returns true for the three supported kinds.
func (k FormatKind) Valid() bool {
	return k >= FormatJSON && k <= FormatXML
}

// FormatSource is the decoded response handed to a Format.
// Text is set for JSON and TEXT formats, Document for XML formats.
type FormatSource struct {
	Text     string
	Document *XMLDocument
}

// ReadOptions carries per-request decode options.
type ReadOptions struct {
	// FeatureProjection is the projection the tile was requested in.
	FeatureProjection Projection
}

// Format turns a response into features.
type Format interface {
	Kind() FormatKind
	ReadFeatures(src FormatSource, opts ReadOptions) ([]*Feature, error)
}

// GeoJSON reads FeatureCollection, Feature and bare geometry objects.
type GeoJSON struct{}

// Kind implements Format.
func (GeoJSON) Kind() FormatKind { return FormatJSON }

// ReadFeatures implements Format.
func (GeoJSON) ReadFeatures(src FormatSource, _ ReadOptions) ([]*Feature, error) {
	data := []byte(src.Text)

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("geojson: %w", err)
	}

	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("geojson: %w", err)
		}
		features := make([]*Feature, 0, len(fc.Features))
		for _, f := range fc.Features {
			features = append(features, fromGeoJSON(f))
		}
		return features, nil

	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("geojson: %w", err)
		}
		return []*Feature{fromGeoJSON(f)}, nil

	case "":
		return nil, fmt.Errorf("geojson: missing type member")

	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("geojson: %w", err)
		}
		return []*Feature{{Geometry: g.Geometry(), Properties: map[string]any{}}}, nil
	}
}

func fromGeoJSON(f *geojson.Feature) *Feature {
	props := make(map[string]any, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}
	return &Feature{
		ID:         f.ID,
		Geometry:   f.Geometry,
		Properties: props,
	}
}

// WKT reads one Well-Known Text geometry per non-empty line. The feature ID
// is the 1-based line number.
type WKT struct{}

// Kind implements Format.
func (WKT) Kind() FormatKind { return FormatText }

// ReadFeatures implements Format.
func (WKT) ReadFeatures(src FormatSource, _ ReadOptions) ([]*Feature, error) {
	var features []*Feature

	scanner := bufio.NewScanner(strings.NewReader(src.Text))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		g, err := wkt.Unmarshal(text)
		if err != nil {
			return nil, fmt.Errorf("wkt line %d: %w", line, err)
		}
		features = append(features, &Feature{
			ID:         line,
			Geometry:   g,
			Properties: map[string]any{},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("wkt: %w", err)
	}

	return features, nil
}

// OSMXML reads OpenStreetMap XML. Tagged nodes become points; ways become
// line strings, or polygons when closed and tagged as an area. Untagged
// nodes only contribute way coordinates.
type OSMXML struct{}

// Kind implements Format.
func (OSMXML) Kind() FormatKind { return FormatXML }

// ReadFeatures implements Format.
func (OSMXML) ReadFeatures(src FormatSource, _ ReadOptions) ([]*Feature, error) {
	if src.Document == nil {
		return nil, ErrNoDocument
	}

	var data osm.OSM
	if err := src.Document.Decode(&data); err != nil {
		return nil, fmt.Errorf("osm xml: %w", err)
	}

	nodes := make(map[osm.NodeID]orb.Point, len(data.Nodes))
	var features []*Feature

	for _, n := range data.Nodes {
		nodes[n.ID] = n.Point()
		if len(n.Tags) == 0 {
			continue
		}
		features = append(features, &Feature{
			ID:         n.FeatureID().String(),
			Geometry:   n.Point(),
			Properties: tagProperties(n.Tags),
		})
	}

	for _, w := range data.Ways {
		line := make(orb.LineString, 0, len(w.Nodes))
		for _, wn := range w.Nodes {
			if wn.Lat != 0 || wn.Lon != 0 {
				line = append(line, orb.Point{wn.Lon, wn.Lat})
				continue
			}
			if p, ok := nodes[wn.ID]; ok {
				line = append(line, p)
			}
		}
		if len(line) < 2 {
			continue
		}

		var geom orb.Geometry = line
		if isArea(line, w.Tags) {
			geom = orb.Polygon{orb.Ring(line)}
		}

		features = append(features, &Feature{
			ID:         w.FeatureID().String(),
			Geometry:   geom,
			Properties: tagProperties(w.Tags),
		})
	}

	return features, nil
}

var areaKeys = []string{"building", "landuse", "leisure", "natural", "amenity"}

func isArea(line orb.LineString, tags osm.Tags) bool {
	if len(line) < 4 || !line[0].Equal(line[len(line)-1]) {
		return false
	}
	switch tags.Find("area") {
	case "yes":
		return true
	case "no":
		return false
	}
	for _, k := range areaKeys {
		if tags.Find(k) != "" {
			return true
		}
	}
	return false
}

func tagProperties(tags osm.Tags) map[string]any {
	props := make(map[string]any, len(tags))
	for _, t := range tags {
		props[t.Key] = t.Value
	}
	return props
}
