package tilevector

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Feature is a decoded vector feature.
//
// Features are created by a Format and stored by pointer; the source never
// copies them, so the same *Feature is returned by every query.
type Feature struct {
	// ID is the feature identifier from the source data, or nil.
	ID any

	// Geometry in the projection the tile was requested in. May be nil.
	Geometry orb.Geometry

	// Properties holds the feature's attributes.
	Properties map[string]any
}

// Property returns the named attribute and whether it was present.
func (f *Feature) Property(name string) (any, bool) {
	if f.Properties == nil {
		return nil, false
	}
	v, ok := f.Properties[name]
	return v, ok
}

// Extent returns the bounding extent of the feature's geometry.
func (f *Feature) Extent() Extent {
	return ExtentOf(f.Geometry)
}

// lineTolerance is the distance within which a coordinate counts as lying on
// a line geometry.
const lineTolerance = 1e-9

// ContainsCoordinate returns true if the feature's geometry contains p.
//
// Points match by equality, lines within a small tolerance, and polygons
// by area (boundary included by the underlying ray test only where it is
// inside).
func (f *Feature) ContainsCoordinate(p orb.Point) bool {
	return geometryContains(f.Geometry, p)
}

func geometryContains(g orb.Geometry, p orb.Point) bool {
	switch g := g.(type) {
	case nil:
		return false
	case orb.Point:
		return g.Equal(p)
	case orb.MultiPoint:
		for _, pt := range g {
			if pt.Equal(p) {
				return true
			}
		}
		return false
	case orb.LineString:
		return len(g) > 0 && planar.DistanceFrom(g, p) <= lineTolerance
	case orb.MultiLineString:
		return len(g) > 0 && planar.DistanceFrom(g, p) <= lineTolerance
	case orb.Ring:
		return planar.RingContains(g, p)
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	case orb.Bound:
		return g.Contains(p)
	case orb.Collection:
		for _, child := range g {
			if geometryContains(child, p) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
