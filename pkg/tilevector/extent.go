package tilevector

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// Extent represents an axis-aligned bounding rectangle in map coordinates.
//
// Units are those of the projection in use (metres for EPSG:3857,
// decimal degrees for EPSG:4326).
type Extent struct {
	MinX float64 // Western edge
	MinY float64 // Southern edge
	MaxX float64 // Eastern edge
	MaxY float64 // Northern edge
}

// Contains returns true if the point is within the extent (edges included).
func (e Extent) Contains(p orb.Point) bool {
	return p[0] >= e.MinX && p[0] <= e.MaxX &&
		p[1] >= e.MinY && p[1] <= e.MaxY
}

// Intersects returns true if the given extent intersects with this extent.
func (e Extent) Intersects(other Extent) bool {
	return !(other.MaxX < e.MinX ||
		other.MinX > e.MaxX ||
		other.MaxY < e.MinY ||
		other.MinY > e.MaxY)
}

// Expand returns a new Extent expanded by the given margin in all directions.
func (e Extent) Expand(margin float64) Extent {
	return Extent{
		MinX: e.MinX - margin,
		MinY: e.MinY - margin,
		MaxX: e.MaxX + margin,
		MaxY: e.MaxY + margin,
	}
}

// Extend returns the smallest extent containing both e and other.
func (e Extent) Extend(other Extent) Extent {
	if other.MinX < e.MinX {
		e.MinX = other.MinX
	}
	if other.MinY < e.MinY {
		e.MinY = other.MinY
	}
	if other.MaxX > e.MaxX {
		e.MaxX = other.MaxX
	}
	if other.MaxY > e.MaxY {
		e.MaxY = other.MaxY
	}
	return e
}

// IsEmpty returns true if the extent covers no area and is not a single point.
func (e Extent) IsEmpty() bool {
	return e.MaxX < e.MinX || e.MaxY < e.MinY
}

// Width returns the east-west size of the extent.
func (e Extent) Width() float64 { return e.MaxX - e.MinX }

// Height returns the north-south size of the extent.
func (e Extent) Height() float64 { return e.MaxY - e.MinY }

// Bound converts the extent to an orb.Bound.
func (e Extent) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{e.MinX, e.MinY},
		Max: orb.Point{e.MaxX, e.MaxY},
	}
}

// ExtentFromBound converts an orb.Bound to an Extent.
func ExtentFromBound(b orb.Bound) Extent {
	return Extent{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]}
}

// ExtentOf returns the bounding extent of a geometry.
// A nil geometry has an empty extent.
func ExtentOf(g orb.Geometry) Extent {
	if g == nil {
		return Extent{}
	}
	return ExtentFromBound(g.Bound())
}

// rect converts the extent to an R-tree rectangle.
func (e Extent) rect() rtreego.Rect {
	point := rtreego.Point{e.MinX, e.MinY}

	// R-tree requires non-zero dimensions, so points and axis-aligned
	// lines get a minimal size.
	const epsilon = 1e-9
	width := e.Width()
	height := e.Height()
	if width < epsilon {
		width = epsilon
	}
	if height < epsilon {
		height = epsilon
	}

	rect, _ := rtreego.NewRect(point, []float64{width, height})
	return rect
}
