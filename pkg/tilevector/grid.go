package tilevector

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// Projection identifies a coordinate reference system by its code,
// for example "EPSG:3857".
//
// The projection is passed through to URL functions, tile coordinate
// transforms and formats. No reprojection is performed by this package.
type Projection string

const (
	// EPSG3857 is Web Mercator.
	EPSG3857 Projection = "EPSG:3857"

	// EPSG4326 is WGS-84 longitude/latitude.
	EPSG4326 Projection = "EPSG:4326"
)

// TileRange is an inclusive rectangle of tile columns and rows at one zoom level.
type TileRange struct {
	MinX, MaxX int
	MinY, MaxY int
}

// Contains returns true if the column/row pair is inside the range.
func (r TileRange) Contains(x, y int) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Count returns the number of tiles in the range.
func (r TileRange) Count() int {
	return (r.MaxX - r.MinX + 1) * (r.MaxY - r.MinY + 1)
}

// TileGrid maps resolutions and extents to tile coordinates and back.
type TileGrid interface {
	// ZForResolution returns the zoom level whose resolution is closest to
	// the given resolution (map units per pixel).
	ZForResolution(resolution float64) int

	// TileRangeForExtentAndZ returns the tiles covering extent at zoom z.
	TileRangeForExtentAndZ(extent Extent, z int) TileRange

	// TileCoordForCoordAndResolution returns the tile containing coord at
	// the zoom level implied by resolution.
	TileCoordForCoordAndResolution(coord orb.Point, resolution float64) TileCoord

	// TileCoordExtent returns the extent covered by a tile.
	TileCoordExtent(tc TileCoord) Extent
}

// TileCoordTransform converts a grid tile coordinate into the coordinate
// scheme expected by the tile service (for example XYZ to TMS).
type TileCoordTransform func(tc TileCoord, projection Projection) TileCoord

// IdentityTransform returns the tile coordinate unchanged.
func IdentityTransform(tc TileCoord, _ Projection) TileCoord {
	return tc
}

// FlipY converts between XYZ (row 0 at the top) and TMS (row 0 at the bottom)
// for grids with 2^z rows per zoom level.
func FlipY(tc TileCoord, _ Projection) TileCoord {
	tc.Y = (1 << uint(tc.Z)) - 1 - tc.Y
	return tc
}

// RegularGrid is a tile grid with a top-left origin, a fixed tile size and one
// resolution per zoom level. Rows grow downwards from the origin.
type RegularGrid struct {
	origin      orb.Point
	resolutions []float64
	tileSize    int
}

// Web Mercator constants.
const (
	webMercatorHalfSize = 20037508.342789244
	defaultTileSize     = 256
)

// NewRegularGrid creates a grid. Resolutions must be strictly decreasing
// (zoom 0 first) and tileSize must be positive.
func NewRegularGrid(origin orb.Point, resolutions []float64, tileSize int) (*RegularGrid, error) {
	if len(resolutions) == 0 {
		return nil, errors.New("tile grid requires at least one resolution")
	}
	if tileSize <= 0 {
		return nil, fmt.Errorf("invalid tile size %d", tileSize)
	}
	for i := 1; i < len(resolutions); i++ {
		if resolutions[i] >= resolutions[i-1] {
			return nil, fmt.Errorf("resolutions must be strictly decreasing (index %d: %g >= %g)",
				i, resolutions[i], resolutions[i-1])
		}
	}

	res := make([]float64, len(resolutions))
	copy(res, resolutions)

	return &RegularGrid{
		origin:      origin,
		resolutions: res,
		tileSize:    tileSize,
	}, nil
}

// NewWebMercatorGrid returns the standard EPSG:3857 XYZ grid with 256 pixel
// tiles for zoom levels 0 through maxZoom.
func NewWebMercatorGrid(maxZoom int) *RegularGrid {
	if maxZoom < 0 {
		maxZoom = 0
	}
	resolutions := make([]float64, maxZoom+1)
	base := 2 * webMercatorHalfSize / defaultTileSize
	for z := range resolutions {
		resolutions[z] = base / math.Pow(2, float64(z))
	}
	return &RegularGrid{
		origin:      orb.Point{-webMercatorHalfSize, webMercatorHalfSize},
		resolutions: resolutions,
		tileSize:    defaultTileSize,
	}
}

// MaxZoom returns the highest zoom level of the grid.
func (g *RegularGrid) MaxZoom() int { return len(g.resolutions) - 1 }

// TileSize returns the tile size in pixels.
func (g *RegularGrid) TileSize() int { return g.tileSize }

// Resolution returns the resolution at zoom z, clamped to the grid's zoom range.
func (g *RegularGrid) Resolution(z int) float64 {
	return g.resolutions[g.clampZ(z)]
}

func (g *RegularGrid) clampZ(z int) int {
	if z < 0 {
		return 0
	}
	if z > g.MaxZoom() {
		return g.MaxZoom()
	}
	return z
}

// ZForResolution implements TileGrid.
//
// Resolutions outside the grid's range map to the first or last zoom level.
// Ties between two neighbouring levels go to the higher zoom.
func (g *RegularGrid) ZForResolution(resolution float64) int {
	res := g.resolutions
	n := len(res)
	if resolution >= res[0] {
		return 0
	}
	if resolution <= res[n-1] {
		return n - 1
	}
	for i := 1; i < n; i++ {
		if res[i] == resolution {
			return i
		}
		if res[i] < resolution {
			if res[i-1]-resolution < resolution-res[i] {
				return i - 1
			}
			return i
		}
	}
	return n - 1
}

// TileRangeForExtentAndZ implements TileGrid.
//
// An extent whose max edge falls exactly on a tile boundary does not pull in
// the neighbouring tile.
func (g *RegularGrid) TileRangeForExtentAndZ(extent Extent, z int) TileRange {
	span := g.Resolution(z) * float64(g.tileSize)

	r := TileRange{
		MinX: int(math.Floor((extent.MinX - g.origin[0]) / span)),
		MaxX: int(math.Ceil((extent.MaxX-g.origin[0])/span)) - 1,
		MinY: int(math.Floor((g.origin[1] - extent.MaxY) / span)),
		MaxY: int(math.Ceil((g.origin[1]-extent.MinY)/span)) - 1,
	}

	// Zero-width or zero-height extents on a boundary still cover one tile
	if r.MaxX < r.MinX {
		r.MaxX = r.MinX
	}
	if r.MaxY < r.MinY {
		r.MaxY = r.MinY
	}
	return r
}

// TileCoordForCoordAndResolution implements TileGrid.
func (g *RegularGrid) TileCoordForCoordAndResolution(coord orb.Point, resolution float64) TileCoord {
	z := g.ZForResolution(resolution)
	span := g.resolutions[z] * float64(g.tileSize)
	return TileCoord{
		Z: z,
		X: int(math.Floor((coord[0] - g.origin[0]) / span)),
		Y: int(math.Floor((g.origin[1] - coord[1]) / span)),
	}
}

// TileCoordExtent implements TileGrid.
func (g *RegularGrid) TileCoordExtent(tc TileCoord) Extent {
	span := g.Resolution(tc.Z) * float64(g.tileSize)
	minX := g.origin[0] + float64(tc.X)*span
	maxY := g.origin[1] - float64(tc.Y)*span
	return Extent{
		MinX: minX,
		MinY: maxY - span,
		MaxX: minX + span,
		MaxY: maxY,
	}
}

// LonLatGrid is the XYZ slippy-map grid addressed with EPSG:4326 extents.
// Tile math is delegated to orb/maptile; resolutions are degrees of
// longitude per pixel.
type LonLatGrid struct {
	maxZoom int
}

// Latitude limit of the Web Mercator tiling.
const maxMercatorLat = 85.0511287798066

// NewLonLatGrid creates a LonLatGrid for zoom levels 0 through maxZoom.
func NewLonLatGrid(maxZoom int) *LonLatGrid {
	if maxZoom < 0 {
		maxZoom = 0
	}
	return &LonLatGrid{maxZoom: maxZoom}
}

// MaxZoom returns the highest zoom level of the grid.
func (g *LonLatGrid) MaxZoom() int { return g.maxZoom }

// ZForResolution implements TileGrid.
func (g *LonLatGrid) ZForResolution(resolution float64) int {
	if resolution <= 0 {
		return g.maxZoom
	}
	z := int(math.Round(math.Log2(360 / (defaultTileSize * resolution))))
	if z < 0 {
		return 0
	}
	if z > g.maxZoom {
		return g.maxZoom
	}
	return z
}

// TileRangeForExtentAndZ implements TileGrid.
func (g *LonLatGrid) TileRangeForExtentAndZ(extent Extent, z int) TileRange {
	zoom := maptile.Zoom(z)
	topLeft := maptile.At(clampLonLat(orb.Point{extent.MinX, extent.MaxY}), zoom)
	bottomRight := maptile.At(clampLonLat(orb.Point{extent.MaxX, extent.MinY}), zoom)
	return TileRange{
		MinX: int(topLeft.X),
		MaxX: int(bottomRight.X),
		MinY: int(topLeft.Y),
		MaxY: int(bottomRight.Y),
	}
}

// TileCoordForCoordAndResolution implements TileGrid.
func (g *LonLatGrid) TileCoordForCoordAndResolution(coord orb.Point, resolution float64) TileCoord {
	z := g.ZForResolution(resolution)
	t := maptile.At(clampLonLat(coord), maptile.Zoom(z))
	return TileCoord{Z: z, X: int(t.X), Y: int(t.Y)}
}

// TileCoordExtent implements TileGrid.
func (g *LonLatGrid) TileCoordExtent(tc TileCoord) Extent {
	t := maptile.New(uint32(tc.X), uint32(tc.Y), maptile.Zoom(tc.Z))
	return ExtentFromBound(t.Bound())
}

// clampLonLat keeps a point inside the area maptile can address.
func clampLonLat(p orb.Point) orb.Point {
	const maxLon = 180 - 1e-9
	lon := math.Max(-180, math.Min(maxLon, p[0]))
	lat := math.Max(-maxMercatorLat, math.Min(maxMercatorLat, p[1]))
	return orb.Point{lon, lat}
}
