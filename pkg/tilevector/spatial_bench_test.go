package tilevector

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb"
)

// Benchmarks for viewport queries against a fully loaded source.
// FeaturesInExtent uses the per-tile R-tree; ForEachFeatureInExtent walks
// every feature of the covering tiles.

// createLoadedSource returns a web mercator source with zoom 3 fully
// loaded, perTile point features spread across each tile.
func createLoadedSource(b *testing.B, perTile int) (*Source, float64) {
	b.Helper()
	grid := NewWebMercatorGrid(3)

	format := &gridFormat{grid: grid, perTile: perTile}
	transport := TransportFunc(func(req *Request, done func(*Response, error)) CancelFunc {
		done(textResponse(200, req.URL), nil)
		return nil
	})

	src, err := NewSource(SourceOptions{
		Format:    format,
		TileGrid:  grid,
		URL:       "{z}/{x}/{y}",
		Transport: transport,
	})
	if err != nil {
		b.Fatalf("Failed to create source: %v", err)
	}

	resolution := grid.Resolution(3)
	src.EnsureLoaded(grid.TileCoordExtent(TileCoord{Z: 0}), resolution, EPSG3857)
	return src, resolution
}

// gridFormat fabricates features inside the tile named by the body.
type gridFormat struct {
	grid    *RegularGrid
	perTile int
}

func (f *gridFormat) Kind() FormatKind { return FormatText }

func (f *gridFormat) ReadFeatures(src FormatSource, _ ReadOptions) ([]*Feature, error) {
	tc, err := ParseTileKey(src.Text)
	if err != nil {
		return nil, err
	}
	ext := f.grid.TileCoordExtent(tc)

	features := make([]*Feature, f.perTile)
	for i := range features {
		fx := float64(i%100) / 100
		fy := float64(i/100%100) / 100
		features[i] = &Feature{
			ID:       fmt.Sprintf("%s#%d", src.Text, i),
			Geometry: orb.Point{ext.MinX + fx*ext.Width(), ext.MinY + fy*ext.Height()},
		}
	}
	return features, nil
}

// BenchmarkFeaturesInExtent_Rtree benchmarks a small viewport with the R-tree index.
func BenchmarkFeaturesInExtent_Rtree(b *testing.B) {
	src, res := createLoadedSource(b, 2000)

	viewport := Extent{MinX: -1000000, MinY: -1000000, MaxX: 1000000, MaxY: 1000000}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = src.FeaturesInExtent(viewport, res)
	}
}

// BenchmarkForEachFeatureInExtent benchmarks the same viewport with a full tile walk.
func BenchmarkForEachFeatureInExtent(b *testing.B) {
	src, res := createLoadedSource(b, 2000)

	viewport := Extent{MinX: -1000000, MinY: -1000000, MaxX: 1000000, MaxY: 1000000}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var n int
		src.ForEachFeatureInExtent(viewport, res, func(f *Feature) any {
			if viewport.Contains(f.Geometry.(orb.Point)) {
				n++
			}
			return nil
		})
	}
}

// BenchmarkFeaturesAt benchmarks point queries.
func BenchmarkFeaturesAt(b *testing.B) {
	src, res := createLoadedSource(b, 2000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = src.FeaturesAt(orb.Point{0, 0}, res)
	}
}

// BenchmarkEnsureLoadedCached benchmarks viewport requests that hit only cached tiles.
func BenchmarkEnsureLoadedCached(b *testing.B) {
	src, res := createLoadedSource(b, 10)
	viewport := src.TileGrid().TileCoordExtent(TileCoord{Z: 0})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		src.EnsureLoaded(viewport, res, EPSG3857)
	}
}
