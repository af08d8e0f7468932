package tilevector

import (
	"github.com/paulmach/orb"
)

// Queries read only cached tiles and never trigger requests. Feature lists
// are snapshotted under the lock and visited outside it, so visit functions
// may call back into the source.
//
// A visit function stops iteration by returning any non-nil value,
// including false, 0 and "". Return nil to continue.

// FeaturesAt returns the features of the tile containing coord (at the zoom
// level for resolution) whose geometry contains coord, in storage order.
// An unresolved tile yields no features.
func (s *Source) FeaturesAt(coord orb.Point, resolution float64) []*Feature {
	var features []*Feature
	s.ForEachFeatureAt(coord, resolution, func(f *Feature) any {
		features = append(features, f)
		return nil
	})
	return features
}

// ForEachFeatureAt calls visit for each feature of the tile containing coord
// whose geometry contains coord. If visit returns a non-nil value (false
// included), iteration stops and that value is returned.
func (s *Source) ForEachFeatureAt(coord orb.Point, resolution float64, visit func(*Feature) any) any {
	tc := s.grid.TileCoordForCoordAndResolution(coord, resolution)

	s.mu.Lock()
	var features []*Feature
	if entry, ok := s.tiles[tc.Key()]; ok && entry.state == TileResolved {
		features = entry.features
	}
	s.mu.Unlock()

	for _, f := range features {
		if !f.ContainsCoordinate(coord) {
			continue
		}
		if result := visit(f); result != nil {
			return result
		}
	}
	return nil
}

// ForEachFeatureInExtent calls visit for every feature of every resolved
// tile covering extent at the zoom level for resolution. Tiles are visited
// x outer, y inner; features in storage order. Unresolved tiles are
// skipped. If visit returns a non-nil value (false included), iteration
// stops and that value is returned.
//
// Every feature of a covering tile is visited, including features lying
// outside extent. Use FeaturesInExtent to filter by feature bounds.
func (s *Source) ForEachFeatureInExtent(extent Extent, resolution float64, visit func(*Feature) any) any {
	for _, features := range s.coveringTiles(extent, resolution) {
		for _, f := range features {
			if result := visit(f); result != nil {
				return result
			}
		}
	}
	return nil
}

// coveringTiles returns the feature lists of the resolved tiles covering
// extent, x outer and y inner.
func (s *Source) coveringTiles(extent Extent, resolution float64) [][]*Feature {
	z := s.grid.ZForResolution(resolution)
	r := s.grid.TileRangeForExtentAndZ(extent, z)

	s.mu.Lock()
	defer s.mu.Unlock()

	var tiles [][]*Feature
	for x := r.MinX; x <= r.MaxX; x++ {
		for y := r.MinY; y <= r.MaxY; y++ {
			entry, ok := s.tiles[TileKey(z, x, y)]
			if !ok || entry.state != TileResolved {
				continue
			}
			tiles = append(tiles, entry.features)
		}
	}
	return tiles
}

// FeaturesInExtent returns the features of the tiles covering extent whose
// bounds intersect extent. Tiles are ordered as in ForEachFeatureInExtent,
// features in storage order within a tile.
//
// Uses each tile's R-tree index instead of scanning every feature.
func (s *Source) FeaturesInExtent(extent Extent, resolution float64) []*Feature {
	z := s.grid.ZForResolution(resolution)
	r := s.grid.TileRangeForExtentAndZ(extent, z)

	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*Feature
	for x := r.MinX; x <= r.MaxX; x++ {
		for y := r.MinY; y <= r.MaxY; y++ {
			entry, ok := s.tiles[TileKey(z, x, y)]
			if !ok || entry.state != TileResolved || entry.index == nil {
				continue
			}
			for _, pos := range entry.index.search(extent) {
				result = append(result, entry.features[pos])
			}
		}
	}
	return result
}

// Features returns the features of every resolved tile, tiles in the order
// they were first requested and features in storage order within a tile.
func (s *Source) Features() []*Feature {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*Feature
	for _, key := range s.order {
		entry := s.tiles[key]
		if entry.state != TileResolved {
			continue
		}
		result = append(result, entry.features...)
	}
	return result
}

// Extent returns the union of the bounds of all resolved features.
// The second return value is false when no resolved feature has geometry.
func (s *Source) Extent() (Extent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ext Extent
	found := false
	for _, key := range s.order {
		entry := s.tiles[key]
		if entry.state != TileResolved || entry.index == nil || entry.index.empty {
			continue
		}
		if !found {
			ext = entry.index.extent
			found = true
			continue
		}
		ext = ext.Extend(entry.index.extent)
	}
	return ext, found
}
