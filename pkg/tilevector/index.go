package tilevector

import (
	"sort"

	"github.com/dhconnelly/rtreego"
)

// tileIndex is the spatial index over one resolved tile's features.
//
// Features without geometry are kept in the feature list but not indexed.
type tileIndex struct {
	rtree  *rtreego.Rtree
	extent Extent
	empty  bool // no indexed geometry
}

// indexedFeature adapts a feature position to rtreego.Spatial.
type indexedFeature struct {
	pos    int
	extent Extent
}

// Bounds method for rtreego.Spatial interface.
func (f indexedFeature) Bounds() rtreego.Rect {
	return f.extent.rect()
}

// buildTileIndex indexes features by bounding box
// (2D, min=25 children, max=50 children).
func buildTileIndex(features []*Feature) *tileIndex {
	idx := &tileIndex{
		rtree: rtreego.NewTree(2, 25, 50),
		empty: true,
	}

	for i, f := range features {
		if f == nil || f.Geometry == nil {
			continue
		}
		ext := f.Extent()
		idx.rtree.Insert(indexedFeature{pos: i, extent: ext})

		if idx.empty {
			idx.extent = ext
			idx.empty = false
		} else {
			idx.extent = idx.extent.Extend(ext)
		}
	}

	return idx
}

// search returns the storage positions of features whose bounds intersect
// extent, in storage order.
func (idx *tileIndex) search(extent Extent) []int {
	if idx.empty || !idx.extent.Intersects(extent) {
		return nil
	}

	spatials := idx.rtree.SearchIntersect(extent.rect())
	positions := make([]int, 0, len(spatials))
	for _, s := range spatials {
		positions = append(positions, s.(indexedFeature).pos)
	}
	sort.Ints(positions)
	return positions
}
