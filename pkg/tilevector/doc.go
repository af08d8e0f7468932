// Package tilevector loads vector features for a map viewport tile by tile.
//
// A Source turns an extent and resolution into the grid tiles covering it,
// fetches the tiles it has not seen before, decodes each response into
// features and keeps them in a per-tile cache with a spatial index. A tile
// is fetched at most once for the lifetime of the cache.
//
// # Basic Usage
//
//	src, err := tilevector.NewSource(tilevector.SourceOptions{
//	    Format:   tilevector.GeoJSON{},
//	    TileGrid: tilevector.NewWebMercatorGrid(19),
//	    URL:      "https://tiles.example.com/{z}/{x}/{y}.json",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	viewport := tilevector.Extent{
//	    MinX: -8238310, MinY: 4965205,
//	    MaxX: -8235310, MaxY: 4968205,
//	}
//	src.EnsureLoaded(viewport, 4.77, tilevector.EPSG3857)
//
// # Events
//
// Loading is asynchronous. Subscribe to follow progress:
//
//	src.Subscribe(tilevector.EventTileLoaded, func(e tilevector.Event) {
//	    fmt.Printf("tile %s: %d features\n", e.Key, len(e.Features))
//	})
//	src.Subscribe(tilevector.EventLoadEnd, func(tilevector.Event) {
//	    fmt.Println("all requested tiles finished")
//	})
//
// EventLoadStart and EventLoadEnd fire once per transition of the
// outstanding request count between zero and non-zero. EventLoadEnd means
// every request finished, not that every request succeeded; a failed tile
// stays pending and is not requested again until Clear.
//
// # Spatial Queries
//
// Queries read only what is cached:
//
//	// Features under the cursor
//	hits := src.FeaturesAt(orb.Point{-8236810, 4966705}, 4.77)
//
//	// Walk every feature of the visible tiles, stopping early
//	found := src.ForEachFeatureInExtent(viewport, 4.77, func(f *tilevector.Feature) any {
//	    if name, ok := f.Property("name"); ok && name == "Pier 17" {
//	        return f
//	    }
//	    return nil
//	})
//
//	// Features whose bounds intersect the viewport (R-tree backed)
//	visible := src.FeaturesInExtent(viewport, 4.77)
//
// # Formats and Transports
//
// GeoJSON, WKT and OSMXML formats are included; any type implementing
// Format can be used. The default transport is an HTTPTransport that
// limits concurrent requests and shares identical GETs. Tests and custom
// protocols can supply their own Transport.
//
// # Cancellation
//
// AbortAll cancels in-flight requests. The source only updates its
// bookkeeping when the transport reports the cancelled request back;
// HTTPTransport always does, with the context error.
package tilevector
