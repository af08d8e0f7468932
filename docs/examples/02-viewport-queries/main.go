package main

import (
	"fmt"
	"log"

	"github.com/paulmach/orb"

	"github.com/beetlebugorg/tilevector/pkg/tilevector"
)

func main() {
	// One template per host
	urls, err := tilevector.ExpandURL("https://{a-c}.tiles.example.com/{z}/{x}/{y}.geojson")
	if err != nil {
		log.Fatal(err)
	}

	grid := tilevector.NewWebMercatorGrid(16)
	src, err := tilevector.NewSource(tilevector.SourceOptions{
		Format:   tilevector.GeoJSON{},
		TileGrid: grid,
		URLs:     urls,
	})
	if err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{}, 1)
	src.Subscribe(tilevector.EventLoadEnd, func(tilevector.Event) {
		select {
		case done <- struct{}{}:
		default:
		}
	})

	// Define viewport (Boston Harbor area, web mercator meters)
	resolution := grid.Resolution(15)
	viewport := tilevector.Extent{
		MinX: -7915000, MinY: 5212000,
		MaxX: -7910000, MaxY: 5216000,
	}
	src.EnsureLoaded(viewport, resolution, tilevector.EPSG3857)
	<-done

	// Query the per-tile R-tree index for visible features
	features := src.FeaturesInExtent(viewport, resolution)
	fmt.Printf("Visible features: %d\n", len(features))
	for _, f := range features {
		if f.Geometry == nil {
			fmt.Printf("  %v: no geometry\n", f.ID)
			continue
		}
		fmt.Printf("  %v: %s\n", f.ID, f.Geometry.GeoJSONType())
	}

	// Hit test a single coordinate
	click := orb.Point{-7912500, 5214000}
	for _, f := range src.FeaturesAt(click, resolution) {
		name, _ := f.Property("name")
		fmt.Printf("Hit: %v (%v)\n", f.ID, name)
	}

	// Stop at the first feature with a name
	first := src.ForEachFeatureInExtent(viewport, resolution, func(f *tilevector.Feature) any {
		if name, ok := f.Property("name"); ok {
			return name
		}
		return nil
	})
	fmt.Printf("First named feature: %v\n", first)
}
