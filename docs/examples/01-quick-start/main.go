package main

import (
	"fmt"
	"log"

	"github.com/beetlebugorg/tilevector/pkg/tilevector"
)

func main() {
	// Create a source for a GeoJSON tile service
	src, err := tilevector.NewSource(tilevector.SourceOptions{
		Format:   tilevector.GeoJSON{},
		TileGrid: tilevector.NewWebMercatorGrid(14),
		URL:      "https://tiles.example.com/{z}/{x}/{y}.geojson",
	})
	if err != nil {
		log.Fatal(err)
	}

	// Wait for every requested tile to settle
	done := make(chan struct{}, 1)
	src.Subscribe(tilevector.EventLoadEnd, func(tilevector.Event) {
		select {
		case done <- struct{}{}:
		default:
		}
	})

	// Load the tiles covering Boston Harbor at zoom 14
	grid := src.TileGrid().(*tilevector.RegularGrid)
	resolution := grid.Resolution(14)
	viewport := tilevector.Extent{
		MinX: -7917000, MinY: 5210000,
		MaxX: -7905000, MaxY: 5220000,
	}
	src.EnsureLoaded(viewport, resolution, tilevector.EPSG3857)
	<-done

	stats := src.Stats()
	fmt.Printf("Tiles: %d resolved, %d failed\n", stats.Resolved, stats.Failures)
	fmt.Printf("Features: %d\n", stats.Features)
}
