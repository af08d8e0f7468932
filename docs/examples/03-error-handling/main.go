package main

import (
	"errors"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/beetlebugorg/tilevector/pkg/tilevector"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Invalid options are reported before any request is made
	_, err := tilevector.NewSource(tilevector.SourceOptions{
		TileGrid: tilevector.NewWebMercatorGrid(14),
		URL:      "https://tiles.example.com/{z}/{x}/{y}.geojson",
	})
	if errors.Is(err, tilevector.ErrMissingFormat) {
		log.Printf("Expected error: %v", err)
	}

	// Unsupported placeholders are rejected when the template is compiled
	_, err = tilevector.URLFuncFromTemplate("https://tiles.example.com/{z}/{x}/{y}?v={version}")
	var tmplErr *tilevector.ErrTemplate
	if errors.As(err, &tmplErr) {
		log.Printf("Bad placeholder %s in %s", tmplErr.Placeholder, tmplErr.Template)
	}

	// Failed tiles stay pending and are never retried; the logger
	// records the cause
	src, err := tilevector.NewSource(tilevector.SourceOptions{
		Format:   tilevector.GeoJSON{},
		TileGrid: tilevector.NewWebMercatorGrid(14),
		URL:      "https://tiles.example.com/missing/{z}/{x}/{y}.geojson",
		Logger:   logger,
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

	grid := src.TileGrid().(*tilevector.RegularGrid)
	src.EnsureLoaded(tilevector.Extent{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000},
		grid.Resolution(14), tilevector.EPSG3857)
	<-done

	stats := src.Stats()
	fmt.Printf("Requests: %d, failures: %d, pending tiles: %d\n",
		stats.Requests, stats.Failures, stats.Pending)

	// Clear forgets failed tiles so the next EnsureLoaded requests them again
	src.Clear()
	fmt.Printf("Tiles after clear: %d\n", src.Stats().Tiles)
}
