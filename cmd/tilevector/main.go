// Command tilevector loads the vector tiles covering an extent and reports
// what was loaded.
//
// Configuration comes from the environment:
//
//	TILEVECTOR_URL=https://tiles.example.com/{z}/{x}/{y}.json \
//	TILEVECTOR_EXTENT=-7920000,5210000,-7910000,5220000 \
//	TILEVECTOR_RESOLUTION=9.55 \
//	tilevector
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"go.uber.org/zap"

	"github.com/beetlebugorg/tilevector/internal/config"
	"github.com/beetlebugorg/tilevector/internal/logger"
	"github.com/beetlebugorg/tilevector/pkg/tilevector"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("Load failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	bounds, err := config.ParseExtent(cfg.Extent)
	if err != nil {
		return err
	}
	extent := tilevector.Extent{MinX: bounds[0], MinY: bounds[1], MaxX: bounds[2], MaxY: bounds[3]}

	httpOpts := tilevector.DefaultHTTPTransportOptions()
	httpOpts.Workers = cfg.Workers
	httpOpts.Timeout = cfg.Timeout
	httpOpts.Logger = log

	src, err := tilevector.NewSource(tilevector.SourceOptions{
		Format:    newFormat(cfg.Format),
		TileGrid:  newGrid(cfg.Grid, cfg.MaxZoom),
		URL:       cfg.URL,
		PostBody:  cfg.PostBody,
		Transport: tilevector.NewHTTPTransport(httpOpts),
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("create source: %w", err)
	}

	src.Subscribe(tilevector.EventTileLoaded, func(e tilevector.Event) {
		log.Info("Tile loaded",
			zap.String("tile", e.Key),
			zap.Int("features", len(e.Features)))
	})

	done := make(chan struct{}, 1)
	src.Subscribe(tilevector.EventLoadEnd, func(tilevector.Event) {
		select {
		case done <- struct{}{}:
		default:
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Loading tiles",
		zap.String("url", cfg.URL),
		zap.Float64("resolution", cfg.Resolution),
		zap.String("projection", cfg.Projection))

	projection := tilevector.Projection(cfg.Projection)
	src.EnsureLoaded(extent, cfg.Resolution, projection)

	if src.Stats().Requests == 0 {
		log.Warn("No tiles to load for extent")
	} else {
		select {
		case <-done:
		case <-ctx.Done():
			log.Warn("Interrupted, aborting outstanding requests",
				zap.Int("outstanding", src.Outstanding()))
			src.AbortAll()
			<-done
		}
	}

	report(src, extent, cfg.Resolution)
	return nil
}

func newFormat(name string) tilevector.Format {
	switch name {
	case "wkt":
		return tilevector.WKT{}
	case "osm":
		return tilevector.OSMXML{}
	default:
		return tilevector.GeoJSON{}
	}
}

func newGrid(name string, maxZoom int) tilevector.TileGrid {
	if name == "lonlat" {
		return tilevector.NewLonLatGrid(maxZoom)
	}
	return tilevector.NewWebMercatorGrid(maxZoom)
}

// report prints a summary of the loaded data to stdout.
func report(src *tilevector.Source, extent tilevector.Extent, resolution float64) {
	stats := src.Stats()
	fmt.Printf("Tiles: %d resolved, %d pending (%d requests, %d failed)\n",
		stats.Resolved, stats.Pending, stats.Requests, stats.Failures)
	fmt.Printf("Features: %d loaded, %d in extent\n",
		stats.Features, len(src.FeaturesInExtent(extent, resolution)))

	if ext, ok := src.Extent(); ok {
		fmt.Printf("Data extent: %.6f,%.6f,%.6f,%.6f\n", ext.MinX, ext.MinY, ext.MaxX, ext.MaxY)
	}

	byType := make(map[string]int)
	for _, f := range src.Features() {
		name := "none"
		if f.Geometry != nil {
			name = f.Geometry.GeoJSONType()
		}
		byType[name]++
	}

	types := make([]string, 0, len(byType))
	for name := range byType {
		types = append(types, name)
	}
	sort.Strings(types)
	for _, name := range types {
		fmt.Printf("  %-18s %d\n", name, byType[name])
	}
}
