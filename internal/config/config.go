package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the tilevector command settings. Every field is read from
// a TILEVECTOR_* environment variable except LogLevel (LOG_LEVEL).
type Config struct {
	URL        string
	Format     string // geojson, wkt or osm
	Grid       string // webmercator or lonlat
	MaxZoom    int
	Extent     string // minx,miny,maxx,maxy
	Resolution float64
	Projection string
	PostBody   string
	Workers    int
	Timeout    time.Duration
	LogLevel   string
}

func Load() *Config {
	cfg := &Config{
		URL:        getEnv("TILEVECTOR_URL", ""),
		Format:     getEnv("TILEVECTOR_FORMAT", "geojson"),
		Grid:       getEnv("TILEVECTOR_GRID", "webmercator"),
		MaxZoom:    getEnvInt("TILEVECTOR_MAX_ZOOM", 19),
		Extent:     getEnv("TILEVECTOR_EXTENT", ""),
		Resolution: getEnvFloat("TILEVECTOR_RESOLUTION", 0),
		Projection: getEnv("TILEVECTOR_PROJECTION", ""),
		PostBody:   getEnv("TILEVECTOR_POST_BODY", ""),
		Workers:    getEnvInt("TILEVECTOR_WORKERS", 8),
		Timeout:    getEnvDuration("TILEVECTOR_TIMEOUT", 30*time.Second),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}

	if cfg.Projection == "" {
		cfg.Projection = "EPSG:3857"
		if cfg.Grid == "lonlat" {
			cfg.Projection = "EPSG:4326"
		}
	}

	return cfg
}

// Validate reports missing or malformed settings.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("TILEVECTOR_URL is required")
	}
	switch c.Format {
	case "geojson", "wkt", "osm":
	default:
		return fmt.Errorf("unknown format %q (want geojson, wkt or osm)", c.Format)
	}
	switch c.Grid {
	case "webmercator", "lonlat":
	default:
		return fmt.Errorf("unknown grid %q (want webmercator or lonlat)", c.Grid)
	}
	if c.MaxZoom < 0 {
		return fmt.Errorf("invalid max zoom %d", c.MaxZoom)
	}
	if _, err := ParseExtent(c.Extent); err != nil {
		return err
	}
	if c.Resolution <= 0 {
		return errors.New("TILEVECTOR_RESOLUTION must be positive")
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid worker count %d", c.Workers)
	}
	return nil
}

// ParseExtent parses "minx,miny,maxx,maxy".
func ParseExtent(s string) ([4]float64, error) {
	var ext [4]float64

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return ext, fmt.Errorf("invalid extent %q: expected minx,miny,maxx,maxy", s)
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return ext, fmt.Errorf("invalid extent %q: %w", s, err)
		}
		ext[i] = v
	}
	if ext[2] < ext[0] || ext[3] < ext[1] {
		return ext, fmt.Errorf("invalid extent %q: max is less than min", s)
	}

	return ext, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
