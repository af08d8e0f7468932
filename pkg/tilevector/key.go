package tilevector

import (
	"fmt"
	"strconv"
	"strings"
)

// TileCoord identifies a tile by zoom level, column and row.
type TileCoord struct {
	Z int // Zoom level
	X int // Column
	Y int // Row
}

// Key returns the canonical cache key for the tile ("z/x/y").
func (tc TileCoord) Key() string {
	return TileKey(tc.Z, tc.X, tc.Y)
}

// String implements fmt.Stringer.
func (tc TileCoord) String() string {
	return tc.Key()
}

// TileKey returns the canonical key for a tile coordinate.
//
// The key has the form "{z}/{x}/{y}" and is unique for every coordinate,
// including negative columns and rows.
//
// Example:
//
//	key := tilevector.TileKey(3, 1, 1) // "3/1/1"
func TileKey(z, x, y int) string {
	return strconv.Itoa(z) + "/" + strconv.Itoa(x) + "/" + strconv.Itoa(y)
}

// ParseTileKey is the inverse of TileKey.
func ParseTileKey(key string) (TileCoord, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 {
		return TileCoord{}, fmt.Errorf("invalid tile key %q: expected z/x/y", key)
	}

	var vals [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return TileCoord{}, fmt.Errorf("invalid tile key %q: %w", key, err)
		}
		vals[i] = v
	}

	return TileCoord{Z: vals[0], X: vals[1], Y: vals[2]}, nil
}

// TileState is the load state of a single tile in a Source.
type TileState int

const (
	// TileAbsent means the tile has never been requested (or was cleared).
	TileAbsent TileState = iota

	// TilePending means a request was issued and no features have been stored.
	// A tile whose request failed stays pending.
	TilePending

	// TileResolved means the tile's features were decoded and stored.
	// A resolved tile may hold zero features.
	TileResolved
)

// String returns the human-readable name of the state.
func (s TileState) String() string {
	switch s {
	case TileAbsent:
		return "Absent"
	case TilePending:
		return "Pending"
	case TileResolved:
		return "Resolved"
	default:
		return "Unknown"
	}
}
