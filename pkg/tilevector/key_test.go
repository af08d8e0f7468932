package tilevector

import "testing"

func TestTileKey(t *testing.T) {
	tests := []struct {
		z, x, y int
		want    string
	}{
		{0, 0, 0, "0/0/0"},
		{3, 1, 1, "3/1/1"},
		{12, 1205, 1539, "12/1205/1539"},
		{2, -1, 3, "2/-1/3"},
		{1, 11, 1, "1/11/1"},
		{1, 1, 11, "1/1/11"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := TileKey(tt.z, tt.x, tt.y)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
			if tc := (TileCoord{Z: tt.z, X: tt.x, Y: tt.y}); tc.Key() != got {
				t.Errorf("Expected TileCoord.Key() %q, got %q", got, tc.Key())
			}
		})
	}
}

func TestTileKeyInjective(t *testing.T) {
	seen := make(map[string]TileCoord)
	for z := 0; z < 4; z++ {
		for x := -3; x < 12; x++ {
			for y := -3; y < 12; y++ {
				tc := TileCoord{Z: z, X: x, Y: y}
				key := tc.Key()
				if prev, ok := seen[key]; ok {
					t.Fatalf("Key %q shared by %v and %v", key, prev, tc)
				}
				seen[key] = tc
			}
		}
	}
}

func TestParseTileKey(t *testing.T) {
	tc, err := ParseTileKey("12/1205/-3")
	if err != nil {
		t.Fatalf("Failed to parse key: %v", err)
	}
	want := TileCoord{Z: 12, X: 1205, Y: -3}
	if tc != want {
		t.Errorf("Expected %v, got %v", want, tc)
	}

	for _, bad := range []string{"", "1/2", "1/2/3/4", "a/b/c", "1//3"} {
		if _, err := ParseTileKey(bad); err == nil {
			t.Errorf("Expected error for key %q", bad)
		}
	}
}

func TestTileStateString(t *testing.T) {
	tests := map[TileState]string{
		TileAbsent:    "Absent",
		TilePending:   "Pending",
		TileResolved:  "Resolved",
		TileState(42): "Unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}
