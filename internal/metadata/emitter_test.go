package metadata

import (
	"path/filepath"
	"testing"

	"github.com/tilekit/mbtiler/internal/store"
)

func TestEmit_WritesDocumentedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.mbtiles")
	s, err := store.Create(path)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	defer s.Close()

	info := Info{
		Name:               "test raster",
		Description:        "a test raster",
		Attribution:        "Example Org",
		Format:             "png",
		MinZoom:            2,
		MaxZoom:            14,
		SouthWestNorthEast: [4]float64{-1, -2, 3, 4},
		Profile:            "mercator",
	}
	if err := Emit(s, info); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	want := map[string]string{
		"name":        "test raster",
		"description": "a test raster",
		"version":     "1",
		"attribution": "Example Org",
		"type":        "overlay",
		"format":      "png",
		"minzoom":     "2",
		"maxzoom":     "14",
		"bounds":      "-1 -2 3 4",
		"scale":       "1",
		"profile":     "mercator",
	}
	for k, v := range want {
		got, err := lookup(s, k)
		if err != nil {
			t.Fatalf("lookup(%q): %v", k, err)
		}
		if got != v {
			t.Errorf("metadata[%q] = %q, want %q", k, got, v)
		}
	}
}

func lookup(s *store.Store, key string) (string, error) {
	return s.LookupMetadata(key)
}
