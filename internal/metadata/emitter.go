// Package metadata writes the archive's metadata rows (§4.8) once, before
// any tile rows, so a reader opening the archive mid-run still sees a
// usable description of what it will contain.
package metadata

import (
	"fmt"

	"github.com/tilekit/mbtiler/internal/store"
)

// Info carries the fields the emitter writes. Only Version has a default
// ("1" when empty); every other field is written exactly as given.
type Info struct {
	Name        string
	Description string
	Version     string
	Attribution string
	Format      string // "png" or "jpg"
	MinZoom     int
	MaxZoom     int
	// SouthWestNorthEast is the raster's extent in WGS84 degrees (south, west, north,
	// east), independent of the tiling profile's own SRS.
	SouthWestNorthEast [4]float64
	Profile            string // "mercator", "geodetic", or "raster"
}

// Emit writes every field as its own (name, value) row via s.InsertMetadata.
// Must run before any call to s.InsertTile so a partial archive still
// carries a complete description.
func Emit(s *store.Store, info Info) error {
	version := info.Version
	if version == "" {
		version = "1"
	}
	rows := [][2]string{
		{"name", info.Name},
		{"description", info.Description},
		{"version", version},
		{"attribution", info.Attribution},
		{"type", "overlay"},
		{"format", info.Format},
		{"minzoom", fmt.Sprintf("%d", info.MinZoom)},
		{"maxzoom", fmt.Sprintf("%d", info.MaxZoom)},
		{"bounds", fmt.Sprintf("%g %g %g %g",
			info.SouthWestNorthEast[0], info.SouthWestNorthEast[1],
			info.SouthWestNorthEast[2], info.SouthWestNorthEast[3])},
		{"scale", "1"},
		{"profile", info.Profile},
	}
	for _, row := range rows {
		if err := s.InsertMetadata(row[0], row[1]); err != nil {
			return err
		}
	}
	return nil
}
