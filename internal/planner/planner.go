// Package planner computes, from a projected raster's extent, the zoom
// range and per-zoom tile ranges the builder must produce (§4.6).
package planner

import (
	"github.com/tilekit/mbtiler/internal/coord"
	"github.com/tilekit/mbtiler/internal/mbtiler"
)

// ZoomRange is the inclusive [Min, Max] zoom levels to build.
type ZoomRange struct {
	Min, Max int
}

// Plan holds, for every zoom in the chosen range, the tile indices to
// produce.
type Plan struct {
	Zoom   ZoomRange
	Ranges map[int]coord.Range
}

// Build derives the default zoom range from the raster's horizontal pixel
// resolution unless overridden, and computes the clamped tile range at
// every zoom in between.
//
// ominx, ominy, omaxx, omaxy is the projected raster extent; px is its
// horizontal resolution in profile units (meters for Mercator, degrees
// for Geodetic, source pixels for Raster).
func Build(profile coord.Profile, ominx, ominy, omaxx, omaxy, px float64, width, height int, override *ZoomRange) (Plan, error) {
	var zr ZoomRange
	if override != nil {
		zr = *override
		if zr.Min < 0 || zr.Max > 31 || zr.Min > zr.Max {
			return Plan{}, mbtiler.Wrapf(mbtiler.UnsupportedOption,
				"zoom range [%d,%d] invalid (must satisfy 0 <= min <= max <= 31)", zr.Min, zr.Max)
		}
	} else {
		tminz, tmaxz := profile.DefaultZoomRange(px, width, height)
		zr = ZoomRange{Min: tminz, Max: tmaxz}
	}

	ranges := make(map[int]coord.Range, zr.Max-zr.Min+1)
	for z := zr.Min; z <= zr.Max; z++ {
		ranges[z] = tileRangeForExtent(profile, z, ominx, ominy, omaxx, omaxy)
	}

	return Plan{Zoom: zr, Ranges: ranges}, nil
}

// tileRangeForExtent converts the raster's projected corners to tile
// indices at zoom z and clamps to the world tile extent at that zoom.
//
// In every profile the tile index grows with the coordinate: Mercator and
// Geodetic count TMS rows northward in a Y-up CRS, and Raster counts rows
// downward from the top pixel row in the source's Y-down pixel grid. So the
// minimum tile always comes from (ominx, ominy) and the maximum from
// (omaxx, omaxy).
func tileRangeForExtent(profile coord.Profile, z int, ominx, ominy, omaxx, omaxy float64) coord.Range {
	world := profile.TileRange(z)

	tminx, tminy := tileIndexAt(profile, z, ominx, ominy)
	tmaxx, tmaxy := tileIndexAt(profile, z, omaxx, omaxy)

	r := coord.Range{MinX: tminx, MinY: tminy, MaxX: tmaxx, MaxY: tmaxy}
	return r.Clamp(world)
}

func tileIndexAt(profile coord.Profile, z int, x, y float64) (int, int) {
	switch profile.Kind {
	case coord.Mercator:
		m := coord.MercatorProfile{}
		px, py := m.MetersToPixels(x, y, z)
		return m.PixelsToTile(px, py)
	case coord.Geodetic:
		g := coord.GeodeticProfile{}
		px, py := g.LatLonToPixels(x, y, z)
		return g.PixelsToTile(px, py)
	default: // Raster
		tsize := float64(profile.Raster.TileSidePixels(z))
		tx := int(x / tsize)
		ty := int(y / tsize)
		return tx, ty
	}
}
