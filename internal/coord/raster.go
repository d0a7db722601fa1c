package coord

import "math"

// RasterProfile implements the pixel-space "raster" pyramid profile (spec
// §4.1): tiles are built directly in the source raster's own pixel grid
// rather than a geographic projection, with a native zoom derived from the
// raster's own dimensions.
type RasterProfile struct {
	NativeZoom int
	Width      int
	Height     int
}

// NewRasterProfile derives the native zoom for a raster of the given size:
// the smallest zoom at which a single 256x256 tile at that zoom's
// resolution would cover the whole raster, i.e.
// ceil(max(log2(W/256), log2(H/256))).
func NewRasterProfile(width, height int) RasterProfile {
	nz := int(math.Ceil(math.Max(
		math.Log2(float64(width)/TileSize),
		math.Log2(float64(height)/TileSize),
	)))
	if nz < 0 {
		nz = 0
	}
	return RasterProfile{NativeZoom: nz, Width: width, Height: height}
}

// TileSidePixels returns the side length, in source pixels, of a tile at
// zoom z <= NativeZoom: 2^(native_zoom-z) * 256.
func (r RasterProfile) TileSidePixels(z int) int {
	return (1 << uint(r.NativeZoom-z)) * TileSize
}

// TileRange returns the tile index range at zoom z, derived by ceiling
// division of the raster dimensions by the tile side at that zoom.
func (r RasterProfile) TileRange(z int) Range {
	side := r.TileSidePixels(z)
	nx := (r.Width + side - 1) / side
	ny := (r.Height + side - 1) / side
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	return Range{MinX: 0, MinY: 0, MaxX: nx - 1, MaxY: ny - 1}
}

// TileBounds returns the bounding rectangle, in source pixel coordinates,
// of tile (tx, ty) at zoom z.
func (r RasterProfile) TileBounds(tx, ty, z int) Rect {
	side := float64(r.TileSidePixels(z))
	return Rect{
		MinX: float64(tx) * side,
		MinY: float64(ty) * side,
		MaxX: float64(tx+1) * side,
		MaxY: float64(ty+1) * side,
	}
}

// Resolution returns the source pixels per tile-pixel at zoom z.
func (r RasterProfile) Resolution(z int) float64 {
	return float64(int(1) << uint(max(r.NativeZoom-z, 0)))
}
