package raster

import (
	"math"

	"github.com/tilekit/mbtiler/internal/coord"
	"github.com/tilekit/mbtiler/internal/mbtiler"
)

// ProjectedRaster is a raster whose pixel grid and GeoTransform are
// expressed in the target profile's SRS. When the source is already in
// that SRS, its pixel grid is reused unchanged (the common case — COG
// sources are typically pre-warped). Otherwise WarpTo builds a virtual
// grid and resamples on read.
type ProjectedRaster struct {
	Width, Height int
	BandCount     int
	AlphaBand     bool
	GeoTransform  GeoTransform
	EPSG          int
	NoDataValues  []float64

	source     *Raster
	sourceProj coord.Projection // nil when no reprojection is needed
	targetProj coord.Projection
}

// Identity wraps r as a ProjectedRaster with a pixel-identity GeoTransform
// (origin 0, pixel size 1), for the Raster profile: tiling happens directly
// in the source's own pixel grid, with no SRS or reprojection involved.
func Identity(r *Raster) *ProjectedRaster {
	return &ProjectedRaster{
		Width:        r.Width,
		Height:       r.Height,
		BandCount:    4,
		AlphaBand:    true,
		GeoTransform: GeoTransform{OX: 0, PX: 1, OY: 0, PY: 1},
		NoDataValues: r.NoDataValues,
		source:       r,
	}
}

// WarpTo produces a ProjectedRaster whose SRS is targetEPSG. Per §4.2, the
// destination always carries a synthesized alpha band (so pixels outside
// the raster's footprint read as transparent rather than black), and
// r.NoDataValues — whichever values survived the -a/--srcnodata override in
// Raster.Open — carries through to ReadWindow, which turns any sampled
// pixel matching them transparent as well.
func WarpTo(r *Raster, targetEPSG int) (*ProjectedRaster, error) {
	bandCount := 4
	alphaBand := true

	pr := &ProjectedRaster{
		BandCount:    bandCount,
		AlphaBand:    alphaBand,
		EPSG:         targetEPSG,
		NoDataValues: r.NoDataValues,
		source:       r,
	}

	if targetEPSG == r.EPSG {
		// Already in the target SRS: the virtual grid is the source grid.
		pr.Width = r.Width
		pr.Height = r.Height
		pr.GeoTransform = r.GeoTransform
		return pr, nil
	}

	sourceProj := coord.ForEPSG(r.EPSG)
	targetProj := coord.ForEPSG(targetEPSG)
	if sourceProj == nil || targetProj == nil {
		return nil, mbtiler.Wrapf(mbtiler.InvalidInput,
			"unsupported SRS pair: source EPSG:%d, target EPSG:%d", r.EPSG, targetEPSG)
	}
	pr.sourceProj = sourceProj
	pr.targetProj = targetProj

	// Build a virtual pixel grid in the target SRS: project the four
	// source corners, take the bounding box, and keep the source's pixel
	// count so resolution is preserved (good enough for same-order-of-
	// magnitude reprojections between the three supported profiles).
	ulx, uly, lrx, lry := r.BoundsInProjectedCRS()
	corners := [][2]float64{{ulx, uly}, {lrx, uly}, {ulx, lry}, {lrx, lry}}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		lon, lat := sourceProj.ToWGS84(c[0], c[1])
		tx, ty := targetProj.FromWGS84(lon, lat)
		minX = math.Min(minX, tx)
		maxX = math.Max(maxX, tx)
		minY = math.Min(minY, ty)
		maxY = math.Max(maxY, ty)
	}

	pr.Width = r.Width
	pr.Height = r.Height
	px := (maxX - minX) / float64(r.Width)
	py := (maxY - minY) / float64(r.Height)
	pr.GeoTransform = GeoTransform{
		OX: minX, PX: px,
		OY: maxY, PY: -py,
	}
	return pr, nil
}

// ReadWindow reads a (rxsize x rysize) source window starting at (rx, ry)
// and resamples it into a (wxsize x wysize) RGBA buffer. Pixels are
// bilinearly sampled from the underlying source raster via an inverse
// mapping through the target and source SRS when they differ; when the
// target SRS matches the source SRS each output pixel takes the nearest
// source pixel of the window, scaled from rxsize x rysize to wxsize x wysize.
//
// Reading outside the source raster's bounds is the caller's
// responsibility to avoid (§4.3 clamps before calling this).
func (pr *ProjectedRaster) ReadWindow(rx, ry, rxsize, rysize, wxsize, wysize int) ([]byte, error) {
	buf := make([]byte, wxsize*wysize*4)

	if pr.sourceProj == nil {
		// Identity: sample directly from the source's own pixel grid.
		for wy := 0; wy < wysize; wy++ {
			srcY := ry + wy*rysize/maxInt(wysize, 1)
			for wx := 0; wx < wxsize; wx++ {
				srcX := rx + wx*rxsize/maxInt(wxsize, 1)
				r, g, b, a, err := pr.source.samplePixel(srcX, srcY)
				if err != nil {
					return nil, mbtiler.Wrap(mbtiler.RasterReadError, err)
				}
				a = pr.nodataAlpha(r, g, b, a)
				off := (wy*wxsize + wx) * 4
				buf[off], buf[off+1], buf[off+2], buf[off+3] = r, g, b, a
			}
		}
		return buf, nil
	}

	gt := pr.GeoTransform
	for wy := 0; wy < wysize; wy++ {
		py := ry + wy*rysize/maxInt(wysize, 1)
		for wx := 0; wx < wxsize; wx++ {
			px := rx + wx*rxsize/maxInt(wxsize, 1)

			// Virtual pixel (px, py) -> target SRS -> WGS84 -> source SRS
			// -> source pixel.
			tx := gt.OX + float64(px)*gt.PX
			ty := gt.OY + float64(py)*gt.PY
			lon, lat := pr.targetProj.ToWGS84(tx, ty)
			sx, sy := pr.sourceProj.FromWGS84(lon, lat)
			spx := (sx - pr.source.GeoTransform.OX) / pr.source.GeoTransform.PX
			spy := (sy - pr.source.GeoTransform.OY) / pr.source.GeoTransform.PY

			r, g, b, a, err := pr.source.sampleBilinear(spx, spy)
			off := (wy*wxsize + wx) * 4
			if err != nil {
				continue // leave transparent
			}
			a = pr.nodataAlpha(r, g, b, a)
			buf[off], buf[off+1], buf[off+2], buf[off+3] = r, g, b, a
		}
	}
	return buf, nil
}

// nodataAlpha zeroes a as alpha=0 when the sampled pixel matches
// pr.NoDataValues (the -a/--srcnodata override, or the source's own GDAL
// NODATA tag when no override was given — both resolved in Raster.Open).
// A single value is matched against all three channels at once (GDAL's
// common case: one nodata value applying uniformly); one value per channel
// matches that channel individually.
func (pr *ProjectedRaster) nodataAlpha(r, g, b, a uint8) uint8 {
	switch len(pr.NoDataValues) {
	case 0:
		return a
	case 1:
		v := pr.NoDataValues[0]
		if matchesNoData(r, v) && matchesNoData(g, v) && matchesNoData(b, v) {
			return 0
		}
		return a
	default:
		if matchesNoData(r, pr.NoDataValues[0]) &&
			(len(pr.NoDataValues) < 2 || matchesNoData(g, pr.NoDataValues[1])) &&
			(len(pr.NoDataValues) < 3 || matchesNoData(b, pr.NoDataValues[2])) {
			return 0
		}
		return a
	}
}

func matchesNoData(channel uint8, v float64) bool {
	return float64(channel) == v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
