// Package raster wraps the COG/GeoTIFF reader to expose the georeference
// contract the tiling engine needs: an affine GeoTransform, an SRS, band
// count, and NODATA values, plus a window read that always returns RGBA
// pixels over a view already warped to the target profile's SRS.
package raster

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tilekit/mbtiler/internal/cog"
	"github.com/tilekit/mbtiler/internal/mbtiler"
)

// GeoTransform is the affine mapping from pixel (c, r) to projected (x, y):
// x = OX + c*PX + r*RX; y = OY + c*RY + r*PY. Rotation terms RX, RY must be
// zero; Open rejects anything else. Open has no profile argument, so this
// check, like the SRS check, applies to the Raster profile too.
type GeoTransform struct {
	OX, PX, RX float64
	OY, RY, PY float64
}

// Raster is a single opened source image plus its parsed georeference.
type Raster struct {
	reader       *cog.Reader
	Width        int
	Height       int
	BandCount    int
	AlphaBand    bool
	GeoTransform GeoTransform
	EPSG         int
	NoDataValues []float64
}

// Options carries the CLI overrides that affect how a source is opened.
type Options struct {
	// SRSOverride, when non-zero, replaces the EPSG code parsed from the
	// file's GeoTIFF tags (-s/--s_srs).
	SRSOverride int
	// NoDataOverride, when non-empty, replaces the NODATA value(s) embedded
	// in the file (-a/--srcnodata).
	NoDataOverride []float64
}

// Open opens path and validates it against the raster-adapter contract:
// it must not carry a rotated/skewed geotransform, must have a non-zero
// size, and must have an SRS (embedded or from SRSOverride). The band count
// is not checked.
func Open(path string, opts Options) (*Raster, error) {
	r, err := cog.Open(path)
	if err != nil {
		return nil, mbtiler.Wrap(mbtiler.InvalidInput, err)
	}

	geo := r.GeoInfo()
	if geo.Rotated {
		r.Close()
		return nil, mbtiler.Wrapf(mbtiler.InvalidInput,
			"%s: geotransform has nonzero rotation/skew terms, unsupported", path)
	}

	width, height := r.Width(), r.Height()
	if width <= 0 || height <= 0 {
		r.Close()
		return nil, mbtiler.Wrapf(mbtiler.InvalidInput, "%s: zero-size raster", path)
	}

	epsg := geo.EPSG
	if opts.SRSOverride != 0 {
		epsg = opts.SRSOverride
	}
	if epsg == 0 {
		r.Close()
		return nil, mbtiler.Wrapf(mbtiler.InvalidInput,
			"%s: no SRS embedded and no --s_srs override given", path)
	}

	nodata := opts.NoDataOverride
	if len(nodata) == 0 {
		if nd := r.NoData(); nd != "" {
			for _, part := range strings.Split(nd, ",") {
				v, perr := strconv.ParseFloat(strings.TrimSpace(part), 64)
				if perr == nil {
					nodata = append(nodata, v)
				}
			}
		}
	}

	gt := GeoTransform{
		OX: geo.OriginX,
		PX: geo.PixelSizeX,
		OY: geo.OriginY,
		PY: -geo.PixelSizeY,
	}

	return &Raster{
		reader:       r,
		Width:        width,
		Height:       height,
		GeoTransform: gt,
		EPSG:         epsg,
		NoDataValues: nodata,
	}, nil
}

// Close releases the underlying file handle.
func (r *Raster) Close() error {
	return r.reader.Close()
}

// BoundsInProjectedCRS returns the raster's extent in its own (source) SRS,
// derived from the GeoTransform.
func (r *Raster) BoundsInProjectedCRS() (ulx, uly, lrx, lry float64) {
	gt := r.GeoTransform
	ulx = gt.OX
	uly = gt.OY
	lrx = gt.OX + float64(r.Width)*gt.PX
	lry = gt.OY + float64(r.Height)*gt.PY
	return
}

func (r *Raster) String() string {
	return fmt.Sprintf("raster(%dx%d, EPSG:%d)", r.Width, r.Height, r.EPSG)
}

// samplePixel reads one full-resolution source pixel, clamping coordinates
// to the raster bounds.
func (r *Raster) samplePixel(px, py int) (uint8, uint8, uint8, uint8, error) {
	if px < 0 {
		px = 0
	}
	if px >= r.Width {
		px = r.Width - 1
	}
	if py < 0 {
		py = 0
	}
	if py >= r.Height {
		py = r.Height - 1
	}
	return r.reader.ReadPixelRGBA(px, py)
}

// sampleBilinear reads a bilinearly-interpolated full-resolution source
// pixel at fractional coordinates (fx, fy).
func (r *Raster) sampleBilinear(fx, fy float64) (uint8, uint8, uint8, uint8, error) {
	if fx < 0 || fy < 0 || fx >= float64(r.Width) || fy >= float64(r.Height) {
		return 0, 0, 0, 0, fmt.Errorf("sample out of bounds: (%.2f, %.2f)", fx, fy)
	}
	return r.reader.SampleBilinear(0, fx, fy)
}
