package resample

import (
	"image"
	"image/color"
)

// CompositeOverExisting implements antialias's accumulate-over-previous-write
// behavior (§4.6): the source format composites the freshly-resampled tile
// over whatever file already sits at the same path. The SQLite archive has
// no file to composite over, so this degenerates to a straight alpha-over
// blend against the previously-inserted blob for that (z, x, y), decoded by
// decodeExisting; with no prior blob it is just the resampled tile itself.
func CompositeOverExisting(resampled *image.RGBA, existing []byte, decodeExisting func([]byte) (*image.RGBA, error)) (*image.RGBA, error) {
	if existing == nil {
		return resampled, nil
	}
	under, err := decodeExisting(existing)
	if err != nil {
		return resampled, nil // corrupt/unreadable prior blob: fall back to a straight resample
	}
	return alphaOver(resampled, under), nil
}

// alphaOver composites top over bottom using the standard "over" operator,
// working in non-premultiplied RGBA since that's how TileData/image.RGBA
// pixels are stored throughout this package.
func alphaOver(top, bottom *image.RGBA) *image.RGBA {
	size := top.Bounds().Dx()
	out := image.NewRGBA(top.Bounds())
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			tp := top.RGBAAt(x, y)
			if tp.A == 255 {
				out.SetRGBA(x, y, tp)
				continue
			}
			if tp.A == 0 {
				out.SetRGBA(x, y, bottom.RGBAAt(x, y))
				continue
			}
			bp := bottom.RGBAAt(x, y)
			ta := float64(tp.A) / 255
			oa := ta + float64(bp.A)/255*(1-ta)
			blend := func(tc, bc uint8) uint8 {
				if oa == 0 {
					return 0
				}
				v := (float64(tc)*ta + float64(bc)*(float64(bp.A)/255)*(1-ta)) / oa
				return clampByte(v)
			}
			out.SetRGBA(x, y, color.RGBA{
				R: blend(tp.R, bp.R), G: blend(tp.G, bp.G), B: blend(tp.B, bp.B), A: clampByte(oa * 255),
			})
		}
	}
	return out
}
