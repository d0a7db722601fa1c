package resample

import (
	"image"
	"image/color"
	"math"
)

// kernelFunc is a 1D resampling filter: weight(x) for |x| <= support,
// assumed 0 outside.
type kernelFunc func(x float64) float64

func kernelFor(a Algorithm) (fn kernelFunc, support float64) {
	switch a {
	case Bilinear:
		return triangleKernel, 1
	case Cubic:
		return catmullRomKernel, 2
	case CubicSpline:
		return bSplineKernel, 2
	case Lanczos, Antialias:
		return lanczosKernel(3), 3
	default:
		return triangleKernel, 1
	}
}

func triangleKernel(x float64) float64 {
	x = math.Abs(x)
	if x < 1 {
		return 1 - x
	}
	return 0
}

// catmullRomKernel is the standard bicubic convolution kernel with a=-0.5.
func catmullRomKernel(x float64) float64 {
	x = math.Abs(x)
	const a = -0.5
	switch {
	case x <= 1:
		return (a+2)*x*x*x - (a+3)*x*x + 1
	case x < 2:
		return a*x*x*x - 5*a*x*x + 8*a*x - 4*a
	default:
		return 0
	}
}

// bSplineKernel is the cubic B-spline ("cubic spline" in GDAL's naming):
// smoother/blurrier than Catmull-Rom since it is not interpolating.
func bSplineKernel(x float64) float64 {
	x = math.Abs(x)
	switch {
	case x < 1:
		return (4 + 3*x*x*x - 6*x*x) / 6
	case x < 2:
		t := 2 - x
		return (t * t * t) / 6
	default:
		return 0
	}
}

func lanczosKernel(a float64) kernelFunc {
	return func(x float64) float64 {
		if x == 0 {
			return 1
		}
		ax := math.Abs(x)
		if ax >= a {
			return 0
		}
		pix := math.Pi * x
		return a * math.Sin(pix) * math.Sin(pix/a) / (pix * pix)
	}
}

// Scale resamples src (srcSize x srcSize, RGBA, premultiplied by neither
// alpha-weighting nor anything else) down or up to dstSize x dstSize using
// algo's kernel. Pixels with alpha 0 are excluded from the RGB weighted
// average so nodata fringes don't bleed dark color into the result (the
// resulting alpha channel still reflects the coverage fraction).
//
// near and average use dedicated, cheaper implementations; everything else
// goes through the shared separable-convolution path.
func Scale(src *image.RGBA, srcSize, dstSize int, algo Algorithm) *image.RGBA {
	switch algo {
	case Nearest:
		return scaleNearest(src, srcSize, dstSize)
	case Average:
		return scaleBox(src, srcSize, dstSize)
	default:
		kernel, support := kernelFor(algo)
		return scaleSeparable(src, srcSize, dstSize, kernel, support)
	}
}

func scaleNearest(src *image.RGBA, srcSize, dstSize int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, dstSize, dstSize))
	ratio := float64(srcSize) / float64(dstSize)
	for dy := 0; dy < dstSize; dy++ {
		sy := clampInt(int(float64(dy)*ratio), 0, srcSize-1)
		for dx := 0; dx < dstSize; dx++ {
			sx := clampInt(int(float64(dx)*ratio), 0, srcSize-1)
			dst.SetRGBA(dx, dy, src.RGBAAt(sx, sy))
		}
	}
	return dst
}

// scaleBox averages every source pixel falling in the (generally
// non-integer) destination cell — GDAL's "average" resampling.
func scaleBox(src *image.RGBA, srcSize, dstSize int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, dstSize, dstSize))
	ratio := float64(srcSize) / float64(dstSize)
	for dy := 0; dy < dstSize; dy++ {
		y0 := int(float64(dy) * ratio)
		y1 := int(float64(dy+1) * ratio)
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for dx := 0; dx < dstSize; dx++ {
			x0 := int(float64(dx) * ratio)
			x1 := int(float64(dx+1) * ratio)
			if x1 <= x0 {
				x1 = x0 + 1
			}

			var rSum, gSum, bSum, aSum, weight float64
			for sy := y0; sy < y1 && sy < srcSize; sy++ {
				for sx := x0; sx < x1 && sx < srcSize; sx++ {
					p := src.RGBAAt(sx, sy)
					aSum += float64(p.A)
					if p.A == 0 {
						continue
					}
					rSum += float64(p.R)
					gSum += float64(p.G)
					bSum += float64(p.B)
					weight++
				}
			}
			count := float64((y1 - y0) * (x1 - x0))
			if count == 0 {
				continue
			}
			a := aSum / count
			if weight == 0 {
				dst.SetRGBA(dx, dy, color.RGBA{A: uint8(a)})
				continue
			}
			dst.SetRGBA(dx, dy, color.RGBA{
				R: uint8(rSum / weight), G: uint8(gSum / weight), B: uint8(bSum / weight), A: uint8(a),
			})
		}
	}
	return dst
}

// scaleSeparable applies kernel independently on each axis (horizontal
// pass, then vertical), which is equivalent to and much cheaper than a
// full 2D convolution for separable kernels.
func scaleSeparable(src *image.RGBA, srcSize, dstSize int, kernel kernelFunc, support float64) *image.RGBA {
	scale := float64(srcSize) / float64(dstSize)
	filterScale := math.Max(scale, 1) // widen the kernel when downsampling to avoid aliasing

	// Horizontal pass: srcSize x srcSize -> dstSize x srcSize.
	mid := make([]float64, dstSize*srcSize*4)
	for dx := 0; dx < dstSize; dx++ {
		center := (float64(dx) + 0.5) * scale
		lo, weights := sampleWindow(center, support, filterScale, srcSize, kernel)
		for sy := 0; sy < srcSize; sy++ {
			r, g, b, a, wsum, tw := 0.0, 0.0, 0.0, 0.0, 0.0, 0.0
			for i := range weights {
				p := src.RGBAAt(lo+i, sy)
				pa := float64(p.A)
				a += pa * weights[i]
				tw += weights[i]
				if p.A > 0 {
					r += float64(p.R) * weights[i]
					g += float64(p.G) * weights[i]
					b += float64(p.B) * weights[i]
					wsum += weights[i]
				}
			}
			off := (sy*dstSize + dx) * 4
			if wsum > 0 {
				mid[off] = r / wsum
				mid[off+1] = g / wsum
				mid[off+2] = b / wsum
			}
			if tw != 0 {
				mid[off+3] = a / tw
			}
		}
	}

	// Vertical pass: dstSize x srcSize -> dstSize x dstSize.
	dst := image.NewRGBA(image.Rect(0, 0, dstSize, dstSize))
	for dy := 0; dy < dstSize; dy++ {
		center := (float64(dy) + 0.5) * scale
		lo, weights := sampleWindow(center, support, filterScale, srcSize, kernel)
		for dx := 0; dx < dstSize; dx++ {
			r, g, b, a, wsum, tw := 0.0, 0.0, 0.0, 0.0, 0.0, 0.0
			for i := range weights {
				off := ((lo+i)*dstSize + dx) * 4
				pa := mid[off+3]
				a += pa * weights[i]
				tw += weights[i]
				if pa > 0 {
					r += mid[off] * weights[i]
					g += mid[off+1] * weights[i]
					b += mid[off+2] * weights[i]
					wsum += weights[i]
				}
			}
			if tw != 0 {
				a /= tw
			}
			var rr, gg, bb uint8
			if wsum > 0 {
				rr = clampByte(r / wsum)
				gg = clampByte(g / wsum)
				bb = clampByte(b / wsum)
			}
			dst.SetRGBA(dx, dy, color.RGBA{R: rr, G: gg, B: bb, A: clampByte(a)})
		}
	}
	return dst
}

// sampleWindow returns the source index lo of the first tap and the
// (unnormalized) kernel weights for the taps covering a destination sample
// centered at `center` in source-pixel space. filterScale widens the
// kernel's support when downsampling, which both widens the tap window and
// scales the argument passed to kernel so it still evaluates over its
// natural [-support, support] domain.
func sampleWindow(center, support, filterScale float64, srcSize int, kernel kernelFunc) (lo int, weights []float64) {
	radius := support * filterScale
	lo = clampInt(int(math.Floor(center-radius)), 0, srcSize-1)
	hi := clampInt(int(math.Ceil(center+radius)), 0, srcSize-1)
	if hi < lo {
		hi = lo
	}
	weights = make([]float64, hi-lo+1)
	for i := range weights {
		sx := float64(lo+i) + 0.5
		weights[i] = kernel((sx - center) / filterScale)
	}
	return lo, weights
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
