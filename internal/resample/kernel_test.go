package resample

import (
	"image"
	"image/color"
	"testing"
)

func solidRGBA(size int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestScale_SolidColorPreservedAcrossAllAlgorithms(t *testing.T) {
	c := color.RGBA{R: 10, G: 200, B: 30, A: 255}
	src := solidRGBA(1024, c)
	for _, algo := range []Algorithm{Nearest, Average, Bilinear, Cubic, CubicSpline, Lanczos, Antialias} {
		out := Scale(src, 1024, 256, algo)
		got := out.RGBAAt(128, 128)
		if got != c {
			t.Errorf("%s: center pixel = %+v, want %+v", algo, got, c)
		}
	}
}

func TestScale_UpsampleKeepsDimensions(t *testing.T) {
	src := solidRGBA(256, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	out := Scale(src, 256, 512, Bilinear)
	if out.Bounds().Dx() != 512 || out.Bounds().Dy() != 512 {
		t.Fatalf("bounds = %+v, want 512x512", out.Bounds())
	}
}

func TestScale_TransparentPixelsDoNotDarkenEdges(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 512, 512))
	opaque := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < 512; y++ {
		for x := 0; x < 512; x++ {
			if x < 256 {
				src.SetRGBA(x, y, opaque) // left half opaque white, right half transparent black
			}
		}
	}
	out := Scale(src, 512, 256, Bilinear)
	// A pixel well inside the opaque region should stay white, not be
	// darkened by the alpha-0 black neighbors.
	got := out.RGBAAt(32, 128)
	if got.R < 250 || got.G < 250 || got.B < 250 {
		t.Errorf("opaque-region pixel pulled toward black by transparent neighbor: %+v", got)
	}
}

func TestScaleNearest_NoInterpolation(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	src.SetRGBA(1, 0, color.RGBA{G: 255, A: 255})
	src.SetRGBA(0, 1, color.RGBA{B: 255, A: 255})
	src.SetRGBA(1, 1, color.RGBA{R: 255, G: 255, A: 255})
	out := scaleNearest(src, 2, 4)
	if out.Bounds().Dx() != 4 {
		t.Fatalf("want 4x4, got %+v", out.Bounds())
	}
	// Each 2x2 output block copies its source pixel exactly, with no blend
	// across the block boundary.
	for _, tc := range []struct{ dx, dy, sx, sy int }{{1, 1, 0, 0}, {2, 1, 1, 0}, {1, 2, 0, 1}, {2, 2, 1, 1}} {
		if got, want := out.RGBAAt(tc.dx, tc.dy), src.RGBAAt(tc.sx, tc.sy); got != want {
			t.Errorf("out(%d,%d) = %+v, want src(%d,%d) = %+v", tc.dx, tc.dy, got, tc.sx, tc.sy, want)
		}
	}
}
