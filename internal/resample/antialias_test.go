package resample

import (
	"image"
	"image/color"
	"testing"
)

func TestCompositeOverExisting_NilPriorReturnsResampledUnchanged(t *testing.T) {
	top := solidRGBA(4, color.RGBA{R: 10, A: 128})
	out, err := CompositeOverExisting(top, nil, nil)
	if err != nil {
		t.Fatalf("CompositeOverExisting: %v", err)
	}
	if out != top {
		t.Error("expected the same image back when no prior blob exists")
	}
}

func TestCompositeOverExisting_BlendsOverOpaqueUnder(t *testing.T) {
	top := solidRGBA(4, color.RGBA{R: 255, A: 128})
	under := solidRGBA(4, color.RGBA{B: 255, A: 255})
	out, err := CompositeOverExisting(top, []byte("stub"), func([]byte) (*image.RGBA, error) { return under, nil })
	if err != nil {
		t.Fatalf("CompositeOverExisting: %v", err)
	}
	got := out.RGBAAt(0, 0)
	if got.A != 255 {
		t.Errorf("compositing over an opaque base should yield full alpha, got %d", got.A)
	}
	if got.B == 0 {
		t.Error("blue from the opaque base should show through the half-transparent top")
	}
}

func TestCompositeOverExisting_OpaqueTopWinsOutright(t *testing.T) {
	top := solidRGBA(4, color.RGBA{R: 255, A: 255})
	under := solidRGBA(4, color.RGBA{B: 255, A: 255})
	out, _ := CompositeOverExisting(top, []byte("stub"), func([]byte) (*image.RGBA, error) { return under, nil })
	got := out.RGBAAt(1, 1)
	if got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("opaque top should pass through unchanged, got %+v", got)
	}
}
