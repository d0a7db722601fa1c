package resample

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/tilekit/mbtiler/internal/coord"
)

func encodePNG(t *testing.T, img *image.RGBA) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func decodePNG(blob []byte) (*image.RGBA, error) {
	img, err := png.Decode(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	rgba, ok := img.(*image.RGBA)
	if !ok {
		b := img.Bounds()
		rgba = image.NewRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				rgba.Set(x, y, img.At(x, y))
			}
		}
	}
	return rgba, nil
}

func TestQuadrantOffset_MatchesRedesignRule(t *testing.T) {
	cases := []struct {
		tx, ty, cx, cy, wantX, wantY int
	}{
		{0, 0, 0, 0, 0, TileSize},
		{0, 0, 1, 0, TileSize, TileSize},
		{0, 0, 0, 1, 0, 0},
		{0, 0, 1, 1, TileSize, 0},
		{5, 3, 10, 6, 0, TileSize},
		{5, 3, 11, 7, TileSize, 0},
	}
	for _, c := range cases {
		x, y := quadrantOffset(c.tx, c.ty, c.cx, c.cy)
		if x != c.wantX || y != c.wantY {
			t.Errorf("quadrantOffset(%d,%d,%d,%d) = (%d,%d), want (%d,%d)",
				c.tx, c.ty, c.cx, c.cy, x, y, c.wantX, c.wantY)
		}
	}
}

func TestComposeOverview_FourChildrenAverageToUniform(t *testing.T) {
	c := color.RGBA{R: 40, G: 50, B: 60, A: 255}
	child := solidRGBA(TileSize, c)
	blob := encodePNG(t, child)

	childRange := coord.Range{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
	out, err := ComposeOverview(0, 0, 0, childRange, Bilinear,
		func(cx, cy int) ([]byte, error) { return blob, nil },
		decodePNG)
	if err != nil {
		t.Fatalf("ComposeOverview: %v", err)
	}
	if out.Bounds().Dx() != TileSize || out.Bounds().Dy() != TileSize {
		t.Fatalf("bounds = %+v, want %dx%d", out.Bounds(), TileSize, TileSize)
	}
	got := out.RGBAAt(TileSize/2, TileSize/2)
	if got != c {
		t.Errorf("composed solid color = %+v, want %+v", got, c)
	}
}

func TestComposeOverview_MissingChildLeavesTransparentQuadrant(t *testing.T) {
	c := color.RGBA{R: 200, G: 10, B: 10, A: 255}
	child := solidRGBA(TileSize, c)
	blob := encodePNG(t, child)

	childRange := coord.Range{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
	calls := map[[2]int]bool{{0, 0}: true}
	out, err := ComposeOverview(0, 0, 0, childRange, Nearest,
		func(cx, cy int) ([]byte, error) {
			if calls[[2]int{cx, cy}] {
				return blob, nil
			}
			return nil, nil
		},
		decodePNG)
	if err != nil {
		t.Fatalf("ComposeOverview: %v", err)
	}
	// The (0,0) quadrant (bottom-left per quadrantOffset) should carry the
	// child color; the diagonally opposite corner should be transparent.
	x, y := quadrantOffset(0, 0, 0, 0)
	got := out.RGBAAt((x+TileSize/4)/2, (y+TileSize/4)/2)
	if got != c {
		t.Errorf("child quadrant pixel = %+v, want %+v", got, c)
	}
	other := out.RGBAAt(TileSize-1, 0)
	if other.A != 0 {
		t.Errorf("expected transparent quadrant for missing child, got alpha=%d", other.A)
	}
}
