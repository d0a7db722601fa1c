package resample

import (
	"image"

	"github.com/tilekit/mbtiler/internal/coord"
)

// TileSize is the fixed tile edge length in pixels.
const TileSize = 256

// ComposeOverview builds the 2x canvas for an overview tile (z, tx, ty) from
// up to four child tiles at (z+1, cx, cy) and resamples it down to a single
// 256x256 tile (§4.7).
//
// decodeChild decodes a child tile's stored bytes (as returned by
// store.Store.GetTile) to an RGBA image; a nil blob or decode failure leaves
// that quadrant transparent.
func ComposeOverview(z, tx, ty int, childRange coord.Range, algo Algorithm,
	getChild func(cx, cy int) ([]byte, error), decodeChild func([]byte) (*image.RGBA, error)) (*image.RGBA, error) {

	canvas := GetRGBA(2*TileSize, 2*TileSize)
	defer PutRGBA(canvas)

	for _, cx := range [2]int{2 * tx, 2*tx + 1} {
		for _, cy := range [2]int{2 * ty, 2*ty + 1} {
			if cx < childRange.MinX || cx > childRange.MaxX || cy < childRange.MinY || cy > childRange.MaxY {
				continue
			}
			blob, err := getChild(cx, cy)
			if err != nil {
				return nil, err
			}
			if blob == nil {
				continue
			}
			child, err := decodeChild(blob)
			if err != nil {
				continue // a single corrupt child degrades to a transparent quadrant, not a failed overview
			}
			ox, oy := quadrantOffset(tx, ty, cx, cy)
			paintQuadrant(canvas, child, ox, oy)
		}
	}

	return Scale(canvas, 2*TileSize, TileSize, algo), nil
}

// quadrantOffset locates child (cx, cy) within the parent (tx, ty)'s 2x
// canvas. This is the REDESIGN-FLAG-simplified rule: the source's row/column
// zero special-casing collapses to a single comparison that holds for every
// tx, ty.
func quadrantOffset(tx, ty, cx, cy int) (x, y int) {
	if cx-2*tx == 1 {
		x = TileSize
	}
	if cy-2*ty == 1 {
		y = 0
	} else {
		y = TileSize
	}
	return x, y
}

func paintQuadrant(canvas *image.RGBA, child *image.RGBA, ox, oy int) {
	b := child.Bounds()
	w := b.Dx()
	h := b.Dy()
	for y := 0; y < h && y < TileSize; y++ {
		for x := 0; x < w && x < TileSize; x++ {
			canvas.SetRGBA(ox+x, oy+y, child.RGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
}
