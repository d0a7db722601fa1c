package builder

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tilekit/mbtiler/internal/coord"
	"github.com/tilekit/mbtiler/internal/encode"
	"github.com/tilekit/mbtiler/internal/resample"
	"github.com/tilekit/mbtiler/internal/store"
)

func TestPasteWindow_PlacesBufferAtOffset(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 8, 8))
	src := make([]byte, 2*2*4)
	for i := range src {
		src[i] = 200
	}
	pasteWindow(dst, src, 3, 4, 2, 2)
	if got := dst.RGBAAt(3, 4); got != (color.RGBA{200, 200, 200, 200}) {
		t.Errorf("pasted pixel = %+v", got)
	}
	if got := dst.RGBAAt(0, 0); got.A != 0 {
		t.Errorf("untouched pixel should stay transparent, got %+v", got)
	}
}

func pngTile(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, resample.TileSize, resample.TileSize))
	for y := 0; y < resample.TileSize; y++ {
		for x := 0; x < resample.TileSize; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestOverviewPhase_ComposesFromStoredChildren(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.mbtiles")
	s, err := store.Create(path)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	defer s.Close()

	c := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	blob := pngTile(t, c)
	for _, coords := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		if err := s.InsertTile(1, coords[0], coords[1], blob); err != nil {
			t.Fatalf("InsertTile: %v", err)
		}
	}

	cfg := Config{
		Algorithm: resample.Bilinear,
		Encoder:   &encode.PNGEncoder{},
		RowConv:   "tms",
	}
	phase := &overviewPhase{cfg: cfg, childRange: coord.Range{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}}

	img, err := phase.render(s, 0, 0, 0)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if img == nil {
		t.Fatal("expected a composed image, got nil")
	}
	got := img.RGBAAt(resample.TileSize/2, resample.TileSize/2)
	if got != c {
		t.Errorf("composed pixel = %+v, want %+v", got, c)
	}
}

func TestOverviewPhase_NoChildrenYieldsTransparentTile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.mbtiles")
	s, err := store.Create(path)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	defer s.Close()

	cfg := Config{Algorithm: resample.Nearest, Encoder: &encode.PNGEncoder{}, RowConv: "tms"}
	phase := &overviewPhase{cfg: cfg, childRange: coord.Range{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}}

	img, err := phase.render(s, 0, 0, 0)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got := img.RGBAAt(0, 0)
	if got.A != 0 {
		t.Errorf("tile with no stored children should be fully transparent, got %+v", got)
	}
}

// countingPhase records which (z, tx, ty) each worker visits so the
// partition can be checked for completeness and disjointness.
type countingPhase struct {
	mu    sync.Mutex
	seen  map[[2]int]int // (tx, ty) -> visit count
}

func (p *countingPhase) render(_ *store.Store, z, tx, ty int) (*image.RGBA, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seen == nil {
		p.seen = make(map[[2]int]int)
	}
	p.seen[[2]int{tx, ty}]++
	return nil, nil
}

func TestRunPhase_RoundRobinCoversEveryTileExactlyOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.mbtiles")
	s, err := store.Create(path)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	s.Close()

	cfg := Config{Workers: 3, ArchivePath: path}
	tileRange := coord.Range{MinX: 0, MinY: 0, MaxX: 4, MaxY: 3}
	phase := &countingPhase{}
	var stats Stats

	if err := runPhase(cfg, 5, tileRange, phase, &stats, nil); err != nil {
		t.Fatalf("runPhase: %v", err)
	}

	for tx := tileRange.MinX; tx <= tileRange.MaxX; tx++ {
		for ty := tileRange.MinY; ty <= tileRange.MaxY; ty++ {
			if n := phase.seen[[2]int{tx, ty}]; n != 1 {
				t.Errorf("tile (%d,%d) visited %d times, want 1", tx, ty, n)
			}
		}
	}
	wantTotal := int64((tileRange.MaxX - tileRange.MinX + 1) * (tileRange.MaxY - tileRange.MinY + 1))
	if stats.Skipped != wantTotal {
		t.Errorf("stats.Skipped = %d, want %d (countingPhase returns nil images)", stats.Skipped, wantTotal)
	}
}
