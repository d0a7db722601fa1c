// Package builder implements the parallel tile pyramid builder (§4.7):
// a base phase that reads the source raster into tiles at the finest zoom,
// and an overview phase that composes each coarser zoom from its four
// children, both partitioned across workers by deterministic round-robin
// rather than a work queue, so a given worker count always produces the
// same tile-to-worker assignment.
package builder

import (
	"image"
	"image/color"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/tilekit/mbtiler/internal/coord"
	"github.com/tilekit/mbtiler/internal/encode"
	"github.com/tilekit/mbtiler/internal/mbtiler"
	"github.com/tilekit/mbtiler/internal/progress"
	"github.com/tilekit/mbtiler/internal/raster"
	"github.com/tilekit/mbtiler/internal/resample"
	"github.com/tilekit/mbtiler/internal/store"
)

// ProgressWriter, when non-nil, receives a fresh progress bar for every
// zoom level the builder visits.
type ProgressWriter = io.Writer

// Config holds everything the builder needs that does not change across
// workers or zoom levels.
type Config struct {
	Profile    coord.Profile
	ZoomMin    int
	ZoomMax    int
	Ranges     map[int]coord.Range // tile index range per zoom, from planner.Plan
	TileSize   int                 // always 256
	Workers    int
	Algorithm  resample.Algorithm
	Encoder    encode.Encoder
	RowConv    string // "tms" or "xyz" — convention the stored tile_row uses
	Resume     bool
	Verbose    bool
	ArchivePath string
	Progress   ProgressWriter // non-nil enables a per-zoom progress bar (os.Stderr in the CLI)
}

// Stats tallies the outcome of every tile across the whole run.
type Stats struct {
	Written int64
	Skipped int64
	Failed  int64
}

// Generate runs the base phase followed by the overview phases, in
// descending zoom order, with a full barrier between each zoom so the
// overview phase at z only starts once every tile at z+1 has landed.
func Generate(cfg Config, src *raster.ProjectedRaster) (Stats, error) {
	var stats Stats

	baseRange, ok := cfg.Ranges[cfg.ZoomMax]
	if !ok {
		return stats, mbtiler.Wrapf(mbtiler.InvalidInput, "no tile range for max zoom %d", cfg.ZoomMax)
	}
	bar := newBar(cfg, cfg.ZoomMax, baseRange)
	if err := runPhase(cfg, cfg.ZoomMax, baseRange, &basePhase{cfg: cfg, src: src}, &stats, bar); err != nil {
		return stats, err
	}
	bar.Finish()

	for z := cfg.ZoomMax - 1; z >= cfg.ZoomMin; z-- {
		r, ok := cfg.Ranges[z]
		if !ok {
			continue
		}
		childRange := cfg.Ranges[z+1]
		bar := newBar(cfg, z, r)
		if err := runPhase(cfg, z, r, &overviewPhase{cfg: cfg, childRange: childRange}, &stats, bar); err != nil {
			return stats, err
		}
		bar.Finish()
		if cfg.Verbose {
			log.Printf("zoom %d: done (%d written, %d skipped, %d failed so far)",
				z, stats.Written, stats.Skipped, stats.Failed)
		}
	}

	return stats, nil
}

func newBar(cfg Config, z int, r coord.Range) *progress.Bar {
	if cfg.Progress == nil {
		return nil
	}
	total := int64((r.MaxX - r.MinX + 1) * (r.MaxY - r.MinY + 1))
	return progress.New(cfg.Progress, z, total)
}

// tilePhase computes one tile's pixel data, given a store connection
// scoped to the worker calling it. A nil image with a nil error means the
// tile legitimately has no data (a base tile outside the raster's footprint)
// and should be skipped without writing a row. The overview phase always
// returns an image: with no stored children it is fully transparent.
type tilePhase interface {
	render(s *store.Store, z, tx, ty int) (*image.RGBA, error)
}

// runPhase spawns cfg.Workers goroutines, each opening its own archive
// connection (§5: one connection per worker) and independently computing
// its round-robin share of tileRange's tiles via the canonical iteration
// order (ty descending, tx ascending) — no job queue, so the same worker
// count always yields the same partition.
func runPhase(cfg Config, z int, tileRange coord.Range, phase tilePhase, stats *Stats, bar *progress.Bar) error {
	n := cfg.Workers
	if n < 1 {
		n = 1
	}

	var wg sync.WaitGroup
	errCh := make(chan error, n)
	var written, skipped, failed atomic.Int64

	for w := 0; w < n; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			s, err := store.Open(cfg.ArchivePath)
			if err != nil {
				errCh <- err
				return
			}
			defer s.Close()

			i := 0
			for ty := tileRange.MaxY; ty >= tileRange.MinY; ty-- {
				for tx := tileRange.MinX; tx <= tileRange.MaxX; tx++ {
					i++
					if (i-1)%n != workerID {
						continue
					}

					row := coord.TileRow(ty, z, cfg.RowConv)

					if cfg.Resume {
						has, herr := s.HasTile(z, tx, row)
						if herr != nil {
							errCh <- herr
							return
						}
						if has {
							skipped.Add(1)
							bar.Add(1)
							continue
						}
					}

					img, rerr := phase.render(s, z, tx, ty)
					if rerr != nil {
						if mb, ok := rerr.(*mbtiler.Error); ok && mb.Kind.Fatal() {
							errCh <- rerr
							return
						}
						if cfg.Verbose {
							log.Printf("tile z=%d x=%d y=%d failed: %v", z, tx, ty, rerr)
						}
						failed.Add(1)
						bar.Add(1)
						continue
					}
					if img == nil {
						skipped.Add(1)
						bar.Add(1)
						continue
					}

					td := resample.NewTileData(img, cfg.TileSize)
					data, eerr := cfg.Encoder.Encode(td.AsImage())
					if eerr != nil {
						if cfg.Verbose {
							log.Printf("tile z=%d x=%d y=%d encode failed: %v", z, tx, ty, eerr)
						}
						failed.Add(1)
						bar.Add(1)
						continue
					}

					if err := s.InsertTile(z, tx, row, data); err != nil {
						errCh <- err
						return
					}
					written.Add(1)
					bar.Add(1)
				}
			}
		}(w)
	}

	wg.Wait()
	close(errCh)

	stats.Written += written.Load()
	stats.Skipped += skipped.Load()
	stats.Failed += failed.Load()

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

// basePhase reads (z, tx, ty) directly from the source raster (§4.3, §4.4).
type basePhase struct {
	cfg Config
	src *raster.ProjectedRaster
}

func (p *basePhase) render(_ *store.Store, z, tx, ty int) (*image.RGBA, error) {
	cfg := p.cfg
	tileSize := cfg.TileSize
	bounds := cfg.Profile.TileBounds(z, tx, ty)
	querySize := cfg.Algorithm.QuerySize(tileSize)

	// Mercator/Geodetic are Y-up (north is the larger value); Raster tiles
	// directly in the source's Y-down pixel grid, where top is the smaller
	// value — see planner.tileRangeForExtent for the matching convention.
	uly, lry := bounds.MaxY, bounds.MinY
	if cfg.Profile.Kind == coord.Raster {
		uly, lry = bounds.MinY, bounds.MaxY
	}

	q := raster.GeoQuery(p.src.GeoTransform, p.src.Width, p.src.Height,
		bounds.MinX, uly, bounds.MaxX, lry, querySize)
	if q.Write.XSize <= 0 || q.Write.YSize <= 0 {
		return nil, nil // tile does not overlap the raster at all
	}

	data, err := p.src.ReadWindow(q.Read.X, q.Read.Y, q.Read.XSize, q.Read.YSize, q.Write.XSize, q.Write.YSize)
	if err != nil {
		return nil, mbtiler.Wrap(mbtiler.RasterReadError, err)
	}

	queryBuf := resample.GetRGBA(querySize, querySize)
	defer resample.PutRGBA(queryBuf)
	pasteWindow(queryBuf, data, q.Write.X, q.Write.Y, q.Write.XSize, q.Write.YSize)

	return resample.Scale(queryBuf, querySize, tileSize, cfg.Algorithm), nil
}

// pasteWindow copies a wxsize x wysize RGBA buffer into dst at (ox, oy),
// leaving the rest of dst at its zero value (transparent).
func pasteWindow(dst *image.RGBA, src []byte, ox, oy, wxsize, wysize int) {
	for y := 0; y < wysize; y++ {
		for x := 0; x < wxsize; x++ {
			off := (y*wxsize + x) * 4
			dst.SetRGBA(ox+x, oy+y, colorAt(src, off))
		}
	}
}

func colorAt(buf []byte, off int) color.RGBA {
	return color.RGBA{R: buf[off], G: buf[off+1], B: buf[off+2], A: buf[off+3]}
}

// overviewPhase composes (z, tx, ty) from its up-to-four children at z+1,
// already written to the archive by a prior, fully-completed phase.
type overviewPhase struct {
	cfg        Config
	childRange coord.Range
}

func (p *overviewPhase) render(s *store.Store, z, tx, ty int) (*image.RGBA, error) {
	cfg := p.cfg

	getChild := func(cx, cy int) ([]byte, error) {
		row := coord.TileRow(cy, z+1, cfg.RowConv)
		return s.GetTile(z+1, cx, row)
	}
	decodeChild := func(blob []byte) (*image.RGBA, error) {
		img, err := encode.DecodeImage(blob, string(cfg.Encoder.Format()))
		if err != nil {
			return nil, err
		}
		return toRGBA(img), nil
	}

	canvas, err := resample.ComposeOverview(z, tx, ty, p.childRange, cfg.Algorithm, getChild, decodeChild)
	if err != nil {
		return nil, mbtiler.Wrap(mbtiler.ArchiveError, err)
	}

	if cfg.Algorithm == resample.Antialias {
		row := coord.TileRow(ty, z, cfg.RowConv)
		existing, gerr := s.GetTile(z, tx, row)
		if gerr != nil {
			return nil, mbtiler.Wrap(mbtiler.ArchiveError, gerr)
		}
		canvas, err = resample.CompositeOverExisting(canvas, existing, decodeChild)
		if err != nil {
			return nil, mbtiler.Wrap(mbtiler.ResamplingFailed, err)
		}
	}

	return canvas, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}
