package main

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/tilekit/mbtiler/internal/builder"
	"github.com/tilekit/mbtiler/internal/coord"
	"github.com/tilekit/mbtiler/internal/encode"
	"github.com/tilekit/mbtiler/internal/mbtiler"
	"github.com/tilekit/mbtiler/internal/metadata"
	"github.com/tilekit/mbtiler/internal/planner"
	"github.com/tilekit/mbtiler/internal/raster"
	"github.com/tilekit/mbtiler/internal/resample"
	"github.com/tilekit/mbtiler/internal/store"
)

var cli struct {
	Profile     string `short:"p" default:"mercator" enum:"mercator,geodetic,raster" help:"Tiling profile."`
	Resampling  string `short:"r" default:"average" enum:"average,near,bilinear,cubic,cubicspline,lanczos,antialias" help:"Resampling algorithm."`
	SSRS        int    `short:"s" name:"s_srs" help:"Source SRS override, as an EPSG code (e.g. 4326)."`
	Zoom        string `short:"z" help:"Zoom range MIN[-MAX]. Default: derived from the source resolution."`
	Resume      bool   `short:"e" help:"Skip tiles already present in the archive."`
	SrcNoData   string `short:"a" name:"srcnodata" help:"Override NODATA value(s), comma-separated."`
	Processes   int    `name:"processes" default:"0" help:"Worker count. Default: number of CPU cores."`
	Format      string `short:"f" default:"PNG" enum:"PNG,JPEG" help:"Tile encoding."`
	Output      string `short:"o" default:"xyz" enum:"tms,xyz" help:"Row-indexing convention."`
	Verbose     bool   `short:"v" help:"Diagnostic logging."`
	Attribution string `help:"Attribution string written to the archive's metadata."`
	Description string `help:"Description string written to the archive's metadata."`

	InputFile     string `arg:"" help:"Source georeferenced raster."`
	OutputArchive string `arg:"" help:"Destination SQLite tile archive."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("mbtiler"),
		kong.Description("Converts a georeferenced raster into a tiled SQLite archive."),
	)

	if err := run(); err != nil {
		if cli.Verbose {
			fmt.Fprintf(os.Stderr, "mbtiler: %+v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "mbtiler: %v\n", err)
		}
		os.Exit(mbtiler.ExitCode(err))
	}
}

func run() error {
	algo, err := resample.Parse(cli.Resampling)
	if err != nil {
		return mbtiler.Wrap(mbtiler.UnsupportedOption, err)
	}

	enc, err := encode.NewEncoder(strings.ToLower(cli.Format), 85)
	if err != nil {
		return mbtiler.Wrap(mbtiler.UnsupportedOption, err)
	}

	var zoomOverride *planner.ZoomRange
	if cli.Zoom != "" {
		zr, err := parseZoomRange(cli.Zoom)
		if err != nil {
			return mbtiler.Wrap(mbtiler.UnsupportedOption, err)
		}
		zoomOverride = &zr
	}

	var nodata []float64
	if cli.SrcNoData != "" {
		for _, part := range strings.Split(cli.SrcNoData, ",") {
			v, perr := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if perr != nil {
				return mbtiler.Wrapf(mbtiler.UnsupportedOption, "parsing --srcnodata %q: %v", cli.SrcNoData, perr)
			}
			nodata = append(nodata, v)
		}
	}

	workers := cli.Processes
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	src, err := raster.Open(cli.InputFile, raster.Options{SRSOverride: cli.SSRS, NoDataOverride: nodata})
	if err != nil {
		return err
	}
	defer src.Close()

	profile, pr, err := resolveProfile(cli.Profile, src)
	if err != nil {
		return err
	}

	ominx, ominy, omaxx, omaxy := pr.GeoTransform.OX, pr.GeoTransform.OY,
		pr.GeoTransform.OX+float64(pr.Width)*pr.GeoTransform.PX,
		pr.GeoTransform.OY+float64(pr.Height)*pr.GeoTransform.PY
	if omaxy < ominy {
		ominy, omaxy = omaxy, ominy
	}

	px := 1.0
	if profile.Kind != coord.Raster {
		px = math.Abs(pr.GeoTransform.PX)
	}

	plan, err := planner.Build(profile, ominx, ominy, omaxx, omaxy, px, pr.Width, pr.Height, zoomOverride)
	if err != nil {
		return err
	}

	s, err := store.Create(cli.OutputArchive)
	if err != nil {
		return err
	}

	bounds := wgs84Bounds(profile, src)
	if err := metadata.Emit(s, metadata.Info{
		Name:               baseName(cli.InputFile),
		Description:        cli.Description,
		Attribution:        cli.Attribution,
		Format:             string(enc.Format()),
		MinZoom:            plan.Zoom.Min,
		MaxZoom:            plan.Zoom.Max,
		SouthWestNorthEast: bounds,
		Profile:            profile.Kind.String(),
	}); err != nil {
		s.Close()
		return err
	}
	if err := s.Close(); err != nil {
		return err
	}

	cfg := builder.Config{
		Profile:     profile,
		ZoomMin:     plan.Zoom.Min,
		ZoomMax:     plan.Zoom.Max,
		Ranges:      plan.Ranges,
		TileSize:    256,
		Workers:     workers,
		Algorithm:   algo,
		Encoder:     enc,
		RowConv:     cli.Output,
		Resume:      cli.Resume,
		Verbose:     cli.Verbose,
		ArchivePath: cli.OutputArchive,
	}
	if cli.Verbose {
		cfg.Progress = os.Stderr
	}

	stats, err := builder.Generate(cfg, pr)
	if err != nil {
		return err
	}
	if cli.Verbose {
		fmt.Fprintf(os.Stderr, "mbtiler: %d written, %d skipped, %d failed\n", stats.Written, stats.Skipped, stats.Failed)
	}

	final, err := store.Open(cli.OutputArchive)
	if err != nil {
		return err
	}
	defer final.Close()
	return final.Finalize()
}

// resolveProfile builds the tiling profile named by -p and the
// correspondingly-projected source raster: Mercator/Geodetic reproject to
// their target SRS, Raster tiles the source's own pixel grid untouched.
func resolveProfile(name string, src *raster.Raster) (coord.Profile, *raster.ProjectedRaster, error) {
	switch name {
	case "mercator":
		profile := coord.NewMercator()
		pr, err := raster.WarpTo(src, profile.EPSG())
		return profile, pr, err
	case "geodetic":
		profile := coord.NewGeodetic()
		pr, err := raster.WarpTo(src, profile.EPSG())
		return profile, pr, err
	case "raster":
		profile := coord.NewRaster(src.Width, src.Height)
		return profile, raster.Identity(src), nil
	default:
		return coord.Profile{}, nil, mbtiler.Wrapf(mbtiler.UnsupportedOption, "unknown profile %q", name)
	}
}

// wgs84Bounds reports the source raster's extent in WGS84 degrees for the
// metadata "bounds" field, independent of the tiling profile.
func wgs84Bounds(profile coord.Profile, src *raster.Raster) [4]float64 {
	if profile.Kind == coord.Raster {
		return [4]float64{0, 0, 0, 0}
	}
	proj := coord.ForEPSG(src.EPSG)
	if proj == nil {
		return [4]float64{0, 0, 0, 0}
	}
	ulx, uly, lrx, lry := src.BoundsInProjectedCRS()
	lon1, lat1 := proj.ToWGS84(ulx, uly)
	lon2, lat2 := proj.ToWGS84(lrx, lry)
	south, north := math.Min(lat1, lat2), math.Max(lat1, lat2)
	west, east := math.Min(lon1, lon2), math.Max(lon1, lon2)
	return [4]float64{south, west, north, east}
}

func parseZoomRange(s string) (planner.ZoomRange, error) {
	parts := strings.SplitN(s, "-", 2)
	min, err := strconv.Atoi(parts[0])
	if err != nil {
		return planner.ZoomRange{}, fmt.Errorf("invalid zoom %q: %v", s, err)
	}
	max := min
	if len(parts) == 2 {
		max, err = strconv.Atoi(parts[1])
		if err != nil {
			return planner.ZoomRange{}, fmt.Errorf("invalid zoom %q: %v", s, err)
		}
	}
	return planner.ZoomRange{Min: min, Max: max}, nil
}

func baseName(path string) string {
	name := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		name = path[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}
