package planner

import (
	"testing"

	"github.com/tilekit/mbtiler/internal/coord"
)

func TestBuild_DefaultZoomRangeMercator(t *testing.T) {
	p := coord.NewMercator()
	px := coord.MercatorProfile{}.Resolution(12)
	plan, err := Build(p, -100, -100, 100, 100, px, 256, 256, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.Zoom.Max != 12 {
		t.Errorf("tmaxz = %d, want 12", plan.Zoom.Max)
	}
	if plan.Zoom.Min > plan.Zoom.Max {
		t.Errorf("tminz (%d) > tmaxz (%d)", plan.Zoom.Min, plan.Zoom.Max)
	}
	if _, ok := plan.Ranges[plan.Zoom.Max]; !ok {
		t.Errorf("missing tile range for tmaxz %d", plan.Zoom.Max)
	}
}

func TestBuild_UserOverrideClamped(t *testing.T) {
	p := coord.NewMercator()
	override := &ZoomRange{Min: 3, Max: 8}
	plan, err := Build(p, -100, -100, 100, 100, 1, 256, 256, override)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.Zoom.Min != 3 || plan.Zoom.Max != 8 {
		t.Errorf("override not honored: got %+v", plan.Zoom)
	}
}

func TestBuild_RejectsOutOfRangeOverride(t *testing.T) {
	p := coord.NewMercator()
	_, err := Build(p, -1, -1, 1, 1, 1, 256, 256, &ZoomRange{Min: -1, Max: 5})
	if err == nil {
		t.Fatal("expected an error for negative min zoom")
	}
	_, err = Build(p, -1, -1, 1, 1, 1, 256, 256, &ZoomRange{Min: 0, Max: 32})
	if err == nil {
		t.Fatal("expected an error for max zoom > 31")
	}
}

func TestTileRangeForExtent_ClampedToWorld(t *testing.T) {
	p := coord.NewMercator()
	// Extent covering the whole world at zoom 2 should clamp to exactly the
	// world tile range, not overflow it.
	r := tileRangeForExtent(p, 2, -coord.OriginShift*2, -coord.OriginShift*2, coord.OriginShift*2, coord.OriginShift*2)
	world := p.TileRange(2)
	if r.MinX != world.MinX || r.MaxX != world.MaxX || r.MinY != world.MinY || r.MaxY != world.MaxY {
		t.Errorf("range %+v should clamp to world %+v", r, world)
	}
}

func TestTileRangeForExtent_RasterProfileUsesTopLeftPixelOrigin(t *testing.T) {
	p := coord.NewRaster(1024, 768)
	// The Raster profile's native zoom tiles (0,0) at the image's top-left
	// pixel corner, unlike Mercator/Geodetic's Y-up convention.
	r := tileRangeForExtent(p, p.Raster.NativeZoom, 0, 0, 1024, 768)
	if r.MinX != 0 || r.MinY != 0 {
		t.Errorf("range %+v should start at the top-left tile (0,0)", r)
	}
}

func TestBuild_GeodeticProfile(t *testing.T) {
	p := coord.NewGeodetic()
	px := coord.GeodeticProfile{}.Resolution(8)
	plan, err := Build(p, -180, -90, 180, 90, px, 512, 256, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := plan.Ranges[plan.Zoom.Max]
	world := p.TileRange(plan.Zoom.Max)
	if r.MaxX > world.MaxX || r.MaxY > world.MaxY {
		t.Errorf("geodetic range %+v exceeds 2:1 world %+v", r, world)
	}
}
