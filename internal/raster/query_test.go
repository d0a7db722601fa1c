package raster

import "testing"

func TestGeoQuery_FullyInsideRaster(t *testing.T) {
	gt := GeoTransform{OX: 0, PX: 1, OY: 1000, PY: -1}
	q := GeoQuery(gt, 2000, 2000, 100, 900, 200, 800, 256)

	if q.Read.X < 0 || q.Read.X+q.Read.XSize > 2000 {
		t.Errorf("read window x out of raster bounds: %+v", q.Read)
	}
	if q.Read.Y < 0 || q.Read.Y+q.Read.YSize > 2000 {
		t.Errorf("read window y out of raster bounds: %+v", q.Read)
	}
	if q.Write.X != 0 || q.Write.Y != 0 {
		t.Errorf("fully-inside tile should have no write offset, got %+v", q.Write)
	}
	if q.Write.XSize != 256 || q.Write.YSize != 256 {
		t.Errorf("fully-inside tile should fill the whole query buffer, got %+v", q.Write)
	}
}

func TestGeoQuery_StraddlesLeftEdge(t *testing.T) {
	gt := GeoTransform{OX: 0, PX: 1, OY: 1000, PY: -1}
	// ulx = -50 is left of the raster origin (0).
	q := GeoQuery(gt, 2000, 2000, -50, 900, 150, 800, 256)

	if q.Read.X != 0 {
		t.Errorf("clamped read window should start at raster edge 0, got %d", q.Read.X)
	}
	if q.Read.X+q.Read.XSize > 2000 {
		t.Errorf("read window exceeds raster width: %+v", q.Read)
	}
	if q.Write.X <= 0 {
		t.Errorf("write window should be shifted right for a left-edge tile, got %+v", q.Write)
	}
	if q.Write.X+q.Write.XSize > 256 {
		t.Errorf("write window exceeds query buffer: %+v", q.Write)
	}
}

func TestGeoQuery_StraddlesRightBottomEdge(t *testing.T) {
	gt := GeoTransform{OX: 0, PX: 1, OY: 1000, PY: -1}
	// lrx = 2100 exceeds raster width 2000; lry = -100 exceeds raster height.
	q := GeoQuery(gt, 2000, 2000, 1900, 200, 2100, -100, 256)

	if q.Read.X+q.Read.XSize > 2000 {
		t.Errorf("read window x exceeds raster width: %+v", q.Read)
	}
	if q.Read.Y+q.Read.YSize > 2000 {
		t.Errorf("read window y exceeds raster height: %+v", q.Read)
	}
	if q.Write.X+q.Write.XSize > 256 || q.Write.Y+q.Write.YSize > 256 {
		t.Errorf("write window exceeds query buffer: %+v", q.Write)
	}
}

func TestGeoQuery_ZeroQuerySizeUsesNaturalWindow(t *testing.T) {
	gt := GeoTransform{OX: 0, PX: 1, OY: 1000, PY: -1}
	q := GeoQuery(gt, 2000, 2000, 100, 900, 200, 800, 0)
	if q.Write.XSize != q.Read.XSize || q.Write.YSize != q.Read.YSize {
		t.Errorf("querySize=0 should use the natural window size, got read=%+v write=%+v", q.Read, q.Write)
	}
}
