package raster

// Window is a read or write rectangle: (x, y) is the top-left corner and
// (xsize, ysize) its dimensions.
type Window struct {
	X, Y, XSize, YSize int
}

// Query is the result of mapping a tile's projected bounds onto a
// ProjectedRaster: Read is the source window to pull pixels from, Write is
// where those pixels land inside the query_size x query_size destination
// buffer (the remainder of the buffer stays transparent).
type Query struct {
	Read  Window
	Write Window
}

// GeoQuery implements §4.3: given a tile's projected bounds (ulx, uly) to
// (lrx, lry) and the requested query size, compute the source raster
// window and its placement in the destination buffer, clamping both to
// the raster's edges so an edge tile yields a correctly-positioned partial
// image against a transparent background.
//
// querySize == 0 means "use the natural source window size" (no
// resampling), matching the read_window behavior used when no rescaling
// is needed.
func GeoQuery(gt GeoTransform, rasterWidth, rasterHeight int, ulx, uly, lrx, lry float64, querySize int) Query {
	rx := int((ulx-gt.OX)/gt.PX + 0.001)
	ry := int((uly-gt.OY)/gt.PY + 0.001)
	rxsize := round((lrx - ulx) / gt.PX)
	rysize := round((lry - uly) / gt.PY)

	wxsize, wysize := querySize, querySize
	if querySize == 0 {
		wxsize, wysize = rxsize, rysize
	}

	wx, wy := 0, 0

	// Left/top edge.
	if rx < 0 {
		rxshift := -rx
		wx = int(float64(wxsize) * float64(rxshift) / float64(rxsize))
		wxsize = wxsize - wx
		rxsize = rxsize - int(float64(rxsize)*float64(rxshift)/float64(rxsize))
		rx = 0
	}
	if rxsize+rx > rasterWidth {
		wxsize = int(float64(wxsize) * float64(rasterWidth-rx) / float64(rxsize))
		rxsize = rasterWidth - rx
	}

	if ry < 0 {
		ryshift := -ry
		wy = int(float64(wysize) * float64(ryshift) / float64(rysize))
		wysize = wysize - wy
		rysize = rysize - int(float64(rysize)*float64(ryshift)/float64(rysize))
		ry = 0
	}
	if rysize+ry > rasterHeight {
		wysize = int(float64(wysize) * float64(rasterHeight-ry) / float64(rysize))
		rysize = rasterHeight - ry
	}

	if wxsize < 0 {
		wxsize = 0
	}
	if wysize < 0 {
		wysize = 0
	}
	if rxsize < 0 {
		rxsize = 0
	}
	if rysize < 0 {
		rysize = 0
	}

	return Query{
		Read:  Window{X: rx, Y: ry, XSize: rxsize, YSize: rysize},
		Write: Window{X: wx, Y: wy, XSize: wxsize, YSize: wysize},
	}
}

func round(v float64) int {
	if v < 0 {
		return -int(-v + 0.5)
	}
	return int(v + 0.5)
}
