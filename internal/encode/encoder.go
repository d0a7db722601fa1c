// Package encode converts tile pixel buffers to and from their archive
// representation. Only PNG and JPEG are supported: PNG for tiles that carry
// an alpha channel, JPEG for fully opaque 3-band tiles.
package encode

import (
	"fmt"
	"image"
)

// Format identifies a tile's on-disk encoding, matching the archive's
// metadata "format" value.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
)

// Encoder encodes an image into tile bytes.
type Encoder interface {
	// Encode encodes an image to bytes in the tile format.
	Encode(img image.Image) ([]byte, error)

	// Format returns the tile format written by this encoder.
	Format() Format
}

// NewEncoder creates an encoder for the given format name ("png", "jpeg"/"jpg").
func NewEncoder(format string, quality int) (Encoder, error) {
	switch format {
	case "png", "PNG":
		return &PNGEncoder{}, nil
	case "jpeg", "jpg", "JPEG":
		return &JPEGEncoder{Quality: quality}, nil
	default:
		return nil, fmt.Errorf("unsupported tile format: %q (supported: png, jpeg)", format)
	}
}
