package encode

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
)

// DecodeImage decodes tile bytes in the specified format back to an image.Image.
// Supported formats: "png", "jpeg"/"jpg".
func DecodeImage(data []byte, format string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch format {
	case "png":
		return png.Decode(r)
	case "jpeg", "jpg":
		return jpeg.Decode(r)
	default:
		return nil, fmt.Errorf("unsupported decode format: %q", format)
	}
}
