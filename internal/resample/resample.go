// Package resample implements the query-buffer-to-tile scaling step
// (§4.4): nearest, average, bilinear, cubic, cubic-spline, Lanczos, and
// antialias, plus the uniform/non-uniform tile representation the builder
// passes through the pipeline.
package resample

import (
	"fmt"
)

// Algorithm selects one of the seven resampling kernels named in §4.4.
type Algorithm int

const (
	Nearest Algorithm = iota
	Average
	Bilinear
	Cubic
	CubicSpline
	Lanczos
	Antialias
)

// Parse converts a CLI flag value to an Algorithm.
func Parse(s string) (Algorithm, error) {
	switch s {
	case "near", "nearest":
		return Nearest, nil
	case "average":
		return Average, nil
	case "bilinear":
		return Bilinear, nil
	case "cubic":
		return Cubic, nil
	case "cubicspline":
		return CubicSpline, nil
	case "lanczos":
		return Lanczos, nil
	case "antialias":
		return Antialias, nil
	default:
		return 0, fmt.Errorf("unknown resampling algorithm %q", s)
	}
}

func (a Algorithm) String() string {
	switch a {
	case Nearest:
		return "near"
	case Average:
		return "average"
	case Bilinear:
		return "bilinear"
	case Cubic:
		return "cubic"
	case CubicSpline:
		return "cubicspline"
	case Lanczos:
		return "lanczos"
	case Antialias:
		return "antialias"
	default:
		return "unknown"
	}
}

// QuerySize returns the query buffer side length §4.4 prescribes for each
// algorithm: the source window is read at this size before being scaled
// down to the 256x256 tile.
func (a Algorithm) QuerySize(tileSize int) int {
	switch a {
	case Nearest:
		return tileSize
	case Bilinear:
		return tileSize * 2
	default: // average, cubic, cubicspline, lanczos, antialias
		return tileSize * 4
	}
}
