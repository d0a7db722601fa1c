// Package mbtiler holds error classification shared across the converter:
// the raster adapter, planner, builder, and store each wrap failures in an
// Error tagged with a Kind so the CLI can decide whether to abort the run or
// skip a single tile.
package mbtiler

import "fmt"

// Kind classifies a failure by how the caller must react to it.
type Kind int

const (
	// InvalidInput covers missing files, zero bands, paletted input, unknown
	// SRS, a skewed geotransform, or a profile/raster conflict. Terminates
	// the run.
	InvalidInput Kind = iota
	// UnsupportedOption covers a bad format, output convention, or zoom
	// range. Terminates at flag-parse time.
	UnsupportedOption
	// ResamplingFailed means the reprojection step rejected a tile. Logged
	// and fatal to that tile only.
	ResamplingFailed
	// ArchiveError covers SQLite open/schema/insert failures. Fatal.
	ArchiveError
	// RasterReadError covers a source read failure. Logged and fatal to
	// that tile only.
	RasterReadError
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case UnsupportedOption:
		return "unsupported option"
	case ResamplingFailed:
		return "resampling failed"
	case ArchiveError:
		return "archive error"
	case RasterReadError:
		return "raster read error"
	default:
		return "unknown error"
	}
}

// Error pairs a Kind with the underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap tags err with kind, or returns nil if err is nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Wrapf tags a formatted error with kind.
func Wrapf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Fatal reports whether an error of this kind must abort the whole run
// rather than just the tile that produced it.
func (k Kind) Fatal() bool {
	switch k {
	case ResamplingFailed, RasterReadError:
		return false
	default:
		return true
	}
}

// ExitCode maps a Kind to a process exit code. Kept distinct per kind so
// scripts invoking the CLI can distinguish failure classes without parsing
// log text.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if as, ok := err.(*Error); ok {
		e = as
	} else {
		return 1
	}
	switch e.Kind {
	case InvalidInput:
		return 2
	case UnsupportedOption:
		return 3
	case ArchiveError:
		return 4
	case ResamplingFailed, RasterReadError:
		return 5
	default:
		return 1
	}
}
