package cog

import "math"

// GeoTIFF GeoKey IDs.
const (
	gkModelTypeGeoKey         = 1024
	gkRasterTypeGeoKey        = 1025
	gkGeographicTypeGeoKey    = 2048
	gkProjectedCSTypeGeoKey   = 3072
)

// GeoInfo holds parsed GeoTIFF metadata.
type GeoInfo struct {
	EPSG       int     // EPSG code (e.g. 2056)
	OriginX    float64 // easting of upper-left corner
	OriginY    float64 // northing of upper-left corner
	PixelSizeX float64 // pixel width in CRS units (positive)
	PixelSizeY float64 // pixel height in CRS units (positive)
	Rotated    bool    // true if the file's affine georeference has nonzero rotation/skew terms
}

// rotationEpsilon bounds the rotation/skew terms tolerated as "axis-aligned"
// before a geotransform is flagged Rotated; GDAL-written axis-aligned files
// carry exact zeros here, so this only absorbs floating point noise.
const rotationEpsilon = 1e-12

// parseGeoInfo extracts geographic metadata from an IFD. Georeference may
// arrive either as ModelTiepoint+ModelPixelScale (the common case) or as a
// single ModelTransformation matrix (tag 34264); the latter is also how a
// rotated or skewed raster is expressed, so it is where rotation is
// detected.
func parseGeoInfo(ifd *IFD) GeoInfo {
	info := GeoInfo{}

	if len(ifd.ModelTransform) >= 16 {
		m := ifd.ModelTransform
		info.PixelSizeX = m[0]
		info.PixelSizeY = -m[5]
		info.OriginX = m[3]
		info.OriginY = m[7]
		if math.Abs(m[1]) > rotationEpsilon || math.Abs(m[4]) > rotationEpsilon {
			info.Rotated = true
		}
	} else {
		// ModelPixelScale: [ScaleX, ScaleY, ScaleZ]
		if len(ifd.ModelPixelScale) >= 2 {
			info.PixelSizeX = ifd.ModelPixelScale[0]
			info.PixelSizeY = ifd.ModelPixelScale[1]
		}

		// ModelTiepoint: [I, J, K, X, Y, Z] - maps pixel (I,J) to (X,Y)
		if len(ifd.ModelTiepoint) >= 6 {
			// The tiepoint maps pixel (I,J) to world coordinate (X,Y).
			// Origin is at (0,0) pixel, so:
			info.OriginX = ifd.ModelTiepoint[3] - ifd.ModelTiepoint[0]*info.PixelSizeX
			info.OriginY = ifd.ModelTiepoint[4] + ifd.ModelTiepoint[1]*info.PixelSizeY
		}
	}

	// Parse GeoKeys for EPSG code.
	info.EPSG = parseEPSG(ifd.GeoKeys)

	return info
}

// parseEPSG extracts the EPSG code from GeoKey directory entries.
func parseEPSG(geoKeys []uint16) int {
	if len(geoKeys) < 4 {
		return 0
	}

	// GeoKey directory header: [KeyDirectoryVersion, KeyRevision, MinorRevision, NumberOfKeys]
	numKeys := int(geoKeys[3])

	for i := 0; i < numKeys; i++ {
		base := 4 + i*4
		if base+3 >= len(geoKeys) {
			break
		}
		keyID := geoKeys[base]
		// tiffTagLocation := geoKeys[base+1]
		// count := geoKeys[base+2]
		valueOffset := geoKeys[base+3]

		switch keyID {
		case gkProjectedCSTypeGeoKey:
			if valueOffset > 0 {
				return int(valueOffset)
			}
		case gkGeographicTypeGeoKey:
			if valueOffset > 0 {
				return int(valueOffset)
			}
		}
	}

	return 0
}
