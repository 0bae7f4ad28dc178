package model

import "errors"

// KmPerDegree converts a distance in kilometres to a delta in degrees.
// The equirectangular approximation ignores the shrinking of longitude
// degrees towards the poles.
const KmPerDegree = 111.0

// Search radius bounds in kilometres.
const (
    MinRadiusKm     = 0.1
    MaxRadiusKm     = 100.0
    DefaultRadiusKm = 5.0
)

var (
    ErrLatitudeRange  = errors.New("latitude must be between -90 and 90")
    ErrLongitudeRange = errors.New("longitude must be between -180 and 180")
    ErrRadiusRange    = errors.New("radius must be between 0.1 and 100 km")
    ErrRadiusPositive = errors.New("radius must be positive")
)

// BoundingBox is an inclusive latitude/longitude rectangle.
type BoundingBox struct {
    MinLat, MaxLat float64
    MinLon, MaxLon float64
}

// NewBoundingBox returns the square of half-side radiusKm/111 degrees
// centred on (lat, lon).
func NewBoundingBox(lat, lon, radiusKm float64) BoundingBox {
    delta := radiusKm / KmPerDegree
    return BoundingBox{
        MinLat: lat - delta,
        MaxLat: lat + delta,
        MinLon: lon - delta,
        MaxLon: lon + delta,
    }
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
    return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// ValidateCoordinates checks that (lat, lon) is a point on the globe.
// The checks are written so that NaN fails them.
func ValidateCoordinates(lat, lon float64) error {
    if !(lat >= -90 && lat <= 90) {
        return ErrLatitudeRange
    }
    if !(lon >= -180 && lon <= 180) {
        return ErrLongitudeRange
    }
    return nil
}

// ValidateSearchRadius checks the radius accepted from API clients.
func ValidateSearchRadius(radiusKm float64) error {
    if !(radiusKm >= MinRadiusKm && radiusKm <= MaxRadiusKm) {
        return ErrRadiusRange
    }
    return nil
}
