package geo

import "math"

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// ToCartesian converts longitude/latitude (degrees) to a unit-sphere vector.
// Euclidean distance between two such vectors grows monotonically with the
// great-circle distance, so it is safe for nearest-neighbour search across
// the antimeridian and near the poles.
func ToCartesian(lonDeg, latDeg float64) [3]float64 {
	lon := lonDeg * math.Pi / 180
	lat := latDeg * math.Pi / 180
	return [3]float64{
		math.Cos(lat) * math.Cos(lon),
		math.Cos(lat) * math.Sin(lon),
		math.Sin(lat),
	}
}

// FromCartesian converts a (not necessarily unit) vector back to longitude
// and latitude in degrees. The longitude is in [-180, 180].
func FromCartesian(v [3]float64) (lonDeg, latDeg float64) {
	r := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if r == 0 {
		return 0, 0
	}
	lat := math.Asin(clamp(v[2]/r, -1, 1))
	lon := math.Atan2(v[1], v[0])
	return lon * 180 / math.Pi, lat * 180 / math.Pi
}

// Haversine returns the great-circle distance in meters between two points
// specified by longitude and latitude in degrees.
func Haversine(lon1, lat1, lon2, lat2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-360,360].
// Model grids commonly use the 0..360 convention, so the wider range is accepted.
func ValidateCoordinates(lon, lat float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -360 && lon <= 360
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
