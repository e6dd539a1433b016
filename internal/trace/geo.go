package trace

import (
	"math"

	"github.com/gansidui/geohash"
	geo "github.com/kellydunn/golang-geo"
)

// WGS84 ellipsoid constants.
const (
	wgs84A = 6378137.0
	wgs84F = 1 / 298.257223563
)

// ecefToGeodetic converts an ECEF position to geodetic latitude and
// longitude in degrees, using Bowring's closed-form approximation.
// Altitude is not needed by anything downstream, so it is dropped.
func ecefToGeodetic(x, y, z float64) (lat, lng float64) {
	b := wgs84A * (1 - wgs84F)
	e2 := 1 - (b*b)/(wgs84A*wgs84A)
	ep2 := (wgs84A*wgs84A - b*b) / (b * b)

	p := math.Hypot(x, y)
	theta := math.Atan2(z*wgs84A, p*b)

	lat = math.Atan2(z+ep2*b*math.Pow(math.Sin(theta), 3), p-e2*wgs84A*math.Pow(math.Cos(theta), 3))
	lng = math.Atan2(y, x)

	return lat * 180 / math.Pi, lng * 180 / math.Pi
}

// geohashFor returns the geohash for an ECEF solution, used to index
// solutions by rough location the same way test/getairmet.go groups
// AIRMET points by geohash.
func geohashFor(x, y, z float64) string {
	lat, lng := ecefToGeodetic(x, y, z)
	hash, _ := geohash.Encode(lat, lng, 12)
	return hash
}

// baselineKm returns the great-circle distance in kilometers between
// two ECEF solutions, approximating the base-to-rover baseline length.
func baselineKm(a, b [3]float64) float64 {
	latA, lngA := ecefToGeodetic(a[0], a[1], a[2])
	latB, lngB := ecefToGeodetic(b[0], b[1], b[2])
	return geo.NewPoint(latA, lngA).GreatCircleDistance(geo.NewPoint(latB, lngB))
}
