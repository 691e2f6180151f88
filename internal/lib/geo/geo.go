package geo

import (
	"errors"
	"math"

	"github.com/twpayne/go-polyline"
)

// EarthRadiusMeters is the spherical approximation used for all distance
// calculations. Proximity tolerances here are tens of meters, so the
// WGS84 ellipsoid would be overkill.
const EarthRadiusMeters = 6367000.0

// NewPoint creates a Point from latitude and longitude values with validation
func NewPoint(lat, lon float64) (Point, error) {
	p := Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return Point{}, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}
	return p, nil
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Distance calculates the great-circle distance between two points in meters
// using the Haversine formula
func Distance(a, b Point) float64 {
	if a.Lat == b.Lat && a.Lon == b.Lon {
		return 0
	}

	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// Densify inserts linearly interpolated points between each consecutive pair
// of route points so that no two consecutive output points are farther apart
// than roughly stepMeters. The original endpoints are preserved exactly and
// the final route point is appended once. Interpolation is linear in lat/lon
// space, which is fine at the segment lengths road geometry produces.
func Densify(route []Point, stepMeters float64) []Point {
	if len(route) == 0 {
		return nil
	}

	result := make([]Point, 0, len(route))
	for i := 0; i < len(route)-1; i++ {
		p1 := route[i]
		p2 := route[i+1]
		result = append(result, p1)

		if stepMeters <= 0 {
			continue
		}

		dist := Distance(p1, p2)
		numPoints := int(math.Floor(dist / stepMeters))
		for j := 1; j < numPoints; j++ {
			t := float64(j) / float64(numPoints)
			result = append(result, Point{
				Lat: p1.Lat + (p2.Lat-p1.Lat)*t,
				Lon: p1.Lon + (p2.Lon-p1.Lon)*t,
			})
		}
	}

	result = append(result, route[len(route)-1])
	return result
}

// DecodePolyline decodes a Google-encoded polyline string to a point sequence
func DecodePolyline(encoded string) ([]Point, error) {
	if encoded == "" {
		return nil, errors.New("encoded polyline string is empty")
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, errors.New("failed to decode polyline: " + err.Error())
	}

	points := make([]Point, len(coords))
	for i, coord := range coords {
		points[i] = Point{Lat: coord[0], Lon: coord[1]}
		if !points[i].Valid() {
			return nil, errors.New("decoded polyline contains invalid coordinates")
		}
	}

	return points, nil
}
