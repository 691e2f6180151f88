package routing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstankic/tollcalc/server/internal/lib/geo"
	"github.com/nstankic/tollcalc/server/internal/lib/stations"
)

// pointAtMeters returns a point the given distance due north of origin.
// One meter of latitude is 1/EarthRadius radians.
func pointAtMeters(origin geo.Point, meters float64) geo.Point {
	dLat := meters / geo.EarthRadiusMeters * 180 / math.Pi
	return geo.Point{Lat: origin.Lat + dLat, Lon: origin.Lon}
}

func TestStationPassed_ToleranceBoundary(t *testing.T) {
	station := stations.Station{Name: "NOVI_SAD", Lat: 45.2671, Lon: 19.8335, Section: "A1S"}
	origin := station.Point()

	matcher := NewMatcher(50)

	// A route point just inside the tolerance matches
	inside := []geo.Point{pointAtMeters(origin, 49.5)}
	assert.True(t, matcher.StationPassed(inside, station))

	// A route point just outside does not
	outside := []geo.Point{pointAtMeters(origin, 50.5)}
	assert.False(t, matcher.StationPassed(outside, station))

	// Empty route matches nothing
	assert.False(t, matcher.StationPassed(nil, station))
}

func TestStationPassed_AnyPointSuffices(t *testing.T) {
	station := stations.Station{Name: "VRBAS", Lat: 45.5716, Lon: 19.6316, Section: "A1S"}
	matcher := NewMatcher(50)

	route := []geo.Point{
		{Lat: 44.0, Lon: 20.0}, // far away
		pointAtMeters(station.Point(), 10),
		{Lat: 46.0, Lon: 19.0}, // far away
	}
	assert.True(t, matcher.StationPassed(route, station))
}

func testCatalog(t *testing.T, list []stations.Station) *stations.Catalog {
	t.Helper()
	catalog, err := stations.NewCatalog(list)
	require.NoError(t, err)
	return catalog
}

func TestComputeSections_Grouping(t *testing.T) {
	a := stations.Station{Name: "A", Lat: 44.8000, Lon: 20.5000, Section: "1"}
	b := stations.Station{Name: "B", Lat: 44.9000, Lon: 20.5000, Section: "1"}
	c := stations.Station{Name: "C", Lat: 45.0000, Lon: 20.5000, Section: "2"}
	catalog := testCatalog(t, []stations.Station{a, b, c})

	matcher := NewMatcher(50)
	route := []geo.Point{a.Point(), b.Point(), c.Point()}

	sections := matcher.ComputeSections(route, catalog)
	require.Len(t, sections, 2)

	assert.Equal(t, "1", sections[0].HighwaySection)
	assert.Equal(t, "A", sections[0].Enter.Name)
	assert.Equal(t, "B", sections[0].Exit.Name)

	assert.Equal(t, "2", sections[1].HighwaySection)
	assert.Equal(t, "C", sections[1].Enter.Name)
	assert.Equal(t, "C", sections[1].Exit.Name, "singleton group has enter == exit")
}

func TestComputeSections_IndependentOfRouteDirection(t *testing.T) {
	a := stations.Station{Name: "A", Lat: 44.8000, Lon: 20.5000, Section: "1"}
	b := stations.Station{Name: "B", Lat: 44.9000, Lon: 20.5000, Section: "1"}
	catalog := testCatalog(t, []stations.Station{a, b})

	matcher := NewMatcher(50)
	forward := []geo.Point{a.Point(), b.Point()}
	reverse := []geo.Point{b.Point(), a.Point()}

	// Grouping relies on catalog order, not traversal order, so reversing
	// the route changes nothing
	assert.Equal(t,
		matcher.ComputeSections(forward, catalog),
		matcher.ComputeSections(reverse, catalog))
}

func TestComputeSections_EmptyRouteAndNoMatches(t *testing.T) {
	a := stations.Station{Name: "A", Lat: 44.8000, Lon: 20.5000, Section: "1"}
	catalog := testCatalog(t, []stations.Station{a})
	matcher := NewMatcher(50)

	assert.Empty(t, matcher.ComputeSections(nil, catalog))

	farRoute := []geo.Point{{Lat: 40.0, Lon: 10.0}}
	assert.Empty(t, matcher.ComputeSections(farRoute, catalog))
}

func TestComputeSections_EmptySectionIDFormsOwnGroup(t *testing.T) {
	a := stations.Station{Name: "A", Lat: 44.8000, Lon: 20.5000, Section: "1"}
	orphan := stations.Station{Name: "ORPHAN", Lat: 44.9000, Lon: 20.5000, Section: ""}
	catalog := testCatalog(t, []stations.Station{a, orphan})

	matcher := NewMatcher(50)
	route := []geo.Point{a.Point(), orphan.Point()}

	sections := matcher.ComputeSections(route, catalog)
	require.Len(t, sections, 2)
	assert.Equal(t, "", sections[1].HighwaySection)
	assert.Equal(t, "ORPHAN", sections[1].Enter.Name)
	assert.Equal(t, "ORPHAN", sections[1].Exit.Name)
}

func TestComputeSections_DensifiedRouteCatchesMidSegmentStation(t *testing.T) {
	// The station sits halfway along a ~1.1km segment, ~555m from both
	// endpoints. Without densification the sparse route misses it.
	start := geo.Point{Lat: 44.8000, Lon: 20.5000}
	end := geo.Point{Lat: 44.8100, Lon: 20.5000}
	mid := geo.Point{Lat: 44.8050, Lon: 20.5000}

	station := stations.Station{Name: "MID", Lat: mid.Lat, Lon: mid.Lon, Section: "1"}
	catalog := testCatalog(t, []stations.Station{station})

	matcher := NewMatcher(50)
	sparse := []geo.Point{start, end}
	assert.Empty(t, matcher.ComputeSections(sparse, catalog), "sparse route misses the station")

	// Densified with a step below the tolerance, the station is found
	dense := geo.Densify(sparse, 10)
	sections := matcher.ComputeSections(dense, catalog)
	require.Len(t, sections, 1)
	assert.Equal(t, "MID", sections[0].Enter.Name)
}
