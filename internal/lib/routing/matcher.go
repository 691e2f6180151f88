// Package routing decides which toll stations a driven route passed and
// folds them into per-corridor entry/exit sections.
package routing

import (
	"github.com/nstankic/tollcalc/server/internal/lib/geo"
	"github.com/nstankic/tollcalc/server/internal/lib/stations"
)

// Section is a contiguous run of passed stations on one highway section.
// Enter and Exit are assigned in catalog order, not route-traversal order;
// a group of size one has Enter == Exit.
type Section struct {
	HighwaySection string
	Enter          stations.Station
	Exit           stations.Station
}

// Matcher matches densified routes against the station catalog. The route
// handed to it must be densified with a step length strictly smaller than
// the tolerance, otherwise a station can fall between two sparse route
// points and go undetected.
type Matcher struct {
	toleranceMeters float64
}

// NewMatcher creates a Matcher with the given proximity tolerance in meters
func NewMatcher(toleranceMeters float64) *Matcher {
	return &Matcher{toleranceMeters: toleranceMeters}
}

// Tolerance returns the configured proximity tolerance in meters
func (m *Matcher) Tolerance() float64 {
	return m.toleranceMeters
}

// StationPassed reports whether at least one route point lies within the
// tolerance of the station
func (m *Matcher) StationPassed(route []geo.Point, st stations.Station) bool {
	target := st.Point()
	for _, p := range route {
		if geo.Distance(p, target) <= m.toleranceMeters {
			return true
		}
	}
	return false
}

// ComputeSections filters the catalog to stations the route passed,
// preserving catalog order, and groups them by highway section id in
// first-seen order. Each group becomes one Section whose Enter is the first
// station of the group and Exit the last. A station with an empty section id
// still forms a group, keyed by the empty string. An empty route yields an
// empty result; that is not an error.
func (m *Matcher) ComputeSections(route []geo.Point, catalog *stations.Catalog) []Section {
	var order []string
	grouped := make(map[string][]stations.Station)

	for _, st := range catalog.Stations() {
		if !m.StationPassed(route, st) {
			continue
		}
		if _, seen := grouped[st.Section]; !seen {
			order = append(order, st.Section)
		}
		grouped[st.Section] = append(grouped[st.Section], st)
	}

	sections := make([]Section, 0, len(order))
	for _, id := range order {
		members := grouped[id]
		sections = append(sections, Section{
			HighwaySection: id,
			Enter:          members[0],
			Exit:           members[len(members)-1],
		})
	}
	return sections
}
