// Package stations holds the static toll station catalog. The catalog is
// loaded once at startup and is read-only afterwards; its ordering matches
// the physical ordering of ramps along each corridor and downstream grouping
// depends on it.
package stations

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nstankic/tollcalc/server/internal/lib/geo"
)

// Station represents a single toll gate location
type Station struct {
	ID      string  `json:"id,omitempty"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Section string  `json:"hwsection"`
}

// Point returns the station's coordinates as a geo.Point
func (s Station) Point() geo.Point {
	return geo.Point{Lat: s.Lat, Lon: s.Lon}
}

// Catalog is an ordered, immutable list of toll stations. Safe for
// concurrent reads; never mutated after construction.
type Catalog struct {
	stations []Station
}

// NewCatalog builds a catalog from an ordered station list, rejecting
// stations with out-of-range coordinates or missing names.
func NewCatalog(list []Station) (*Catalog, error) {
	for i, st := range list {
		if st.Name == "" {
			return nil, fmt.Errorf("station %d has no name", i)
		}
		if !st.Point().Valid() {
			return nil, fmt.Errorf("station %q has invalid coordinates (%f, %f)", st.Name, st.Lat, st.Lon)
		}
	}

	owned := make([]Station, len(list))
	copy(owned, list)
	return &Catalog{stations: owned}, nil
}

// LoadCatalog reads a JSON station list from a file
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open station catalog: %w", err)
	}
	defer f.Close()

	return ReadCatalog(f)
}

// ReadCatalog decodes a JSON station list from a reader
func ReadCatalog(r io.Reader) (*Catalog, error) {
	var list []Station
	if err := json.NewDecoder(r).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode station catalog: %w", err)
	}
	return NewCatalog(list)
}

// Stations returns the stations in catalog order. Callers must not modify
// the returned slice.
func (c *Catalog) Stations() []Station {
	return c.stations
}

// Len returns the number of stations in the catalog
func (c *Catalog) Len() int {
	return len(c.stations)
}

// ByName looks up a station by its display name
func (c *Catalog) ByName(name string) (Station, bool) {
	for _, st := range c.stations {
		if st.Name == name {
			return st, true
		}
	}
	return Station{}, false
}
