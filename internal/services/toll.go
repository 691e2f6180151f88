// Package services wires the toll core together: routes in, itemized
// charges out. Callers own timeouts via ctx; a matrix load failure aborts
// the whole quote rather than returning a partial total.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nstankic/tollcalc/server/internal/cache"
	"github.com/nstankic/tollcalc/server/internal/clients/osrm"
	"github.com/nstankic/tollcalc/server/internal/config"
	"github.com/nstankic/tollcalc/server/internal/lib/geo"
	"github.com/nstankic/tollcalc/server/internal/lib/pricing"
	"github.com/nstankic/tollcalc/server/internal/lib/routing"
	"github.com/nstankic/tollcalc/server/internal/lib/stations"
	"github.com/nstankic/tollcalc/server/internal/lib/tollmatrix"
)

// TollService computes toll charges for driven routes. The station catalog
// and matrix store are shared, read-mostly state; each quote is an
// independent computation over them.
type TollService struct {
	catalog *stations.Catalog
	store   *tollmatrix.Store
	matcher *routing.Matcher
	engine  *pricing.Engine
	osrm    *osrm.Client
	cache   *cache.Cache
	cfg     *config.TollConfig
	log     *zap.SugaredLogger
}

// NewTollService creates a TollService
func NewTollService(
	catalog *stations.Catalog,
	store *tollmatrix.Store,
	osrmClient *osrm.Client,
	cacheInstance *cache.Cache,
	cfg *config.TollConfig,
	log *zap.SugaredLogger,
) *TollService {
	return &TollService{
		catalog: catalog,
		store:   store,
		matcher: routing.NewMatcher(cfg.ToleranceMeters),
		engine:  pricing.NewEngine(store),
		osrm:    osrmClient,
		cache:   cacheInstance,
		cfg:     cfg,
		log:     log,
	}
}

// Warmup preloads every registered price matrix so the first quote does not
// pay the fetch latency
func (s *TollService) Warmup(ctx context.Context) error {
	names := s.store.Names()
	s.log.Infow("warming up matrix store", "matrices", names)
	if err := s.store.EnsureAll(ctx); err != nil {
		return fmt.Errorf("matrix warmup failed: %w", err)
	}
	return nil
}

// QuoteRoute prices an externally produced route geometry: densify, match
// stations, group into sections, price
func (s *TollService) QuoteRoute(ctx context.Context, coords []geo.Point) (pricing.ChargeResult, error) {
	for i, p := range coords {
		if !p.Valid() {
			return pricing.ChargeResult{}, fmt.Errorf("route point %d has invalid coordinates (%f, %f)", i, p.Lat, p.Lon)
		}
	}

	dense := geo.Densify(coords, s.cfg.DensifyStepMeters)
	sections := s.matcher.ComputeSections(dense, s.catalog)

	result, err := s.engine.PriceSections(ctx, sections)
	if err != nil {
		return pricing.ChargeResult{}, err
	}

	s.log.Debugw("quoted route",
		"points", len(coords), "densified", len(dense),
		"sections", len(sections), "total", result.Total)
	return result, nil
}

// TripQuote is a routed and priced start/end trip
type TripQuote struct {
	DistanceKm float64              `json:"distance_km"`
	Charges    pricing.ChargeResult `json:"charges"`
}

// QuoteTrip fetches a driving route between two points from the routing
// provider and prices it. Results are cached briefly keyed on the rounded
// endpoints; road geometry and tolls do not change within the TTL.
func (s *TollService) QuoteTrip(ctx context.Context, start, end geo.Point) (*TripQuote, error) {
	cacheKey := fmt.Sprintf("trip:%.5f,%.5f;%.5f,%.5f", start.Lat, start.Lon, end.Lat, end.Lon)

	var cached TripQuote
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warnw("cache read failed", "key", cacheKey, "error", err)
	}
	if found {
		return &cached, nil
	}

	route, err := s.osrm.Route(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch route: %w", err)
	}

	charges, err := s.QuoteRoute(ctx, route.Coords)
	if err != nil {
		return nil, err
	}

	quote := &TripQuote{
		DistanceKm: route.DistanceMeters / 1000,
		Charges:    charges,
	}

	if err := s.cache.Set(cacheKey, quote, s.cfg.QuoteCacheTTL); err != nil {
		s.log.Warnw("failed to cache trip quote", "key", cacheKey, "error", err)
	}

	return quote, nil
}

// Stations returns the full station catalog in order
func (s *TollService) Stations() []stations.Station {
	return s.catalog.Stations()
}

// MatrixNames returns the registered corridor matrix names
func (s *TollService) MatrixNames() []string {
	return s.store.Names()
}

// MatrixLabels returns the ramp labels of one corridor matrix, loading it
// on demand
func (s *TollService) MatrixLabels(ctx context.Context, name string) ([]string, error) {
	return s.store.Labels(ctx, name)
}

// IsUnknownMatrix reports whether err is the not-in-registry configuration
// error, so the transport layer can map it separately from transient source
// failures
func IsUnknownMatrix(err error) bool {
	return errors.Is(err, tollmatrix.ErrUnknownMatrix)
}

// IsSourceUnavailable reports whether err stems from a failed matrix fetch
func IsSourceUnavailable(err error) bool {
	var unavailable *tollmatrix.SourceUnavailableError
	return errors.As(err, &unavailable)
}
