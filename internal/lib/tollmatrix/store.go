package tollmatrix

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Store turns registered matrix sources into queryable price tables, loading
// each source at most once per process lifetime. Reads are lock-free after
// the first load; concurrent loads of the same name collapse into a single
// fetch.
type Store struct {
	registry map[string]string
	fetcher  Fetcher
	strict   bool

	mu       sync.RWMutex
	matrices map[string]*Matrix
	group    singleflight.Group
}

// Option configures a Store
type Option func(*Store)

// WithFetcher replaces the default http/file fetcher
func WithFetcher(f Fetcher) Option {
	return func(s *Store) { s.fetcher = f }
}

// WithStrictParsing makes a malformed cell fail the whole matrix load
// instead of degrading to "no price defined"
func WithStrictParsing() Option {
	return func(s *Store) { s.strict = true }
}

// NewStore creates a Store over a name -> locator registry. Locators may be
// http(s) URLs or local file paths.
func NewStore(registry map[string]string, opts ...Option) *Store {
	s := &Store{
		registry: registry,
		fetcher:  newDefaultFetcher(),
		matrices: make(map[string]*Matrix),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Names returns the registered matrix names, sorted
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.registry))
	for name := range s.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load returns the matrix for name, fetching and parsing it on first use.
// Fails with ErrUnknownMatrix for unregistered names and with a
// SourceUnavailableError when the underlying fetch fails.
func (s *Store) Load(ctx context.Context, name string) (*Matrix, error) {
	s.mu.RLock()
	m, cached := s.matrices[name]
	s.mu.RUnlock()
	if cached {
		return m, nil
	}

	v, err, _ := s.group.Do(name, func() (interface{}, error) {
		// Re-check under the flight: another caller may have finished
		// between the cache miss and the Do call
		s.mu.RLock()
		m, cached := s.matrices[name]
		s.mu.RUnlock()
		if cached {
			return m, nil
		}

		loaded, err := s.loadOne(ctx, name)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.matrices[name] = loaded
		s.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Matrix), nil
}

func (s *Store) loadOne(ctx context.Context, name string) (*Matrix, error) {
	locator, known := s.registry[name]
	if !known {
		return nil, ErrUnknownMatrix
	}

	body, err := s.fetcher.Fetch(ctx, locator)
	if err != nil {
		return nil, &SourceUnavailableError{Name: name, Locator: locator, Err: err}
	}
	defer body.Close()

	m, err := Parse(body, s.strict)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Ensure idempotently preloads a set of matrices. All names load in
// parallel; the first failure aborts the rest.
func (s *Store) Ensure(ctx context.Context, names ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			_, err := s.Load(ctx, name)
			return err
		})
	}
	return g.Wait()
}

// EnsureAll preloads every registered matrix
func (s *Store) EnsureAll(ctx context.Context) error {
	return s.Ensure(ctx, s.Names()...)
}

// Price looks up the toll for the (name, entry, exit) triple, loading the
// matrix on demand. ok=false means no price is defined for the pair; that
// is a legitimate result, not an error.
func (s *Store) Price(ctx context.Context, name, entry, exit string) (float64, bool, error) {
	m, err := s.Load(ctx, name)
	if err != nil {
		return 0, false, err
	}
	price, ok := m.Price(entry, exit)
	return price, ok, nil
}

// Labels returns the ramp labels of a matrix, loading it on demand
func (s *Store) Labels(ctx context.Context, name string) ([]string, error) {
	m, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return m.Labels(), nil
}
