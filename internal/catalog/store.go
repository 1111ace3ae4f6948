// Package catalog loads the reference sets of airline and airport codes used
// to validate prediction requests.
package catalog

import (
	"bufio"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/Domenick1991/flightontime/internal/domain"
	"github.com/Domenick1991/flightontime/internal/logging"
	"github.com/Domenick1991/flightontime/internal/metrics"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	Airlines = "airlines"
	Airports = "airports"
)

//go:embed data/*.csv
var embedded embed.FS

// Embedded returns the reference catalogs compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// Catalog is an immutable set of upper-case codes.
type Catalog struct {
	codes map[string]struct{}
}

func newCatalog(codes []string) Catalog {
	c := Catalog{codes: make(map[string]struct{}, len(codes))}
	for _, code := range codes {
		c.codes[code] = struct{}{}
	}
	return c
}

func (c Catalog) Contains(code string) bool {
	_, ok := c.codes[code]
	return ok
}

func (c Catalog) Len() int {
	return len(c.codes)
}

// Codes returns the codes in sorted order.
func (c Catalog) Codes() []string {
	out := make([]string, 0, len(c.codes))
	for code := range c.codes {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

type Store struct {
	fsys    fs.FS
	files   map[string]string
	cache   *cache.Cache
	group   singleflight.Group
	metrics *metrics.Registry
	logger  *zap.SugaredLogger
}

type StoreOption func(*Store)

func WithMetrics(m *metrics.Registry) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

func WithLogger(l *zap.SugaredLogger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// WithFile overrides the file a catalog is read from.
func WithFile(name, path string) StoreOption {
	return func(s *Store) {
		s.files[name] = path
	}
}

func NewStore(fsys fs.FS, opts ...StoreOption) *Store {
	s := &Store{
		fsys: fsys,
		files: map[string]string{
			Airlines: "airlines.csv",
			Airports: "airports.csv",
		},
		cache: cache.New(cache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

// NewDirStore reads catalogs from dir, or from the embedded copies when dir is
// empty.
func NewDirStore(dir string, opts ...StoreOption) *Store {
	if dir == "" {
		return NewStore(Embedded(), opts...)
	}
	return NewStore(os.DirFS(dir), opts...)
}

// Load returns the named catalog, reading it from the source on first use.
// Concurrent first calls share a single read. Failed reads are not cached.
func (s *Store) Load(ctx context.Context, name string) (Catalog, error) {
	if v, ok := s.cache.Get(name); ok {
		return v.(Catalog), nil
	}

	v, err, _ := s.group.Do(name, func() (interface{}, error) {
		if v, ok := s.cache.Get(name); ok {
			return v, nil
		}
		c, err := s.read(name)
		if err != nil {
			s.metrics.CatalogLoaded(name, "error")
			return nil, err
		}
		s.cache.Set(name, c, cache.NoExpiration)
		s.metrics.CatalogLoaded(name, "ok")
		s.logger.Infow("catalog loaded", "catalog", name, "codes", c.Len())
		return c, nil
	})
	if err != nil {
		s.logger.Errorw("catalog unavailable", "catalog", name, "error", err)
		return Catalog{}, domain.NewError(domain.KindCatalogUnavailable, fmt.Sprintf("catalog %s unavailable", name), err)
	}
	return v.(Catalog), nil
}

// Warm loads every known catalog.
func (s *Store) Warm(ctx context.Context) error {
	for name := range s.files {
		if _, err := s.Load(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) read(name string) (Catalog, error) {
	path, ok := s.files[name]
	if !ok {
		return Catalog{}, fmt.Errorf("unknown catalog %q", name)
	}

	f, err := s.fsys.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	codes, err := parse(f)
	if err != nil {
		return Catalog{}, fmt.Errorf("read %s: %w", path, err)
	}
	return newCatalog(codes), nil
}

// parse reads one code per line. Blank lines are ignored and the first
// remaining line is the header.
func parse(f fs.File) ([]string, error) {
	var codes []string
	header := true

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(line, ','); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		if header {
			header = false
			continue
		}
		codes = append(codes, strings.ToUpper(line))
	}
	return codes, scanner.Err()
}
