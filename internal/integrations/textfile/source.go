// Package textfile reads planning data from the plain-text exports used by
// operations: an airport listing grouped by continent, a flight schedule, and
// one order file per origin airport.
package textfile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"morapack/internal/integrations"
	"morapack/internal/model"
)

const maxProblems = 20

// ParseStats counts what a load accepted and skipped.
type ParseStats struct {
	Airports int      `json:"airports"`
	Flights  int      `json:"flights"`
	Orders   int      `json:"orders"`
	Skipped  int      `json:"skipped"`
	Problems []string `json:"problems,omitempty"`
}

// Source loads from a directory. Empty file names fall back to the usual
// export names.
type Source struct {
	Dir          string
	AirportsFile string
	FlightsFile  string
	OrdersGlob   string

	log   *zap.Logger
	mu    sync.Mutex
	stats ParseStats
}

var _ integrations.InputDataSource = (*Source)(nil)

func New(dir string, log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{Dir: dir, OrdersGlob: "*_pedidos_*", log: log}
}

func (s *Source) Name() string { return "textfile:" + s.Dir }

// Stats returns a copy of the counters so far.
func (s *Source) Stats() ParseStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Problems = append([]string(nil), s.stats.Problems...)
	return st
}

func (s *Source) skip(file string, line int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Skipped++
	if len(s.stats.Problems) < maxProblems {
		s.stats.Problems = append(s.stats.Problems, fmt.Sprintf("%s:%d: %s", filepath.Base(file), line, reason))
	}
	s.log.Debug("skipping record", zap.String("file", file), zap.Int("line", line), zap.String("reason", reason))
}

func (s *Source) count(f func(*ParseStats)) {
	s.mu.Lock()
	f(&s.stats)
	s.mu.Unlock()
}

// find resolves an explicit name, or the first file whose lower-cased name
// contains one of the hints.
func (s *Source) find(name string, hints ...string) (string, error) {
	if name != "" {
		return filepath.Join(s.Dir, name), nil
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lower := strings.ToLower(e.Name())
		for _, h := range hints {
			if strings.Contains(lower, h) {
				return filepath.Join(s.Dir, e.Name()), nil
			}
		}
	}
	return "", fmt.Errorf("no file matching %v in %s", hints, s.Dir)
}

func (s *Source) LoadAirports(ctx context.Context) ([]*model.Airport, error) {
	path, err := s.find(s.AirportsFile, "aeropuerto", "airport")
	if err != nil {
		return nil, err
	}
	var out []*model.Airport
	continent := model.UnknownContinent
	err = eachLine(ctx, path, func(n int, line string) {
		if c, ok := continentHeader(line); ok {
			continent = c
			return
		}
		if !isRecord(line) {
			return
		}
		a, err := parseAirport(line, continent)
		if err != nil {
			s.skip(path, n, err.Error())
			return
		}
		out = append(out, a)
	})
	if err != nil {
		return nil, err
	}
	s.count(func(st *ParseStats) { st.Airports += len(out) })
	s.log.Info("airports loaded", zap.String("file", path), zap.Int("count", len(out)))
	return out, nil
}

func (s *Source) LoadFlights(ctx context.Context, airports []*model.Airport) ([]*model.Flight, error) {
	path, err := s.find(s.FlightsFile, "vuelo", "flight", "plan")
	if err != nil {
		return nil, err
	}
	byIATA := integrations.ByIATA(airports)
	var out []*model.Flight
	err = eachLine(ctx, path, func(n int, line string) {
		f, err := parseFlight(line, len(out)+1, byIATA)
		if err != nil {
			s.skip(path, n, err.Error())
			return
		}
		out = append(out, f)
	})
	if err != nil {
		return nil, err
	}
	s.count(func(st *ParseStats) { st.Flights += len(out) })
	s.log.Info("flights loaded", zap.String("file", path), zap.Int("count", len(out)))
	return out, nil
}

var ordersFileRe = regexp.MustCompile(`_pedidos_([A-Za-z0-9]{3,4})_`)

func (s *Source) LoadOrders(ctx context.Context, airports []*model.Airport, window integrations.Window) ([]*model.Order, error) {
	files, err := filepath.Glob(filepath.Join(s.Dir, s.OrdersGlob))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	byIATA := integrations.ByIATA(airports)
	var out []*model.Order
	nextProduct := 1
	for _, path := range files {
		m := ordersFileRe.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			continue
		}
		origin, ok := byIATA[strings.ToUpper(m[1])]
		if !ok {
			s.skip(path, 0, "unknown origin airport "+m[1])
			continue
		}
		before := len(out)
		err := eachLine(ctx, path, func(n int, line string) {
			o, err := parseOrder(line, len(out)+1, nextProduct, origin, byIATA)
			if err != nil {
				s.skip(path, n, err.Error())
				return
			}
			if !window.Contains(o.Created) {
				return
			}
			nextProduct += o.Quantity()
			out = append(out, o)
		})
		if err != nil {
			return nil, err
		}
		s.log.Debug("orders file loaded", zap.String("file", path), zap.Int("count", len(out)-before))
	}
	s.count(func(st *ParseStats) { st.Orders += len(out) })
	s.log.Info("orders loaded", zap.Int("files", len(files)), zap.Int("count", len(out)))
	return out, nil
}

// eachLine feeds non-blank lines with their 1-based number to fn.
func eachLine(ctx context.Context, path string, fn func(int, string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return scanLines(ctx, f, fn)
}

func scanLines(ctx context.Context, r io.Reader, fn func(int, string)) error {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if line == "" {
			continue
		}
		fn(n, line)
	}
	return sc.Err()
}
