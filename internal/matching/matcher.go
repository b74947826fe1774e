// Package matching scores drivers against jobs by job price and driving distance.
package matching

import (
	"cmp"
	"context"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/soto-lp/internal/domain"
	"github.com/spigell/soto-lp/internal/logger"
	"github.com/spigell/soto-lp/internal/metrics"
)

const (
	DefaultConcurrency = 4
	DefaultTimeout     = 10 * time.Second
)

// DistanceOracle reports the driving route between two places.
type DistanceOracle interface {
	Distance(ctx context.Context, origin, destination string) (domain.Route, error)
}

type Options struct {
	// Concurrency bounds the distance lookups in flight.
	Concurrency int
	// Timeout bounds a single distance lookup. A timed out lookup skips its pair.
	Timeout time.Duration
	Metrics *metrics.Metrics
}

type Matcher struct {
	oracle      DistanceOracle
	logger      *zap.Logger
	concurrency int
	timeout     time.Duration
	metrics     *metrics.Metrics
}

// New builds a Matcher. A nil oracle is allowed and yields no candidates.
func New(oracle DistanceOracle, log *zap.Logger, opts Options) *Matcher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Matcher{
		oracle:      oracle,
		logger:      logger.OrNop(log),
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
		metrics:     opts.Metrics,
	}
}

// Match scores every eligible (job, driver) pair. The result lists jobs in input order, each
// job's candidates sorted by descending score with ties kept in driver order. Pairs whose
// distance cannot be looked up are left out; Match never fails.
func (m *Matcher) Match(ctx context.Context, jobs []domain.Job, drivers []domain.Driver) []domain.MatchCandidate {
	candidates := []domain.MatchCandidate{}
	if m.oracle == nil {
		m.logger.Warn("distance oracle is not configured, no matches produced")
		return candidates
	}

	p := eligible(m.logger, jobs, drivers)
	if len(p.jobs) == 0 || len(p.drivers) == 0 {
		return candidates
	}

	grid := make([][]*domain.MatchCandidate, len(p.jobs))
	for i := range grid {
		grid[i] = make([]*domain.MatchCandidate, len(p.drivers))
	}

	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i, job := range p.jobs {
		for j, driver := range p.drivers {
			g.Go(func() error {
				route, ok := m.lookup(ctx, job, driver)
				if !ok {
					return nil
				}
				candidate := Candidate(job, driver, route.DistanceMiles)
				grid[i][j] = &candidate
				return nil
			})
		}
	}
	_ = g.Wait()

	for _, row := range grid {
		group := make([]domain.MatchCandidate, 0, len(row))
		for _, candidate := range row {
			if candidate != nil {
				group = append(group, *candidate)
			}
		}
		slices.SortStableFunc(group, func(a, b domain.MatchCandidate) int {
			return cmp.Compare(b.MatchScore, a.MatchScore)
		})
		candidates = append(candidates, group...)
	}

	m.logger.Info("matching finished",
		zap.Int("jobs", len(p.jobs)),
		zap.Int("drivers", len(p.drivers)),
		zap.Int("candidates", len(candidates)),
	)
	m.metrics.Candidates(len(candidates))
	return candidates
}

func (m *Matcher) lookup(ctx context.Context, job domain.Job, driver domain.Driver) (domain.Route, bool) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	route, err := m.oracle.Distance(ctx, job.PostcodeDelivery, driver.Postcode)
	if err != nil {
		m.metrics.DistanceLookup("error", time.Since(start))
		m.logger.Debug("skipping pair without distance",
			append(logger.Pair(job.ID, driver.ID), zap.Error(err))...,
		)
		return domain.Route{}, false
	}

	m.metrics.DistanceLookup("ok", time.Since(start))
	return route, true
}
