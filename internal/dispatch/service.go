// Package dispatch ties extraction, persistence and matching together for the CLI and HTTP API.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/soto-lp/internal/domain"
	"github.com/spigell/soto-lp/internal/extract"
	"github.com/spigell/soto-lp/internal/logger"
	"github.com/spigell/soto-lp/internal/postcode"
	"github.com/spigell/soto-lp/internal/roster"
)

var (
	// ErrInvalidInput marks requests rejected before touching the store.
	ErrInvalidInput = errors.New("invalid input")
	ErrNoJobs       = errors.New("no jobs found")
	ErrNoDrivers    = errors.New("no drivers found")
)

// Store is the persistence the service needs.
type Store interface {
	AddDriver(ctx context.Context, name, postcode string) (domain.Driver, error)
	ListDrivers(ctx context.Context) ([]domain.Driver, error)
	AddJob(ctx context.Context, day, number int, raw string, job domain.StructuredJob) (domain.Job, error)
	ListJobs(ctx context.Context, day int) ([]domain.Job, error)
	ListMatches(ctx context.Context, jobID int64) ([]domain.Match, error)
	ReplaceMatches(ctx context.Context, jobIDs []int64, candidates []domain.MatchCandidate) error
	Statistics(ctx context.Context) (domain.Statistics, error)
}

type Extractor interface {
	Extract(ctx context.Context, raw string) extract.Outcome
}

type Matcher interface {
	Match(ctx context.Context, jobs []domain.Job, drivers []domain.Driver) []domain.MatchCandidate
}

type Service struct {
	store     Store
	extractor Extractor
	matcher   Matcher
	logger    *zap.Logger
}

func New(store Store, extractor Extractor, matcher Matcher, log *zap.Logger) *Service {
	return &Service{
		store:     store,
		extractor: extractor,
		matcher:   matcher,
		logger:    logger.OrNop(log),
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Extract previews the extraction of raw without storing anything.
func (s *Service) Extract(ctx context.Context, raw string) (extract.Outcome, error) {
	if strings.TrimSpace(raw) == "" {
		return extract.Outcome{}, invalid("job text is required")
	}
	return s.extractor.Extract(ctx, raw), nil
}

// AddJob extracts raw and stores the result as job number of day.
func (s *Service) AddJob(ctx context.Context, day, number int, raw string) (domain.Job, extract.Outcome, error) {
	switch {
	case day <= 0:
		return domain.Job{}, extract.Outcome{}, invalid("day number must be positive")
	case number <= 0:
		return domain.Job{}, extract.Outcome{}, invalid("job number must be positive")
	case strings.TrimSpace(raw) == "":
		return domain.Job{}, extract.Outcome{}, invalid("job text is required")
	}

	outcome := s.extractor.Extract(ctx, raw)
	if outcome.Fallback() {
		s.logger.Warn("job stored from pattern extraction",
			zap.Int("day", day),
			zap.Int("job", number),
			zap.Error(outcome.Err),
		)
	}

	job, err := s.store.AddJob(ctx, day, number, raw, outcome.Job)
	if err != nil {
		return domain.Job{}, outcome, fmt.Errorf("add job: %w", err)
	}

	s.logger.Info("job added",
		zap.Int64(logger.FieldJobID, job.ID),
		zap.Int("day", day),
		zap.Int("job", number),
		zap.String("source", string(outcome.Source)),
		zap.String("accuracy_rating", string(job.AccuracyRating)),
	)
	return job, outcome, nil
}

func (s *Service) Jobs(ctx context.Context, day int) ([]domain.Job, error) {
	if day < 0 {
		return nil, invalid("day number must not be negative")
	}
	return s.store.ListJobs(ctx, day)
}

// AddDriver stores a driver. Both name and postcode are required.
func (s *Service) AddDriver(ctx context.Context, name, code string) (domain.Driver, error) {
	name = strings.TrimSpace(name)
	code = postcode.Normalize(code)
	if name == "" || code == "" {
		return domain.Driver{}, invalid("name and postcode are required")
	}

	driver, err := s.store.AddDriver(ctx, name, code)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("add driver: %w", err)
	}

	s.logger.Info("driver added", zap.Int64(logger.FieldDriverID, driver.ID), zap.String("name", name))
	return driver, nil
}

// ImportDrivers adds every roster entry that has a postcode and skips the rest.
func (s *Service) ImportDrivers(ctx context.Context, entries []roster.Entry) ([]domain.Driver, error) {
	added := make([]domain.Driver, 0, len(entries))
	for _, e := range entries {
		if e.Postcode == "" {
			s.logger.Warn("skipping driver without postcode", zap.String("name", e.Name))
			continue
		}
		driver, err := s.AddDriver(ctx, e.Name, e.Postcode)
		if err != nil {
			return added, err
		}
		added = append(added, driver)
	}
	return added, nil
}

func (s *Service) Drivers(ctx context.Context) ([]domain.Driver, error) {
	return s.store.ListDrivers(ctx)
}

// Matches lists stored matches of jobID, or of every job when jobID is 0.
func (s *Service) Matches(ctx context.Context, jobID int64) ([]domain.Match, error) {
	if jobID < 0 {
		return nil, invalid("job id must not be negative")
	}
	return s.store.ListMatches(ctx, jobID)
}

func (s *Service) Statistics(ctx context.Context) (domain.Statistics, error) {
	return s.store.Statistics(ctx)
}

// ProcessMatches re-matches the jobs of day, or every job when day is 0, against all drivers.
// Previous matches of those jobs are replaced. It returns the stored matches of the run.
func (s *Service) ProcessMatches(ctx context.Context, day int) ([]domain.Match, error) {
	jobs, err := s.Jobs(ctx, day)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}

	drivers, err := s.store.ListDrivers(ctx)
	if err != nil {
		return nil, err
	}
	if len(drivers) == 0 {
		return nil, ErrNoDrivers
	}

	candidates := s.matcher.Match(ctx, jobs, drivers)

	jobIDs := make([]int64, 0, len(jobs))
	for _, job := range jobs {
		jobIDs = append(jobIDs, job.ID)
	}

	if err := s.store.ReplaceMatches(ctx, jobIDs, candidates); err != nil {
		return nil, fmt.Errorf("store matches: %w", err)
	}

	s.logger.Info("matches processed",
		zap.Int("day", day),
		zap.Int("jobs", len(jobs)),
		zap.Int("drivers", len(drivers)),
		zap.Int("matches", len(candidates)),
	)

	stored, err := s.store.ListMatches(ctx, 0)
	if err != nil {
		return nil, err
	}
	if day == 0 {
		return stored, nil
	}

	inRun := make(map[int64]struct{}, len(jobIDs))
	for _, id := range jobIDs {
		inRun[id] = struct{}{}
	}
	matches := make([]domain.Match, 0, len(candidates))
	for _, m := range stored {
		if _, ok := inRun[m.JobID]; ok {
			matches = append(matches, m)
		}
	}
	return matches, nil
}
