package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spigell/soto-lp/internal/logger"
)

const DefaultRunTimeout = 10 * time.Minute

// Scheduler re-matches all jobs on a cron schedule. Runs never overlap.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	timeout time.Duration
	logger  *zap.Logger
}

// NewScheduler parses spec as a standard five-field cron expression.
func NewScheduler(service *Service, spec string, timeout time.Duration, log *zap.Logger) (*Scheduler, error) {
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		service: service,
		timeout: timeout,
		logger:  logger.OrNop(log),
	}

	if _, err := s.cron.AddFunc(spec, func() { s.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("parse rematch schedule %q: %w", spec, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	if entries := s.cron.Entries(); len(entries) > 0 {
		s.logger.Info("rematch scheduled", zap.Time("next_run", entries[0].Next))
	}
}

// Stop stops scheduling and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Run performs one scheduled re-match. Empty job or driver lists are not errors here.
func (s *Scheduler) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	matches, err := s.service.ProcessMatches(ctx, 0)
	switch {
	case errors.Is(err, ErrNoJobs), errors.Is(err, ErrNoDrivers):
		s.logger.Info("scheduled rematch skipped", zap.String("reason", err.Error()))
	case err != nil:
		s.logger.Error("scheduled rematch failed", zap.Error(err))
	default:
		s.logger.Info("scheduled rematch finished", zap.Int("matches", len(matches)))
	}
}
