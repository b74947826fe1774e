package dispatch

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/soto-lp/internal/domain"
	"github.com/spigell/soto-lp/internal/extract"
	"github.com/spigell/soto-lp/internal/matching"
	"github.com/spigell/soto-lp/internal/roster"
	"github.com/spigell/soto-lp/internal/store"
)

type milesByDriver map[string]float64

func (m milesByDriver) Distance(_ context.Context, _, destination string) (domain.Route, error) {
	miles, ok := m[destination]
	if !ok {
		return domain.Route{}, errors.New("no route found")
	}
	return domain.Route{DistanceMiles: miles}, nil
}

type fixture struct {
	service *Service
	store   *store.Store
}

func newFixture(t *testing.T, oracle matching.DistanceOracle) fixture {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	// No text oracle: jobs are stored from pattern extraction.
	extractor := extract.New(nil, nil, nil, extract.Options{})
	matcher := matching.New(oracle, nil, matching.Options{})
	return fixture{service: New(st, extractor, matcher, zap.NewNop()), store: st}
}

func TestAddJobValidatesAndStores(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for _, tc := range []struct {
		day, number int
		raw         string
	}{
		{day: 0, number: 1, raw: "text"},
		{day: 1, number: 0, raw: "text"},
		{day: 1, number: 1, raw: "   "},
	} {
		_, _, err := f.service.AddJob(ctx, tc.day, tc.number, tc.raw)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}

	raw := "Collect from 10 High St, B77 2NZ deliver to 5 Low Rd, M1 1AA. Price £150"
	job, outcome, err := f.service.AddJob(ctx, 1, 3, raw)
	require.NoError(t, err)
	assert.True(t, outcome.Fallback())
	assert.Equal(t, 150.0, job.Price)
	assert.Equal(t, "M1 1AA", job.PostcodeDelivery)

	jobs, err := f.service.Jobs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, job, jobs[0])
}

func TestAddDriverAndImport(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.AddDriver(ctx, "Alice", " ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	driver, err := f.service.AddDriver(ctx, " Alice ", "b77 2nz")
	require.NoError(t, err)
	assert.Equal(t, "Alice", driver.Name)
	assert.Equal(t, "B77 2NZ", driver.Postcode)

	core, logs := observer.New(zapcore.WarnLevel)
	f.service.logger = zap.New(core)

	added, err := f.service.ImportDrivers(ctx, []roster.Entry{
		{Name: "Bob", Postcode: "M1 1AA"},
		{Name: "Carol"},
	})
	require.NoError(t, err)
	assert.Len(t, added, 1)
	assert.Equal(t, 1, logs.FilterMessage("skipping driver without postcode").Len())

	drivers, err := f.service.Drivers(ctx)
	require.NoError(t, err)
	assert.Len(t, drivers, 2)
}

func TestProcessMatches(t *testing.T) {
	f := newFixture(t, milesByDriver{"B77 2NZ": 2, "M1 1AA": 20})
	ctx := context.Background()

	_, err := f.service.ProcessMatches(ctx, 0)
	assert.ErrorIs(t, err, ErrNoJobs)

	job1, _, err := f.service.AddJob(ctx, 1, 1, "From B1 1AA to B77 2NZ for £60")
	require.NoError(t, err)
	job2, _, err := f.service.AddJob(ctx, 2, 1, "From B1 1AA to M1 1AA for £100")
	require.NoError(t, err)
	_, _, err = f.service.AddJob(ctx, 2, 2, "no postcodes at all")
	require.NoError(t, err)

	_, err = f.service.ProcessMatches(ctx, 0)
	assert.ErrorIs(t, err, ErrNoDrivers)

	near, err := f.service.AddDriver(ctx, "Near", "B77 2NZ")
	require.NoError(t, err)
	far, err := f.service.AddDriver(ctx, "Far", "M1 1AA")
	require.NoError(t, err)

	matches, err := f.service.ProcessMatches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, matches, 4)
	assert.Equal(t, job1.ID, matches[0].JobID)
	assert.Equal(t, near.ID, matches[0].DriverID)
	assert.Equal(t, 7.8, matches[0].MatchScore)
	assert.Equal(t, far.ID, matches[1].DriverID)

	// Re-running replaces instead of appending.
	matches, err = f.service.ProcessMatches(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, matches, 4)

	dayTwo, err := f.service.ProcessMatches(ctx, 2)
	require.NoError(t, err)
	require.Len(t, dayTwo, 2)
	for _, m := range dayTwo {
		assert.Equal(t, job2.ID, m.JobID)
	}

	all, err := f.service.Matches(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	stats, err := f.service.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.JobCount)
	assert.Equal(t, 2, stats.DriverCount)
	assert.Equal(t, 4, stats.MatchCount)
}

func TestProcessMatchesWithoutDistanceOracle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, _, err := f.service.AddJob(ctx, 1, 1, "From B1 1AA to B77 2NZ for £60")
	require.NoError(t, err)
	_, err = f.service.AddDriver(ctx, "Near", "B77 2NZ")
	require.NoError(t, err)

	matches, err := f.service.ProcessMatches(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSchedulerRun(t *testing.T) {
	f := newFixture(t, milesByDriver{"B77 2NZ": 2})
	core, logs := observer.New(zapcore.InfoLevel)

	s, err := NewScheduler(f.service, "*/5 * * * *", 0, zap.New(core))
	require.NoError(t, err)

	s.Run(context.Background())
	assert.Equal(t, 1, logs.FilterMessage("scheduled rematch skipped").Len())

	_, _, err = f.service.AddJob(context.Background(), 1, 1, "From B1 1AA to B77 2NZ for £60")
	require.NoError(t, err)
	_, err = f.service.AddDriver(context.Background(), "Near", "B77 2NZ")
	require.NoError(t, err)

	s.Run(context.Background())
	assert.Equal(t, 1, logs.FilterMessage("scheduled rematch finished").Len())

	_, err = NewScheduler(f.service, "not a schedule", 0, nil)
	assert.Error(t, err)
}
