package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/soto-lp/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func structured(delivery string, price float64) domain.StructuredJob {
	return domain.StructuredJob{
		DeliveryAddress:  "5 Low Rd",
		PostcodeDelivery: delivery,
		Price:            price,
		ConfidenceScores: map[domain.Field]int{domain.FieldPrice: 80, domain.FieldPostcodeDelivery: 90},
		ParsingQuality:   domain.QualityMedium,
		MissingFields:    []string{"contact_info"},
		AccuracyRating:   domain.RatingFair,
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(ctx, path, nil)
	require.NoError(t, err)
	_, err = s.AddDriver(ctx, "Alice", "B77 2NZ")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, nil)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, SchemaVersion, version)

	drivers, err := s.ListDrivers(ctx)
	require.NoError(t, err)
	assert.Len(t, drivers, 1)
}

func TestDrivers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	bob, err := s.AddDriver(ctx, "Bob", "M1 1AA")
	require.NoError(t, err)
	alice, err := s.AddDriver(ctx, "Alice", "B77 2NZ")
	require.NoError(t, err)
	assert.NotEqual(t, bob.ID, alice.ID)

	drivers, err := s.ListDrivers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Driver{alice, bob}, drivers)
}

func TestJobs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	second, err := s.AddJob(ctx, 2, 1, "day two", structured("M1 1AA", 90))
	require.NoError(t, err)
	firstB, err := s.AddJob(ctx, 1, 2, "day one b", structured("B77 2NZ", 150))
	require.NoError(t, err)
	firstA, err := s.AddJob(ctx, 1, 1, "day one a", structured("", 0))
	require.NoError(t, err)

	all, err := s.ListJobs(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.Job{firstA, firstB, second}, all)

	dayOne, err := s.ListJobs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.Job{firstA, firstB}, dayOne)

	got, err := s.GetJob(ctx, firstB.ID)
	require.NoError(t, err)
	assert.Equal(t, firstB, got)
	assert.Equal(t, 80, got.Confidence(domain.FieldPrice))

	_, err = s.GetJob(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	none, err := s.ListJobs(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestMatches(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	alice, err := s.AddDriver(ctx, "Alice", "B77 2NZ")
	require.NoError(t, err)
	bob, err := s.AddDriver(ctx, "Bob", "M1 1AA")
	require.NoError(t, err)
	job1, err := s.AddJob(ctx, 1, 1, "one", structured("B77 2NZ", 100))
	require.NoError(t, err)
	job2, err := s.AddJob(ctx, 1, 2, "two", structured("M1 1AA", 40))
	require.NoError(t, err)

	_, err = s.AddMatch(ctx, domain.MatchCandidate{JobID: job1.ID, DriverID: bob.ID, MatchScore: 6, DistanceMiles: 40})
	require.NoError(t, err)
	_, err = s.AddMatch(ctx, domain.MatchCandidate{JobID: job1.ID, DriverID: alice.ID, MatchScore: 10, DistanceMiles: 0})
	require.NoError(t, err)
	_, err = s.AddMatch(ctx, domain.MatchCandidate{JobID: job2.ID, DriverID: alice.ID, MatchScore: 2, DistanceMiles: 45})
	require.NoError(t, err)

	all, err := s.ListMatches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, alice.ID, all[0].DriverID)
	assert.Equal(t, "Alice", all[0].DriverName)
	assert.Equal(t, "B77 2NZ", all[0].DriverPostcode)
	assert.Equal(t, 1, all[0].JobNumber)
	assert.Equal(t, bob.ID, all[1].DriverID)
	assert.Equal(t, job2.ID, all[2].JobID)

	onlyTwo, err := s.ListMatches(ctx, job2.ID)
	require.NoError(t, err)
	assert.Len(t, onlyTwo, 1)

	replacement := []domain.MatchCandidate{
		{JobID: job1.ID, DriverID: bob.ID, MatchScore: 7.5, DistanceMiles: 25, Reasoning: "new"},
	}
	require.NoError(t, s.ReplaceMatches(ctx, []int64{job1.ID}, replacement))

	jobOne, err := s.ListMatches(ctx, job1.ID)
	require.NoError(t, err)
	require.Len(t, jobOne, 1)
	assert.Equal(t, "new", jobOne[0].Reasoning)

	untouched, err := s.ListMatches(ctx, job2.ID)
	require.NoError(t, err)
	assert.Len(t, untouched, 1)

	removed, err := s.ClearMatches(ctx, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
}

func TestReplaceMatchesIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	driver, err := s.AddDriver(ctx, "Alice", "B77 2NZ")
	require.NoError(t, err)
	job, err := s.AddJob(ctx, 1, 1, "one", structured("B77 2NZ", 100))
	require.NoError(t, err)
	_, err = s.AddMatch(ctx, domain.MatchCandidate{JobID: job.ID, DriverID: driver.ID, MatchScore: 10})
	require.NoError(t, err)

	broken := []domain.MatchCandidate{
		{JobID: job.ID, DriverID: driver.ID, MatchScore: 9},
		{JobID: job.ID, DriverID: 12345, MatchScore: 8},
	}
	require.Error(t, s.ReplaceMatches(ctx, []int64{job.ID}, broken))

	matches, err := s.ListMatches(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 10.0, matches[0].MatchScore)
}

func TestStatistics(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	empty, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Statistics{JobsByDay: []domain.DayCount{}}, empty)

	driver, err := s.AddDriver(ctx, "Alice", "B77 2NZ")
	require.NoError(t, err)
	job, err := s.AddJob(ctx, 3, 1, "one", structured("B77 2NZ", 100))
	require.NoError(t, err)
	_, err = s.AddJob(ctx, 3, 2, "two", structured("B77 2NZ", 100))
	require.NoError(t, err)
	_, err = s.AddJob(ctx, 1, 1, "three", structured("B77 2NZ", 100))
	require.NoError(t, err)
	_, err = s.AddMatch(ctx, domain.MatchCandidate{JobID: job.ID, DriverID: driver.ID, MatchScore: 10})
	require.NoError(t, err)

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Statistics{
		DriverCount: 1,
		JobCount:    3,
		MatchCount:  1,
		JobsByDay:   []domain.DayCount{{Day: 1, Count: 1}, {Day: 3, Count: 2}},
	}, stats)
}
