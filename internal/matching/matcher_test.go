package matching

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/soto-lp/internal/domain"
)

type stubOracle struct {
	mu     sync.Mutex
	miles  map[string]float64
	jitter bool
	calls  []string
}

func (s *stubOracle) Distance(ctx context.Context, origin, destination string) (domain.Route, error) {
	s.mu.Lock()
	s.calls = append(s.calls, origin+"->"+destination)
	miles, ok := s.miles[destination]
	s.mu.Unlock()

	if s.jitter {
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
	}
	if err := ctx.Err(); err != nil {
		return domain.Route{}, err
	}
	if !ok {
		return domain.Route{}, errors.New("no route found")
	}
	return domain.Route{DistanceMiles: miles}, nil
}

type blockingOracle struct{}

func (blockingOracle) Distance(ctx context.Context, _, _ string) (domain.Route, error) {
	<-ctx.Done()
	return domain.Route{}, ctx.Err()
}

func TestMatchScenarios(t *testing.T) {
	tests := []struct {
		name    string
		jobs    []domain.Job
		drivers []domain.Driver
		miles   map[string]float64
		expect  []domain.MatchCandidate
	}{
		{
			name:    "full price next door",
			jobs:    []domain.Job{{ID: 1, StructuredJob: domain.StructuredJob{PostcodeDelivery: "B77 2NZ", Price: 100}}},
			drivers: []domain.Driver{{ID: 10, Postcode: "B77 2NZ"}},
			miles:   map[string]float64{"B77 2NZ": 0},
			expect: []domain.MatchCandidate{{
				JobID: 1, DriverID: 10, MatchScore: 10, DistanceMiles: 0,
				Reasoning: "Price: £100.00 (5.0/5), Distance: 0.0mi (5.0/5)",
			}},
		},
		{
			name:    "free job far away",
			jobs:    []domain.Job{{ID: 1, StructuredJob: domain.StructuredJob{PostcodeDelivery: "B77 2NZ", Price: 0}}},
			drivers: []domain.Driver{{ID: 10, Postcode: "M1 1AA"}},
			miles:   map[string]float64{"M1 1AA": 50},
			expect: []domain.MatchCandidate{{
				JobID: 1, DriverID: 10, MatchScore: 0, DistanceMiles: 50,
				Reasoning: "Price: £0.00 (0.0/5), Distance: 50.0mi (0.0/5)",
			}},
		},
		{
			name: "closer driver ranks first",
			jobs: []domain.Job{{ID: 1, StructuredJob: domain.StructuredJob{PostcodeDelivery: "B77 2NZ", Price: 60}}},
			drivers: []domain.Driver{
				{ID: 10, Postcode: "M1 1AA"},
				{ID: 11, Postcode: "B78 1AA"},
			},
			miles: map[string]float64{"M1 1AA": 20, "B78 1AA": 2},
			expect: []domain.MatchCandidate{
				{JobID: 1, DriverID: 11, MatchScore: 7.8, DistanceMiles: 2, Reasoning: "Price: £60.00 (3.0/5), Distance: 2.0mi (4.8/5)"},
				{JobID: 1, DriverID: 10, MatchScore: 6, DistanceMiles: 20, Reasoning: "Price: £60.00 (3.0/5), Distance: 20.0mi (3.0/5)"},
			},
		},
		{
			name: "job without delivery postcode is skipped",
			jobs: []domain.Job{
				{ID: 1, StructuredJob: domain.StructuredJob{PostcodeCollection: "B77 2NZ", Price: 500}},
			},
			drivers: []domain.Driver{{ID: 10, Postcode: "B77 2NZ"}, {ID: 11, Postcode: "M1 1AA"}},
			miles:   map[string]float64{"B77 2NZ": 0, "M1 1AA": 1},
			expect:  []domain.MatchCandidate{},
		},
		{
			name:    "driver without postcode is skipped",
			jobs:    []domain.Job{{ID: 1, StructuredJob: domain.StructuredJob{PostcodeDelivery: "B77 2NZ", Price: 20}}},
			drivers: []domain.Driver{{ID: 10}, {ID: 11, Postcode: "M1 1AA"}},
			miles:   map[string]float64{"": 0, "M1 1AA": 10},
			expect: []domain.MatchCandidate{
				{JobID: 1, DriverID: 11, MatchScore: 5, DistanceMiles: 10, Reasoning: "Price: £20.00 (1.0/5), Distance: 10.0mi (4.0/5)"},
			},
		},
		{
			name:    "unreachable pair is omitted",
			jobs:    []domain.Job{{ID: 1, StructuredJob: domain.StructuredJob{PostcodeDelivery: "B77 2NZ", Price: 20}}},
			drivers: []domain.Driver{{ID: 10, Postcode: "ZZ1 1ZZ"}},
			miles:   map[string]float64{},
			expect:  []domain.MatchCandidate{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := &stubOracle{miles: tt.miles}
			got := New(oracle, zap.NewNop(), Options{}).Match(context.Background(), tt.jobs, tt.drivers)

			if len(got) != len(tt.expect) {
				t.Fatalf("expected %d candidates, got %d: %+v", len(tt.expect), len(got), got)
			}
			for i := range got {
				if got[i] != tt.expect[i] {
					t.Fatalf("candidate %d: expected %+v, got %+v", i, tt.expect[i], got[i])
				}
			}
			for _, call := range oracle.calls {
				if call == "->" || call[len(call)-2:] == "->" {
					t.Fatalf("oracle queried for a pair without postcode: %q", call)
				}
			}
		})
	}
}

func TestMatchOrderIsDeterministic(t *testing.T) {
	var jobs []domain.Job
	for i := 1; i <= 5; i++ {
		jobs = append(jobs, domain.Job{ID: int64(i), StructuredJob: domain.StructuredJob{PostcodeDelivery: "B77 2NZ", Price: float64(i * 10)}})
	}
	jobs = append(jobs, domain.Job{ID: 99})

	miles := map[string]float64{}
	var drivers []domain.Driver
	for i := 1; i <= 8; i++ {
		code := "M" + string(rune('0'+i)) + " 1AA"
		miles[code] = float64((i % 3) * 15)
		drivers = append(drivers, domain.Driver{ID: int64(100 + i), Postcode: code})
	}

	matcher := New(&stubOracle{miles: miles, jitter: true}, nil, Options{Concurrency: 8})
	first := matcher.Match(context.Background(), jobs, drivers)

	if len(first) != 5*8 {
		t.Fatalf("expected 40 candidates, got %d", len(first))
	}

	for run := 0; run < 3; run++ {
		again := matcher.Match(context.Background(), jobs, drivers)
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("run %d differs at %d: %+v vs %+v", run, i, first[i], again[i])
			}
		}
	}

	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		if prev.JobID > cur.JobID {
			t.Fatalf("jobs out of input order at %d", i)
		}
		if prev.JobID == cur.JobID {
			if prev.MatchScore < cur.MatchScore {
				t.Fatalf("group of job %d not sorted by score at %d", cur.JobID, i)
			}
			if prev.MatchScore == cur.MatchScore && prev.DriverID > cur.DriverID {
				t.Fatalf("tie in job %d not kept in driver order at %d", cur.JobID, i)
			}
		}
	}
}

func TestMatchWithoutOracle(t *testing.T) {
	jobs := []domain.Job{{ID: 1, StructuredJob: domain.StructuredJob{PostcodeDelivery: "B77 2NZ"}}}
	drivers := []domain.Driver{{ID: 1, Postcode: "B77 2NZ"}}

	got := New(nil, nil, Options{}).Match(context.Background(), jobs, drivers)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
}

func TestMatchTimesOutSlowLookups(t *testing.T) {
	jobs := []domain.Job{{ID: 1, StructuredJob: domain.StructuredJob{PostcodeDelivery: "B77 2NZ"}}}
	drivers := []domain.Driver{{ID: 1, Postcode: "B77 2NZ"}, {ID: 2, Postcode: "M1 1AA"}}

	core, logs := observer.New(zapcore.DebugLevel)
	got := New(blockingOracle{}, zap.New(core), Options{Timeout: 10 * time.Millisecond}).
		Match(context.Background(), jobs, drivers)

	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %+v", got)
	}
	if logs.FilterMessage("skipping pair without distance").Len() != 2 {
		t.Fatalf("expected skipped pairs to be logged")
	}
	if logs.FilterMessage("eligibility step").Len() != len(eligibility) {
		t.Fatalf("expected every eligibility step to be logged")
	}
}

func TestScores(t *testing.T) {
	t.Parallel()

	priceTests := []struct {
		price  float64
		expect float64
	}{
		{price: -10, expect: 0},
		{price: 0, expect: 0},
		{price: 50, expect: 2.5},
		{price: 100, expect: 5},
		{price: 1000, expect: 5},
	}
	for _, tt := range priceTests {
		if got := PriceScore(tt.price); got != tt.expect {
			t.Fatalf("PriceScore(%v): expected %v, got %v", tt.price, tt.expect, got)
		}
	}

	distanceTests := []struct {
		miles  float64
		expect float64
	}{
		{miles: 0, expect: 5},
		{miles: 25, expect: 2.5},
		{miles: 50, expect: 0},
		{miles: 120, expect: 0},
	}
	for _, tt := range distanceTests {
		if got := DistanceScore(tt.miles); got != tt.expect {
			t.Fatalf("DistanceScore(%v): expected %v, got %v", tt.miles, tt.expect, got)
		}
	}

	if got := Score(33.3, 7.77); got != 5.9 {
		t.Fatalf("expected rounded score 5.9, got %v", got)
	}
}
