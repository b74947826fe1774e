package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Extraction("oracle")
	m.Extraction("fallback")
	m.Extraction("fallback")
	m.DistanceLookup("ok", 10*time.Millisecond)
	m.Candidates(3)
	m.Candidates(0)

	if got := testutil.ToFloat64(m.extractions.WithLabelValues("fallback")); got != 2 {
		t.Fatalf("expected 2 fallback extractions, got %v", got)
	}
	if got := testutil.ToFloat64(m.distanceLookups.WithLabelValues("ok")); got != 1 {
		t.Fatalf("expected 1 distance lookup, got %v", got)
	}
	if got := testutil.ToFloat64(m.candidates); got != 3 {
		t.Fatalf("expected 3 candidates, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Extraction("oracle")
	m.OracleFailure("parse")
	m.DistanceLookup("error", time.Second)
	m.Candidates(1)
	m.HTTPRequest("/health", "200", time.Millisecond)
}
