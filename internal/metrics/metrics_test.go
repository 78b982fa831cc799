package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Snapshot("feedback", "applied")
	m.Snapshot("feedback", "applied")
	m.Snapshot("feedback", "stale")
	m.FormWrite("prayer", nil)
	m.FormWrite("prayer", errors.New("boom"))
	m.SetActiveClients(3)

	if got := testutil.ToFloat64(m.Snapshots.WithLabelValues("feedback", "applied")); got != 2 {
		t.Errorf("applied = %v", got)
	}
	if got := testutil.ToFloat64(m.FormWrites.WithLabelValues("prayer", "error")); got != 1 {
		t.Errorf("errors = %v", got)
	}
	if got := testutil.ToFloat64(m.ActiveClients); got != 3 {
		t.Errorf("active = %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Snapshot("k", "applied")
	m.FormWrite("f", nil)
	m.SetActiveClients(1)
	m.ObserveRequest("GET", "/", "200", 0.1)
}
