package telemetry

import (
	"testing"
	"time"

	"github.com/constantine-labs/backtest/internal/testutils"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCandidateIncrementsByOutcome(t *testing.T) {
	m := NewMetrics()
	m.RecordCandidate("study-1", "scored")
	m.RecordCandidate("study-1", "rules_rejected")
	m.RecordCandidate("study-1", "scored")

	testutils.AssertEqual(t, float64(2), testutil.ToFloat64(m.CandidatesScored.WithLabelValues("study-1", "scored")), "scored count")
	testutils.AssertEqual(t, float64(1), testutil.ToFloat64(m.CandidatesScored.WithLabelValues("study-1", "rules_rejected")), "rejected count")
}

func TestRecordSimulationTracksTradesAndLiquidations(t *testing.T) {
	m := NewMetrics()
	m.RecordSimulation("r1", true, 10*time.Millisecond, 5, 2)
	m.RecordSimulation("r1", false, 5*time.Millisecond, 0, 0)

	testutils.AssertEqual(t, float64(1), testutil.ToFloat64(m.SimulationRuns.WithLabelValues("r1", "ok")), "ok runs")
	testutils.AssertEqual(t, float64(1), testutil.ToFloat64(m.SimulationRuns.WithLabelValues("r1", "error")), "error runs")
	testutils.AssertEqual(t, float64(2), testutil.ToFloat64(m.Liquidations.WithLabelValues("r1")), "liquidations")
}

func TestRecordDispatchCountsFailuresOnly(t *testing.T) {
	m := NewMetrics()
	m.RecordDispatch("local", time.Millisecond, nil)
	m.RecordDispatch("local", time.Millisecond, errTimeout{})

	testutils.AssertEqual(t, float64(1), testutil.ToFloat64(m.DispatchFailures.WithLabelValues("local")), "dispatch failures")
}

type errTimeout struct{}

func (errTimeout) Error() string { return "timeout" }

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordCandidate("s", "scored")
	m.ObserveCandidateScore("s", "sharpe", 1.2)
	m.RecordSimulation("r", true, time.Millisecond, 1, 0)
	m.RecordDispatch("local", time.Millisecond, nil)
	m.SetPoolInFlight("local", 3)
}

func TestServerReadyzReflectsSetReady(t *testing.T) {
	m := NewMetrics()
	s := NewServer(":0", m)
	testutils.AssertNotNil(t, s, "server should be constructed for a non-empty addr")
	testutils.AssertFalse(t, s.readyState.Load(), "starts not ready")
	s.SetReady(true)
	testutils.AssertTrue(t, s.readyState.Load(), "ready after SetReady(true)")
}

func TestNewServerWithEmptyAddrIsNil(t *testing.T) {
	s := NewServer("", NewMetrics())
	testutils.AssertTrue(t, s == nil, "empty addr disables the telemetry server")
}
