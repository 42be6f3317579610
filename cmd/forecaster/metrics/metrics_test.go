package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/HatiCode/finplan/pkg/models"
	"github.com/HatiCode/finplan/pkg/pipeline"
	"github.com/HatiCode/finplan/pkg/validation"
)

var _ pipeline.Observer = (*Metrics)(nil)

func TestNew_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "sales")

	m.RecordError("adapter", "collect_failed")
	m.StageDone(pipeline.StageFit, 10*time.Millisecond)

	if got := testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("adapter", "collect_failed")); got != 1 {
		t.Errorf("errors_total = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.StageSeconds); n != 1 {
		t.Errorf("stage histogram has %d series, want 1", n)
	}

	// Each registry gets its own collectors.
	New(prometheus.NewRegistry(), "sales")
}

func TestOrderSelected(t *testing.T) {
	m := New(prometheus.NewRegistry(), "sales")

	m.OrderSelected(models.Order{P: 2, D: 1, Q: 3}, &models.SearchResult{Evaluated: 10, Failed: 4})

	for term, want := range map[string]float64{"p": 2, "d": 1, "q": 3} {
		if got := testutil.ToFloat64(m.ModelOrder.WithLabelValues(term)); got != want {
			t.Errorf("order %s = %v, want %v", term, got, want)
		}
	}
	if got := testutil.ToFloat64(m.ModelsEvaluated.WithLabelValues("ok")); got != 6 {
		t.Errorf("evaluated ok = %v, want 6", got)
	}
	if got := testutil.ToFloat64(m.ModelsEvaluated.WithLabelValues("failed")); got != 4 {
		t.Errorf("evaluated failed = %v, want 4", got)
	}

	m.OrderSelected(models.Order{P: 1}, nil)
	if got := testutil.ToFloat64(m.ModelOrder.WithLabelValues("p")); got != 1 {
		t.Errorf("order p = %v after configured order, want 1", got)
	}
}

func TestRecordReport(t *testing.T) {
	m := New(prometheus.NewRegistry(), "sales")
	at := time.Unix(1700000000, 0)

	m.RecordReport(1234.5, validation.Metrics{Accuracy: 91, MAPE: 9, RMSE: 12}, at)

	checks := []struct {
		name string
		g    prometheus.Gauge
		want float64
	}{
		{"forecast total", m.ForecastTotal, 1234.5},
		{"accuracy", m.Accuracy, 91},
		{"mape", m.MAPE, 9},
		{"rmse", m.RMSE, 12},
		{"last success", m.LastSuccess, 1700000000},
	}
	for _, c := range checks {
		if got := testutil.ToFloat64(c.g); got != c.want {
			t.Errorf("%s = %v, want %v", c.name, got, c.want)
		}
	}
}
