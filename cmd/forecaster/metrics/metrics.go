// Package metrics provides Prometheus instrumentation for the forecaster.
//
// Metrics exposed:
//   - finplan_adapter_collect_seconds: Histogram of data collection duration
//   - finplan_pipeline_stage_seconds: Histogram of pipeline stage duration, by stage
//   - finplan_forecast_total: Gauge of the sum of the forecast means
//   - finplan_validation_accuracy_percent / _mape_percent / _rmse: Gauges of the last validation
//   - finplan_model_order: Gauge of the selected ARIMA order, by term (p, d, q)
//   - finplan_models_evaluated_total: Counter of candidate fits, by result
//   - finplan_last_success_timestamp_seconds: Gauge of the last stored report
//   - finplan_cache_hits_total: Counter of runs skipped because the data did not change
//   - finplan_errors_total: Counter of errors by component and reason
//
// All metrics carry the series label.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/HatiCode/finplan/pkg/models"
	"github.com/HatiCode/finplan/pkg/validation"
)

// Metrics holds all Prometheus metrics for the forecaster.
type Metrics struct {
	AdapterCollectSeconds prometheus.Histogram
	StageSeconds          *prometheus.HistogramVec
	ForecastTotal         prometheus.Gauge
	Accuracy              prometheus.Gauge
	MAPE                  prometheus.Gauge
	RMSE                  prometheus.Gauge
	ModelOrder            *prometheus.GaugeVec
	ModelsEvaluated       *prometheus.CounterVec
	LastSuccess           prometheus.Gauge
	CacheHits             prometheus.Counter
	ErrorsTotal           *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer, series string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	labels := prometheus.Labels{"series": series}

	return &Metrics{
		AdapterCollectSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "finplan_adapter_collect_seconds",
			Help:        "Time spent collecting observations from the adapter",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),

		// Order search dominates; fits on long series take seconds.
		StageSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "finplan_pipeline_stage_seconds",
			Help:        "Time spent in each pipeline stage",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"stage"}),

		ForecastTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "finplan_forecast_total",
			Help:        "Sum of the forecast means over the horizon",
			ConstLabels: labels,
		}),

		Accuracy: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "finplan_validation_accuracy_percent",
			Help:        "Accuracy (100 - MAPE, floored at 0) on the held-out test set",
			ConstLabels: labels,
		}),

		MAPE: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "finplan_validation_mape_percent",
			Help:        "Mean absolute percentage error on the held-out test set",
			ConstLabels: labels,
		}),

		RMSE: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "finplan_validation_rmse",
			Help:        "Root mean squared error on the held-out test set",
			ConstLabels: labels,
		}),

		ModelOrder: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "finplan_model_order",
			Help:        "Selected ARIMA order by term",
			ConstLabels: labels,
		}, []string{"term"}),

		ModelsEvaluated: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "finplan_models_evaluated_total",
			Help:        "Candidate orders fitted during order search, by result",
			ConstLabels: labels,
		}, []string{"result"}),

		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "finplan_last_success_timestamp_seconds",
			Help:        "Unix time of the last stored report",
			ConstLabels: labels,
		}),

		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name:        "finplan_cache_hits_total",
			Help:        "Runs served from the result cache because the data did not change",
			ConstLabels: labels,
		}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "finplan_errors_total",
			Help:        "Total number of errors by component and reason",
			ConstLabels: labels,
		}, []string{"component", "reason"}),
	}
}

// StageDone implements pipeline.Observer.
func (m *Metrics) StageDone(stage string, d time.Duration) {
	m.StageSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

// OrderSelected implements pipeline.Observer. search is nil when the order
// was configured.
func (m *Metrics) OrderSelected(order models.Order, search *models.SearchResult) {
	m.ModelOrder.WithLabelValues("p").Set(float64(order.P))
	m.ModelOrder.WithLabelValues("d").Set(float64(order.D))
	m.ModelOrder.WithLabelValues("q").Set(float64(order.Q))

	if search != nil {
		m.ModelsEvaluated.WithLabelValues("ok").Add(float64(search.Evaluated - search.Failed))
		m.ModelsEvaluated.WithLabelValues("failed").Add(float64(search.Failed))
	}
}

// RecordCollect records the time spent collecting observations.
func (m *Metrics) RecordCollect(seconds float64) {
	m.AdapterCollectSeconds.Observe(seconds)
}

// RecordReport sets the gauges describing a stored report.
func (m *Metrics) RecordReport(total float64, v validation.Metrics, at time.Time) {
	m.ForecastTotal.Set(total)
	m.Accuracy.Set(v.Accuracy)
	m.MAPE.Set(v.MAPE)
	m.RMSE.Set(v.RMSE)
	m.LastSuccess.Set(float64(at.Unix()))
}

// RecordCacheHit counts a run skipped because the data did not change.
func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, reason string) {
	m.ErrorsTotal.WithLabelValues(component, reason).Inc()
}
