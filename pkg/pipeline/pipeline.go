// Package pipeline runs the forecasting workflow for one series:
//
//	prepare → split → order → fit → validate → refit → forecast → scenarios → budget
//
// Each stage consumes the previous stage's output and never modifies it.
// The first failing stage stops the run; the outputs of the stages that
// completed remain available on the returned Result.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HatiCode/finplan/pkg/budget"
	"github.com/HatiCode/finplan/pkg/models"
	"github.com/HatiCode/finplan/pkg/scenario"
	"github.com/HatiCode/finplan/pkg/series"
	"github.com/HatiCode/finplan/pkg/validation"
)

// Stage names, in execution order.
const (
	StagePrepare     = "prepare"
	StageSplit       = "split"
	StageOrder       = "order"
	StageFit         = "fit"
	StageValidate    = "validate"
	StageRefit       = "refit"
	StageForecast    = "forecast"
	StageScenarios   = "scenarios"
	StageSensitivity = "sensitivity"
	StageBudget      = "budget"
)

// StageError identifies the stage a run failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Observer is notified as a run progresses.
type Observer interface {
	StageDone(stage string, d time.Duration)
	OrderSelected(order models.Order, search *models.SearchResult)
}

// Result holds the output of every stage. Stages that did not run leave
// their fields at the zero value.
type Result struct {
	Prepared     series.Series
	PrepareStats series.PrepareStats
	Train        series.Series
	Test         series.Series

	Order  models.Order
	Search *models.SearchResult // nil when the order was configured

	ValidationModel *models.FittedModel
	TestForecast    models.Forecast
	Metrics         validation.Metrics

	Model    *models.FittedModel
	Forecast models.Forecast

	Scenarios   []scenario.Scenario
	Comparison  []scenario.Comparison
	Summaries   []scenario.Summary
	Sensitivity []scenario.SensitivityResult
	Budget      budget.Plan

	Completed []string
}

// Pipeline executes runs with a fixed configuration. It holds no per-run
// state and may be shared between goroutines.
type Pipeline struct {
	cfg      Config
	logger   *slog.Logger
	observer Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver registers o to receive stage timings and order selection.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// New validates cfg and returns a Pipeline.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Run executes every stage on s. On failure it returns the partial Result
// and a *StageError.
func (p *Pipeline) Run(ctx context.Context, s series.Series) (*Result, error) {
	start := time.Now()
	res := &Result{}
	log := p.logger.With("series", s.Name)

	stages := []struct {
		name string
		run  func(context.Context, series.Series, *Result) error
	}{
		{StagePrepare, p.prepare},
		{StageSplit, p.split},
		{StageOrder, p.selectOrder},
		{StageFit, p.fitTrain},
		{StageValidate, p.validate},
		{StageRefit, p.refit},
		{StageForecast, p.forecast},
		{StageScenarios, p.scenarios},
		{StageSensitivity, p.sensitivity},
		{StageBudget, p.budget},
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return res, &StageError{Stage: st.name, Err: err}
		}

		stageStart := time.Now()
		if err := st.run(ctx, s, res); err != nil {
			log.Error("pipeline stage failed", "stage", st.name, "error", err)
			return res, &StageError{Stage: st.name, Err: err}
		}
		d := time.Since(stageStart)
		res.Completed = append(res.Completed, st.name)

		if p.observer != nil {
			p.observer.StageDone(st.name, d)
		}
		log.Debug("pipeline stage complete", "stage", st.name, "duration_ms", d.Milliseconds())
	}

	log.Info("pipeline run complete",
		"order", res.Order.String(),
		"observations", res.Prepared.Len(),
		"horizon", p.cfg.Horizon,
		"accuracy", res.Metrics.Accuracy,
		"forecast_total", res.Forecast.Total(),
		"total_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Pipeline) prepare(_ context.Context, s series.Series, res *Result) error {
	prepared, stats, err := series.Prepare(s, series.PrepareOptions{OutlierMultiplier: p.cfg.OutlierMultiplier})
	if err != nil {
		return err
	}
	res.Prepared, res.PrepareStats = prepared, stats

	p.logger.Debug("prepared series",
		"series", s.Name,
		"observations", prepared.Len(),
		"filled", stats.Filled,
		"dropped", stats.Dropped,
		"clipped", stats.Clipped,
	)
	return nil
}

func (p *Pipeline) split(_ context.Context, _ series.Series, res *Result) error {
	train, test, err := series.Split(res.Prepared, p.cfg.TestFraction)
	if err != nil {
		return err
	}
	res.Train, res.Test = train, test
	return nil
}

func (p *Pipeline) selectOrder(ctx context.Context, _ series.Series, res *Result) error {
	if p.cfg.Order != nil {
		res.Order = *p.cfg.Order
		if p.observer != nil {
			p.observer.OrderSelected(res.Order, nil)
		}
		return nil
	}

	search, err := models.AutoOrder(ctx, res.Train.Values, p.cfg.Search)
	if err != nil {
		return err
	}
	res.Order = search.Best
	res.Search = &search
	res.ValidationModel = search.Model

	p.logger.Info("selected model order",
		"series", res.Prepared.Name,
		"order", search.Best.String(),
		"aic", search.AIC,
		"evaluated", search.Evaluated,
		"failed", search.Failed,
	)
	if p.observer != nil {
		p.observer.OrderSelected(res.Order, res.Search)
	}
	return nil
}

func (p *Pipeline) fitTrain(_ context.Context, _ series.Series, res *Result) error {
	if res.ValidationModel != nil {
		return nil
	}
	model, err := models.Fit(res.Train.Values, res.Order)
	if err != nil {
		return err
	}
	res.ValidationModel = model
	return nil
}

func (p *Pipeline) validate(_ context.Context, _ series.Series, res *Result) error {
	fc, err := res.ValidationModel.Forecast(res.Test.Len(), p.cfg.Confidence)
	if err != nil {
		return err
	}
	res.TestForecast = fc

	metrics, err := validation.Compute(res.Test.Values, fc.Means())
	if err != nil {
		return err
	}
	res.Metrics = metrics

	if metrics.SkippedZeroActuals > 0 {
		p.logger.Warn("zero actuals excluded from MAPE",
			"series", res.Prepared.Name,
			"skipped", metrics.SkippedZeroActuals,
		)
	}
	return nil
}

func (p *Pipeline) refit(_ context.Context, _ series.Series, res *Result) error {
	model, err := models.Fit(res.Prepared.Values, res.Order)
	if err != nil {
		return err
	}
	res.Model = model
	return nil
}

func (p *Pipeline) forecast(_ context.Context, _ series.Series, res *Result) error {
	fc, err := res.Model.Forecast(p.cfg.Horizon, p.cfg.Confidence)
	if err != nil {
		return err
	}
	res.Forecast = fc
	return nil
}

func (p *Pipeline) scenarios(_ context.Context, _ series.Series, res *Result) error {
	values := res.Forecast.Means()

	base, err := scenario.Base(values)
	if err != nil {
		return err
	}
	optimistic, err := scenario.Optimistic(values, p.cfg.GrowthRate)
	if err != nil {
		return err
	}
	pessimistic, err := scenario.Pessimistic(values, p.cfg.DeclineRate)
	if err != nil {
		return err
	}
	all := []scenario.Scenario{base, optimistic, pessimistic}

	for _, cs := range p.cfg.Custom {
		sc, err := scenario.Custom(values, cs.Multiplier, cs.Name)
		if err != nil {
			return err
		}
		all = append(all, sc)
	}

	comparison, err := scenario.Compare(all)
	if err != nil {
		return err
	}
	summaries, err := scenario.Summarize(all)
	if err != nil {
		return err
	}

	res.Scenarios, res.Comparison, res.Summaries = all, comparison, summaries
	return nil
}

func (p *Pipeline) sensitivity(_ context.Context, _ series.Series, res *Result) error {
	if len(p.cfg.Factors) == 0 {
		return nil
	}
	out, err := scenario.Sensitivity(res.Forecast.Means(), p.cfg.Factors)
	if err != nil {
		return err
	}
	res.Sensitivity = out
	return nil
}

func (p *Pipeline) budget(_ context.Context, _ series.Series, res *Result) error {
	var opts []budget.Option
	if p.cfg.RoundingUnit > 0 {
		opts = append(opts, budget.WithRounding(p.cfg.RoundingUnit, p.cfg.RoundingMode))
	}
	plan, err := budget.Allocate(res.Forecast.Total(), p.cfg.Horizon, p.cfg.Shares, opts...)
	if err != nil {
		return err
	}
	res.Budget = plan
	return nil
}
