package adapters

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// New creates an adapter based on kind and generic configuration map.
// This is the central extension point for adding new adapter types.
//
// Supported kinds:
//   - "prometheus": Prometheus adapter
//   - "http": Generic HTTP adapter
//   - "csv": CSV file adapter
//   - "synthetic": seeded synthetic generator
//
// Returns error if kind is unknown or required fields are missing.
func New(kind string, config map[string]string, stepSeconds int) (Adapter, error) {
	switch kind {
	case "prometheus":
		return newPrometheus(config, stepSeconds)
	case "http":
		return newHTTP(config, stepSeconds)
	case "csv":
		return newCSV(config)
	case "synthetic":
		return newSynthetic(config)
	default:
		return nil, fmt.Errorf("unknown adapter kind: %s (must be prometheus, http, csv, or synthetic)", kind)
	}
}

// newPrometheus creates a Prometheus adapter from generic config.
func newPrometheus(config map[string]string, stepSeconds int) (Adapter, error) {
	query := config["query"]
	if query == "" {
		return nil, fmt.Errorf("prometheus adapter requires 'query' config")
	}

	url := config["url"]
	if url == "" {
		url = "http://localhost:9090"
	}

	return &PrometheusAdapter{
		ServerURL:   url,
		Query:       query,
		Field:       config["field"],
		StepSeconds: stepSeconds,
	}, nil
}

// newHTTP creates a generic HTTP adapter from generic config.
func newHTTP(config map[string]string, stepSeconds int) (Adapter, error) {
	url := config["url"]
	if url == "" {
		return nil, fmt.Errorf("http adapter requires 'url' config")
	}

	valuePath := config["valuePath"]
	timestampPath := config["timestampPath"]
	if valuePath == "" || timestampPath == "" {
		return nil, fmt.Errorf("http adapter requires 'valuePath' and 'timestampPath' config")
	}

	method := config["method"]
	if method == "" {
		method = "GET"
	}

	timestampFormat := config["timestampFormat"]
	if timestampFormat == "" {
		timestampFormat = "rfc3339"
	}

	var headers map[string]string
	if headersJSON := config["headers"]; headersJSON != "" {
		if err := json.Unmarshal([]byte(headersJSON), &headers); err != nil {
			return nil, fmt.Errorf("invalid 'headers' JSON: %w", err)
		}
	}

	var templateVars map[string]string
	if varsJSON := config["templateVars"]; varsJSON != "" {
		if err := json.Unmarshal([]byte(varsJSON), &templateVars); err != nil {
			return nil, fmt.Errorf("invalid 'templateVars' JSON: %w", err)
		}
	}

	var fields map[string]string
	if fieldsJSON := config["fields"]; fieldsJSON != "" {
		if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
			return nil, fmt.Errorf("invalid 'fields' JSON: %w", err)
		}
	}

	a := &HTTPAdapter{
		URL:             url,
		Method:          method,
		Headers:         headers,
		Body:            config["body"],
		Field:           config["field"],
		ValuePath:       valuePath,
		TimestampPath:   timestampPath,
		Fields:          fields,
		TimestampFormat: timestampFormat,
		StepSeconds:     stepSeconds,
		TemplateVars:    templateVars,
	}
	if err := a.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("http adapter: %w", err)
	}
	return a, nil
}

// newCSV creates a CSV adapter from generic config.
func newCSV(config map[string]string) (Adapter, error) {
	path := config["path"]
	if path == "" {
		return nil, fmt.Errorf("csv adapter requires 'path' config")
	}
	return &CSVAdapter{
		Path:            path,
		TimestampColumn: config["timestampColumn"],
		Layout:          config["layout"],
	}, nil
}

// newSynthetic creates a synthetic generator from generic config.
func newSynthetic(config map[string]string) (Adapter, error) {
	a := &SyntheticAdapter{Seed: DefaultSyntheticSeed, Periods: DefaultSyntheticPeriods}

	if v := config["periods"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("synthetic adapter: invalid 'periods' %q", v)
		}
		a.Periods = n
	}
	if v := config["seed"]; v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("synthetic adapter: invalid 'seed': %w", err)
		}
		a.Seed = seed
	}
	if v := config["start"]; v != "" {
		start, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return nil, fmt.Errorf("synthetic adapter: invalid 'start': %w", err)
		}
		a.Start = start
	}
	return a, nil
}
