package adapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/tidwall/gjson"
)

// HTTPAdapter calls a REST endpoint and extracts a series from its JSON
// response using gjson path expressions.
//
// It supports:
//   - Configurable HTTP method (GET, POST, etc.)
//   - Template-based request body with variables: {{.WindowSeconds}}, {{.Start}}, {{.End}}, {{.Step}}
//   - Custom headers including authentication (Bearer tokens, API keys, etc.)
//   - Additional named columns through Fields
//   - Flexible timestamp parsing (RFC3339, date-only, Unix seconds, Unix milliseconds)
//
// Example configuration for a ledger API:
//
//	adapter := &HTTPAdapter{
//	    URL: "https://ledger.example.com/daily",
//	    Headers: map[string]string{"Authorization": "Bearer {{.Token}}"},
//	    Field: "Sales",
//	    ValuePath: "days.#.sales",
//	    TimestampPath: "days.#.date",
//	    TimestampFormat: "date",
//	    Fields: map[string]string{"Cost": "days.#.cost"},
//	}
type HTTPAdapter struct {
	// URL is the endpoint to call (required)
	URL string

	// Method is the HTTP method (GET, POST, etc.). Defaults to GET if empty.
	Method string

	// Headers are custom HTTP headers to include in the request.
	// Values can use template variables like {{.Token}}.
	Headers map[string]string

	// Body is the request body template (for POST/PUT). Supports variables:
	//   {{.WindowSeconds}} - the collection window in seconds
	//   {{.Start}}         - start time as Unix timestamp
	//   {{.End}}           - end time as Unix timestamp
	//   {{.Step}}          - step size in seconds
	//   {{.StartRFC3339}}  - start time as RFC3339 string
	//   {{.EndRFC3339}}    - end time as RFC3339 string
	Body string

	// Field names the column ValuePath is stored under (defaults to "value").
	Field string

	// ValuePath is the gjson path to extract values from the response.
	// Use "#" for arrays, e.g. "data.#.value". JSON nulls become missing values.
	ValuePath string

	// TimestampPath is the gjson path to extract timestamps from the response.
	// Must return the same number of elements as ValuePath.
	TimestampPath string

	// Fields maps extra column names to gjson paths of the same length.
	Fields map[string]string

	// TimestampFormat specifies how to parse timestamps:
	//   "rfc3339"    - RFC3339 strings (default)
	//   "date"       - 2006-01-02 dates
	//   "unix"       - Unix seconds (float or int)
	//   "unix_milli" - Unix milliseconds (float or int)
	TimestampFormat string

	// StepSeconds is passed to templates (defaults to one day if <= 0).
	StepSeconds int

	// HTTPClient is optional; if nil a default client with timeout is used.
	HTTPClient *http.Client

	// TemplateVars are custom variables available in Body and Headers templates.
	TemplateVars map[string]string
}

func (h *HTTPAdapter) Name() string { return "http" }

// Collect implements Adapter. Rows are sorted by timestamp.
func (h *HTTPAdapter) Collect(ctx context.Context, windowSeconds int) (*DataFrame, error) {
	if err := h.ValidateConfig(); err != nil {
		return &DataFrame{}, fmt.Errorf("http adapter: %w", err)
	}

	step := h.StepSeconds
	if step <= 0 {
		step = int((24 * time.Hour).Seconds())
	}
	field := h.Field
	if field == "" {
		field = DefaultField
	}

	now := time.Now().UTC().Truncate(time.Second)
	start := now.Add(-time.Duration(windowSeconds) * time.Second)

	templateData := map[string]any{
		"WindowSeconds": windowSeconds,
		"Start":         start.Unix(),
		"End":           now.Unix(),
		"Step":          step,
		"StartRFC3339":  start.Format(time.RFC3339),
		"EndRFC3339":    now.Format(time.RFC3339),
	}
	for k, v := range h.TemplateVars {
		templateData[k] = v
	}

	method := h.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if h.Body != "" {
		renderedBody, err := renderTemplate(h.Body, templateData)
		if err != nil {
			return &DataFrame{}, fmt.Errorf("render body template: %w", err)
		}
		bodyReader = bytes.NewBufferString(renderedBody)
	}

	cli := h.HTTPClient
	if cli == nil {
		cli = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, method, h.URL, bodyReader)
	if err != nil {
		return &DataFrame{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	for key, value := range h.Headers {
		rendered, err := renderTemplate(value, templateData)
		if err != nil {
			return &DataFrame{}, fmt.Errorf("render header %s: %w", key, err)
		}
		req.Header.Set(key, rendered)
	}

	resp, err := cli.Do(req)
	if err != nil {
		return &DataFrame{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &DataFrame{}, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &DataFrame{}, fmt.Errorf("read response: %w", err)
	}

	timestamps := gjson.GetBytes(respBody, h.TimestampPath)
	if !timestamps.Exists() {
		return &DataFrame{}, fmt.Errorf("timestamp path %q not found in response", h.TimestampPath)
	}
	tsArray := timestamps.Array()

	columns := map[string]string{field: h.ValuePath}
	for name, path := range h.Fields {
		columns[name] = path
	}

	rows := make([]Row, len(tsArray))
	for i := range tsArray {
		ts, err := h.parseTimestamp(tsArray[i])
		if err != nil {
			return &DataFrame{}, fmt.Errorf("parse timestamp[%d]: %w", i, err)
		}
		rows[i] = Row{TimestampField: ts}
	}

	for name, path := range columns {
		values := gjson.GetBytes(respBody, path)
		if !values.Exists() {
			return &DataFrame{}, fmt.Errorf("path %q for %s not found in response", path, name)
		}
		valArray := values.Array()
		if len(valArray) != len(tsArray) {
			return &DataFrame{}, fmt.Errorf("%s count (%d) != timestamp count (%d)", name, len(valArray), len(tsArray))
		}
		for i, v := range valArray {
			if v.Type == gjson.Null {
				rows[i][name] = math.NaN()
				continue
			}
			rows[i][name] = v.Float()
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i][TimestampField].(time.Time).Before(rows[j][TimestampField].(time.Time))
	})

	return &DataFrame{Rows: rows}, nil
}

// parseTimestamp parses a timestamp according to the configured format
func (h *HTTPAdapter) parseTimestamp(value gjson.Result) (time.Time, error) {
	format := h.TimestampFormat
	if format == "" {
		format = "rfc3339"
	}

	switch format {
	case "rfc3339":
		return time.Parse(time.RFC3339, value.String())

	case "date":
		return time.Parse(time.DateOnly, value.String())

	case "unix":
		sec := value.Float()
		return time.Unix(int64(sec), 0).UTC(), nil

	case "unix_milli":
		ms := value.Float()
		return time.UnixMilli(int64(ms)).UTC(), nil

	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp format: %s", format)
	}
}

// renderTemplate renders a text template with the given data
func renderTemplate(tmplStr string, data map[string]any) (string, error) {
	if !strings.Contains(tmplStr, "{{") {
		return tmplStr, nil
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// ValidateConfig checks if the adapter configuration is valid
func (h *HTTPAdapter) ValidateConfig() error {
	if h.URL == "" {
		return errors.New("url is required")
	}
	if h.ValuePath == "" {
		return errors.New("valuePath is required")
	}
	if h.TimestampPath == "" {
		return errors.New("timestampPath is required")
	}

	switch h.TimestampFormat {
	case "", "rfc3339", "date", "unix", "unix_milli":
	default:
		return fmt.Errorf("invalid timestampFormat: %s (must be rfc3339, date, unix, or unix_milli)", h.TimestampFormat)
	}

	return nil
}
