package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPrometheusAdapter_SumsSeriesPerTimestamp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query_range" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != `sum(sales_total)` {
			t.Errorf("query = %q", got)
		}
		if got := r.URL.Query().Get("step"); got != "86400" {
			t.Errorf("step = %q, want default 86400", got)
		}
		fmt.Fprint(w, `{
			"status": "success",
			"data": {
				"resultType": "matrix",
				"result": [
					{"metric": {"region": "eu"}, "values": [[1704153600, "5"], [1704067200, "1.5"]]},
					{"metric": {"region": "us"}, "values": [[1704067200, "2.5"]]}
				]
			}
		}`)
	}))
	defer server.Close()

	adapter := &PrometheusAdapter{ServerURL: server.URL, Query: `sum(sales_total)`, Field: "Sales"}
	df, err := adapter.Collect(context.Background(), 2*86400)
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if len(df.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(df.Rows))
	}
	if ts := df.Rows[0][TimestampField].(time.Time); ts.Unix() != 1704067200 {
		t.Errorf("first ts = %v", ts)
	}
	if v := df.Rows[0]["Sales"].(float64); v != 4 {
		t.Errorf("summed value = %v, want 4", v)
	}
	if v := df.Rows[1]["Sales"].(float64); v != 5 {
		t.Errorf("second value = %v, want 5", v)
	}
}

func TestPrometheusAdapter_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusBadGateway, ""},
		{"query error", http.StatusOK, `{"status": "error", "data": {}}`},
		{"bad value", http.StatusOK, `{"status": "success", "data": {"result": [{"values": [[1, "x"]]}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			adapter := &PrometheusAdapter{ServerURL: server.URL, Query: "up"}
			if _, err := adapter.Collect(context.Background(), 600); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := (&PrometheusAdapter{}).Collect(context.Background(), 600); err == nil {
		t.Error("expected error for missing config")
	}
}
