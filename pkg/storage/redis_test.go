//go:build integration

package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/HatiCode/finplan/pkg/budget"
	"github.com/HatiCode/finplan/pkg/scenario"
	"github.com/HatiCode/finplan/pkg/validation"
)

// setupRedisContainer starts a Redis container and returns its host:port.
func setupRedisContainer(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	redisContainer, err := redis.Run(ctx,
		"redis:7-alpine",
		redis.WithSnapshotting(10, 1),
		redis.WithLogLevel(redis.LogLevelVerbose),
	)
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	return strings.TrimPrefix(endpoint, "redis://")
}

func newTestRedisStore(t *testing.T, ttl time.Duration) *RedisStore {
	t.Helper()

	store, err := NewRedisStore(setupRedisContainer(t), "", 0, ttl)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRedisStore_NewRedisStore_Success(t *testing.T) {
	store := newTestRedisStore(t, time.Minute)

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestRedisStore_NewRedisStore_InvalidArgs(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		db      int
		wantMsg string
	}{
		{"empty addr", "", 0, "redis address cannot be empty"},
		{"negative db", "localhost:6379", -1, "redis database number must be >= 0"},
		{"unreachable", "invalid:99999", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRedisStore(tt.addr, "", tt.db, time.Minute)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Errorf("unexpected error message: %v", err)
			}
		})
	}
}

func TestRedisStore_Put_Success(t *testing.T) {
	store := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	if err := store.Put(ctx, testSnapshot("sales", time.Now(), 100, 105)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	exists, err := store.client.Exists(ctx, "finplan:report:sales").Result()
	if err != nil {
		t.Fatalf("failed to check key existence: %v", err)
	}
	if exists != 1 {
		t.Error("expected key to exist in Redis")
	}

	ttl, err := store.client.TTL(ctx, "finplan:report:sales").Result()
	if err != nil {
		t.Fatalf("failed to read key TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("key TTL = %v, want within (0, 1m]", ttl)
	}
}

func TestRedisStore_Put_InvalidSeriesName(t *testing.T) {
	store := newTestRedisStore(t, time.Minute)

	err := store.Put(context.Background(), testSnapshot("", time.Now()))
	if err == nil || err.Error() != "series name required" {
		t.Errorf("Put(empty) error = %v", err)
	}
	if err := store.Put(context.Background(), testSnapshot("a/b", time.Now())); err == nil {
		t.Error("expected error for invalid series name, got nil")
	}
	if _, _, err := store.GetLatest(context.Background(), ""); err == nil {
		t.Error("expected error for empty series on GetLatest, got nil")
	}
}

func TestRedisStore_GetLatest_NotFound(t *testing.T) {
	store := newTestRedisStore(t, time.Minute)

	_, found, err := store.GetLatest(context.Background(), "nonexistent")
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if found {
		t.Error("expected report not to be found")
	}
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	store := newTestRedisStore(t, 2*time.Second)
	ctx := context.Background()

	if err := store.Put(ctx, testSnapshot("sales", time.Now(), 1)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, found, _ := store.GetLatest(ctx, "sales"); !found {
		t.Fatal("expected report to be found immediately after Put")
	}

	time.Sleep(3 * time.Second)

	_, found, err := store.GetLatest(ctx, "sales")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if found {
		t.Error("expected report to be expired")
	}
}

func TestRedisStore_Concurrency_ReadWrite(t *testing.T) {
	store := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := range 10 {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			name := fmt.Sprintf("series-%d", g%3)
			for i := range 20 {
				if err := store.Put(ctx, testSnapshot(name, time.Now(), float64(i))); err != nil {
					t.Errorf("Put failed: %v", err)
					return
				}
				if _, _, err := store.GetLatest(ctx, name); err != nil {
					t.Errorf("GetLatest failed: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	for g := range 3 {
		if _, found, _ := store.GetLatest(ctx, fmt.Sprintf("series-%d", g)); !found {
			t.Errorf("series-%d not found", g)
		}
	}
}

func TestRedisStore_Serialization_RoundTrip(t *testing.T) {
	store := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	original := testSnapshot("Revenue", time.Now().Truncate(time.Second), 1.1, 2.2, 3.3)
	original.Dates = []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	original.Metrics = validation.Metrics{MAE: 1.5, RMSE: 2, MAPE: 4.2, Accuracy: 95.8, N: 24}
	original.Comparison = []scenario.Comparison{{Name: scenario.BaseName, Min: 1.1, Mean: 2.2, Max: 3.3, Total: 6.6}}
	original.Budget = budget.Plan{
		Total:       6.6,
		Periods:     3,
		Allocations: []budget.Allocation{{Category: "Operations", Percent: 100, Amount: 6.6, PerPeriod: 2.2}},
	}

	if err := store.Put(ctx, original); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, found, err := store.GetLatest(ctx, "Revenue")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if !found {
		t.Fatal("expected report to be found")
	}

	if got.Series != original.Series || got.Field != original.Field {
		t.Errorf("identity mismatch: got %s/%s", got.Series, got.Field)
	}
	if !got.GeneratedAt.Equal(original.GeneratedAt) {
		t.Errorf("generated_at mismatch: got %v, want %v", got.GeneratedAt, original.GeneratedAt)
	}
	if got.Order != original.Order {
		t.Errorf("order mismatch: got %v, want %v", got.Order, original.Order)
	}
	if got.Metrics != original.Metrics {
		t.Errorf("metrics mismatch: got %+v, want %+v", got.Metrics, original.Metrics)
	}
	if len(got.Forecast.Points) != len(original.Forecast.Points) {
		t.Fatalf("points length mismatch: got %d, want %d", len(got.Forecast.Points), len(original.Forecast.Points))
	}
	for i, p := range original.Forecast.Points {
		if got.Forecast.Points[i] != p {
			t.Errorf("points[%d] mismatch: got %+v, want %+v", i, got.Forecast.Points[i], p)
		}
	}
	for i, d := range original.Dates {
		if !got.Dates[i].Equal(d) {
			t.Errorf("dates[%d] mismatch: got %v, want %v", i, got.Dates[i], d)
		}
	}
	if len(got.Comparison) != 1 || got.Comparison[0] != original.Comparison[0] {
		t.Errorf("comparison mismatch: got %+v", got.Comparison)
	}
	if len(got.Budget.Allocations) != 1 || got.Budget.Allocations[0] != original.Budget.Allocations[0] {
		t.Errorf("budget mismatch: got %+v", got.Budget)
	}
}

func TestRedisStore_Close_Idempotent(t *testing.T) {
	store, err := NewRedisStore(setupRedisContainer(t), "", 0, time.Minute)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	for i := range 3 {
		if err := store.Close(); err != nil {
			t.Errorf("Close #%d failed: %v", i+1, err)
		}
	}
}
