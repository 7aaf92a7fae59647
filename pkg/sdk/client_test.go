package obsoper

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func newMemoryClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(context.Background(), append([]Option{WithMemory()}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func meshgrid(lons, lats []float64) (glons, glats [][]float64) {
	for _, lon := range lons {
		row, rowLats := make([]float64, len(lats)), make([]float64, len(lats))
		for j, lat := range lats {
			row[j], rowLats[j] = lon, lat
		}
		glons = append(glons, row)
		glats = append(glats, rowLats)
	}
	return glons, glats
}

func TestNew_NoStorage(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error without storage")
	}
}

func TestNew_EmptyRedisAddress(t *testing.T) {
	_, err := New(context.Background(), WithRedis("", ""))
	if err == nil {
		t.Fatal("expected error for empty redis address")
	}
}

func TestNew_UnknownCellTest(t *testing.T) {
	_, err := New(context.Background(), WithMemory(), WithCellTest("hexagon"))
	if err == nil || !strings.Contains(err.Error(), "hexagon") {
		t.Fatalf("expected unknown cell test error, got %v", err)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}
	for _, o := range []Option{
		WithRedis("localhost:6379", "secret"),
		WithKeyPrefix("test:"),
		WithSearchCacheSize(4),
		WithWorkers(2),
		WithNeighbours(16),
		WithCellTest("unit_square"),
	} {
		o.apply(cfg)
	}

	if cfg.driver != "redis" || !reflect.DeepEqual(cfg.addrs, []string{"localhost:6379"}) || cfg.password != "secret" {
		t.Errorf("unexpected storage options: %+v", cfg)
	}
	if cfg.keyPrefix != "test:" || cfg.cacheSize != 4 || cfg.workers != 2 || cfg.neighbours != 16 {
		t.Errorf("unexpected tuning options: %+v", cfg)
	}
	if cfg.cell != "unit_square" {
		t.Errorf("expected unit_square, got %q", cfg.cell)
	}

	WithMemory().apply(cfg)
	if cfg.driver != "memory" || cfg.addrs != nil {
		t.Errorf("WithMemory should replace redis: %+v", cfg)
	}
}

func TestClient_Close_NilStore(t *testing.T) {
	c := &Client{}
	c.Close()
}

func TestGrids_Lifecycle(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()
	lons, lats := meshgrid([]float64{0, 1, 2}, []float64{0, 1})

	info, err := c.Grids().Create(ctx, "shelf", lons, lats)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if info.Layout != LayoutRegional || info.Ni != 3 || info.Nj != 2 || info.Fingerprint == 0 {
		t.Errorf("unexpected info: %+v", info)
	}

	if _, err := c.Grids().Create(ctx, "shelf", lons, lats); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := c.Grids().Get(ctx, "shelf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != info {
		t.Errorf("Get = %+v, want %+v", got, info)
	}

	list, err := c.Grids().List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}

	if err := c.Grids().Delete(ctx, "shelf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Grids().Get(ctx, "shelf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGrids_CreateInvalid(t *testing.T) {
	c := newMemoryClient(t)
	lons, lats := meshgrid([]float64{0, 1}, []float64{0, 1})

	_, err := c.Grids().Create(context.Background(), "shelf", lons, lats, WithHalo())
	if !errors.Is(err, ErrInvalidModel) {
		t.Errorf("expected ErrInvalidModel for halo on a regional grid, got %v", err)
	}
}

func TestClient_LowerLeftWithHalo(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()
	lons, lats := meshgrid([]float64{-1, 0, 1, 2, 3}, []float64{0, 1, 2, 3})
	if _, err := c.Grids().Create(ctx, "orca", lons, lats, WithLayout(LayoutTripolar), WithHalo()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	i, j, err := c.LowerLeft(ctx, "orca", []float64{0.5}, []float64{0.5})
	if err != nil {
		t.Fatalf("LowerLeft: %v", err)
	}
	if !reflect.DeepEqual(i, []int{1}) || !reflect.DeepEqual(j, []int{0}) {
		t.Errorf("got i=%v j=%v, want [1] [0]", i, j)
	}
}

func TestClient_Interpolate(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()
	lons, lats := meshgrid([]float64{0, 1}, []float64{0, 1})
	if _, err := c.Grids().Create(ctx, "shelf", lons, lats); err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := c.Interpolate(ctx, "shelf", []float64{0.5, 4}, []float64{0.5, 4},
		Field{Shape: []int{2, 2}, Values: []float64{1, 2, 3, 4}})
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	if !reflect.DeepEqual(res.Included, []bool{true, false}) {
		t.Errorf("unexpected included: %v", res.Included)
	}
	if !reflect.DeepEqual(res.Values.Shape, []int{2}) {
		t.Errorf("unexpected shape: %v", res.Values.Shape)
	}
	if math.Abs(res.Values.Values[0]-2.5) > 1e-9 {
		t.Errorf("expected 2.5, got %v", res.Values.Values[0])
	}
	if len(res.Values.Mask) != 2 || res.Values.Mask[0] || !res.Values.Mask[1] {
		t.Errorf("unexpected mask: %v", res.Values.Mask)
	}
}

func TestClient_InterpolateBadField(t *testing.T) {
	c := newMemoryClient(t)

	_, err := c.Interpolate(context.Background(), "shelf", []float64{0}, []float64{0},
		Field{Shape: []int{2, 2}, Values: []float64{1}})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestClient_Health(t *testing.T) {
	c := newMemoryClient(t)

	h := c.Health(context.Background())
	if !h.OK() {
		t.Errorf("expected healthy, got %+v", h)
	}
	if h.Checks["database"] != "ok" || h.Checks["search"] != "ok" {
		t.Errorf("unexpected checks: %v", h.Checks)
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observe("test", time.Now(), errors.New("err"))
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newMemoryClient(t, WithPrometheus(reg))
	ctx := context.Background()

	_ = c.Ping(ctx)
	_, _ = c.Grids().Get(ctx, "missing")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "obsoper_sdk_operations_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric samples, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("obsoper_sdk_operations_total not found")
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("first observer: %v", err)
	}
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("second observer should reuse metrics: %v", err)
	}
}

func TestObserver_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs, err := newObserver(logger, nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	obs.observe("grid_get", time.Now(), nil)
	obs.observe("grid_get", time.Now(), errors.New("boom"))

	out := buf.String()
	if !strings.Contains(out, "operation completed") || !strings.Contains(out, "operation failed") {
		t.Errorf("unexpected log output: %s", out)
	}
}
