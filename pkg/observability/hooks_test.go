package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnStageStart(ctx, StageLayout)
	p.OnStageEnd(ctx, StageLayout, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layout")
	c.OnCacheMiss(ctx, "render")
	c.OnCacheSet(ctx, "render", 1024)

	NoopHTTPHooks{}.OnRequest(ctx, "GET", "/healthz", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() default is not NoopPipelineHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() default is not NoopCacheHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() default is not NoopHTTPHooks")
	}

	m := NewMetrics(prometheus.NewRegistry())
	SetPipelineHooks(m)
	SetCacheHooks(m)
	SetHTTPHooks(m)
	if Pipeline() != m || Cache() != m || HTTP() != m {
		t.Error("Set*Hooks() did not install the hooks")
	}

	SetPipelineHooks(nil)
	if Pipeline() != m {
		t.Error("SetPipelineHooks(nil) replaced the hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() did not restore NoopPipelineHooks")
	}
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.OnStageStart(ctx, StageRender)
	if got := testutil.ToFloat64(m.stagesActive.WithLabelValues(StageRender)); got != 1 {
		t.Errorf("stages_in_flight = %v, want 1", got)
	}
	m.OnStageEnd(ctx, StageRender, 10*time.Millisecond, errors.New("boom"))
	if got := testutil.ToFloat64(m.stagesActive.WithLabelValues(StageRender)); got != 0 {
		t.Errorf("stages_in_flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.stageErrors.WithLabelValues(StageRender)); got != 1 {
		t.Errorf("stage_errors_total = %v, want 1", got)
	}

	m.OnCacheHit(ctx, "layout")
	m.OnCacheHit(ctx, "layout")
	m.OnCacheMiss(ctx, "render")
	m.OnCacheSet(ctx, "render", 512)
	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"hits", m.cacheHits.WithLabelValues("layout"), 2},
		{"misses", m.cacheMisses.WithLabelValues("render"), 1},
		{"bytes", m.cacheBytes.WithLabelValues("render"), 512},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}

	m.OnRequest(ctx, "POST", "/v1/layout", 200, time.Millisecond)
	if got := testutil.ToFloat64(m.requests.WithLabelValues("POST", "/v1/layout", "200")); got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}

	if n, err := testutil.GatherAndCount(reg); err != nil || n == 0 {
		t.Errorf("GatherAndCount() = %d, %v", n, err)
	}
}
