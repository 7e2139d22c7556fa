package wizard

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserver_NilIsNoop(t *testing.T) {
	var o *observer
	o.observe("search", "x", time.Now(), nil)
}

func TestWithPrometheus_CountsOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	up := testUpstream(t)

	c, err := New(WithSchemaJSON(testSchema(up.URL)), WithPrometheus(reg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, _ = c.Search(context.Background(), "genes", "Pax6")
	_, _ = c.Search(context.Background(), "missing", "Pax6")

	ops := c.obs.metrics.operations
	if got := testutil.ToFloat64(ops.WithLabelValues("search", "ok")); got != 1 {
		t.Errorf("search ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ops.WithLabelValues("search", "error")); got != 1 {
		t.Errorf("search error = %v, want 1", got)
	}

	// A second client on the same registerer reuses the collectors.
	c2, err := New(WithSchemaJSON(testSchema(up.URL)), WithPrometheus(reg))
	if err != nil {
		t.Fatalf("second New: %v", err)
	}
	if c2.obs.metrics.operations != ops {
		t.Error("expected shared collector")
	}
}
