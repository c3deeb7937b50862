package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOutboxMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOutboxMetrics(reg)
	metrics.IncPublished("order_status_changed")
	metrics.IncPublished("order_status_changed")
	metrics.IncFailed("deposit_confirmed")
	metrics.IncDeadLettered("max_attempts")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "outbox_events_published", "event_type", "order_status_changed"); err != nil {
		t.Fatalf("fetch published: %v", err)
	} else if got != 2 {
		t.Fatalf("expected published=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "outbox_publish_failures", "event_type", "deposit_confirmed"); err != nil {
		t.Fatalf("fetch failed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failed=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "outbox_events_dead_lettered", "reason", "max_attempts"); err != nil {
		t.Fatalf("fetch dlq: %v", err)
	} else if got != 1 {
		t.Fatalf("expected dlq=1, got %f", got)
	}
}

func TestOutboxMetricsNilSafe(t *testing.T) {
	var metrics *OutboxMetrics
	metrics.IncPublished("order_status_changed")
	metrics.IncFailed("order_status_changed")
	metrics.IncDeadLettered("non_retryable")

	empty := NewOutboxMetrics(nil)
	empty.IncPublished("order_status_changed")
}
