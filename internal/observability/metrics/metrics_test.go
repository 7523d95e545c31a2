package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("school_year", "2025-2026"),
		attribute.String("child_id", "456"),
		attribute.String("method", "VIREMENT"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "school_year" || attrs[1].Key != "method" {
		t.Fatalf("unexpected attributes retained: %v", attrs)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordInvoiceGenerated(context.Background(), "2025-2026")
	m.RecordPayment(context.Background(), "CHEQUE")

	noop := NewNoop()
	if noop == nil {
		t.Fatal("expected noop metrics")
	}
	noop.RecordNotification(context.Background(), "rentree.reminder", "published")
}
