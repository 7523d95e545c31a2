package tracing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsPersonalData(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/enfants/:id"),
		attribute.String("email", "parent@example.org"),
	)
	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorKeepsOnlyLeadingCode(t *testing.T) {
	err := fmt.Errorf("invoice_not_found: %w", errors.New("famille dupont"))
	assert.EqualError(t, SafeError(err), "invoice_not_found")
	assert.Nil(t, SafeError(nil))
}
