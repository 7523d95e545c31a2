package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumber(t *testing.T) {
	issued := time.Date(2025, time.October, 3, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		template string
		seq      int64
		want     string
	}{
		{name: "default", template: DefaultInvoiceNumberTemplate, seq: 7, want: "FAC-202510-00007"},
		{name: "short year and day", template: "F{YY}{MM}{DD}-{SEQ}", seq: 12, want: "F251003-12"},
		{name: "sequence wider than padding", template: "{SEQ2}", seq: 1234, want: "1234"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FormatInvoiceNumber(tc.template, issued, tc.seq)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatInvoiceNumberErrors(t *testing.T) {
	issued := time.Date(2025, time.October, 3, 0, 0, 0, 0, time.UTC)

	_, err := FormatInvoiceNumber("", issued, 1)
	assert.ErrorIs(t, err, ErrEmptyTemplate)

	_, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, issued, 0)
	assert.ErrorIs(t, err, ErrInvalidSequence)

	_, err = FormatInvoiceNumber("FAC-{YYYY}-{NUM}", issued, 1)
	assert.ErrorIs(t, err, ErrUnresolvedToken)
}

func TestValidateTemplate(t *testing.T) {
	assert.NoError(t, ValidateTemplate(DefaultInvoiceNumberTemplate))
	assert.ErrorIs(t, ValidateTemplate("FAC-{YYYY}{MM}"), ErrMissingSequenceID)
	assert.ErrorIs(t, ValidateTemplate("  "), ErrEmptyTemplate)
}

func TestSequenceKey(t *testing.T) {
	assert.Equal(t, "202509", SequenceKey(time.Date(2025, time.September, 30, 23, 0, 0, 0, time.UTC)))
}
