package format

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DefaultInvoiceNumberTemplate = "FAC-{YYYY}{MM}-{SEQ5}"

var (
	ErrEmptyTemplate     = errors.New("invoice_number_template_empty")
	ErrInvalidSequence   = errors.New("invoice_sequence_invalid")
	ErrUnresolvedToken   = errors.New("invoice_number_token_unresolved")
	ErrMissingSequenceID = errors.New("invoice_number_template_without_sequence")

	paddedSeq = regexp.MustCompile(`\{SEQ(\d{1,2})\}`)
)

// SequenceKey is the counter bucket for invoices issued at t: numbering
// restarts every calendar month.
func SequenceKey(t time.Time) string {
	return t.Format("200601")
}

// ValidateTemplate reports whether template renders to a unique number.
func ValidateTemplate(template string) error {
	if strings.TrimSpace(template) == "" {
		return ErrEmptyTemplate
	}
	if !strings.Contains(template, "{SEQ") {
		return ErrMissingSequenceID
	}
	_, err := FormatInvoiceNumber(template, time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), 1)
	return err
}

// FormatInvoiceNumber renders an invoice number from a template such as
// "FAC-{YYYY}{MM}-{SEQ5}". Supported tokens are {YYYY}, {YY}, {MM}, {DD},
// {SEQ} and {SEQn} for a sequence zero-padded to n digits.
func FormatInvoiceNumber(template string, issuedAt time.Time, seq int64) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", ErrEmptyTemplate
	}
	if seq <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidSequence, seq)
	}

	replacer := strings.NewReplacer(
		"{YYYY}", issuedAt.Format("2006"),
		"{YY}", issuedAt.Format("06"),
		"{MM}", issuedAt.Format("01"),
		"{DD}", issuedAt.Format("02"),
		"{SEQ}", strconv.FormatInt(seq, 10),
	)
	out := replacer.Replace(template)

	out = paddedSeq.ReplaceAllStringFunc(out, func(token string) string {
		width, _ := strconv.Atoi(paddedSeq.FindStringSubmatch(token)[1])
		if width == 0 {
			return token
		}
		return fmt.Sprintf("%0*d", width, seq)
	})

	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("%w: %s", ErrUnresolvedToken, out)
	}
	return out, nil
}
