package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchool() School {
	return School{
		Name:        "École Montessori des Tilleuls",
		Address:     "12 rue des Tilleuls, 69003 Lyon",
		Email:       "secretariat@ecole.test",
		BankDetails: "FR76 0000 0000 0000",
	}
}

func TestRenderInvoice(t *testing.T) {
	p := New()

	out, err := p.RenderInvoice(context.Background(), InvoiceData{
		School:     testSchool(),
		Number:     "FAC-202510-00001",
		IssueDate:  "01/10/2025",
		DueDate:    "16/10/2025",
		Period:     "2025-10",
		SchoolYear: "2025-2026",
		BillToName: "Claire Martin",
		ChildName:  "Léo Martin",
		Lines: []InvoiceLine{
			{Description: "Scolarité octobre", Quantity: "1", UnitPrice: "575.00", Amount: "575.00"},
			{Description: "Repas", Quantity: "15", UnitPrice: "5.45", Amount: "81.75"},
		},
		Total:     "656.75",
		Paid:      "0.00",
		AmountDue: "656.75",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderDossier(t *testing.T) {
	p := New()

	out, err := p.RenderDossier(context.Background(), DossierData{
		School:         testSchool(),
		Reference:      "01JAZ3Q5X8V9T2K4M6N8P0R2S4",
		SubmittedAt:    "02/03/2025",
		Status:         "EN_ATTENTE",
		SchoolYear:     "2025-2026",
		ChildName:      "Léo Martin",
		ChildBirthDate: "14/05/2021",
		Level:          "MATERNELLE",
		Guardians: []Guardian{
			{Name: "Claire Martin", Email: "claire@example.test"},
		},
		Answers: []Answer{{Question: "allergies", Value: "aucune"}},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().RenderInvoice(ctx, InvoiceData{Number: "X"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "facture-fac-202510-00001.pdf", FileName("facture", "FAC-202510-00001"))
	assert.Equal(t, "dossier-eleve.pdf", FileName("dossier", "élève"))
	assert.Equal(t, "document.pdf", FileName("", ""))
}
