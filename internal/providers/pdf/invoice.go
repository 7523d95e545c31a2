package pdf

import (
	"context"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type InvoiceData struct {
	School School

	Number     string
	IssueDate  string
	DueDate    string
	Period     string
	SchoolYear string
	Status     string

	BillToName    string
	BillToAddress string
	BillToEmail   string
	ChildName     string

	Lines []InvoiceLine

	Total     string
	Paid      string
	AmountDue string
	Comment   string
}

type InvoiceLine struct {
	Description string
	Quantity    string
	UnitPrice   string
	Amount      string
}

func (p *MarotoProvider) RenderInvoice(ctx context.Context, invoice InvoiceData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := maroto.New(documentConfig("Facture " + invoice.Number))

	addLetterhead(m, invoice.School)

	m.AddRow(12,
		text.NewCol(12, "Facture", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Numéro : "+invoice.Number, props.Text{Top: 0}),
			text.New("Date d'émission : "+invoice.IssueDate, props.Text{Top: 5}),
			text.New("Échéance : "+invoice.DueDate, props.Text{Top: 10}),
			text.New("Période : "+invoice.Period+" ("+invoice.SchoolYear+")", props.Text{Top: 15}),
		),
		col.New(6).Add(
			text.New("Facturé à", props.Text{Style: fontstyle.Bold}),
			text.New(invoice.BillToName, props.Text{Top: 5}),
			text.New(invoice.BillToAddress, props.Text{Top: 10}),
			text.New(invoice.BillToEmail, props.Text{Top: 15}),
		),
	)

	if invoice.ChildName != "" {
		m.AddRow(8, text.NewCol(12, "Enfant : "+invoice.ChildName, props.Text{Size: 10}))
	}

	m.AddRow(8,
		text.NewCol(6, "Désignation", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qté", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Prix unitaire", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Montant", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range invoice.Lines {
		m.AddRow(8,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, item.Quantity, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(2, line.NewCol(12))

	addTotalRow(m, "Total", invoice.Total, false)
	addTotalRow(m, "Déjà réglé", invoice.Paid, false)
	addTotalRow(m, "Reste à payer", invoice.AmountDue, true)

	if invoice.School.BankDetails != "" {
		m.AddRow(16,
			text.NewCol(12, "Règlement par virement : "+invoice.School.BankDetails, props.Text{Size: 9, Top: 6}),
		)
	}
	if invoice.Comment != "" {
		m.AddRow(12, text.NewCol(12, invoice.Comment, props.Text{Size: 9, Top: 4}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func addLetterhead(m core.Maroto, school School) {
	m.AddRow(24,
		col.New(8).Add(
			text.New(school.Name, props.Text{Size: 14, Style: fontstyle.Bold}),
			text.New(school.Address, props.Text{Top: 7, Size: 9}),
			text.New(school.Email, props.Text{Top: 12, Size: 9}),
			text.New(school.Phone, props.Text{Top: 17, Size: 9}),
		),
		col.New(4),
	)
}

func addTotalRow(m core.Maroto, label, value string, bold bool) {
	style := fontstyle.Normal
	if bold {
		style = fontstyle.Bold
	}
	m.AddRow(7,
		col.New(8),
		text.NewCol(2, label, props.Text{Size: 9, Style: style}),
		text.NewCol(2, value, props.Text{Size: 9, Style: style, Align: align.Right}),
	)
}
