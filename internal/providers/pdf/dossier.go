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

// DossierData is a preinscription application as printed for the admissions file.
type DossierData struct {
	School School

	Reference   string
	SubmittedAt string
	Status      string
	SchoolYear  string

	ChildName      string
	ChildBirthDate string
	Level          string

	Guardians []Guardian
	Answers   []Answer
	Comment   string
}

type Guardian struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

type Answer struct {
	Question string
	Value    string
}

func (p *MarotoProvider) RenderDossier(ctx context.Context, dossier DossierData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := maroto.New(documentConfig("Dossier " + dossier.Reference))

	addLetterhead(m, dossier.School)

	m.AddRow(12,
		text.NewCol(12, "Dossier de préinscription", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(20,
		col.New(6).Add(
			text.New("Référence : "+dossier.Reference, props.Text{}),
			text.New("Déposé le : "+dossier.SubmittedAt, props.Text{Top: 5}),
			text.New("Statut : "+dossier.Status, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Année souhaitée : "+dossier.SchoolYear, props.Text{}),
			text.New("Niveau : "+dossier.Level, props.Text{Top: 5}),
		),
	)

	addSection(m, "Enfant")
	m.AddRow(12,
		col.New(12).Add(
			text.New(dossier.ChildName, props.Text{Style: fontstyle.Bold}),
			text.New("Né(e) le "+dossier.ChildBirthDate, props.Text{Top: 5, Size: 9}),
		),
	)

	addSection(m, "Responsables légaux")
	for _, guardian := range dossier.Guardians {
		m.AddRow(20,
			col.New(12).Add(
				text.New(guardian.Name, props.Text{Style: fontstyle.Bold}),
				text.New(guardian.Email, props.Text{Top: 5, Size: 9}),
				text.New(guardian.Phone, props.Text{Top: 9, Size: 9}),
				text.New(guardian.Address, props.Text{Top: 13, Size: 9}),
			),
		)
	}

	if len(dossier.Answers) > 0 {
		addSection(m, "Questionnaire")
		for _, answer := range dossier.Answers {
			m.AddRow(8,
				text.NewCol(5, answer.Question, props.Text{Size: 9, Style: fontstyle.Bold}),
				text.NewCol(7, answer.Value, props.Text{Size: 9}),
			)
		}
	}

	if dossier.Comment != "" {
		addSection(m, "Commentaire")
		m.AddRow(12, text.NewCol(12, dossier.Comment, props.Text{Size: 9}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func addSection(m core.Maroto, title string) {
	m.AddRow(10, text.NewCol(12, title, props.Text{Size: 12, Style: fontstyle.Bold, Top: 3}))
	m.AddRow(2, line.NewCol(12))
}
