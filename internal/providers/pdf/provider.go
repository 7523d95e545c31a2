package pdf

import (
	"context"
	"strings"

	"github.com/gosimple/slug"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
)

const ContentType = "application/pdf"

var Module = fx.Module("pdf",
	fx.Provide(New),
)

type Provider interface {
	RenderInvoice(ctx context.Context, data InvoiceData) ([]byte, error)
	RenderDossier(ctx context.Context, data DossierData) ([]byte, error)
}

// School is the letterhead printed on every document.
type School struct {
	Name        string
	Address     string
	Email       string
	Phone       string
	BankDetails string
}

type MarotoProvider struct{}

func New() Provider {
	return &MarotoProvider{}
}

// FileName builds an ASCII download name such as "facture-fac-202510-00001.pdf".
func FileName(prefix, reference string) string {
	name := slug.Make(strings.TrimSpace(prefix + " " + reference))
	if name == "" {
		name = "document"
	}
	return name + ".pdf"
}

func documentConfig(title string) *entity.Config {
	return config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
		}).
		WithTitle(title, true).
		Build()
}
