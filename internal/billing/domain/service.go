package domain

import (
	"context"
	"errors"

	familydomain "github.com/montessori/ecole/internal/family/domain"
	"github.com/shopspring/decimal"
)

type Options struct {
	IncludeInscription bool `json:"include_inscription"`
	IncludeMateriel    bool `json:"include_materiel"`
}

type GenerateRequest struct {
	ChildID string
	// Period is a "YYYY-MM" billing month.
	Period  string
	Options Options
	// RegistrationBilled is set when a registration fee was already invoiced
	// for the child in this school year.
	RegistrationBilled bool
}

type GenerateResult struct {
	ChildID    string            `json:"child_id"`
	ParentID   string            `json:"parent_id"`
	SchoolYear string            `json:"school_year"`
	Period     string            `json:"period"`
	Tuition    *TuitionBreakdown `json:"tuition,omitempty"`
	Lines      []Line            `json:"lines"`
	Totals
}

type Service interface {
	CalculateTuition(ctx context.Context, child familydomain.Child, parent familydomain.Parent, schoolYear string, rank int) (TuitionBreakdown, error)
	IncomeReduction(parent familydomain.Parent, amount decimal.Decimal) decimal.Decimal
	RegistrationFee(ctx context.Context, schoolYear string, firstYear, sibling bool) (decimal.Decimal, error)
	MealLine(count int, unitPrice decimal.Decimal) Line
	GenerateLines(ctx context.Context, req GenerateRequest) (GenerateResult, error)
}

var (
	ErrTariffMissing = errors.New("tariff_missing")
	ErrInvalidPeriod = errors.New("invalid_period")
	ErrInvalidRank   = errors.New("invalid_rank")
	ErrNotEnrolled   = errors.New("child_not_enrolled")
)
