package domain

import (
	"context"
	"errors"

	"github.com/montessori/ecole/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

type CreateTariffRequest struct {
	Key        string          `json:"key" validate:"required,max=64"`
	SchoolYear string          `json:"school_year" validate:"required,len=9"`
	Amount     decimal.Decimal `json:"amount"`
	Category   Category        `json:"category" validate:"required"`
	Label      string          `json:"label" validate:"max=255"`
	Active     *bool           `json:"active"`
}

type UpdateTariffRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	Label    *string          `json:"label" validate:"omitempty,max=255"`
	Category *Category        `json:"category"`
	Active   *bool            `json:"active"`
}

type ListTariffRequest struct {
	SchoolYear string `form:"school_year"`
	Category   string `form:"category"`
	pagination.Pagination
}

type ListTariffResponse struct {
	pagination.PageInfo
	Tariffs []Tariff `json:"tariffs"`
}

type CopyYearRequest struct {
	FromYear string `json:"from_year" validate:"required,len=9"`
	ToYear   string `json:"to_year" validate:"required,len=9"`
}

type CopyYearResult struct {
	Copied  int `json:"copied"`
	Skipped int `json:"skipped"`
}

type Service interface {
	// Lookup returns the active amount for key in schoolYear, or nil when no
	// such rate exists. Every call reads the store.
	Lookup(ctx context.Context, key, schoolYear string) (*decimal.Decimal, error)
	Get(ctx context.Context, id string) (Tariff, error)
	List(ctx context.Context, req ListTariffRequest) (ListTariffResponse, error)
	Create(ctx context.Context, req CreateTariffRequest) (Tariff, error)
	Update(ctx context.Context, id string, req UpdateTariffRequest) (Tariff, error)
	Delete(ctx context.Context, id string) error
	CopyYear(ctx context.Context, req CopyYearRequest) (CopyYearResult, error)
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidKey        = errors.New("invalid_tariff_key")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidCategory   = errors.New("invalid_category")
	ErrInvalidSchoolYear = errors.New("invalid_school_year")
	ErrDuplicate         = errors.New("tariff_already_exists")
	ErrNotFound          = errors.New("tariff_not_found")
)
