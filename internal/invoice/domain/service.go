package domain

import (
	"context"
	"errors"
	"time"

	billingdomain "github.com/montessori/ecole/internal/billing/domain"
	"github.com/montessori/ecole/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

type GenerateRequest struct {
	ChildID string                `json:"child_id" validate:"required"`
	Period  string                `json:"period" validate:"required,len=7"`
	Options billingdomain.Options `json:"options"`
	Comment string                `json:"comment"`
}

type GenerateMonthRequest struct {
	Period  string                `json:"period" validate:"required,len=7"`
	Options billingdomain.Options `json:"options"`
}

type GenerateFailure struct {
	ChildID string `json:"child_id"`
	Error   string `json:"error"`
}

type GenerateMonthResult struct {
	Period    string            `json:"period"`
	Generated []Invoice         `json:"generated"`
	Skipped   []string          `json:"skipped"`
	Failed    []GenerateFailure `json:"failed"`
}

type ListInvoiceRequest struct {
	ParentID   string `form:"parent_id"`
	ChildID    string `form:"child_id"`
	SchoolYear string `form:"school_year"`
	Period     string `form:"period"`
	Status     string `form:"status"`
	pagination.Pagination
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type InvoiceDetail struct {
	Invoice
	Lines    []InvoiceLine `json:"lines"`
	Payments []Payment     `json:"payments"`
}

type AddLineRequest struct {
	Description string                 `json:"description" validate:"required,max=255"`
	Quantity    decimal.Decimal        `json:"quantity"`
	UnitPrice   decimal.Decimal        `json:"unit_price"`
	Type        billingdomain.LineType `json:"type"`
	Comment     string                 `json:"comment"`
}

type UpdateLineRequest struct {
	Description *string                 `json:"description" validate:"omitempty,max=255"`
	Quantity    *decimal.Decimal        `json:"quantity"`
	UnitPrice   *decimal.Decimal        `json:"unit_price"`
	Type        *billingdomain.LineType `json:"type"`
	Comment     *string                 `json:"comment"`
}

type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    string          `json:"paid_at"`
	Method    PaymentMethod   `json:"method" validate:"required"`
	Reference string          `json:"reference" validate:"max=128"`
	Comment   string          `json:"comment"`
}

type SetStatusRequest struct {
	Status  InvoiceStatus `json:"status" validate:"required"`
	Comment *string       `json:"comment"`
}

type PreviewRequest struct {
	ChildID string                `json:"child_id" validate:"required"`
	Period  string                `json:"period" validate:"required,len=7"`
	Options billingdomain.Options `json:"options"`
}

type Document struct {
	FileName string
	Content  []byte
}

type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (InvoiceDetail, error)
	GenerateMonth(ctx context.Context, req GenerateMonthRequest) (GenerateMonthResult, error)
	Preview(ctx context.Context, req PreviewRequest) (billingdomain.GenerateResult, error)

	Get(ctx context.Context, id string) (InvoiceDetail, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)

	AddLine(ctx context.Context, invoiceID string, req AddLineRequest) (InvoiceDetail, error)
	UpdateLine(ctx context.Context, invoiceID, lineID string, req UpdateLineRequest) (InvoiceDetail, error)
	DeleteLine(ctx context.Context, invoiceID, lineID string) (InvoiceDetail, error)

	RecordPayment(ctx context.Context, invoiceID string, req RecordPaymentRequest) (InvoiceDetail, error)
	DeletePayment(ctx context.Context, invoiceID, paymentID string) (InvoiceDetail, error)

	SetStatus(ctx context.Context, invoiceID string, req SetStatusRequest) (Invoice, error)
	// MarkOverdue moves sent or partly paid invoices whose due date is before
	// now to EN_RETARD and returns how many changed.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)

	PDF(ctx context.Context, invoiceID string) (Document, error)
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrInvalidLine        = errors.New("invalid_line")
	ErrInvalidLineType    = errors.New("invalid_line_type")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidMethod      = errors.New("invalid_payment_method")
	ErrInvalidPaymentDate = errors.New("invalid_paid_at")
	ErrNotFound           = errors.New("invoice_not_found")
	ErrLineNotFound       = errors.New("invoice_line_not_found")
	ErrPaymentNotFound    = errors.New("payment_not_found")
	ErrAlreadyExists      = errors.New("invoice_already_exists")
	ErrCancelled          = errors.New("invoice_cancelled")
	ErrNothingToBill      = errors.New("nothing_to_bill")
)
