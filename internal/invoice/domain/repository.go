package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/montessori/ecole/internal/billing/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	// FindOpenForChild returns the child's non-cancelled invoice for a period.
	FindOpenForChild(ctx context.Context, db *gorm.DB, childID snowflake.ID, period string) (*Invoice, error)
	HasLineType(ctx context.Context, db *gorm.DB, childID snowflake.ID, schoolYear string, lineType billingdomain.LineType) (bool, error)
	UpdateTotals(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	UpdateStatus(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	MarkOverdue(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)

	InsertLines(ctx context.Context, db *gorm.DB, lines []*InvoiceLine) error
	FindLine(ctx context.Context, db *gorm.DB, invoiceID, lineID snowflake.ID) (*InvoiceLine, error)
	UpdateLine(ctx context.Context, db *gorm.DB, line *InvoiceLine) error
	DeleteLine(ctx context.Context, db *gorm.DB, invoiceID, lineID snowflake.ID) (int64, error)
	ListLines(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]*InvoiceLine, error)

	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	DeletePayment(ctx context.Context, db *gorm.DB, invoiceID, paymentID snowflake.ID) (int64, error)
	ListPayments(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]*Payment, error)

	// NextSequence reserves the next invoice number for a YYYYMM key. It must
	// run inside the transaction that inserts the invoice.
	NextSequence(ctx context.Context, db *gorm.DB, key string, now time.Time) (int64, error)
}
