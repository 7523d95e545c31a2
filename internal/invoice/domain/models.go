package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/montessori/ecole/internal/billing/domain"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	StatusEnAttente InvoiceStatus = "EN_ATTENTE"
	StatusEnvoyee   InvoiceStatus = "ENVOYEE"
	StatusPayee     InvoiceStatus = "PAYEE"
	StatusPartielle InvoiceStatus = "PARTIELLE"
	StatusEnRetard  InvoiceStatus = "EN_RETARD"
	StatusAnnulee   InvoiceStatus = "ANNULEE"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusEnAttente, StatusEnvoyee, StatusPayee, StatusPartielle, StatusEnRetard, StatusAnnulee:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodVirement    PaymentMethod = "VIREMENT"
	MethodCheque      PaymentMethod = "CHEQUE"
	MethodEspeces     PaymentMethod = "ESPECES"
	MethodPrelevement PaymentMethod = "PRELEVEMENT"
	MethodCB          PaymentMethod = "CB"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodVirement, MethodCheque, MethodEspeces, MethodPrelevement, MethodCB:
		return true
	}
	return false
}

// Invoice is a family bill for one child and one month. TotalAmount always
// equals the sum of its line amounts.
type Invoice struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	Number      string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"number"`
	ParentID    snowflake.ID    `gorm:"not null;index" json:"parent_id"`
	ChildID     *snowflake.ID   `gorm:"index:ix_invoices_child_period" json:"child_id,omitempty"`
	SchoolYear  string          `gorm:"type:varchar(9);not null;index" json:"school_year"`
	Period      string          `gorm:"type:varchar(7);not null;index:ix_invoices_child_period" json:"period"`
	PeriodStart time.Time       `gorm:"type:date;not null" json:"period_start"`
	PeriodEnd   time.Time       `gorm:"type:date;not null" json:"period_end"`
	Status      InvoiceStatus   `gorm:"type:varchar(16);not null;index" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	PaidAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"paid_amount"`
	IssuedAt    time.Time       `gorm:"not null" json:"issued_at"`
	DueAt       time.Time       `gorm:"not null;index" json:"due_at"`
	Comment     string          `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }

// Balance is the amount still owed.
func (i Invoice) Balance() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}

type InvoiceLine struct {
	ID          snowflake.ID           `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID           `gorm:"not null;index" json:"invoice_id"`
	Description string                 `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    decimal.Decimal        `gorm:"type:numeric(12,2);not null" json:"quantity"`
	UnitPrice   decimal.Decimal        `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Amount      decimal.Decimal        `gorm:"type:numeric(12,2);not null" json:"amount"`
	Type        billingdomain.LineType `gorm:"type:varchar(32);not null" json:"type"`
	Comment     string                 `gorm:"type:text" json:"comment,omitempty"`
	Position    int                    `gorm:"not null" json:"position"`
	CreatedAt   time.Time              `gorm:"not null" json:"created_at"`
}

func (InvoiceLine) TableName() string { return "invoice_lines" }

type Payment struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	PaidAt    time.Time       `gorm:"not null" json:"paid_at"`
	Method    PaymentMethod   `gorm:"type:varchar(16);not null" json:"method"`
	Reference string          `gorm:"type:varchar(128)" json:"reference,omitempty"`
	Comment   string          `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
}

func (Payment) TableName() string { return "payments" }

// InvoiceSequence hands out invoice numbers per calendar month.
type InvoiceSequence struct {
	Period     string    `gorm:"primaryKey;type:varchar(6)"`
	NextNumber int64     `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (InvoiceSequence) TableName() string { return "invoice_sequences" }

// DeriveStatus applies payment state on top of the current status.
// Cancelled invoices stay cancelled. A fully paid invoice is PAYEE, a
// partly paid one PARTIELLE. An invoice that had payments and has none left
// has already been issued to the family, so it goes back to ENVOYEE, or
// EN_RETARD once dueAt has passed.
func DeriveStatus(current InvoiceStatus, total, paid decimal.Decimal, dueAt, now time.Time) InvoiceStatus {
	if current == StatusAnnulee {
		return current
	}
	if paid.IsPositive() {
		if paid.GreaterThanOrEqual(total) {
			return StatusPayee
		}
		return StatusPartielle
	}
	if current == StatusPayee || current == StatusPartielle {
		if now.After(dueAt) {
			return StatusEnRetard
		}
		return StatusEnvoyee
	}
	return current
}
