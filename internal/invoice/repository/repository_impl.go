package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/montessori/ecole/internal/billing/domain"
	"github.com/montessori/ecole/internal/invoice/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&invoice).Error; err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (r *repo) FindOpenForChild(ctx context.Context, db *gorm.DB, childID snowflake.ID, period string) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).
		Where("child_id = ? AND period = ? AND status <> ?", childID, period, domain.StatusAnnulee).
		Order("id asc").
		Limit(1).
		Find(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (r *repo) HasLineType(ctx context.Context, db *gorm.DB, childID snowflake.ID, schoolYear string, lineType billingdomain.LineType) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.InvoiceLine{}).
		Joins("JOIN invoices ON invoices.id = invoice_lines.invoice_id").
		Where("invoices.child_id = ? AND invoices.school_year = ? AND invoices.status <> ?", childID, schoolYear, domain.StatusAnnulee).
		Where("invoice_lines.type = ?", lineType).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) UpdateTotals(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"total_amount": invoice.TotalAmount,
			"paid_amount":  invoice.PaidAmount,
			"status":       invoice.Status,
			"updated_at":   invoice.UpdatedAt,
		}).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"status":     invoice.Status,
			"comment":    invoice.Comment,
			"updated_at": invoice.UpdatedAt,
		}).Error
}

func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("status IN ? AND due_at < ?", []domain.InvoiceStatus{domain.StatusEnvoyee, domain.StatusPartielle}, now).
		Updates(map[string]any{
			"status":     domain.StatusEnRetard,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *repo) InsertLines(ctx context.Context, db *gorm.DB, lines []*domain.InvoiceLine) error {
	if len(lines) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(lines).Error
}

func (r *repo) FindLine(ctx context.Context, db *gorm.DB, invoiceID, lineID snowflake.ID) (*domain.InvoiceLine, error) {
	var line domain.InvoiceLine
	err := db.WithContext(ctx).
		Where("id = ? AND invoice_id = ?", lineID, invoiceID).
		Limit(1).
		Find(&line).Error
	if err != nil {
		return nil, err
	}
	if line.ID == 0 {
		return nil, nil
	}
	return &line, nil
}

func (r *repo) UpdateLine(ctx context.Context, db *gorm.DB, line *domain.InvoiceLine) error {
	return db.WithContext(ctx).Model(&domain.InvoiceLine{}).
		Where("id = ? AND invoice_id = ?", line.ID, line.InvoiceID).
		Updates(map[string]any{
			"description": line.Description,
			"quantity":    line.Quantity,
			"unit_price":  line.UnitPrice,
			"amount":      line.Amount,
			"type":        line.Type,
			"comment":     line.Comment,
		}).Error
}

func (r *repo) DeleteLine(ctx context.Context, db *gorm.DB, invoiceID, lineID snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).
		Where("id = ? AND invoice_id = ?", lineID, invoiceID).
		Delete(&domain.InvoiceLine{})
	return result.RowsAffected, result.Error
}

func (r *repo) ListLines(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]*domain.InvoiceLine, error) {
	var lines []*domain.InvoiceLine
	err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("position asc, id asc").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) DeletePayment(ctx context.Context, db *gorm.DB, invoiceID, paymentID snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).
		Where("id = ? AND invoice_id = ?", paymentID, invoiceID).
		Delete(&domain.Payment{})
	return result.RowsAffected, result.Error
}

func (r *repo) ListPayments(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("paid_at asc, id asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) NextSequence(ctx context.Context, db *gorm.DB, key string, now time.Time) (int64, error) {
	seed := domain.InvoiceSequence{Period: key, NextNumber: 1, UpdatedAt: now}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seed).Error; err != nil {
		return 0, err
	}

	err := db.WithContext(ctx).Model(&domain.InvoiceSequence{}).
		Where("period = ?", key).
		Updates(map[string]any{
			"next_number": gorm.Expr("next_number + 1"),
			"updated_at":  now,
		}).Error
	if err != nil {
		return 0, err
	}

	var row domain.InvoiceSequence
	if err := db.WithContext(ctx).Where("period = ?", key).Take(&row).Error; err != nil {
		return 0, err
	}
	return row.NextNumber - 1, nil
}
