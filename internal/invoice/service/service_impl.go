package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/montessori/ecole/internal/billing/domain"
	"github.com/montessori/ecole/internal/clock"
	"github.com/montessori/ecole/internal/config"
	"github.com/montessori/ecole/internal/events"
	familydomain "github.com/montessori/ecole/internal/family/domain"
	"github.com/montessori/ecole/internal/invoice/domain"
	"github.com/montessori/ecole/internal/invoice/format"
	"github.com/montessori/ecole/internal/observability/metrics"
	"github.com/montessori/ecole/internal/providers/pdf"
	"github.com/montessori/ecole/pkg/db/option"
	"github.com/montessori/ecole/pkg/db/pagination"
	"github.com/montessori/ecole/pkg/repository"
	"github.com/montessori/ecole/pkg/schoolyear"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Config   config.Config
	School   *config.SchoolConfigHolder
	Billing  billingdomain.Service
	Family   familydomain.Service
	PDF      pdf.Provider
	Notifier *events.Notifier `optional:"true"`
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	startMonth time.Month

	repo        domain.Repository
	invoicerepo repository.Repository[domain.Invoice]
	school      *config.SchoolConfigHolder
	billing     billingdomain.Service
	family      familydomain.Service
	pdf         pdf.Provider
	notifier    *events.Notifier
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	startMonth := time.Month(p.Config.SchoolYearStartMonth)
	if startMonth < time.January || startMonth > time.December {
		startMonth = schoolyear.DefaultStartMonth
	}
	school := p.School
	if school == nil {
		school = config.NewStaticSchoolConfigHolder(config.DefaultSchoolConfig())
	}
	m := p.Metrics
	if m == nil {
		m = metrics.NewNoop()
	}

	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		startMonth: startMonth,

		repo:        p.Repo,
		invoicerepo: repository.ProvideStore[domain.Invoice](p.DB),
		school:      school,
		billing:     p.Billing,
		family:      p.Family,
		pdf:         p.PDF,
		notifier:    p.Notifier,
		metrics:     m,
	}
}

func (s *Service) Generate(ctx context.Context, req domain.GenerateRequest) (domain.InvoiceDetail, error) {
	period, err := schoolyear.ParsePeriod(req.Period)
	if err != nil {
		return domain.InvoiceDetail{}, billingdomain.ErrInvalidPeriod
	}
	child, err := s.family.GetChild(ctx, req.ChildID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	existing, err := s.repo.FindOpenForChild(ctx, s.db, child.ID, period.String())
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	if existing != nil {
		return domain.InvoiceDetail{}, domain.ErrAlreadyExists
	}

	computed, err := s.computeLines(ctx, child, period, req.Options)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	if len(computed.Lines) == 0 {
		return domain.InvoiceDetail{}, domain.ErrNothingToBill
	}

	now := s.clock.Now()
	settings := s.school.Get()
	childID := child.ID
	invoice := domain.Invoice{
		ID:          s.genID.Generate(),
		ParentID:    child.Parent1ID,
		ChildID:     &childID,
		SchoolYear:  computed.SchoolYear,
		Period:      period.String(),
		PeriodStart: period.Start(),
		PeriodEnd:   period.End(),
		Status:      domain.StatusEnAttente,
		TotalAmount: sumLines(computed.Lines),
		PaidAmount:  decimal.Zero,
		IssuedAt:    now,
		DueAt:       now.AddDate(0, 0, settings.Invoice.DueDays),
		Comment:     strings.TrimSpace(req.Comment),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	lines := make([]*domain.InvoiceLine, 0, len(computed.Lines))
	for i, line := range computed.Lines {
		lines = append(lines, &domain.InvoiceLine{
			ID:          s.genID.Generate(),
			InvoiceID:   invoice.ID,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Amount:      line.Amount,
			Type:        line.Type,
			Comment:     line.Comment,
			Position:    i + 1,
			CreatedAt:   now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindOpenForChild(ctx, tx, child.ID, period.String())
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyExists
		}

		seq, err := s.repo.NextSequence(ctx, tx, format.SequenceKey(now), now)
		if err != nil {
			return err
		}
		number, err := format.FormatInvoiceNumber(settings.Invoice.NumberTemplate, now, seq)
		if err != nil {
			return err
		}
		invoice.Number = number

		if err := s.repo.Insert(ctx, tx, &invoice); err != nil {
			return err
		}
		return s.repo.InsertLines(ctx, tx, lines)
	})
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	s.metrics.RecordInvoiceGenerated(ctx, invoice.SchoolYear)
	s.log.Info("invoice generated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.String("child_id", child.ID.String()),
		zap.String("period", invoice.Period),
		zap.String("total", invoice.TotalAmount.StringFixed(2)),
	)

	return domain.InvoiceDetail{
		Invoice:  invoice,
		Lines:    derefAll(lines),
		Payments: []domain.Payment{},
	}, nil
}

func (s *Service) GenerateMonth(ctx context.Context, req domain.GenerateMonthRequest) (domain.GenerateMonthResult, error) {
	period, err := schoolyear.ParsePeriod(req.Period)
	if err != nil {
		return domain.GenerateMonthResult{}, billingdomain.ErrInvalidPeriod
	}
	year := period.SchoolYear(s.startMonth).String()

	enrollments, err := s.family.ListEnrollments(ctx, year)
	if err != nil {
		return domain.GenerateMonthResult{}, err
	}

	result := domain.GenerateMonthResult{
		Period:    period.String(),
		Generated: []domain.Invoice{},
		Skipped:   []string{},
		Failed:    []domain.GenerateFailure{},
	}
	for _, enrollment := range enrollments {
		if enrollment.Status != familydomain.EnrollmentActive {
			continue
		}
		childID := enrollment.ChildID.String()
		detail, err := s.Generate(ctx, domain.GenerateRequest{
			ChildID: childID,
			Period:  period.String(),
			Options: req.Options,
		})
		switch {
		case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrNothingToBill):
			result.Skipped = append(result.Skipped, childID)
		case err != nil:
			s.log.Warn("invoice generation failed",
				zap.String("child_id", childID),
				zap.String("period", period.String()),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, domain.GenerateFailure{ChildID: childID, Error: err.Error()})
		default:
			result.Generated = append(result.Generated, detail.Invoice)
		}
	}

	s.log.Info("monthly invoices generated",
		zap.String("period", result.Period),
		zap.Int("generated", len(result.Generated)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

func (s *Service) Preview(ctx context.Context, req domain.PreviewRequest) (billingdomain.GenerateResult, error) {
	period, err := schoolyear.ParsePeriod(req.Period)
	if err != nil {
		return billingdomain.GenerateResult{}, billingdomain.ErrInvalidPeriod
	}
	child, err := s.family.GetChild(ctx, req.ChildID)
	if err != nil {
		return billingdomain.GenerateResult{}, err
	}
	return s.computeLines(ctx, child, period, req.Options)
}

// computeLines prices a child's month. A registration fee already present
// on a live invoice of the same school year is not billed twice.
func (s *Service) computeLines(ctx context.Context, child familydomain.Child, period schoolyear.Period, options billingdomain.Options) (billingdomain.GenerateResult, error) {
	year := period.SchoolYear(s.startMonth).String()

	billed := false
	if options.IncludeInscription {
		var err error
		billed, err = s.repo.HasLineType(ctx, s.db, child.ID, year, billingdomain.LineInscription)
		if err != nil {
			return billingdomain.GenerateResult{}, err
		}
	}

	return s.billing.GenerateLines(ctx, billingdomain.GenerateRequest{
		ChildID:            child.ID.String(),
		Period:             period.String(),
		Options:            options,
		RegistrationBilled: billed,
	})
}

func (s *Service) Get(ctx context.Context, id string) (domain.InvoiceDetail, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	if invoice == nil {
		return domain.InvoiceDetail{}, domain.ErrNotFound
	}
	return s.loadDetail(ctx, s.db, *invoice)
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	filter := &domain.Invoice{}
	if raw := strings.TrimSpace(req.ParentID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.ListInvoiceResponse{}, err
		}
		filter.ParentID = id
	}
	if raw := strings.TrimSpace(req.ChildID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.ListInvoiceResponse{}, err
		}
		filter.ChildID = &id
	}
	if year := strings.TrimSpace(req.SchoolYear); year != "" {
		if !schoolyear.Valid(year) {
			return domain.ListInvoiceResponse{}, familydomain.ErrInvalidSchoolYear
		}
		filter.SchoolYear = year
	}
	if raw := strings.TrimSpace(req.Period); raw != "" {
		period, err := schoolyear.ParsePeriod(raw)
		if err != nil {
			return domain.ListInvoiceResponse{}, billingdomain.ErrInvalidPeriod
		}
		filter.Period = period.String()
	}
	if raw := strings.ToUpper(strings.TrimSpace(req.Status)); raw != "" {
		status := domain.InvoiceStatus(raw)
		if !status.Valid() {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}

	items, err := s.invoicerepo.Find(ctx, filter, option.ApplyPagination(req.Pagination))
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	page, info := pagination.BuildCursorPageInfo(items, req.Size(), func(invoice *domain.Invoice) pagination.Cursor {
		return pagination.NewCursor(invoice.ID.String(), invoice.CreatedAt)
	})
	return domain.ListInvoiceResponse{PageInfo: info, Invoices: derefAll(page)}, nil
}

func (s *Service) AddLine(ctx context.Context, invoiceID string, req domain.AddLineRequest) (domain.InvoiceDetail, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return domain.InvoiceDetail{}, domain.ErrInvalidLine
	}
	lineType, err := normalizeLineType(string(req.Type))
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	quantity := req.Quantity
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}
	if quantity.IsNegative() {
		return domain.InvoiceDetail{}, domain.ErrInvalidLine
	}

	return s.mutate(ctx, invoiceID, func(tx *gorm.DB, invoice *domain.Invoice) error {
		existing, err := s.repo.ListLines(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}
		position := 0
		for _, line := range existing {
			if line.Position > position {
				position = line.Position
			}
		}

		priced := billingdomain.NewLine(lineType, description, quantity, req.UnitPrice)
		line := &domain.InvoiceLine{
			ID:          s.genID.Generate(),
			InvoiceID:   invoice.ID,
			Description: priced.Description,
			Quantity:    priced.Quantity,
			UnitPrice:   priced.UnitPrice,
			Amount:      priced.Amount,
			Type:        priced.Type,
			Comment:     strings.TrimSpace(req.Comment),
			Position:    position + 1,
			CreatedAt:   s.clock.Now(),
		}
		return s.repo.InsertLines(ctx, tx, []*domain.InvoiceLine{line})
	})
}

func (s *Service) UpdateLine(ctx context.Context, invoiceID, lineID string, req domain.UpdateLineRequest) (domain.InvoiceDetail, error) {
	id, err := parseID(lineID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	return s.mutate(ctx, invoiceID, func(tx *gorm.DB, invoice *domain.Invoice) error {
		line, err := s.repo.FindLine(ctx, tx, invoice.ID, id)
		if err != nil {
			return err
		}
		if line == nil {
			return domain.ErrLineNotFound
		}

		if req.Description != nil {
			description := strings.TrimSpace(*req.Description)
			if description == "" {
				return domain.ErrInvalidLine
			}
			line.Description = description
		}
		if req.Quantity != nil {
			if req.Quantity.IsNegative() {
				return domain.ErrInvalidLine
			}
			line.Quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			line.UnitPrice = *req.UnitPrice
		}
		if req.Type != nil {
			lineType, err := normalizeLineType(string(*req.Type))
			if err != nil {
				return err
			}
			line.Type = lineType
		}
		if req.Comment != nil {
			line.Comment = strings.TrimSpace(*req.Comment)
		}
		line.Amount = billingdomain.RoundMoney(line.Quantity.Mul(line.UnitPrice))

		return s.repo.UpdateLine(ctx, tx, line)
	})
}

func (s *Service) DeleteLine(ctx context.Context, invoiceID, lineID string) (domain.InvoiceDetail, error) {
	id, err := parseID(lineID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	return s.mutate(ctx, invoiceID, func(tx *gorm.DB, invoice *domain.Invoice) error {
		deleted, err := s.repo.DeleteLine(ctx, tx, invoice.ID, id)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return domain.ErrLineNotFound
		}
		return nil
	})
}

func (s *Service) RecordPayment(ctx context.Context, invoiceID string, req domain.RecordPaymentRequest) (domain.InvoiceDetail, error) {
	amount := billingdomain.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return domain.InvoiceDetail{}, domain.ErrInvalidAmount
	}
	method := domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(req.Method))))
	if !method.Valid() {
		return domain.InvoiceDetail{}, domain.ErrInvalidMethod
	}
	now := s.clock.Now()
	paidAt := now
	if raw := strings.TrimSpace(req.PaidAt); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return domain.InvoiceDetail{}, domain.ErrInvalidPaymentDate
		}
		paidAt = parsed.UTC()
	}

	detail, err := s.mutate(ctx, invoiceID, func(tx *gorm.DB, invoice *domain.Invoice) error {
		return s.repo.InsertPayment(ctx, tx, &domain.Payment{
			ID:        s.genID.Generate(),
			InvoiceID: invoice.ID,
			Amount:    amount,
			PaidAt:    paidAt,
			Method:    method,
			Reference: strings.TrimSpace(req.Reference),
			Comment:   strings.TrimSpace(req.Comment),
			CreatedAt: now,
		})
	})
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	s.metrics.RecordPayment(ctx, string(method))
	s.log.Info("payment recorded",
		zap.String("invoice_id", detail.ID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("method", string(method)),
		zap.String("status", string(detail.Status)),
	)
	return detail, nil
}

func (s *Service) DeletePayment(ctx context.Context, invoiceID, paymentID string) (domain.InvoiceDetail, error) {
	id, err := parseID(paymentID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	return s.mutate(ctx, invoiceID, func(tx *gorm.DB, invoice *domain.Invoice) error {
		deleted, err := s.repo.DeletePayment(ctx, tx, invoice.ID, id)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return domain.ErrPaymentNotFound
		}
		return nil
	})
}

// SetStatus applies any status chosen by the office. Moving an invoice to
// ENVOYEE notifies the paying guardian.
func (s *Service) SetStatus(ctx context.Context, invoiceID string, req domain.SetStatusRequest) (domain.Invoice, error) {
	id, err := parseID(invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	status := domain.InvoiceStatus(strings.ToUpper(strings.TrimSpace(string(req.Status))))
	if !status.Valid() {
		return domain.Invoice{}, domain.ErrInvalidStatus
	}

	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	previous := invoice.Status
	invoice.Status = status
	if req.Comment != nil {
		invoice.Comment = strings.TrimSpace(*req.Comment)
	}
	invoice.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, s.db, invoice); err != nil {
		return domain.Invoice{}, err
	}

	s.log.Info("invoice status changed",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
	)
	if status == domain.StatusEnvoyee && previous != domain.StatusEnvoyee {
		s.notifySent(ctx, *invoice)
	}
	return *invoice, nil
}

func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	updated, err := s.repo.MarkOverdue(ctx, s.db, now.UTC())
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.log.Info("invoices marked overdue", zap.Int64("count", updated))
	}
	return updated, nil
}

func (s *Service) PDF(ctx context.Context, invoiceID string) (domain.Document, error) {
	detail, err := s.Get(ctx, invoiceID)
	if err != nil {
		return domain.Document{}, err
	}
	parent, err := s.family.GetParent(ctx, detail.ParentID.String())
	if err != nil && !errors.Is(err, familydomain.ErrParentNotFound) {
		return domain.Document{}, err
	}
	childName := ""
	if detail.ChildID != nil {
		child, err := s.family.GetChild(ctx, detail.ChildID.String())
		if err != nil && !errors.Is(err, familydomain.ErrChildNotFound) {
			return domain.Document{}, err
		}
		if child.ID != 0 {
			childName = child.FullName()
		}
	}

	content, err := s.pdf.RenderInvoice(ctx, invoiceDocument(s.school.Get(), detail, parent, childName))
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		FileName: pdf.FileName("facture", detail.Number),
		Content:  content,
	}, nil
}

// mutate runs fn on a live invoice and recomputes its totals and status in
// the same transaction.
func (s *Service) mutate(ctx context.Context, invoiceID string, fn func(tx *gorm.DB, invoice *domain.Invoice) error) (domain.InvoiceDetail, error) {
	id, err := parseID(invoiceID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	var detail domain.InvoiceDetail
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}
		if invoice.Status == domain.StatusAnnulee {
			return domain.ErrCancelled
		}
		if err := fn(tx, invoice); err != nil {
			return err
		}

		lines, err := s.repo.ListLines(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}
		payments, err := s.repo.ListPayments(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}
		invoice.TotalAmount = sumInvoiceLines(lines)
		invoice.PaidAmount = sumPayments(payments)
		now := s.clock.Now()
		invoice.Status = domain.DeriveStatus(invoice.Status, invoice.TotalAmount, invoice.PaidAmount, invoice.DueAt, now)
		invoice.UpdatedAt = now
		if err := s.repo.UpdateTotals(ctx, tx, invoice); err != nil {
			return err
		}

		detail = domain.InvoiceDetail{
			Invoice:  *invoice,
			Lines:    derefAll(lines),
			Payments: derefAll(payments),
		}
		return nil
	})
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	return detail, nil
}

func (s *Service) loadDetail(ctx context.Context, db *gorm.DB, invoice domain.Invoice) (domain.InvoiceDetail, error) {
	lines, err := s.repo.ListLines(ctx, db, invoice.ID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	payments, err := s.repo.ListPayments(ctx, db, invoice.ID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	return domain.InvoiceDetail{
		Invoice:  invoice,
		Lines:    derefAll(lines),
		Payments: derefAll(payments),
	}, nil
}

func (s *Service) notifySent(ctx context.Context, invoice domain.Invoice) {
	payload := map[string]any{
		"invoice_id":  invoice.ID.String(),
		"number":      invoice.Number,
		"period":      invoice.Period,
		"total":       invoice.TotalAmount.StringFixed(2),
		"balance":     invoice.Balance().StringFixed(2),
		"due_at":      invoice.DueAt.Format("2006-01-02"),
		"parent_id":   invoice.ParentID.String(),
		"school_year": invoice.SchoolYear,
	}
	if parent, err := s.family.GetParent(ctx, invoice.ParentID.String()); err == nil {
		payload["email"] = parent.Email
		payload["parent_name"] = parent.FullName()
	}
	s.notifier.Notify(ctx, events.TypeInvoiceSent, payload)
}

func invoiceDocument(settings config.SchoolConfig, detail domain.InvoiceDetail, parent familydomain.Parent, childName string) pdf.InvoiceData {
	lines := make([]pdf.InvoiceLine, 0, len(detail.Lines))
	for _, line := range detail.Lines {
		lines = append(lines, pdf.InvoiceLine{
			Description: line.Description,
			Quantity:    line.Quantity.String(),
			UnitPrice:   euros(line.UnitPrice),
			Amount:      euros(line.Amount),
		})
	}

	return pdf.InvoiceData{
		School: pdf.School{
			Name:        settings.School.Name,
			Address:     settings.School.Address,
			Email:       settings.School.Email,
			Phone:       settings.School.Phone,
			BankDetails: settings.School.BankDetails,
		},
		Number:        detail.Number,
		IssueDate:     detail.IssuedAt.Format("02/01/2006"),
		DueDate:       detail.DueAt.Format("02/01/2006"),
		Period:        detail.Period,
		SchoolYear:    detail.SchoolYear,
		Status:        string(detail.Status),
		BillToName:    parent.FullName(),
		BillToAddress: parent.Address,
		BillToEmail:   parent.Email,
		ChildName:     childName,
		Lines:         lines,
		Total:         euros(detail.TotalAmount),
		Paid:          euros(detail.PaidAmount),
		AmountDue:     euros(detail.Balance()),
		Comment:       detail.Comment,
	}
}

func euros(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " €"
}

func normalizeLineType(raw string) (billingdomain.LineType, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return billingdomain.LineAutre, nil
	}
	lineType := billingdomain.LineType(raw)
	if !lineType.Valid() {
		return "", domain.ErrInvalidLineType
	}
	return lineType, nil
}

func sumLines(lines []billingdomain.Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}
	return total
}

func sumInvoiceLines(lines []*domain.InvoiceLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}
	return total
}

func sumPayments(payments []*domain.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, payment := range payments {
		total = total.Add(payment.Amount)
	}
	return total
}

func derefAll[T any](items []*T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
