package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/clock"
	"github.com/montessori/ecole/internal/events"
	familydomain "github.com/montessori/ecole/internal/family/domain"
	"github.com/montessori/ecole/internal/observability/metrics"
	"github.com/montessori/ecole/internal/reinscription/domain"
	"github.com/montessori/ecole/pkg/db"
	"github.com/montessori/ecole/pkg/db/option"
	"github.com/montessori/ecole/pkg/db/pagination"
	"github.com/montessori/ecole/pkg/repository"
	"github.com/montessori/ecole/pkg/schoolyear"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	FamilyRepo familydomain.Repository
	Family     familydomain.Service
	Notifier   *events.Notifier `optional:"true"`
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	familyrepo familydomain.Repository
	family     familydomain.Service
	notifier   *events.Notifier
	metrics    *metrics.Metrics

	reinscriptions repository.Repository[domain.Reinscription]
}

func New(p Params) domain.Service {
	m := p.Metrics
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("reinscription.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		familyrepo: p.FamilyRepo,
		family:     p.Family,
		notifier:   p.Notifier,
		metrics:    m,

		reinscriptions: repository.ProvideStore[domain.Reinscription](p.DB),
	}
}

func (s *Service) Request(ctx context.Context, req domain.CreateRequest) (domain.Reinscription, error) {
	year, err := schoolyear.Parse(req.SchoolYear)
	if err != nil {
		return domain.Reinscription{}, domain.ErrInvalidSchoolYear
	}
	parentID, err := parseID(req.ParentID)
	if err != nil {
		return domain.Reinscription{}, err
	}
	child, err := s.family.GetChild(ctx, req.ChildID)
	if err != nil {
		if errors.Is(err, familydomain.ErrInvalidID) {
			return domain.Reinscription{}, domain.ErrInvalidID
		}
		return domain.Reinscription{}, err
	}
	if !child.HasParent(parentID) {
		return domain.Reinscription{}, domain.ErrForbidden
	}

	enrollment, err := s.familyrepo.FindEnrollment(ctx, s.db, child.ID, year.String())
	if err != nil {
		return domain.Reinscription{}, err
	}
	if enrollment != nil {
		return domain.Reinscription{}, domain.ErrAlreadyReenrolled
	}
	pending, err := s.reinscriptions.Exists(ctx, &domain.Reinscription{
		ChildID:    child.ID,
		SchoolYear: year.String(),
		Status:     domain.StatusPending,
	})
	if err != nil {
		return domain.Reinscription{}, err
	}
	if pending {
		return domain.Reinscription{}, domain.ErrAlreadyReenrolled
	}

	now := s.clock.Now()
	item := domain.Reinscription{
		ID:          s.genID.Generate(),
		ChildID:     child.ID,
		ParentID:    parentID,
		SchoolYear:  year.String(),
		Status:      domain.StatusPending,
		Comment:     strings.TrimSpace(req.Comment),
		RequestedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &item); err != nil {
		return domain.Reinscription{}, err
	}

	s.metrics.RecordReinscription(ctx, string(item.Status))
	s.notify(ctx, events.TypeReinscriptionRequested, item, child)
	return item, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Reinscription, error) {
	itemID, err := parseID(id)
	if err != nil {
		return domain.Reinscription{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, itemID)
	if err != nil {
		return domain.Reinscription{}, err
	}
	if item == nil {
		return domain.Reinscription{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	filter := &domain.Reinscription{}
	if value := strings.TrimSpace(req.SchoolYear); value != "" {
		if !schoolyear.Valid(value) {
			return domain.ListResponse{}, domain.ErrInvalidSchoolYear
		}
		filter.SchoolYear = value
	}
	if value := strings.ToUpper(strings.TrimSpace(req.Status)); value != "" {
		status := domain.Status(value)
		if !status.Valid() {
			return domain.ListResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if strings.TrimSpace(req.ParentID) != "" {
		parentID, err := parseID(req.ParentID)
		if err != nil {
			return domain.ListResponse{}, err
		}
		filter.ParentID = parentID
	}

	items, err := s.reinscriptions.Find(ctx, filter, option.ApplyPagination(req.Pagination))
	if err != nil {
		return domain.ListResponse{}, err
	}
	page, info := pagination.BuildCursorPageInfo(items, req.Size(), func(item *domain.Reinscription) pagination.Cursor {
		return pagination.NewCursor(item.ID.String(), item.CreatedAt)
	})
	out := make([]domain.Reinscription, 0, len(page))
	for _, item := range page {
		out = append(out, *item)
	}
	return domain.ListResponse{PageInfo: info, Reinscriptions: out}, nil
}

func (s *Service) Validate(ctx context.Context, id string) (domain.Reinscription, error) {
	itemID, err := parseID(id)
	if err != nil {
		return domain.Reinscription{}, err
	}

	var item domain.Reinscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.decidable(ctx, tx, itemID)
		if err != nil {
			return err
		}

		existing, err := s.familyrepo.FindEnrollment(ctx, tx, current.ChildID, current.SchoolYear)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyReenrolled
		}

		now := s.clock.Now()
		enrollment := familydomain.Enrollment{
			ID:         s.genID.Generate(),
			ChildID:    current.ChildID,
			SchoolYear: current.SchoolYear,
			Status:     familydomain.EnrollmentActive,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.familyrepo.InsertEnrollment(ctx, tx, &enrollment); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrAlreadyReenrolled
			}
			return err
		}

		current.Status = domain.StatusValidated
		current.DecidedAt = &now
		current.UpdatedAt = now
		if err := s.repo.UpdateDecision(ctx, tx, current); err != nil {
			return err
		}
		item = *current
		return nil
	})
	if err != nil {
		return domain.Reinscription{}, err
	}

	s.log.Info("reinscription validated",
		zap.String("reinscription_id", item.ID.String()),
		zap.String("child_id", item.ChildID.String()),
		zap.String("school_year", item.SchoolYear),
	)
	s.metrics.RecordReinscription(ctx, string(item.Status))
	s.notifyDecision(ctx, events.TypeReinscriptionValidated, item)
	return item, nil
}

func (s *Service) Refuse(ctx context.Context, id string, req domain.RefuseRequest) (domain.Reinscription, error) {
	itemID, err := parseID(id)
	if err != nil {
		return domain.Reinscription{}, err
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return domain.Reinscription{}, domain.ErrInvalidComment
	}

	var item domain.Reinscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.decidable(ctx, tx, itemID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		current.Status = domain.StatusRefused
		current.Comment = comment
		current.DecidedAt = &now
		current.UpdatedAt = now
		if err := s.repo.UpdateDecision(ctx, tx, current); err != nil {
			return err
		}
		item = *current
		return nil
	})
	if err != nil {
		return domain.Reinscription{}, err
	}

	s.metrics.RecordReinscription(ctx, string(item.Status))
	s.notifyDecision(ctx, events.TypeReinscriptionRefused, item)
	return item, nil
}

func (s *Service) decidable(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Reinscription, error) {
	current, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}
	if current.Status != domain.StatusPending {
		return nil, domain.ErrNotPending
	}
	return current, nil
}

func (s *Service) notifyDecision(ctx context.Context, eventType string, item domain.Reinscription) {
	child, err := s.family.GetChild(ctx, item.ChildID.String())
	if err != nil {
		s.log.Warn("reinscription child lookup failed",
			zap.String("reinscription_id", item.ID.String()),
			zap.Error(err),
		)
	}
	s.notify(ctx, eventType, item, child)
}

func (s *Service) notify(ctx context.Context, eventType string, item domain.Reinscription, child familydomain.Child) {
	payload := map[string]any{
		"reinscription_id": item.ID.String(),
		"child_id":         item.ChildID.String(),
		"parent_id":        item.ParentID.String(),
		"school_year":      item.SchoolYear,
		"status":           string(item.Status),
	}
	if child.ID != 0 {
		payload["child_name"] = child.FullName()
	}
	if item.Comment != "" {
		payload["comment"] = item.Comment
	}
	if parent, err := s.family.GetParent(ctx, item.ParentID.String()); err == nil {
		payload["email"] = parent.Email
		payload["parent_name"] = parent.FullName()
	}
	s.notifier.Notify(ctx, eventType, payload)
}

func parseID(id string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed, nil
}
