package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/montessori/ecole/internal/clock"
	"github.com/montessori/ecole/internal/events"
	familydomain "github.com/montessori/ecole/internal/family/domain"
	"github.com/montessori/ecole/internal/justificatif/domain"
	"github.com/montessori/ecole/pkg/db"
	"github.com/montessori/ecole/pkg/schoolyear"
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
	Family   familydomain.Service
	Notifier *events.Notifier `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	family   familydomain.Service
	notifier *events.Notifier
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("justificatif.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		family:   p.Family,
		notifier: p.Notifier,
	}
}

func (s *Service) CreateType(ctx context.Context, req domain.CreateTypeRequest) (domain.JustificatifType, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return domain.JustificatifType{}, domain.ErrInvalidLabel
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = label
	}
	code = slug.Make(code)
	if code == "" || len(code) > 64 {
		return domain.JustificatifType{}, domain.ErrInvalidCode
	}

	existing, err := s.repo.FindTypeByCode(ctx, s.db, code)
	if err != nil {
		return domain.JustificatifType{}, err
	}
	if existing != nil {
		return domain.JustificatifType{}, domain.ErrTypeExists
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	now := s.clock.Now()
	item := domain.JustificatifType{
		ID:          s.genID.Generate(),
		Code:        code,
		Label:       label,
		Description: strings.TrimSpace(req.Description),
		Mandatory:   req.Mandatory,
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertType(ctx, s.db, &item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.JustificatifType{}, domain.ErrTypeExists
		}
		return domain.JustificatifType{}, err
	}
	return item, nil
}

func (s *Service) UpdateType(ctx context.Context, id string, req domain.UpdateTypeRequest) (domain.JustificatifType, error) {
	item, err := s.getType(ctx, id)
	if err != nil {
		return domain.JustificatifType{}, err
	}
	if req.Label != nil {
		if item.Label = strings.TrimSpace(*req.Label); item.Label == "" {
			return domain.JustificatifType{}, domain.ErrInvalidLabel
		}
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Mandatory != nil {
		item.Mandatory = *req.Mandatory
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	item.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateType(ctx, s.db, &item); err != nil {
		return domain.JustificatifType{}, err
	}
	return item, nil
}

// DeleteType removes an unused type. Types with documents should be deactivated instead.
func (s *Service) DeleteType(ctx context.Context, id string) error {
	item, err := s.getType(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.repo.CountByType(ctx, s.db, item.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrTypeInUse
	}
	return s.repo.DeleteType(ctx, s.db, item.ID)
}

func (s *Service) ListTypes(ctx context.Context, activeOnly bool) ([]domain.JustificatifType, error) {
	items, err := s.repo.ListTypes(ctx, s.db, activeOnly)
	if err != nil {
		return nil, err
	}
	return derefAll(items), nil
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (domain.Justificatif, error) {
	year, err := schoolyear.Parse(req.SchoolYear)
	if err != nil {
		return domain.Justificatif{}, domain.ErrInvalidSchoolYear
	}
	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		return domain.Justificatif{}, domain.ErrInvalidFileName
	}
	child, err := s.family.GetChild(ctx, req.ChildID)
	if err != nil {
		return domain.Justificatif{}, err
	}
	docType, err := s.getType(ctx, req.Type)
	if err != nil {
		return domain.Justificatif{}, err
	}
	if !docType.Active {
		return domain.Justificatif{}, domain.ErrTypeInactive
	}

	var item domain.Justificatif
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()
		existing, err := s.repo.FindForChild(ctx, tx, child.ID, docType.ID, year.String())
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Status == domain.StatusApproved {
				return domain.ErrAlreadyApproved
			}
			existing.FileName = fileName
			existing.StorageKey = strings.TrimSpace(req.StorageKey)
			existing.Status = domain.StatusPending
			existing.Comment = ""
			existing.SubmittedAt = now
			existing.ReviewedAt = nil
			existing.UpdatedAt = now
			item = *existing
			return s.repo.Update(ctx, tx, existing)
		}

		item = domain.Justificatif{
			ID:          s.genID.Generate(),
			ChildID:     child.ID,
			TypeID:      docType.ID,
			SchoolYear:  year.String(),
			FileName:    fileName,
			StorageKey:  strings.TrimSpace(req.StorageKey),
			Status:      domain.StatusPending,
			SubmittedAt: now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return s.repo.Insert(ctx, tx, &item)
	})
	if err != nil {
		return domain.Justificatif{}, err
	}

	s.log.Info("justificatif submitted",
		zap.String("justificatif_id", item.ID.String()),
		zap.String("child_id", item.ChildID.String()),
		zap.String("type", docType.Code),
	)
	return item, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Justificatif, error) {
	itemID, err := parseID(id)
	if err != nil {
		return domain.Justificatif{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, itemID)
	if err != nil {
		return domain.Justificatif{}, err
	}
	if item == nil {
		return domain.Justificatif{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Approve(ctx context.Context, id string) (domain.Justificatif, error) {
	return s.review(ctx, id, domain.StatusApproved, "")
}

func (s *Service) Refuse(ctx context.Context, id string, req domain.RefuseRequest) (domain.Justificatif, error) {
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return domain.Justificatif{}, domain.ErrInvalidComment
	}
	item, err := s.review(ctx, id, domain.StatusRefused, comment)
	if err != nil {
		return domain.Justificatif{}, err
	}
	s.notifyRefused(ctx, item)
	return item, nil
}

func (s *Service) review(ctx context.Context, id string, status domain.Status, comment string) (domain.Justificatif, error) {
	itemID, err := parseID(id)
	if err != nil {
		return domain.Justificatif{}, err
	}

	var item domain.Justificatif
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if current.Status != domain.StatusPending {
			return domain.ErrNotPending
		}
		now := s.clock.Now()
		current.Status = status
		current.Comment = comment
		current.ReviewedAt = &now
		current.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, current); err != nil {
			return err
		}
		item = *current
		return nil
	})
	if err != nil {
		return domain.Justificatif{}, err
	}
	return item, nil
}

func (s *Service) ListForChild(ctx context.Context, childID, schoolYear string) ([]domain.Justificatif, error) {
	child, year, err := s.childAndYear(ctx, childID, schoolYear, false)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListForChild(ctx, s.db, child.ID, year)
	if err != nil {
		return nil, err
	}
	return derefAll(items), nil
}

func (s *Service) Missing(ctx context.Context, childID, schoolYear string) ([]domain.JustificatifType, error) {
	child, year, err := s.childAndYear(ctx, childID, schoolYear, true)
	if err != nil {
		return nil, err
	}
	types, err := s.repo.ListTypes(ctx, s.db, true)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.ListForChild(ctx, s.db, child.ID, year)
	if err != nil {
		return nil, err
	}

	covered := make(map[snowflake.ID]bool, len(docs))
	for _, doc := range docs {
		if doc.Status == domain.StatusApproved || doc.Status == domain.StatusPending {
			covered[doc.TypeID] = true
		}
	}
	missing := make([]domain.JustificatifType, 0)
	for _, t := range types {
		if t.Mandatory && !covered[t.ID] {
			missing = append(missing, *t)
		}
	}
	return missing, nil
}

func (s *Service) childAndYear(ctx context.Context, childID, schoolYear string, yearRequired bool) (familydomain.Child, string, error) {
	year := strings.TrimSpace(schoolYear)
	if year != "" || yearRequired {
		parsed, err := schoolyear.Parse(year)
		if err != nil {
			return familydomain.Child{}, "", domain.ErrInvalidSchoolYear
		}
		year = parsed.String()
	}
	child, err := s.family.GetChild(ctx, childID)
	if err != nil {
		return familydomain.Child{}, "", err
	}
	return child, year, nil
}

func (s *Service) getType(ctx context.Context, ref string) (domain.JustificatifType, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.JustificatifType{}, domain.ErrInvalidID
	}
	var (
		item *domain.JustificatifType
		err  error
	)
	if id, parseErr := snowflake.ParseString(ref); parseErr == nil && id != 0 {
		item, err = s.repo.FindTypeByID(ctx, s.db, id)
	} else {
		item, err = s.repo.FindTypeByCode(ctx, s.db, slug.Make(ref))
	}
	if err != nil {
		return domain.JustificatifType{}, err
	}
	if item == nil {
		return domain.JustificatifType{}, domain.ErrTypeNotFound
	}
	return *item, nil
}

func (s *Service) notifyRefused(ctx context.Context, item domain.Justificatif) {
	payload := map[string]any{
		"justificatif_id": item.ID.String(),
		"child_id":        item.ChildID.String(),
		"school_year":     item.SchoolYear,
		"file_name":       item.FileName,
		"comment":         item.Comment,
	}
	if docType, err := s.repo.FindTypeByID(ctx, s.db, item.TypeID); err == nil && docType != nil {
		payload["type"] = docType.Code
		payload["type_label"] = docType.Label
	}
	if child, err := s.family.GetChild(ctx, item.ChildID.String()); err == nil {
		payload["child_name"] = child.FullName()
		if parent, err := s.family.GetParent(ctx, child.Parent1ID.String()); err == nil {
			payload["email"] = parent.Email
			payload["parent_name"] = parent.FullName()
		}
	}
	s.notifier.Notify(ctx, events.TypeJustificatifRefused, payload)
}

func parseID(id string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed, nil
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
