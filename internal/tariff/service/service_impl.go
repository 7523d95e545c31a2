package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/clock"
	"github.com/montessori/ecole/internal/tariff/domain"
	"github.com/montessori/ecole/pkg/db"
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

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	tariffs repository.Repository[domain.Tariff]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("tariff.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,

		tariffs: repository.ProvideStore[domain.Tariff](p.DB),
	}
}

func (s *Service) Lookup(ctx context.Context, key, schoolYear string) (*decimal.Decimal, error) {
	key = normalizeKey(key)
	if key == "" {
		return nil, nil
	}
	tariff, err := s.repo.FindActive(ctx, s.db, key, strings.TrimSpace(schoolYear))
	if err != nil {
		return nil, err
	}
	if tariff == nil {
		s.log.Debug("tariff not configured", zap.String("key", key), zap.String("school_year", schoolYear))
		return nil, nil
	}
	amount := tariff.Amount
	return &amount, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Tariff, error) {
	tariffID, err := parseID(id)
	if err != nil {
		return domain.Tariff{}, err
	}
	tariff, err := s.repo.FindByID(ctx, s.db, tariffID)
	if err != nil {
		return domain.Tariff{}, err
	}
	if tariff == nil {
		return domain.Tariff{}, domain.ErrNotFound
	}
	return *tariff, nil
}

func (s *Service) List(ctx context.Context, req domain.ListTariffRequest) (domain.ListTariffResponse, error) {
	filter := &domain.Tariff{}
	if year := strings.TrimSpace(req.SchoolYear); year != "" {
		if !schoolyear.Valid(year) {
			return domain.ListTariffResponse{}, domain.ErrInvalidSchoolYear
		}
		filter.SchoolYear = year
	}
	if category := strings.ToUpper(strings.TrimSpace(req.Category)); category != "" {
		if !domain.Category(category).Valid() {
			return domain.ListTariffResponse{}, domain.ErrInvalidCategory
		}
		filter.Category = domain.Category(category)
	}

	items, err := s.tariffs.Find(ctx, filter, option.ApplyPagination(req.Pagination))
	if err != nil {
		return domain.ListTariffResponse{}, err
	}
	page, info := pagination.BuildCursorPageInfo(items, req.Size(), func(t *domain.Tariff) pagination.Cursor {
		return pagination.NewCursor(t.ID.String(), t.CreatedAt)
	})
	return domain.ListTariffResponse{PageInfo: info, Tariffs: derefAll(page)}, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateTariffRequest) (domain.Tariff, error) {
	key := normalizeKey(req.Key)
	if key == "" {
		return domain.Tariff{}, domain.ErrInvalidKey
	}
	year := strings.TrimSpace(req.SchoolYear)
	if !schoolyear.Valid(year) {
		return domain.Tariff{}, domain.ErrInvalidSchoolYear
	}
	if req.Amount.IsNegative() {
		return domain.Tariff{}, domain.ErrInvalidAmount
	}
	category := domain.Category(strings.ToUpper(strings.TrimSpace(string(req.Category))))
	if !category.Valid() {
		return domain.Tariff{}, domain.ErrInvalidCategory
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now()
	tariff := domain.Tariff{
		ID:         s.genID.Generate(),
		Key:        key,
		SchoolYear: year,
		Amount:     req.Amount.Round(2),
		Category:   category,
		Label:      strings.TrimSpace(req.Label),
		Active:     active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, s.db, &tariff); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Tariff{}, domain.ErrDuplicate
		}
		return domain.Tariff{}, err
	}

	s.log.Info("tariff created",
		zap.String("key", tariff.Key),
		zap.String("school_year", tariff.SchoolYear),
		zap.String("amount", tariff.Amount.StringFixed(2)),
	)
	return tariff, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateTariffRequest) (domain.Tariff, error) {
	tariff, err := s.Get(ctx, id)
	if err != nil {
		return domain.Tariff{}, err
	}

	if req.Amount != nil {
		if req.Amount.IsNegative() {
			return domain.Tariff{}, domain.ErrInvalidAmount
		}
		tariff.Amount = req.Amount.Round(2)
	}
	if req.Label != nil {
		tariff.Label = strings.TrimSpace(*req.Label)
	}
	if req.Category != nil {
		category := domain.Category(strings.ToUpper(strings.TrimSpace(string(*req.Category))))
		if !category.Valid() {
			return domain.Tariff{}, domain.ErrInvalidCategory
		}
		tariff.Category = category
	}
	if req.Active != nil {
		tariff.Active = *req.Active
	}
	tariff.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, &tariff); err != nil {
		return domain.Tariff{}, err
	}
	return tariff, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	tariff, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, tariff.ID)
}

// CopyYear duplicates the grid of one school year into another. Keys that
// already exist in the target year are left untouched.
func (s *Service) CopyYear(ctx context.Context, req domain.CopyYearRequest) (domain.CopyYearResult, error) {
	from := strings.TrimSpace(req.FromYear)
	to := strings.TrimSpace(req.ToYear)
	if !schoolyear.Valid(from) || !schoolyear.Valid(to) || from == to {
		return domain.CopyYearResult{}, domain.ErrInvalidSchoolYear
	}

	var result domain.CopyYearResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tariffs := s.tariffs.WithTrx(tx)
		source, err := tariffs.Find(ctx, &domain.Tariff{SchoolYear: from})
		if err != nil {
			return err
		}
		existing, err := tariffs.Find(ctx, &domain.Tariff{SchoolYear: to})
		if err != nil {
			return err
		}
		present := make(map[string]struct{}, len(existing))
		for _, t := range existing {
			present[t.Key] = struct{}{}
		}

		now := s.clock.Now()
		for _, t := range source {
			if _, ok := present[t.Key]; ok {
				result.Skipped++
				continue
			}
			clone := domain.Tariff{
				ID:         s.genID.Generate(),
				Key:        t.Key,
				SchoolYear: to,
				Amount:     t.Amount,
				Category:   t.Category,
				Label:      t.Label,
				Active:     t.Active,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := s.repo.Insert(ctx, tx, &clone); err != nil {
				return err
			}
			result.Copied++
		}
		return nil
	})
	if err != nil {
		return domain.CopyYearResult{}, err
	}

	s.log.Info("tariff grid copied",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("copied", result.Copied),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func normalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
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
