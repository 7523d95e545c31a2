package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/booking/domain"
	"github.com/montessori/ecole/internal/clock"
	familydomain "github.com/montessori/ecole/internal/family/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   domain.Repository
	Family familydomain.Service
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   domain.Repository
	family familydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("booking.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		family: p.Family,
	}
}

func (s *Service) Book(ctx context.Context, childID string, kind domain.Kind, req domain.BookRequest) (domain.BookResult, error) {
	if !kind.Valid() {
		return domain.BookResult{}, domain.ErrInvalidKind
	}
	if len(req.Dates) == 0 {
		return domain.BookResult{}, domain.ErrNoDates
	}
	child, err := s.resolveChild(ctx, childID)
	if err != nil {
		return domain.BookResult{}, err
	}

	seen := make(map[time.Time]struct{}, len(req.Dates))
	days := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		day, err := parseDate(raw)
		if err != nil {
			return domain.BookResult{}, err
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	now := s.clock.Now()
	bookings := make([]*domain.Booking, 0, len(days))
	for _, day := range days {
		bookings = append(bookings, &domain.Booking{
			ID:        s.genID.Generate(),
			ChildID:   child.ID,
			Kind:      kind,
			Date:      day,
			CreatedAt: now,
		})
	}

	created, err := s.repo.InsertIgnoreExisting(ctx, s.db, bookings)
	if err != nil {
		return domain.BookResult{}, err
	}

	s.log.Debug("bookings stored",
		zap.String("child_id", child.ID.String()),
		zap.String("kind", string(kind)),
		zap.Int("requested", len(days)),
		zap.Int64("created", created),
	)
	return domain.BookResult{Requested: len(days), Created: int(created)}, nil
}

func (s *Service) Cancel(ctx context.Context, childID string, kind domain.Kind, date string) error {
	if !kind.Valid() {
		return domain.ErrInvalidKind
	}
	day, err := parseDate(date)
	if err != nil {
		return err
	}
	child, err := s.resolveChild(ctx, childID)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, s.db, child.ID, kind, day)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context, childID string, kind domain.Kind, month string) ([]domain.Booking, error) {
	if kind != "" && !kind.Valid() {
		return nil, domain.ErrInvalidKind
	}
	start, err := time.Parse("2006-01", strings.TrimSpace(month))
	if err != nil {
		return nil, domain.ErrInvalidMonth
	}
	child, err := s.resolveChild(ctx, childID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListRange(ctx, s.db, child.ID, kind, start, start.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	bookings := make([]domain.Booking, 0, len(items))
	for _, item := range items {
		if item != nil {
			bookings = append(bookings, *item)
		}
	}
	return bookings, nil
}

func (s *Service) CountForMonth(ctx context.Context, childID string, kind domain.Kind, year int, month int) (int, error) {
	if !kind.Valid() {
		return 0, domain.ErrInvalidKind
	}
	if month < 1 || month > 12 {
		return 0, domain.ErrInvalidMonth
	}
	child, err := s.resolveChild(ctx, childID)
	if err != nil {
		return 0, err
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	count, err := s.repo.CountRange(ctx, s.db, child.ID, kind, start, start.AddDate(0, 1, 0))
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *Service) resolveChild(ctx context.Context, childID string) (familydomain.Child, error) {
	child, err := s.family.GetChild(ctx, childID)
	if err != nil {
		if errors.Is(err, familydomain.ErrChildNotFound) {
			return familydomain.Child{}, domain.ErrChildNotFound
		}
		return familydomain.Child{}, err
	}
	return child, nil
}

func parseDate(value string) (time.Time, error) {
	day, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, domain.ErrInvalidDate
	}
	return day.UTC(), nil
}
