package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/clock"
	"github.com/montessori/ecole/internal/family/domain"
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

const birthDateLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository

	parents  repository.Repository[domain.Parent]
	children repository.Repository[domain.Child]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("family.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,

		parents:  repository.ProvideStore[domain.Parent](p.DB),
		children: repository.ProvideStore[domain.Child](p.DB),
	}
}

func ofParent(id snowflake.ID) option.QueryOption {
	return option.AnyOf(
		option.Condition{Field: "parent1_id", Operator: option.EQ, Value: id},
		option.Condition{Field: "parent2_id", Operator: option.EQ, Value: id},
	)
}

func (s *Service) CreateParent(ctx context.Context, req domain.CreateParentRequest) (domain.Parent, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" || lastName == "" {
		return domain.Parent{}, domain.ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(email) {
		return domain.Parent{}, domain.ErrInvalidEmail
	}
	rate := decimal.Zero
	if req.TauxReductionRFR != nil {
		rate = *req.TauxReductionRFR
	}
	if !validRate(rate) {
		return domain.Parent{}, domain.ErrInvalidRate
	}

	now := s.clock.Now()
	parent := domain.Parent{
		ID:               s.genID.Generate(),
		FirstName:        firstName,
		LastName:         lastName,
		Email:            email,
		Phone:            strings.TrimSpace(req.Phone),
		Address:          strings.TrimSpace(req.Address),
		ReductionRFR:     req.ReductionRFR,
		TauxReductionRFR: rate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.InsertParent(ctx, s.db, &parent); err != nil {
		return domain.Parent{}, err
	}
	return parent, nil
}

func (s *Service) GetParent(ctx context.Context, id string) (domain.Parent, error) {
	parentID, err := parseID(id)
	if err != nil {
		return domain.Parent{}, err
	}
	parent, err := s.repo.FindParentByID(ctx, s.db, parentID)
	if err != nil {
		return domain.Parent{}, err
	}
	if parent == nil {
		return domain.Parent{}, domain.ErrParentNotFound
	}
	return *parent, nil
}

func (s *Service) ListParents(ctx context.Context, req domain.ListParentsRequest) (domain.ListParentsResponse, error) {
	items, err := s.parents.Find(ctx, &domain.Parent{},
		option.Search(req.Search, "last_name", "first_name", "email"),
		option.ApplyPagination(req.Pagination),
	)
	if err != nil {
		return domain.ListParentsResponse{}, err
	}
	page, info := pagination.BuildCursorPageInfo(items, req.Size(), func(parent *domain.Parent) pagination.Cursor {
		return pagination.NewCursor(parent.ID.String(), parent.CreatedAt)
	})
	return domain.ListParentsResponse{PageInfo: info, Parents: derefAll(page)}, nil
}

func (s *Service) UpdateParent(ctx context.Context, id string, req domain.UpdateParentRequest) (domain.Parent, error) {
	parent, err := s.GetParent(ctx, id)
	if err != nil {
		return domain.Parent{}, err
	}

	if req.FirstName != nil {
		if parent.FirstName = strings.TrimSpace(*req.FirstName); parent.FirstName == "" {
			return domain.Parent{}, domain.ErrInvalidName
		}
	}
	if req.LastName != nil {
		if parent.LastName = strings.TrimSpace(*req.LastName); parent.LastName == "" {
			return domain.Parent{}, domain.ErrInvalidName
		}
	}
	if req.Email != nil {
		if parent.Email = strings.ToLower(strings.TrimSpace(*req.Email)); !validEmail(parent.Email) {
			return domain.Parent{}, domain.ErrInvalidEmail
		}
	}
	if req.Phone != nil {
		parent.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		parent.Address = strings.TrimSpace(*req.Address)
	}
	if req.ReductionRFR != nil {
		parent.ReductionRFR = *req.ReductionRFR
	}
	if req.TauxReductionRFR != nil {
		if !validRate(*req.TauxReductionRFR) {
			return domain.Parent{}, domain.ErrInvalidRate
		}
		parent.TauxReductionRFR = *req.TauxReductionRFR
	}
	parent.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateParent(ctx, s.db, &parent); err != nil {
		return domain.Parent{}, err
	}
	return parent, nil
}

func (s *Service) DeleteParent(ctx context.Context, id string) error {
	parent, err := s.GetParent(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.children.Count(ctx, &domain.Child{}, ofParent(parent.ID))
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrParentHasChildren
	}
	return s.repo.DeleteParent(ctx, s.db, parent.ID)
}

func (s *Service) CreateChild(ctx context.Context, req domain.CreateChildRequest) (domain.Child, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" || lastName == "" {
		return domain.Child{}, domain.ErrInvalidName
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return domain.Child{}, err
	}
	level := domain.Level(strings.ToUpper(strings.TrimSpace(string(req.Level))))
	if !level.Valid() {
		return domain.Child{}, domain.ErrInvalidLevel
	}
	frequency, err := parseFrequency(req.PaymentFrequency)
	if err != nil {
		return domain.Child{}, err
	}

	parent1, err := s.GetParent(ctx, req.Parent1ID)
	if err != nil {
		return domain.Child{}, err
	}
	var parent2ID *snowflake.ID
	if strings.TrimSpace(req.Parent2ID) != "" {
		parent2, err := s.GetParent(ctx, req.Parent2ID)
		if err != nil {
			return domain.Child{}, err
		}
		if parent2.ID == parent1.ID {
			return domain.Child{}, domain.ErrSameParent
		}
		parent2ID = &parent2.ID
	}

	now := s.clock.Now()
	child := domain.Child{
		ID:               s.genID.Generate(),
		FirstName:        firstName,
		LastName:         lastName,
		BirthDate:        birthDate,
		Level:            level,
		ClassName:        strings.TrimSpace(req.ClassName),
		Parent1ID:        parent1.ID,
		Parent2ID:        parent2ID,
		PaymentFrequency: frequency,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.InsertChild(ctx, s.db, &child); err != nil {
		return domain.Child{}, err
	}
	return child, nil
}

func (s *Service) GetChild(ctx context.Context, id string) (domain.Child, error) {
	childID, err := parseID(id)
	if err != nil {
		return domain.Child{}, err
	}
	child, err := s.repo.FindChildByID(ctx, s.db, childID)
	if err != nil {
		return domain.Child{}, err
	}
	if child == nil {
		return domain.Child{}, domain.ErrChildNotFound
	}
	return *child, nil
}

func (s *Service) GetChildDetail(ctx context.Context, id string) (domain.ChildDetail, error) {
	child, err := s.GetChild(ctx, id)
	if err != nil {
		return domain.ChildDetail{}, err
	}
	detail := domain.ChildDetail{Child: child}

	if detail.Parent1, err = s.repo.FindParentByID(ctx, s.db, child.Parent1ID); err != nil {
		return domain.ChildDetail{}, err
	}
	if child.Parent2ID != nil {
		if detail.Parent2, err = s.repo.FindParentByID(ctx, s.db, *child.Parent2ID); err != nil {
			return domain.ChildDetail{}, err
		}
	}
	enrollments, err := s.repo.ListEnrollmentsByChild(ctx, s.db, child.ID)
	if err != nil {
		return domain.ChildDetail{}, err
	}
	detail.Enrollments = derefAll(enrollments)
	return detail, nil
}

func (s *Service) ListChildren(ctx context.Context, req domain.ListChildrenRequest) (domain.ListChildrenResponse, error) {
	filter := &domain.Child{}
	var opts []option.QueryOption
	if strings.TrimSpace(req.ParentID) != "" {
		parentID, err := parseID(req.ParentID)
		if err != nil {
			return domain.ListChildrenResponse{}, err
		}
		opts = append(opts, ofParent(parentID))
	}
	if level := strings.ToUpper(strings.TrimSpace(req.Level)); level != "" {
		if !domain.Level(level).Valid() {
			return domain.ListChildrenResponse{}, domain.ErrInvalidLevel
		}
		filter.Level = domain.Level(level)
	}
	if year := strings.TrimSpace(req.SchoolYear); year != "" {
		if !schoolyear.Valid(year) {
			return domain.ListChildrenResponse{}, domain.ErrInvalidSchoolYear
		}
		active := s.db.Model(&domain.Enrollment{}).
			Select("child_id").
			Where("school_year = ? AND status = ?", year, domain.EnrollmentActive)
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "id", Operator: option.IN, Value: active}))
	}
	opts = append(opts, option.ApplyPagination(req.Pagination))

	items, err := s.children.Find(ctx, filter, opts...)
	if err != nil {
		return domain.ListChildrenResponse{}, err
	}
	page, info := pagination.BuildCursorPageInfo(items, req.Size(), func(child *domain.Child) pagination.Cursor {
		return pagination.NewCursor(child.ID.String(), child.CreatedAt)
	})
	return domain.ListChildrenResponse{PageInfo: info, Children: derefAll(page)}, nil
}

func (s *Service) UpdateChild(ctx context.Context, id string, req domain.UpdateChildRequest) (domain.Child, error) {
	child, err := s.GetChild(ctx, id)
	if err != nil {
		return domain.Child{}, err
	}

	if req.FirstName != nil {
		if child.FirstName = strings.TrimSpace(*req.FirstName); child.FirstName == "" {
			return domain.Child{}, domain.ErrInvalidName
		}
	}
	if req.LastName != nil {
		if child.LastName = strings.TrimSpace(*req.LastName); child.LastName == "" {
			return domain.Child{}, domain.ErrInvalidName
		}
	}
	if req.BirthDate != nil {
		if child.BirthDate, err = parseBirthDate(*req.BirthDate); err != nil {
			return domain.Child{}, err
		}
	}
	if req.Level != nil {
		level := domain.Level(strings.ToUpper(strings.TrimSpace(string(*req.Level))))
		if !level.Valid() {
			return domain.Child{}, domain.ErrInvalidLevel
		}
		child.Level = level
	}
	if req.ClassName != nil {
		child.ClassName = strings.TrimSpace(*req.ClassName)
	}
	if req.PaymentFrequency != nil {
		if child.PaymentFrequency, err = parseFrequency(*req.PaymentFrequency); err != nil {
			return domain.Child{}, err
		}
	}
	if req.Parent2ID != nil {
		if strings.TrimSpace(*req.Parent2ID) == "" {
			child.Parent2ID = nil
		} else {
			parent2, err := s.GetParent(ctx, *req.Parent2ID)
			if err != nil {
				return domain.Child{}, err
			}
			if parent2.ID == child.Parent1ID {
				return domain.Child{}, domain.ErrSameParent
			}
			child.Parent2ID = &parent2.ID
		}
	}
	child.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateChild(ctx, s.db, &child); err != nil {
		return domain.Child{}, err
	}
	return child, nil
}

func (s *Service) DeleteChild(ctx context.Context, id string) error {
	child, err := s.GetChild(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoices, err := s.repo.CountChildInvoices(ctx, tx, child.ID)
		if err != nil {
			return err
		}
		if invoices > 0 {
			return domain.ErrChildHasInvoices
		}
		return s.repo.DeleteChild(ctx, tx, child.ID)
	})
}

func (s *Service) Enroll(ctx context.Context, childID, schoolYear string) (domain.Enrollment, error) {
	year, err := parseYear(schoolYear)
	if err != nil {
		return domain.Enrollment{}, err
	}
	child, err := s.GetChild(ctx, childID)
	if err != nil {
		return domain.Enrollment{}, err
	}

	existing, err := s.repo.FindEnrollment(ctx, s.db, child.ID, year.String())
	if err != nil {
		return domain.Enrollment{}, err
	}
	if existing != nil {
		return domain.Enrollment{}, domain.ErrAlreadyEnrolled
	}

	now := s.clock.Now()
	enrollment := domain.Enrollment{
		ID:         s.genID.Generate(),
		ChildID:    child.ID,
		SchoolYear: year.String(),
		Status:     domain.EnrollmentActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.InsertEnrollment(ctx, s.db, &enrollment); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Enrollment{}, domain.ErrAlreadyEnrolled
		}
		return domain.Enrollment{}, err
	}

	s.log.Info("child enrolled",
		zap.String("child_id", child.ID.String()),
		zap.String("school_year", enrollment.SchoolYear),
	)
	return enrollment, nil
}

func (s *Service) TerminateEnrollment(ctx context.Context, childID, schoolYear string) (domain.Enrollment, error) {
	year, err := parseYear(schoolYear)
	if err != nil {
		return domain.Enrollment{}, err
	}
	child, err := s.GetChild(ctx, childID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	enrollment, err := s.repo.FindEnrollment(ctx, s.db, child.ID, year.String())
	if err != nil {
		return domain.Enrollment{}, err
	}
	if enrollment == nil {
		return domain.Enrollment{}, domain.ErrEnrollmentNotFound
	}
	if enrollment.Status == domain.EnrollmentTerminated {
		return *enrollment, nil
	}

	enrollment.Status = domain.EnrollmentTerminated
	enrollment.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateEnrollmentStatus(ctx, s.db, enrollment); err != nil {
		return domain.Enrollment{}, err
	}
	return *enrollment, nil
}

func (s *Service) ListChildEnrollments(ctx context.Context, childID string) ([]domain.Enrollment, error) {
	child, err := s.GetChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListEnrollmentsByChild(ctx, s.db, child.ID)
	if err != nil {
		return nil, err
	}
	return derefAll(items), nil
}

func (s *Service) ListEnrollments(ctx context.Context, schoolYear string) ([]domain.Enrollment, error) {
	year, err := parseYear(schoolYear)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListEnrollmentsByYear(ctx, s.db, year.String(), "")
	if err != nil {
		return nil, err
	}
	return derefAll(items), nil
}

func (s *Service) ChildrenAwaitingEnrollment(ctx context.Context, schoolYear string) ([]domain.Child, error) {
	year, err := parseYear(schoolYear)
	if err != nil {
		return nil, err
	}
	previous, err := s.repo.ListEnrollmentsByYear(ctx, s.db, year.Previous().String(), domain.EnrollmentActive)
	if err != nil {
		return nil, err
	}

	children := make([]domain.Child, 0)
	for _, enrollment := range previous {
		next, err := s.repo.FindEnrollment(ctx, s.db, enrollment.ChildID, year.String())
		if err != nil {
			return nil, err
		}
		if next != nil {
			continue
		}
		child, err := s.repo.FindChildByID(ctx, s.db, enrollment.ChildID)
		if err != nil {
			return nil, err
		}
		if child != nil {
			children = append(children, *child)
		}
	}
	return children, nil
}

func (s *Service) SignRegulation(ctx context.Context, childID string, req domain.SignRegulationRequest) (domain.RegulationSignature, error) {
	year, err := parseYear(req.SchoolYear)
	if err != nil {
		return domain.RegulationSignature{}, err
	}
	signedBy := strings.TrimSpace(req.SignedBy)
	if signedBy == "" {
		return domain.RegulationSignature{}, domain.ErrInvalidSignature
	}
	child, err := s.GetChild(ctx, childID)
	if err != nil {
		return domain.RegulationSignature{}, err
	}

	signature := domain.RegulationSignature{
		ID:         s.genID.Generate(),
		ChildID:    child.ID,
		SchoolYear: year.String(),
		SignedBy:   signedBy,
		SignedAt:   s.clock.Now(),
	}
	if err := s.repo.UpsertRegulationSignature(ctx, s.db, &signature); err != nil {
		return domain.RegulationSignature{}, err
	}
	stored, err := s.repo.FindRegulationSignature(ctx, s.db, child.ID, signature.SchoolYear)
	if err != nil {
		return domain.RegulationSignature{}, err
	}
	if stored == nil {
		return signature, nil
	}
	return *stored, nil
}

func (s *Service) GetRegulationSignature(ctx context.Context, childID, schoolYear string) (domain.RegulationSignature, error) {
	year, err := parseYear(schoolYear)
	if err != nil {
		return domain.RegulationSignature{}, err
	}
	child, err := s.GetChild(ctx, childID)
	if err != nil {
		return domain.RegulationSignature{}, err
	}
	signature, err := s.repo.FindRegulationSignature(ctx, s.db, child.ID, year.String())
	if err != nil {
		return domain.RegulationSignature{}, err
	}
	if signature == nil {
		return domain.RegulationSignature{}, domain.ErrSignatureNotFound
	}
	return *signature, nil
}

func (s *Service) CountFratrie(ctx context.Context, parentID, schoolYear string) (int, error) {
	year, err := parseYear(schoolYear)
	if err != nil {
		return 0, err
	}
	id, err := parseID(parentID)
	if err != nil {
		return 0, err
	}
	siblings, err := s.repo.ListActiveSiblings(ctx, s.db, id, year.String())
	if err != nil {
		return 0, err
	}
	return len(siblings), nil
}

func (s *Service) SiblingRank(ctx context.Context, childID, schoolYear string) (int, error) {
	year, err := parseYear(schoolYear)
	if err != nil {
		return 0, err
	}
	child, err := s.GetChild(ctx, childID)
	if err != nil {
		return 0, err
	}
	siblings, err := s.repo.ListActiveSiblings(ctx, s.db, child.Parent1ID, year.String())
	if err != nil {
		return 0, err
	}
	for i, sibling := range siblings {
		if sibling.ID == child.ID {
			return i + 1, nil
		}
	}
	return len(siblings) + 1, nil
}

func (s *Service) IsPremiereAnnee(ctx context.Context, childID, schoolYear string) (bool, error) {
	year, err := parseYear(schoolYear)
	if err != nil {
		return false, err
	}
	child, err := s.GetChild(ctx, childID)
	if err != nil {
		return false, err
	}
	enrollments, err := s.repo.ListEnrollmentsByChild(ctx, s.db, child.ID)
	if err != nil {
		return false, err
	}
	for _, enrollment := range enrollments {
		past, err := schoolyear.Parse(enrollment.SchoolYear)
		if err != nil {
			s.log.Warn("skipping malformed enrollment year",
				zap.String("enrollment_id", enrollment.ID.String()),
				zap.String("school_year", enrollment.SchoolYear),
			)
			continue
		}
		if past.Before(year) {
			return false, nil
		}
	}
	return true, nil
}

func parseID(id string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed, nil
}

func parseYear(value string) (schoolyear.Year, error) {
	year, err := schoolyear.Parse(value)
	if err != nil {
		return schoolyear.Year{}, domain.ErrInvalidSchoolYear
	}
	return year, nil
}

func parseBirthDate(value string) (time.Time, error) {
	t, err := time.Parse(birthDateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, domain.ErrInvalidBirthDate
	}
	return t.UTC(), nil
}

func parseFrequency(value string) (domain.PaymentFrequency, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return domain.FrequencyMensuel, nil
	}
	frequency := domain.PaymentFrequency(value)
	if !frequency.Valid() {
		return "", domain.ErrInvalidFrequency
	}
	return frequency, nil
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

func validRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(hundred)
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
