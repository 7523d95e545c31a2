package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/clock"
	"github.com/montessori/ecole/internal/config"
	"github.com/montessori/ecole/internal/events"
	familydomain "github.com/montessori/ecole/internal/family/domain"
	"github.com/montessori/ecole/internal/observability/metrics"
	"github.com/montessori/ecole/internal/preinscription/domain"
	"github.com/montessori/ecole/internal/providers/pdf"
	"github.com/montessori/ecole/pkg/db/option"
	"github.com/montessori/ecole/pkg/db/pagination"
	"github.com/montessori/ecole/pkg/repository"
	"github.com/montessori/ecole/pkg/schoolyear"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const birthDateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	FamilyRepo familydomain.Repository
	School     *config.SchoolConfigHolder `optional:"true"`
	PDF        pdf.Provider
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
	school     *config.SchoolConfigHolder
	pdf        pdf.Provider
	notifier   *events.Notifier
	metrics    *metrics.Metrics

	preinscriptions repository.Repository[domain.Preinscription]
}

func New(p Params) domain.Service {
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
		log:        p.Log.Named("preinscription.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		familyrepo: p.FamilyRepo,
		school:     school,
		pdf:        p.PDF,
		notifier:   p.Notifier,
		metrics:    m,

		preinscriptions: repository.ProvideStore[domain.Preinscription](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.Preinscription, error) {
	now := s.clock.Now()
	item := domain.Preinscription{
		ID:        s.genID.Generate(),
		Reference: ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Status:    domain.StatusPending,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applyCreate(&item, req); err != nil {
		return domain.Preinscription{}, err
	}

	if err := s.repo.Insert(ctx, s.db, &item); err != nil {
		return domain.Preinscription{}, err
	}

	s.log.Info("preinscription received",
		zap.String("reference", item.Reference),
		zap.String("school_year", item.SchoolYear),
	)
	s.metrics.RecordPreinscription(ctx, string(item.Status))
	s.notify(ctx, events.TypePreinscriptionCreated, item)
	return item, nil
}

func applyCreate(item *domain.Preinscription, req domain.CreateRequest) error {
	year, err := schoolyear.Parse(req.SchoolYear)
	if err != nil {
		return domain.ErrInvalidSchoolYear
	}
	item.SchoolYear = year.String()

	if item.ChildFirstName, err = requiredName(req.ChildFirstName); err != nil {
		return err
	}
	if item.ChildLastName, err = requiredName(req.ChildLastName); err != nil {
		return err
	}
	if item.ChildBirthDate, err = parseBirthDate(req.ChildBirthDate); err != nil {
		return err
	}
	if item.Level, err = parseLevel(req.Level); err != nil {
		return err
	}
	if err := setGuardian1(item, req.Guardian1); err != nil {
		return err
	}
	if err := setGuardian2(item, req.Guardian2); err != nil {
		return err
	}
	if req.Answers != nil {
		item.Answers = datatypes.JSONMap(req.Answers)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Preinscription, error) {
	item, err := s.find(ctx, s.db, id)
	if err != nil {
		return domain.Preinscription{}, err
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	filter := &domain.Preinscription{}
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

	items, err := s.preinscriptions.Find(ctx, filter,
		option.Search(req.Search, "child_last_name", "child_first_name", "guardian1_email", "reference"),
		option.ApplyPagination(req.Pagination),
	)
	if err != nil {
		return domain.ListResponse{}, err
	}
	page, info := pagination.BuildCursorPageInfo(items, req.Size(), func(item *domain.Preinscription) pagination.Cursor {
		return pagination.NewCursor(item.ID.String(), item.CreatedAt)
	})
	out := make([]domain.Preinscription, 0, len(page))
	for _, item := range page {
		out = append(out, *item)
	}
	return domain.ListResponse{PageInfo: info, Preinscriptions: out}, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (domain.Preinscription, error) {
	var item domain.Preinscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.pending(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := applyUpdate(current, req); err != nil {
			return err
		}
		current.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, current); err != nil {
			return err
		}
		item = *current
		return nil
	})
	if err != nil {
		return domain.Preinscription{}, err
	}
	return item, nil
}

func applyUpdate(item *domain.Preinscription, req domain.UpdateRequest) error {
	var err error
	if req.SchoolYear != nil {
		year, err := schoolyear.Parse(*req.SchoolYear)
		if err != nil {
			return domain.ErrInvalidSchoolYear
		}
		item.SchoolYear = year.String()
	}
	if req.ChildFirstName != nil {
		if item.ChildFirstName, err = requiredName(*req.ChildFirstName); err != nil {
			return err
		}
	}
	if req.ChildLastName != nil {
		if item.ChildLastName, err = requiredName(*req.ChildLastName); err != nil {
			return err
		}
	}
	if req.ChildBirthDate != nil {
		if item.ChildBirthDate, err = parseBirthDate(*req.ChildBirthDate); err != nil {
			return err
		}
	}
	if req.Level != nil {
		if item.Level, err = parseLevel(*req.Level); err != nil {
			return err
		}
	}
	if req.Guardian1 != nil {
		if err := setGuardian1(item, *req.Guardian1); err != nil {
			return err
		}
	}
	if req.Guardian2 != nil {
		if err := setGuardian2(item, req.Guardian2); err != nil {
			return err
		}
	}
	if req.Answers != nil {
		item.Answers = datatypes.JSONMap(req.Answers)
	}
	if req.Comment != nil {
		item.Comment = strings.TrimSpace(*req.Comment)
	}
	return nil
}

// Validate admits the child: guardians are matched by email or created, then
// the child and its enrollment for the requested year are created.
func (s *Service) Validate(ctx context.Context, id string) (domain.Decision, error) {
	var decision domain.Decision
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.pending(ctx, tx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()

		parent1, err := s.ensureParent(ctx, tx, familydomain.Parent{
			FirstName: current.Guardian1FirstName,
			LastName:  current.Guardian1LastName,
			Email:     current.Guardian1Email,
			Phone:     current.Guardian1Phone,
			Address:   current.Guardian1Address,
		}, now)
		if err != nil {
			return err
		}
		var parent2ID *snowflake.ID
		if current.HasSecondGuardian() {
			parent2, err := s.ensureParent(ctx, tx, familydomain.Parent{
				FirstName: current.Guardian2FirstName,
				LastName:  current.Guardian2LastName,
				Email:     current.Guardian2Email,
				Phone:     current.Guardian2Phone,
			}, now)
			if err != nil {
				return err
			}
			if parent2.ID != parent1.ID {
				parent2ID = &parent2.ID
			}
		}

		child := familydomain.Child{
			ID:               s.genID.Generate(),
			FirstName:        current.ChildFirstName,
			LastName:         current.ChildLastName,
			BirthDate:        current.ChildBirthDate,
			Level:            current.Level,
			Parent1ID:        parent1.ID,
			Parent2ID:        parent2ID,
			PaymentFrequency: familydomain.FrequencyMensuel,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.familyrepo.InsertChild(ctx, tx, &child); err != nil {
			return err
		}
		enrollment := familydomain.Enrollment{
			ID:         s.genID.Generate(),
			ChildID:    child.ID,
			SchoolYear: current.SchoolYear,
			Status:     familydomain.EnrollmentActive,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.familyrepo.InsertEnrollment(ctx, tx, &enrollment); err != nil {
			return err
		}

		current.Status = domain.StatusValidated
		current.ChildID = &child.ID
		current.ParentID = &parent1.ID
		current.DecidedAt = &now
		current.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, current); err != nil {
			return err
		}

		decision = domain.Decision{
			Preinscription: *current,
			ParentID:       parent1.ID.String(),
			ChildID:        child.ID.String(),
			EnrollmentID:   enrollment.ID.String(),
		}
		return nil
	})
	if err != nil {
		return domain.Decision{}, err
	}

	item := decision.Preinscription
	s.log.Info("preinscription validated",
		zap.String("reference", item.Reference),
		zap.String("child_id", decision.ChildID),
		zap.String("school_year", item.SchoolYear),
	)
	s.metrics.RecordPreinscription(ctx, string(item.Status))
	s.notify(ctx, events.TypePreinscriptionValidated, item)
	return decision, nil
}

func (s *Service) ensureParent(ctx context.Context, tx *gorm.DB, candidate familydomain.Parent, now time.Time) (familydomain.Parent, error) {
	existing, err := s.familyrepo.FindParentByEmail(ctx, tx, candidate.Email)
	if err != nil {
		return familydomain.Parent{}, err
	}
	if existing != nil {
		return *existing, nil
	}
	candidate.ID = s.genID.Generate()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now
	if err := s.familyrepo.InsertParent(ctx, tx, &candidate); err != nil {
		return familydomain.Parent{}, err
	}
	return candidate, nil
}

func (s *Service) Refuse(ctx context.Context, id string, req domain.RefuseRequest) (domain.Preinscription, error) {
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return domain.Preinscription{}, domain.ErrInvalidComment
	}
	item, err := s.decide(ctx, id, domain.StatusRefused, comment)
	if err != nil {
		return domain.Preinscription{}, err
	}
	s.metrics.RecordPreinscription(ctx, string(item.Status))
	s.notify(ctx, events.TypePreinscriptionRefused, item)
	return item, nil
}

func (s *Service) Cancel(ctx context.Context, id string) (domain.Preinscription, error) {
	item, err := s.decide(ctx, id, domain.StatusCancelled, "")
	if err != nil {
		return domain.Preinscription{}, err
	}
	s.metrics.RecordPreinscription(ctx, string(item.Status))
	return item, nil
}

func (s *Service) decide(ctx context.Context, id string, status domain.Status, comment string) (domain.Preinscription, error) {
	var item domain.Preinscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.pending(ctx, tx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		current.Status = status
		if comment != "" {
			current.Comment = comment
		}
		current.DecidedAt = &now
		current.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, current); err != nil {
			return err
		}
		item = *current
		return nil
	})
	if err != nil {
		return domain.Preinscription{}, err
	}
	return item, nil
}

func (s *Service) PDF(ctx context.Context, id string) (domain.Document, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return domain.Document{}, err
	}
	content, err := s.pdf.RenderDossier(ctx, dossierDocument(s.school.Get(), item))
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		FileName: pdf.FileName("dossier", item.Reference),
		Content:  content,
	}, nil
}

func (s *Service) find(ctx context.Context, tx *gorm.DB, id string) (*domain.Preinscription, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrInvalidID
	}
	var (
		item *domain.Preinscription
		err  error
	)
	if parsed, parseErr := snowflake.ParseString(id); parseErr == nil && parsed != 0 {
		item, err = s.repo.FindByID(ctx, tx, parsed)
	} else if _, parseErr := ulid.ParseStrict(id); parseErr == nil {
		item, err = s.repo.FindByReference(ctx, tx, id)
	} else {
		return nil, domain.ErrInvalidID
	}
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) pending(ctx context.Context, tx *gorm.DB, id string) (*domain.Preinscription, error) {
	item, err := s.find(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if item.Status != domain.StatusPending {
		return nil, domain.ErrNotPending
	}
	return item, nil
}

func (s *Service) notify(ctx context.Context, eventType string, item domain.Preinscription) {
	payload := map[string]any{
		"preinscription_id": item.ID.String(),
		"reference":         item.Reference,
		"school_year":       item.SchoolYear,
		"status":            string(item.Status),
		"child_name":        item.ChildName(),
		"email":             item.Guardian1Email,
		"parent_name":       item.Guardian1FirstName + " " + item.Guardian1LastName,
	}
	if item.Comment != "" {
		payload["comment"] = item.Comment
	}
	s.notifier.Notify(ctx, eventType, payload)
}

func dossierDocument(settings config.SchoolConfig, item domain.Preinscription) pdf.DossierData {
	guardians := []pdf.Guardian{{
		Name:    item.Guardian1FirstName + " " + item.Guardian1LastName,
		Email:   item.Guardian1Email,
		Phone:   item.Guardian1Phone,
		Address: item.Guardian1Address,
	}}
	if item.HasSecondGuardian() {
		guardians = append(guardians, pdf.Guardian{
			Name:  strings.TrimSpace(item.Guardian2FirstName + " " + item.Guardian2LastName),
			Email: item.Guardian2Email,
			Phone: item.Guardian2Phone,
		})
	}

	keys := make([]string, 0, len(item.Answers))
	for key := range item.Answers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	answers := make([]pdf.Answer, 0, len(keys))
	for _, key := range keys {
		answers = append(answers, pdf.Answer{Question: key, Value: fmt.Sprint(item.Answers[key])})
	}

	return pdf.DossierData{
		School: pdf.School{
			Name:        settings.School.Name,
			Address:     settings.School.Address,
			Email:       settings.School.Email,
			Phone:       settings.School.Phone,
			BankDetails: settings.School.BankDetails,
		},
		Reference:      item.Reference,
		SubmittedAt:    item.CreatedAt.Format("02/01/2006"),
		Status:         string(item.Status),
		SchoolYear:     item.SchoolYear,
		ChildName:      item.ChildName(),
		ChildBirthDate: item.ChildBirthDate.Format("02/01/2006"),
		Level:          string(item.Level),
		Guardians:      guardians,
		Answers:        answers,
		Comment:        item.Comment,
	}
}

func setGuardian1(item *domain.Preinscription, g domain.Guardian) error {
	firstName, err := requiredName(g.FirstName)
	if err != nil {
		return err
	}
	lastName, err := requiredName(g.LastName)
	if err != nil {
		return err
	}
	email, err := parseEmail(g.Email)
	if err != nil {
		return err
	}
	item.Guardian1FirstName = firstName
	item.Guardian1LastName = lastName
	item.Guardian1Email = email
	item.Guardian1Phone = strings.TrimSpace(g.Phone)
	item.Guardian1Address = strings.TrimSpace(g.Address)
	return nil
}

// setGuardian2 clears the second guardian when g is nil or blank.
func setGuardian2(item *domain.Preinscription, g *domain.Guardian) error {
	item.Guardian2FirstName = ""
	item.Guardian2LastName = ""
	item.Guardian2Email = ""
	item.Guardian2Phone = ""
	if g == nil || (strings.TrimSpace(g.LastName) == "" && strings.TrimSpace(g.Email) == "") {
		return nil
	}
	lastName, err := requiredName(g.LastName)
	if err != nil {
		return err
	}
	email, err := parseEmail(g.Email)
	if err != nil {
		return err
	}
	item.Guardian2FirstName = strings.TrimSpace(g.FirstName)
	item.Guardian2LastName = lastName
	item.Guardian2Email = email
	item.Guardian2Phone = strings.TrimSpace(g.Phone)
	return nil
}

func requiredName(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", domain.ErrInvalidName
	}
	return value, nil
}

func parseEmail(value string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(value))
	at := strings.Index(email, "@")
	if at <= 0 || at >= len(email)-1 {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}

func parseBirthDate(value string) (time.Time, error) {
	t, err := time.Parse(birthDateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, domain.ErrInvalidBirthDate
	}
	return t.UTC(), nil
}

func parseLevel(value string) (familydomain.Level, error) {
	level := familydomain.Level(strings.ToUpper(strings.TrimSpace(value)))
	if !level.Valid() {
		return "", domain.ErrInvalidLevel
	}
	return level, nil
}
