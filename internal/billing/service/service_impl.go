package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/montessori/ecole/internal/billing/domain"
	bookingdomain "github.com/montessori/ecole/internal/booking/domain"
	"github.com/montessori/ecole/internal/config"
	familydomain "github.com/montessori/ecole/internal/family/domain"
	tariffdomain "github.com/montessori/ecole/internal/tariff/domain"
	"github.com/montessori/ecole/pkg/schoolyear"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

var monthNames = [...]string{
	"", "janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Tariff  tariffdomain.Service
	Family  familydomain.Service
	Booking bookingdomain.Service
}

type Service struct {
	log        *zap.Logger
	startMonth time.Month
	tariff     tariffdomain.Service
	family     familydomain.Service
	booking    bookingdomain.Service
}

func New(p Params) domain.Service {
	startMonth := time.Month(p.Config.SchoolYearStartMonth)
	if startMonth < time.January || startMonth > time.December {
		startMonth = schoolyear.DefaultStartMonth
	}
	return &Service{
		log:        p.Log.Named("billing.service"),
		startMonth: startMonth,
		tariff:     p.Tariff,
		family:     p.Family,
		booking:    p.Booking,
	}
}

// CalculateTuition prices one billing instalment of tuition. The sibling
// discount is the gap between the regular and the _FRATRIE rate; the income
// discount applies to what remains after it.
func (s *Service) CalculateTuition(ctx context.Context, child familydomain.Child, parent familydomain.Parent, schoolYear string, rank int) (domain.TuitionBreakdown, error) {
	if rank < 1 {
		return domain.TuitionBreakdown{}, domain.ErrInvalidRank
	}
	frequency := child.PaymentFrequency
	if frequency == "" {
		frequency = familydomain.FrequencyMensuel
	}

	key := tariffdomain.TuitionKey(string(child.Level), string(frequency), false)
	base, err := s.require(ctx, key, schoolYear)
	if err != nil {
		return domain.TuitionBreakdown{}, err
	}

	siblingDiscount := decimal.Zero
	if rank >= 2 {
		siblingRate, err := s.tariff.Lookup(ctx, tariffdomain.TuitionKey(string(child.Level), string(frequency), true), schoolYear)
		if err != nil {
			return domain.TuitionBreakdown{}, err
		}
		if siblingRate != nil && siblingRate.LessThan(base) {
			siblingDiscount = base.Sub(*siblingRate)
		}
	}

	incomeDiscount := s.IncomeReduction(parent, base.Sub(siblingDiscount))
	breakdown := domain.TuitionBreakdown{
		TariffKey:       key,
		Rank:            rank,
		Base:            base,
		SiblingDiscount: siblingDiscount,
		IncomeDiscount:  incomeDiscount,
		Final:           base.Sub(siblingDiscount).Sub(incomeDiscount),
	}
	if parent.ReductionRFR {
		breakdown.IncomeRate = parent.TauxReductionRFR
	}
	return breakdown, nil
}

// IncomeReduction is the RFR discount on amount, zero unless the guardian
// has ReductionRFR enabled.
func (s *Service) IncomeReduction(parent familydomain.Parent, amount decimal.Decimal) decimal.Decimal {
	if !parent.ReductionRFR || !parent.TauxReductionRFR.IsPositive() || !amount.IsPositive() {
		return decimal.Zero
	}
	return domain.RoundMoney(amount.Mul(parent.TauxReductionRFR).Div(hundred))
}

func (s *Service) RegistrationFee(ctx context.Context, schoolYear string, firstYear, sibling bool) (decimal.Decimal, error) {
	return s.require(ctx, registrationKey(firstYear, sibling), schoolYear)
}

func (s *Service) MealLine(count int, unitPrice decimal.Decimal) domain.Line {
	if count < 0 {
		count = 0
	}
	return domain.NewLine(domain.LineRepas, "Repas du midi", decimal.NewFromInt(int64(count)), unitPrice)
}

func (s *Service) GenerateLines(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
	period, err := schoolyear.ParsePeriod(req.Period)
	if err != nil {
		return domain.GenerateResult{}, domain.ErrInvalidPeriod
	}
	year := period.SchoolYear(s.startMonth).String()

	child, err := s.family.GetChild(ctx, req.ChildID)
	if err != nil {
		return domain.GenerateResult{}, err
	}
	parent, err := s.family.GetParent(ctx, child.Parent1ID.String())
	if err != nil {
		return domain.GenerateResult{}, err
	}
	rank, err := s.family.SiblingRank(ctx, child.ID.String(), year)
	if err != nil {
		return domain.GenerateResult{}, err
	}
	siblings, err := s.family.CountFratrie(ctx, child.Parent1ID.String(), year)
	if err != nil {
		return domain.GenerateResult{}, err
	}
	if rank > siblings {
		return domain.GenerateResult{}, domain.ErrNotEnrolled
	}

	result := domain.GenerateResult{
		ChildID:    child.ID.String(),
		ParentID:   parent.ID.String(),
		SchoolYear: year,
		Period:     period.String(),
		Lines:      make([]domain.Line, 0, 6),
	}
	label := periodLabel(period)

	if s.isTuitionMonth(child.PaymentFrequency, period.Month) {
		breakdown, err := s.CalculateTuition(ctx, child, parent, year, rank)
		if err != nil {
			return domain.GenerateResult{}, err
		}
		result.Tuition = &breakdown
		result.Lines = append(result.Lines, domain.NewLine(
			domain.LineScolarite,
			fmt.Sprintf("Scolarité %s %s - %s", strings.ToLower(string(child.Level)), frequencyLabel(child.PaymentFrequency), label),
			one, breakdown.Base,
		))
		if breakdown.SiblingDiscount.IsPositive() {
			result.Lines = append(result.Lines, domain.NewLine(
				domain.LineReductionFratrie,
				fmt.Sprintf("Réduction fratrie (rang %d)", rank),
				one, breakdown.SiblingDiscount.Neg(),
			))
		}
		if breakdown.IncomeDiscount.IsPositive() {
			result.Lines = append(result.Lines, domain.NewLine(
				domain.LineReductionRFR,
				fmt.Sprintf("Réduction RFR (%s %%)", breakdown.IncomeRate.String()),
				one, breakdown.IncomeDiscount.Neg(),
			))
		}
	}

	meals, err := s.booking.CountForMonth(ctx, child.ID.String(), bookingdomain.KindRepasMidi, period.Year, int(period.Month))
	if err != nil {
		return domain.GenerateResult{}, err
	}
	if meals > 0 {
		unit, err := s.require(ctx, tariffdomain.KeyRepasMidi, year)
		if err != nil {
			return domain.GenerateResult{}, err
		}
		line := s.MealLine(meals, unit)
		line.Description = "Repas du midi - " + label
		result.Lines = append(result.Lines, line)
	}

	sessions, err := s.booking.CountForMonth(ctx, child.ID.String(), bookingdomain.KindPeriscolaire, period.Year, int(period.Month))
	if err != nil {
		return domain.GenerateResult{}, err
	}
	if sessions > 0 {
		unit, err := s.require(ctx, tariffdomain.KeyPeriscolaireSeance, year)
		if err != nil {
			return domain.GenerateResult{}, err
		}
		result.Lines = append(result.Lines, domain.NewLine(
			domain.LinePeriscolaire,
			"Périscolaire - "+label,
			decimal.NewFromInt(int64(sessions)), unit,
		))
	}

	startOfYear := period.Month == s.startMonth
	if req.Options.IncludeInscription && startOfYear && !req.RegistrationBilled {
		firstYear, err := s.family.IsPremiereAnnee(ctx, child.ID.String(), year)
		if err != nil {
			return domain.GenerateResult{}, err
		}
		fee, err := s.RegistrationFee(ctx, year, firstYear, rank >= 2)
		if err != nil {
			return domain.GenerateResult{}, err
		}
		description := "Frais de réinscription " + year
		if firstYear {
			description = "Frais d'inscription " + year
		}
		result.Lines = append(result.Lines, domain.NewLine(domain.LineInscription, description, one, fee))
	}

	if req.Options.IncludeMateriel && startOfYear {
		fee, err := s.require(ctx, tariffdomain.KeyFraisMateriel, year)
		if err != nil {
			return domain.GenerateResult{}, err
		}
		result.Lines = append(result.Lines, domain.NewLine(domain.LineMateriel, "Frais de matériel "+year, one, fee))
	}

	result.Totals = domain.SumLines(result.Lines)
	s.log.Debug("lines generated",
		zap.String("child_id", result.ChildID),
		zap.String("period", result.Period),
		zap.Int("lines", len(result.Lines)),
		zap.String("net", result.Net.StringFixed(2)),
	)
	return result, nil
}

// isTuitionMonth reports whether tuition falls due in month: every month for
// MENSUEL, at the start of each term for TRIMESTRIEL, once at the start of the
// year for ANNUEL.
func (s *Service) isTuitionMonth(frequency familydomain.PaymentFrequency, month time.Month) bool {
	offset := (int(month) - int(s.startMonth) + 12) % 12
	switch frequency {
	case familydomain.FrequencyAnnuel:
		return offset == 0
	case familydomain.FrequencyTrimestriel:
		// September, January and April for a September start.
		return offset == 0 || offset == 4 || offset == 7
	default:
		return true
	}
}

func (s *Service) require(ctx context.Context, key, schoolYear string) (decimal.Decimal, error) {
	amount, err := s.tariff.Lookup(ctx, key, schoolYear)
	if err != nil {
		return decimal.Zero, err
	}
	if amount == nil {
		s.log.Warn("required tariff missing", zap.String("key", key), zap.String("school_year", schoolYear))
		return decimal.Zero, fmt.Errorf("%w: %s %s", domain.ErrTariffMissing, key, schoolYear)
	}
	return *amount, nil
}

func registrationKey(firstYear, sibling bool) string {
	switch {
	case firstYear && sibling:
		return tariffdomain.KeyInscriptionPremiereAnneeFratrie
	case firstYear:
		return tariffdomain.KeyInscriptionPremiereAnnee
	case sibling:
		return tariffdomain.KeyReinscriptionFratrie
	default:
		return tariffdomain.KeyReinscription
	}
}

func periodLabel(p schoolyear.Period) string {
	return fmt.Sprintf("%s %d", monthNames[p.Month], p.Year)
}

func frequencyLabel(f familydomain.PaymentFrequency) string {
	switch f {
	case familydomain.FrequencyTrimestriel:
		return "trimestrielle"
	case familydomain.FrequencyAnnuel:
		return "annuelle"
	default:
		return "mensuelle"
	}
}
