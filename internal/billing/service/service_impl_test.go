package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/billing/domain"
	bookingdomain "github.com/montessori/ecole/internal/booking/domain"
	bookingrepo "github.com/montessori/ecole/internal/booking/repository"
	bookingservice "github.com/montessori/ecole/internal/booking/service"
	"github.com/montessori/ecole/internal/clock"
	"github.com/montessori/ecole/internal/config"
	familydomain "github.com/montessori/ecole/internal/family/domain"
	familyrepo "github.com/montessori/ecole/internal/family/repository"
	familyservice "github.com/montessori/ecole/internal/family/service"
	"github.com/montessori/ecole/internal/seed"
	tariffdomain "github.com/montessori/ecole/internal/tariff/domain"
	tariffrepo "github.com/montessori/ecole/internal/tariff/repository"
	tariffservice "github.com/montessori/ecole/internal/tariff/service"
	"github.com/montessori/ecole/pkg/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testYear = "2025-2026"

type fixture struct {
	svc     domain.Service
	family  familydomain.Service
	booking bookingdomain.Service
	tariff  tariffdomain.Service
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	conn := db.NewTest(t,
		&tariffdomain.Tariff{},
		&familydomain.Parent{}, &familydomain.Child{}, &familydomain.Enrollment{},
		&bookingdomain.Booking{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	_, err = seed.EnsureDefaultTariffs(ctx, conn, node, testYear)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, time.September, 1, 8, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	tariff := tariffservice.New(tariffservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: tariffrepo.Provide()})
	family := familyservice.New(familyservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: familyrepo.Provide()})
	booking := bookingservice.New(bookingservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: bookingrepo.Provide(), Family: family,
	})

	svc := New(Params{
		Log:     log,
		Config:  config.Config{SchoolYearStartMonth: 9},
		Tariff:  tariff,
		Family:  family,
		Booking: booking,
	})
	return fixture{svc: svc, family: family, booking: booking, tariff: tariff}
}

func (f fixture) parent(t *testing.T, rfr bool, rate int64) familydomain.Parent {
	t.Helper()
	r := decimal.NewFromInt(rate)
	parent, err := f.family.CreateParent(context.Background(), familydomain.CreateParentRequest{
		FirstName: "Julie", LastName: "Garnier", Email: "julie@example.org", ReductionRFR: rfr, TauxReductionRFR: &r,
	})
	require.NoError(t, err)
	return parent
}

func (f fixture) child(t *testing.T, parent familydomain.Parent, name, birthDate string, level familydomain.Level, enroll bool) familydomain.Child {
	t.Helper()
	ctx := context.Background()
	child, err := f.family.CreateChild(ctx, familydomain.CreateChildRequest{
		FirstName: name, LastName: parent.LastName, BirthDate: birthDate, Level: level, Parent1ID: parent.ID.String(),
	})
	require.NoError(t, err)
	if enroll {
		_, err = f.family.Enroll(ctx, child.ID.String(), testYear)
		require.NoError(t, err)
	}
	return child
}

func TestCalculateTuitionFirstChildMaternelle(t *testing.T) {
	f := setup(t)
	parent := f.parent(t, false, 0)
	child := f.child(t, parent, "Paul", "2021-02-02", familydomain.LevelMaternelle, true)

	breakdown, err := f.svc.CalculateTuition(context.Background(), child, parent, testYear, 1)
	require.NoError(t, err)
	assert.Equal(t, "575.00", breakdown.Final.StringFixed(2))
	assert.True(t, breakdown.SiblingDiscount.IsZero())
	assert.True(t, breakdown.IncomeDiscount.IsZero())
}

func TestCalculateTuitionSecondSiblingMaternelle(t *testing.T) {
	f := setup(t)
	parent := f.parent(t, false, 0)
	child := f.child(t, parent, "Lou", "2022-02-02", familydomain.LevelMaternelle, true)

	breakdown, err := f.svc.CalculateTuition(context.Background(), child, parent, testYear, 2)
	require.NoError(t, err)
	assert.Equal(t, "540.00", breakdown.Final.StringFixed(2))
	assert.Equal(t, "35.00", breakdown.SiblingDiscount.StringFixed(2))
	assert.Equal(t, "575.00", breakdown.Base.StringFixed(2))
}

func TestCalculateTuitionMissingTariffFailsClosed(t *testing.T) {
	f := setup(t)
	parent := f.parent(t, false, 0)
	child := f.child(t, parent, "Lou", "2022-02-02", familydomain.LevelMaternelle, false)

	_, err := f.svc.CalculateTuition(context.Background(), child, parent, "2030-2031", 1)
	assert.ErrorIs(t, err, domain.ErrTariffMissing)

	_, err = f.svc.CalculateTuition(context.Background(), child, parent, testYear, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidRank)
}

func TestIncomeReduction(t *testing.T) {
	f := setup(t)

	withRFR := familydomain.Parent{ReductionRFR: true, TauxReductionRFR: decimal.NewFromInt(6)}
	assert.Equal(t, "42.60", f.svc.IncomeReduction(withRFR, decimal.NewFromInt(710)).StringFixed(2))

	withoutRFR := familydomain.Parent{ReductionRFR: false, TauxReductionRFR: decimal.NewFromInt(6)}
	assert.True(t, f.svc.IncomeReduction(withoutRFR, decimal.NewFromInt(710)).IsZero())
	assert.True(t, f.svc.IncomeReduction(withoutRFR, decimal.NewFromInt(123456)).IsZero())

	// 7.5 % of 575 = 43.125, rounded half-up.
	half := familydomain.Parent{ReductionRFR: true, TauxReductionRFR: decimal.RequireFromString("7.5")}
	assert.Equal(t, "43.13", f.svc.IncomeReduction(half, decimal.NewFromInt(575)).StringFixed(2))
}

func TestCalculateTuitionAppliesIncomeDiscountAfterSiblingDiscount(t *testing.T) {
	f := setup(t)
	parent := f.parent(t, true, 6)
	child := f.child(t, parent, "Eva", "2017-02-02", familydomain.LevelElementaire, true)

	breakdown, err := f.svc.CalculateTuition(context.Background(), child, parent, testYear, 1)
	require.NoError(t, err)
	assert.Equal(t, "42.60", breakdown.IncomeDiscount.StringFixed(2))
	assert.Equal(t, "667.40", breakdown.Final.StringFixed(2))

	breakdown, err = f.svc.CalculateTuition(context.Background(), child, parent, testYear, 2)
	require.NoError(t, err)
	assert.Equal(t, "35.00", breakdown.SiblingDiscount.StringFixed(2))
	assert.Equal(t, "40.50", breakdown.IncomeDiscount.StringFixed(2))
	assert.Equal(t, "634.50", breakdown.Final.StringFixed(2))
}

func TestRegistrationFee(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := []struct {
		firstYear, sibling bool
		want               string
	}{
		{true, false, "350.00"},
		{true, true, "150.00"},
		{false, false, "195.00"},
		{false, true, "160.00"},
	}
	for _, tc := range cases {
		fee, err := f.svc.RegistrationFee(ctx, testYear, tc.firstYear, tc.sibling)
		require.NoError(t, err)
		assert.Equal(t, tc.want, fee.StringFixed(2), "firstYear=%v sibling=%v", tc.firstYear, tc.sibling)
	}
}

func TestMealLine(t *testing.T) {
	f := setup(t)
	unit := decimal.RequireFromString("5.45")

	line := f.svc.MealLine(15, unit)
	assert.Equal(t, "81.75", line.Amount.StringFixed(2))
	assert.Equal(t, domain.LineRepas, line.Type)

	assert.Equal(t, "0.00", f.svc.MealLine(0, unit).Amount.StringFixed(2))
}

func lineTypes(lines []domain.Line) []domain.LineType {
	types := make([]domain.LineType, 0, len(lines))
	for _, line := range lines {
		types = append(types, line.Type)
	}
	return types
}

func TestGenerateLinesOctoberExcludesStartOfYearFees(t *testing.T) {
	f := setup(t)
	parent := f.parent(t, false, 0)
	child := f.child(t, parent, "Rose", "2021-03-03", familydomain.LevelMaternelle, true)

	result, err := f.svc.GenerateLines(context.Background(), domain.GenerateRequest{
		ChildID: child.ID.String(),
		Period:  "2025-10",
		Options: domain.Options{IncludeInscription: true, IncludeMateriel: true},
	})
	require.NoError(t, err)

	types := lineTypes(result.Lines)
	assert.NotContains(t, types, domain.LineInscription)
	assert.NotContains(t, types, domain.LineMateriel)
	assert.Contains(t, types, domain.LineScolarite)
	assert.Equal(t, "575.00", result.Net.StringFixed(2))
}

func TestGenerateLinesSeptemberWithFlagsIncludesStartOfYearFees(t *testing.T) {
	f := setup(t)
	parent := f.parent(t, false, 0)
	child := f.child(t, parent, "Rose", "2021-03-03", familydomain.LevelMaternelle, true)

	result, err := f.svc.GenerateLines(context.Background(), domain.GenerateRequest{
		ChildID: child.ID.String(),
		Period:  "2025-09",
		Options: domain.Options{IncludeInscription: true, IncludeMateriel: true},
	})
	require.NoError(t, err)

	types := lineTypes(result.Lines)
	assert.Contains(t, types, domain.LineInscription)
	assert.Contains(t, types, domain.LineMateriel)
	// 575 tuition + 350 first-year registration + 65 materials.
	assert.Equal(t, "990.00", result.Net.StringFixed(2))

	result, err = f.svc.GenerateLines(context.Background(), domain.GenerateRequest{
		ChildID: child.ID.String(),
		Period:  "2025-09",
	})
	require.NoError(t, err)
	types = lineTypes(result.Lines)
	assert.NotContains(t, types, domain.LineInscription)
	assert.NotContains(t, types, domain.LineMateriel)

	result, err = f.svc.GenerateLines(context.Background(), domain.GenerateRequest{
		ChildID:            child.ID.String(),
		Period:             "2025-09",
		Options:            domain.Options{IncludeInscription: true},
		RegistrationBilled: true,
	})
	require.NoError(t, err)
	assert.NotContains(t, lineTypes(result.Lines), domain.LineInscription)
}

func TestGenerateLinesSiblingMealsAndAfterSchool(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	parent := f.parent(t, true, 6)
	f.child(t, parent, "Aîné", "2017-01-01", familydomain.LevelElementaire, true)
	younger := f.child(t, parent, "Cadet", "2021-01-01", familydomain.LevelMaternelle, true)

	dates := make([]string, 0, 15)
	for day := 1; day <= 15; day++ {
		dates = append(dates, time.Date(2025, time.October, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02"))
	}
	_, err := f.booking.Book(ctx, younger.ID.String(), bookingdomain.KindRepasMidi, bookingdomain.BookRequest{Dates: dates})
	require.NoError(t, err)
	_, err = f.booking.Book(ctx, younger.ID.String(), bookingdomain.KindPeriscolaire, bookingdomain.BookRequest{Dates: dates[:2]})
	require.NoError(t, err)

	result, err := f.svc.GenerateLines(ctx, domain.GenerateRequest{ChildID: younger.ID.String(), Period: "2025-10"})
	require.NoError(t, err)

	require.NotNil(t, result.Tuition)
	assert.Equal(t, 2, result.Tuition.Rank)
	assert.Equal(t, []domain.LineType{
		domain.LineScolarite, domain.LineReductionFratrie, domain.LineReductionRFR, domain.LineRepas, domain.LinePeriscolaire,
	}, lineTypes(result.Lines))

	// Gross: 575 + 81.75 + 13.00; discounts: 35 + 6 % of 540 = 32.40.
	assert.Equal(t, "669.75", result.Gross.StringFixed(2))
	assert.Equal(t, "67.40", result.Discounts.StringFixed(2))
	assert.Equal(t, "602.35", result.Net.StringFixed(2))
}

func TestGenerateLinesQuarterlyBillsAtTermStarts(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	parent := f.parent(t, false, 0)
	child := f.child(t, parent, "Iris", "2018-06-06", familydomain.LevelElementaire, true)
	quarterly := "TRIMESTRIEL"
	_, err := f.family.UpdateChild(ctx, child.ID.String(), familydomain.UpdateChildRequest{PaymentFrequency: &quarterly})
	require.NoError(t, err)

	billed := map[string]bool{}
	for _, period := range []string{"2025-09", "2025-10", "2026-01", "2026-02", "2026-04", "2026-06"} {
		result, err := f.svc.GenerateLines(ctx, domain.GenerateRequest{ChildID: child.ID.String(), Period: period})
		require.NoError(t, err)
		billed[period] = result.Tuition != nil
	}
	assert.Equal(t, map[string]bool{
		"2025-09": true, "2025-10": false, "2026-01": true, "2026-02": false, "2026-04": true, "2026-06": false,
	}, billed)
}

func TestGenerateLinesRequiresEnrollment(t *testing.T) {
	f := setup(t)
	parent := f.parent(t, false, 0)
	child := f.child(t, parent, "Noé", "2021-03-03", familydomain.LevelMaternelle, false)

	_, err := f.svc.GenerateLines(context.Background(), domain.GenerateRequest{ChildID: child.ID.String(), Period: "2025-10"})
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)

	_, err = f.svc.GenerateLines(context.Background(), domain.GenerateRequest{ChildID: child.ID.String(), Period: "octobre"})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}
