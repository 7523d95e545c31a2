package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/clock"
	"github.com/montessori/ecole/internal/events"
	familydomain "github.com/montessori/ecole/internal/family/domain"
	familyrepo "github.com/montessori/ecole/internal/family/repository"
	familyservice "github.com/montessori/ecole/internal/family/service"
	"github.com/montessori/ecole/internal/reinscription/domain"
	"github.com/montessori/ecole/internal/reinscription/repository"
	"github.com/montessori/ecole/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const nextYear = "2026-2027"

type fixture struct {
	svc      domain.Service
	family   familydomain.Service
	recorder *events.Recorder
	parent   familydomain.Parent
	child    familydomain.Child
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	conn := db.NewTest(t,
		&familydomain.Parent{}, &familydomain.Child{}, &familydomain.Enrollment{},
		&domain.Reinscription{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	frepo := familyrepo.Provide()
	family := familyservice.New(familyservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: frepo})
	recorder := events.NewRecorder()
	svc := New(Params{
		DB:         conn,
		Log:        log,
		GenID:      node,
		Clock:      clk,
		Repo:       repository.Provide(),
		FamilyRepo: frepo,
		Family:     family,
		Notifier:   events.NewNotifier(recorder, log, clk, nil),
	})

	parent, err := family.CreateParent(ctx, familydomain.CreateParentRequest{
		FirstName: "Claire", LastName: "Martin", Email: "claire.martin@example.org",
	})
	require.NoError(t, err)
	child, err := family.CreateChild(ctx, familydomain.CreateChildRequest{
		FirstName: "Léa", LastName: "Martin", BirthDate: "2020-03-14",
		Level: familydomain.LevelMaternelle, Parent1ID: parent.ID.String(),
	})
	require.NoError(t, err)
	_, err = family.Enroll(ctx, child.ID.String(), "2025-2026")
	require.NoError(t, err)

	return fixture{svc: svc, family: family, recorder: recorder, parent: parent, child: child}
}

func (f fixture) request(t *testing.T) domain.Reinscription {
	t.Helper()
	item, err := f.svc.Request(context.Background(), domain.CreateRequest{
		ParentID:   f.parent.ID.String(),
		ChildID:    f.child.ID.String(),
		SchoolYear: nextYear,
	})
	require.NoError(t, err)
	return item
}

func TestRequestCreatesPendingReinscription(t *testing.T) {
	f := setup(t)

	item := f.request(t)
	assert.Equal(t, domain.StatusPending, item.Status)
	assert.Equal(t, nextYear, item.SchoolYear)
	assert.Nil(t, item.DecidedAt)

	require.Equal(t, []string{events.TypeReinscriptionRequested}, f.recorder.Types())
	payload := f.recorder.Events()[0].Payload
	assert.Equal(t, "claire.martin@example.org", payload["email"])
	assert.Equal(t, "Léa Martin", payload["child_name"])
}

func TestRequestRejectsChildOfAnotherParent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	other, err := f.family.CreateParent(ctx, familydomain.CreateParentRequest{
		FirstName: "Paul", LastName: "Durand", Email: "paul@example.org",
	})
	require.NoError(t, err)

	_, err = f.svc.Request(ctx, domain.CreateRequest{
		ParentID: other.ID.String(), ChildID: f.child.ID.String(), SchoolYear: nextYear,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRequestRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.request(t)

	_, err := f.svc.Request(ctx, domain.CreateRequest{
		ParentID: f.parent.ID.String(), ChildID: f.child.ID.String(), SchoolYear: nextYear,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyReenrolled)

	_, err = f.svc.Request(ctx, domain.CreateRequest{
		ParentID: f.parent.ID.String(), ChildID: f.child.ID.String(), SchoolYear: "2025-2026",
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyReenrolled)
}

func TestRequestValidation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.svc.Request(ctx, domain.CreateRequest{
		ParentID: f.parent.ID.String(), ChildID: f.child.ID.String(), SchoolYear: "2026-2028",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSchoolYear)

	_, err = f.svc.Request(ctx, domain.CreateRequest{
		ParentID: "abc", ChildID: f.child.ID.String(), SchoolYear: nextYear,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = f.svc.Request(ctx, domain.CreateRequest{
		ParentID: f.parent.ID.String(), ChildID: "123", SchoolYear: nextYear,
	})
	assert.ErrorIs(t, err, familydomain.ErrChildNotFound)
}

func TestValidateEnrollsChild(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	item := f.request(t)

	validated, err := f.svc.Validate(ctx, item.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusValidated, validated.Status)
	require.NotNil(t, validated.DecidedAt)

	enrollments, err := f.family.ListChildEnrollments(ctx, f.child.ID.String())
	require.NoError(t, err)
	years := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		years = append(years, e.SchoolYear)
	}
	assert.ElementsMatch(t, []string{"2025-2026", nextYear}, years)

	_, err = f.svc.Validate(ctx, item.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotPending)

	assert.Equal(t, []string{events.TypeReinscriptionRequested, events.TypeReinscriptionValidated}, f.recorder.Types())

	_, err = f.svc.Request(ctx, domain.CreateRequest{
		ParentID: f.parent.ID.String(), ChildID: f.child.ID.String(), SchoolYear: nextYear,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyReenrolled)
}

func TestRefuseRequiresComment(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	item := f.request(t)

	_, err := f.svc.Refuse(ctx, item.ID.String(), domain.RefuseRequest{Comment: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidComment)

	refused, err := f.svc.Refuse(ctx, item.ID.String(), domain.RefuseRequest{Comment: "Dossier incomplet"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefused, refused.Status)
	assert.Equal(t, "Dossier incomplet", refused.Comment)

	published := f.recorder.Events()
	require.Len(t, published, 2)
	assert.Equal(t, "Dossier incomplet", published[1].Payload["comment"])

	again := f.request(t)
	assert.Equal(t, domain.StatusPending, again.Status)
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	item := f.request(t)

	resp, err := f.svc.List(ctx, domain.ListRequest{SchoolYear: nextYear, Status: "en_attente"})
	require.NoError(t, err)
	require.Len(t, resp.Reinscriptions, 1)
	assert.Equal(t, item.ID, resp.Reinscriptions[0].ID)
	assert.False(t, resp.HasMore)

	resp, err = f.svc.List(ctx, domain.ListRequest{Status: "VALIDEE"})
	require.NoError(t, err)
	assert.Empty(t, resp.Reinscriptions)

	_, err = f.svc.List(ctx, domain.ListRequest{Status: "UNKNOWN"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.svc.Get(ctx, "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
