package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/clock"
	"github.com/montessori/ecole/internal/events"
	familydomain "github.com/montessori/ecole/internal/family/domain"
	familyrepo "github.com/montessori/ecole/internal/family/repository"
	familyservice "github.com/montessori/ecole/internal/family/service"
	"github.com/montessori/ecole/internal/preinscription/domain"
	"github.com/montessori/ecole/internal/preinscription/repository"
	"github.com/montessori/ecole/internal/providers/pdf"
	"github.com/montessori/ecole/pkg/db"
	"github.com/montessori/ecole/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	svc      domain.Service
	family   familydomain.Service
	recorder *events.Recorder
}

func setup(t *testing.T) fixture {
	t.Helper()
	conn := db.NewTest(t,
		&familydomain.Parent{}, &familydomain.Child{}, &familydomain.Enrollment{},
		&domain.Preinscription{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, time.February, 10, 14, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	frepo := familyrepo.Provide()
	recorder := events.NewRecorder()
	svc := New(Params{
		DB:         conn,
		Log:        log,
		GenID:      node,
		Clock:      clk,
		Repo:       repository.Provide(),
		FamilyRepo: frepo,
		PDF:        pdf.New(),
		Notifier:   events.NewNotifier(recorder, log, clk, nil),
	})
	family := familyservice.New(familyservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: frepo})
	return fixture{svc: svc, family: family, recorder: recorder}
}

func dossier(childFirstName string) domain.CreateRequest {
	return domain.CreateRequest{
		SchoolYear:     "2026-2027",
		ChildFirstName: childFirstName,
		ChildLastName:  "Lefèvre",
		ChildBirthDate: "2023-05-02",
		Level:          "maternelle",
		Guardian1: domain.Guardian{
			FirstName: "Sophie",
			LastName:  "Lefèvre",
			Email:     "Sophie.Lefevre@example.org",
			Phone:     "0600000000",
			Address:   "3 rue des Lilas",
		},
		Guardian2: &domain.Guardian{
			FirstName: "Marc",
			LastName:  "Lefèvre",
			Email:     "marc.lefevre@example.org",
		},
		Answers: map[string]any{"allergies": "aucune", "pedagogie": "Montessori depuis 2 ans"},
	}
}

func TestCreateStoresPendingDossier(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	item, err := f.svc.Create(ctx, dossier("Jules"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, item.Status)
	assert.Len(t, item.Reference, 26)
	assert.Equal(t, familydomain.LevelMaternelle, item.Level)
	assert.Equal(t, "sophie.lefevre@example.org", item.Guardian1Email)
	assert.True(t, item.HasSecondGuardian())

	byRef, err := f.svc.Get(ctx, item.Reference)
	require.NoError(t, err)
	assert.Equal(t, item.ID, byRef.ID)
	assert.Equal(t, "aucune", byRef.Answers["allergies"])

	byID, err := f.svc.Get(ctx, item.ID.String())
	require.NoError(t, err)
	assert.Equal(t, item.Reference, byID.Reference)

	require.Equal(t, []string{events.TypePreinscriptionCreated}, f.recorder.Types())
	assert.Equal(t, "sophie.lefevre@example.org", f.recorder.Events()[0].Payload["email"])
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	req := dossier("Jules")
	req.SchoolYear = "2026"
	_, err := f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidSchoolYear)

	req = dossier(" ")
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	req = dossier("Jules")
	req.ChildBirthDate = "02/05/2023"
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidBirthDate)

	req = dossier("Jules")
	req.Level = "COLLEGE"
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidLevel)

	req = dossier("Jules")
	req.Guardian1.Email = "sophie"
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	req = dossier("Jules")
	req.Guardian2 = &domain.Guardian{}
	item, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.False(t, item.HasSecondGuardian())

	_, err = f.svc.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestUpdateOnlyWhilePending(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	item, err := f.svc.Create(ctx, dossier("Jules"))
	require.NoError(t, err)

	level := "ELEMENTAIRE"
	comment := "Visite prévue le 3 mars"
	updated, err := f.svc.Update(ctx, item.Reference, domain.UpdateRequest{
		Level:   &level,
		Comment: &comment,
		Answers: map[string]any{"allergies": "arachide"},
	})
	require.NoError(t, err)
	assert.Equal(t, familydomain.LevelElementaire, updated.Level)
	assert.Equal(t, comment, updated.Comment)
	assert.Equal(t, "arachide", updated.Answers["allergies"])

	_, err = f.svc.Cancel(ctx, item.ID.String())
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, item.ID.String(), domain.UpdateRequest{Level: &level})
	assert.ErrorIs(t, err, domain.ErrNotPending)
}

func TestValidateCreatesFamilyRecords(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	item, err := f.svc.Create(ctx, dossier("Jules"))
	require.NoError(t, err)

	decision, err := f.svc.Validate(ctx, item.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusValidated, decision.Preinscription.Status)
	require.NotNil(t, decision.Preinscription.ChildID)

	detail, err := f.family.GetChildDetail(ctx, decision.ChildID)
	require.NoError(t, err)
	assert.Equal(t, "Jules", detail.FirstName)
	assert.Equal(t, time.Date(2023, time.May, 2, 0, 0, 0, 0, time.UTC), detail.BirthDate.UTC())
	require.NotNil(t, detail.Parent1)
	assert.Equal(t, "sophie.lefevre@example.org", detail.Parent1.Email)
	require.NotNil(t, detail.Parent2)
	assert.Equal(t, "marc.lefevre@example.org", detail.Parent2.Email)
	require.Len(t, detail.Enrollments, 1)
	assert.Equal(t, "2026-2027", detail.Enrollments[0].SchoolYear)

	_, err = f.svc.Validate(ctx, item.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotPending)

	assert.Equal(t, []string{events.TypePreinscriptionCreated, events.TypePreinscriptionValidated}, f.recorder.Types())
}

func TestValidateReusesKnownGuardians(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	first, err := f.svc.Create(ctx, dossier("Jules"))
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, dossier("Emma"))
	require.NoError(t, err)

	a, err := f.svc.Validate(ctx, first.Reference)
	require.NoError(t, err)
	b, err := f.svc.Validate(ctx, second.Reference)
	require.NoError(t, err)
	assert.Equal(t, a.ParentID, b.ParentID)

	parents, err := f.family.ListParents(ctx, familydomain.ListParentsRequest{})
	require.NoError(t, err)
	assert.Len(t, parents.Parents, 2)

	count, err := f.family.CountFratrie(ctx, a.ParentID, "2026-2027")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRefuseAndCancel(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	item, err := f.svc.Create(ctx, dossier("Jules"))
	require.NoError(t, err)

	_, err = f.svc.Refuse(ctx, item.ID.String(), domain.RefuseRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidComment)

	refused, err := f.svc.Refuse(ctx, item.ID.String(), domain.RefuseRequest{Comment: "Classe complète"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefused, refused.Status)
	assert.Equal(t, "Classe complète", refused.Comment)
	require.NotNil(t, refused.DecidedAt)

	_, err = f.svc.Cancel(ctx, item.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotPending)

	published := f.recorder.Events()
	require.Len(t, published, 2)
	assert.Equal(t, events.TypePreinscriptionRefused, published[1].Type)
	assert.Equal(t, "Classe complète", published[1].Payload["comment"])
}

func TestListFiltersAndSearch(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	jules, err := f.svc.Create(ctx, dossier("Jules"))
	require.NoError(t, err)
	emma, err := f.svc.Create(ctx, dossier("Emma"))
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, emma.ID.String())
	require.NoError(t, err)

	resp, err := f.svc.List(ctx, domain.ListRequest{Status: "en_attente"})
	require.NoError(t, err)
	require.Len(t, resp.Preinscriptions, 1)
	assert.Equal(t, jules.ID, resp.Preinscriptions[0].ID)

	resp, err = f.svc.List(ctx, domain.ListRequest{Search: "emma", SchoolYear: "2026-2027"})
	require.NoError(t, err)
	require.Len(t, resp.Preinscriptions, 1)
	assert.Equal(t, emma.ID, resp.Preinscriptions[0].ID)

	resp, err = f.svc.List(ctx, domain.ListRequest{Pagination: pagination.Pagination{PageSize: 1}})
	require.NoError(t, err)
	require.Len(t, resp.Preinscriptions, 1)
	assert.Equal(t, jules.ID, resp.Preinscriptions[0].ID)
	require.True(t, resp.HasMore)

	resp, err = f.svc.List(ctx, domain.ListRequest{Pagination: pagination.Pagination{PageSize: 1, PageToken: resp.NextPageToken}})
	require.NoError(t, err)
	require.Len(t, resp.Preinscriptions, 1)
	assert.Equal(t, emma.ID, resp.Preinscriptions[0].ID)
	assert.False(t, resp.HasMore)

	_, err = f.svc.List(ctx, domain.ListRequest{Status: "OPEN"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestPDFRendersDossier(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	item, err := f.svc.Create(ctx, dossier("Jules"))
	require.NoError(t, err)

	doc, err := f.svc.PDF(ctx, item.Reference)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF")))
	assert.Equal(t, "dossier-"+strings.ToLower(item.Reference)+".pdf", doc.FileName)
}
