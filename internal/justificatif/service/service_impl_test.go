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
	"github.com/montessori/ecole/internal/justificatif/domain"
	"github.com/montessori/ecole/internal/justificatif/repository"
	"github.com/montessori/ecole/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const year = "2025-2026"

type fixture struct {
	svc      domain.Service
	recorder *events.Recorder
	child    familydomain.Child
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	conn := db.NewTest(t,
		&familydomain.Parent{}, &familydomain.Child{},
		&domain.JustificatifType{}, &domain.Justificatif{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, time.September, 1, 8, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	family := familyservice.New(familyservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: familyrepo.Provide()})
	recorder := events.NewRecorder()
	svc := New(Params{
		DB:       conn,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Repo:     repository.Provide(),
		Family:   family,
		Notifier: events.NewNotifier(recorder, log, clk, nil),
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

	return fixture{svc: svc, recorder: recorder, child: child}
}

func (f fixture) createType(t *testing.T, label string, mandatory bool) domain.JustificatifType {
	t.Helper()
	item, err := f.svc.CreateType(context.Background(), domain.CreateTypeRequest{Label: label, Mandatory: mandatory})
	require.NoError(t, err)
	return item
}

func (f fixture) submit(t *testing.T, docType, fileName string) domain.Justificatif {
	t.Helper()
	item, err := f.svc.Submit(context.Background(), domain.SubmitRequest{
		ChildID:    f.child.ID.String(),
		Type:       docType,
		SchoolYear: year,
		FileName:   fileName,
	})
	require.NoError(t, err)
	return item
}

func TestCreateTypeSlugifiesCode(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	item := f.createType(t, "Attestation d'assurance scolaire", true)
	assert.Equal(t, "attestation-d-assurance-scolaire", item.Code)
	assert.True(t, item.Active)

	_, err := f.svc.CreateType(ctx, domain.CreateTypeRequest{Label: "Autre", Code: "Attestation d'assurance scolaire"})
	assert.ErrorIs(t, err, domain.ErrTypeExists)

	_, err = f.svc.CreateType(ctx, domain.CreateTypeRequest{Label: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidLabel)

	inactive := false
	hidden, err := f.svc.CreateType(ctx, domain.CreateTypeRequest{Label: "Ancien formulaire", Active: &inactive})
	require.NoError(t, err)
	assert.False(t, hidden.Active)

	active, err := f.svc.ListTypes(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, item.ID, active[0].ID)

	all, err := f.svc.ListTypes(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSubmitAndReview(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	insurance := f.createType(t, "Assurance", true)

	doc := f.submit(t, "assurance", "assurance.pdf")
	assert.Equal(t, domain.StatusPending, doc.Status)
	assert.Equal(t, insurance.ID, doc.TypeID)

	approved, err := f.svc.Approve(ctx, doc.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedAt)

	_, err = f.svc.Approve(ctx, doc.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotPending)

	_, err = f.svc.Submit(ctx, domain.SubmitRequest{
		ChildID: f.child.ID.String(), Type: insurance.ID.String(), SchoolYear: year, FileName: "again.pdf",
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyApproved)
	assert.Empty(t, f.recorder.Types())
}

func TestResubmissionReplacesRefusedDocument(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.createType(t, "Certificat médical", true)

	doc := f.submit(t, "certificat-medical", "certif.jpg")

	_, err := f.svc.Refuse(ctx, doc.ID.String(), domain.RefuseRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidComment)

	refused, err := f.svc.Refuse(ctx, doc.ID.String(), domain.RefuseRequest{Comment: "Illisible"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefused, refused.Status)

	require.Equal(t, []string{events.TypeJustificatifRefused}, f.recorder.Types())
	payload := f.recorder.Events()[0].Payload
	assert.Equal(t, "claire.martin@example.org", payload["email"])
	assert.Equal(t, "Illisible", payload["comment"])
	assert.Equal(t, "certificat-medical", payload["type"])

	again := f.submit(t, "certificat-medical", "certif-v2.pdf")
	assert.Equal(t, doc.ID, again.ID)
	assert.Equal(t, domain.StatusPending, again.Status)
	assert.Equal(t, "certif-v2.pdf", again.FileName)
	assert.Empty(t, again.Comment)
	assert.Nil(t, again.ReviewedAt)

	docs, err := f.svc.ListForChild(ctx, f.child.ID.String(), year)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestMissingListsUncoveredMandatoryTypes(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	insurance := f.createType(t, "Assurance", true)
	vaccines := f.createType(t, "Carnet de vaccination", true)
	f.createType(t, "Photo", false)
	medical := f.createType(t, "Certificat médical", true)

	missing, err := f.svc.Missing(ctx, f.child.ID.String(), year)
	require.NoError(t, err)
	assert.Len(t, missing, 3)

	f.submit(t, insurance.Code, "assurance.pdf")
	refused := f.submit(t, vaccines.Code, "vaccins.pdf")
	_, err = f.svc.Refuse(ctx, refused.ID.String(), domain.RefuseRequest{Comment: "Page manquante"})
	require.NoError(t, err)

	missing, err = f.svc.Missing(ctx, f.child.ID.String(), year)
	require.NoError(t, err)
	ids := make([]snowflake.ID, 0, len(missing))
	for _, m := range missing {
		ids = append(ids, m.ID)
	}
	assert.ElementsMatch(t, []snowflake.ID{vaccines.ID, medical.ID}, ids)

	missing, err = f.svc.Missing(ctx, f.child.ID.String(), "2026-2027")
	require.NoError(t, err)
	assert.Len(t, missing, 3)

	_, err = f.svc.Missing(ctx, f.child.ID.String(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidSchoolYear)
}

func TestTypeLifecycle(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	insurance := f.createType(t, "Assurance", true)
	unused := f.createType(t, "Photo", false)

	require.NoError(t, f.svc.DeleteType(ctx, unused.ID.String()))
	_, err := f.svc.Submit(ctx, domain.SubmitRequest{
		ChildID: f.child.ID.String(), Type: "photo", SchoolYear: year, FileName: "photo.jpg",
	})
	assert.ErrorIs(t, err, domain.ErrTypeNotFound)

	f.submit(t, "assurance", "assurance.pdf")
	assert.ErrorIs(t, f.svc.DeleteType(ctx, insurance.ID.String()), domain.ErrTypeInUse)

	inactive := false
	updated, err := f.svc.UpdateType(ctx, insurance.ID.String(), domain.UpdateTypeRequest{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	_, err = f.svc.Submit(ctx, domain.SubmitRequest{
		ChildID: f.child.ID.String(), Type: "assurance", SchoolYear: year, FileName: "assurance.pdf",
	})
	assert.ErrorIs(t, err, domain.ErrTypeInactive)
}
