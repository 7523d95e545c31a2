package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/montessori/ecole/internal/clock"
	familyrepo "github.com/montessori/ecole/internal/family/repository"
	familyservice "github.com/montessori/ecole/internal/family/service"
	justificatifrepo "github.com/montessori/ecole/internal/justificatif/repository"
	justificatifservice "github.com/montessori/ecole/internal/justificatif/service"
	"github.com/montessori/ecole/internal/migration"
	preinscriptionrepo "github.com/montessori/ecole/internal/preinscription/repository"
	preinscriptionservice "github.com/montessori/ecole/internal/preinscription/service"
	"github.com/montessori/ecole/internal/providers/pdf"
	reinscriptionrepo "github.com/montessori/ecole/internal/reinscription/repository"
	reinscriptionservice "github.com/montessori/ecole/internal/reinscription/service"
	tariffrepo "github.com/montessori/ecole/internal/tariff/repository"
	tariffservice "github.com/montessori/ecole/internal/tariff/service"
	"github.com/montessori/ecole/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *errorPayload   `json:"error"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn := db.NewTest(t, migration.Models()...)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	frepo := familyrepo.Provide()
	family := familyservice.New(familyservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: frepo})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	NewServer(ServerParams{
		Gin:       engine,
		TariffSvc: tariffservice.New(tariffservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: tariffrepo.Provide()}),
		FamilySvc: family,
		ReinscriptionSvc: reinscriptionservice.New(reinscriptionservice.Params{
			DB: conn, Log: log, GenID: node, Clock: clk,
			Repo: reinscriptionrepo.Provide(), FamilyRepo: frepo, Family: family,
		}),
		PreinscriptionSvc: preinscriptionservice.New(preinscriptionservice.Params{
			DB: conn, Log: log, GenID: node, Clock: clk,
			Repo: preinscriptionrepo.Provide(), FamilyRepo: frepo, PDF: pdf.New(),
		}),
		JustificatifSvc: justificatifservice.New(justificatifservice.Params{
			DB: conn, Log: log, GenID: node, Clock: clk,
			Repo: justificatifrepo.Provide(), Family: family,
		}),
	})

	return testServer{t: t, engine: engine}
}

func (s testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var data map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	return data
}

func (s testServer) createFamily(parentEmail string) (string, string) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/enfants/parents", gin.H{
		"first_name": "Claire",
		"last_name":  "Martin",
		"email":      parentEmail,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	parentID := decodeData(s.t, w)["id"].(string)

	w = s.do(http.MethodPost, "/api/enfants", gin.H{
		"first_name": "Léa",
		"last_name":  "Martin",
		"birth_date": "2020-03-14",
		"level":      "MATERNELLE",
		"parent1_id": parentID,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return parentID, decodeData(s.t, w)["id"].(string)
}

func TestTariffRoutes(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{"key": "scolarite_maternelle", "school_year": "2025-2026", "amount": "650", "category": "SCOLARITE"}

	w := s.do(http.MethodPost, "/api/facturation/tarifs", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData(t, w)
	assert.Equal(t, "scolarite_maternelle", created["key"])

	w = s.do(http.MethodPost, "/api/facturation/tarifs", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decode(t, w).Error.Type)

	w = s.do(http.MethodGet, "/api/facturation/tarifs?school_year=2025-2026", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &items))
	assert.Len(t, items, 1)

	w = s.do(http.MethodGet, "/api/facturation/tarifs/"+created["id"].(string), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/facturation/tarifs/"+created["id"].(string), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/facturation/tarifs/"+created["id"].(string), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestValidationUsesJSONFieldNames(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/facturation/tarifs", gin.H{"school_year": "2025-2026", "category": "SCOLARITE"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	payload := decode(t, w).Error
	require.NotNil(t, payload)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "key", payload.Errors[0].Field)
	assert.Equal(t, "required", payload.Errors[0].Code)

	w = s.do(http.MethodPost, "/api/enfants/parents", `{"first_name":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "request", decode(t, w).Error.Errors[0].Field)

	w = s.do(http.MethodPost, "/api/enfants/parents", gin.H{"first_name": "A", "last_name": "B", "email": "nope"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email", decode(t, w).Error.Errors[0].Field)
}

func TestChildRoutesPageAndDelete(t *testing.T) {
	s := newTestServer(t)
	_, first := s.createFamily("claire.martin@example.org")
	_, second := s.createFamily("paul.petit@example.org")

	w := s.do(http.MethodGet, "/api/enfants?page_size=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page struct {
		Data     []map[string]any `json:"data"`
		PageInfo struct {
			NextPageToken string `json:"next_page_token"`
			HasMore       bool   `json:"has_more"`
		} `json:"page_info"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, first, page.Data[0]["id"])
	require.True(t, page.PageInfo.HasMore)

	w = s.do(http.MethodGet, "/api/enfants?page_size=1&page_token="+page.PageInfo.NextPageToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, second, page.Data[0]["id"])

	w = s.do(http.MethodGet, "/api/enfants?page_token=garbage", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "page_token", decode(t, w).Error.Errors[0].Field)

	w = s.do(http.MethodDelete, "/api/enfants/"+first, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, "/api/enfants/"+first, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnrollmentRoutes(t *testing.T) {
	s := newTestServer(t)
	_, childID := s.createFamily("claire.martin@example.org")

	w := s.do(http.MethodPost, "/api/enfants/"+childID+"/inscriptions", gin.H{"school_year": "2025-2026"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/enfants/"+childID+"/inscriptions", gin.H{"school_year": "2025-2026"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/enfants/"+childID+"/inscriptions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var enrollments []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &enrollments))
	assert.Len(t, enrollments, 1)

	w = s.do(http.MethodGet, "/api/enfants/123456789", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w).Error.Type)
}

func TestReinscriptionRejectsForeignParent(t *testing.T) {
	s := newTestServer(t)
	_, childID := s.createFamily("claire.martin@example.org")
	otherParentID, _ := s.createFamily("paul.durand@example.org")

	w := s.do(http.MethodPost, "/api/reinscriptions", gin.H{
		"parent_id":   otherParentID,
		"child_id":    childID,
		"school_year": "2026-2027",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decode(t, w).Error.Type)
}

func TestPreinscriptionPDFDownload(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/preinscriptions", gin.H{
		"school_year":      "2026-2027",
		"child_first_name": "Jules",
		"child_last_name":  "Lefèvre",
		"child_birth_date": "2023-05-02",
		"level":            "maternelle",
		"guardian1": gin.H{
			"first_name": "Sophie",
			"last_name":  "Lefèvre",
			"email":      "sophie.lefevre@example.org",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData(t, w)

	w = s.do(http.MethodGet, "/api/preinscriptions/"+created["id"].(string)+"/pdf", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	disposition := w.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, "attachment; filename="), disposition)
	assert.Contains(t, disposition, ".pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestJustificatifRoutes(t *testing.T) {
	s := newTestServer(t)
	_, childID := s.createFamily("claire.martin@example.org")

	w := s.do(http.MethodPost, "/api/justificatifs/types", gin.H{"label": "Assurance", "mandatory": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/justificatifs/enfants/"+childID+"/manquants?school_year=2025-2026", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var missing []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &missing))
	assert.Len(t, missing, 1)

	w = s.do(http.MethodPost, "/api/justificatifs", gin.H{
		"child_id":    childID,
		"type":        "assurance",
		"school_year": "2025-2026",
		"file_name":   "assurance.pdf",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decodeData(t, w)

	w = s.do(http.MethodPost, "/api/justificatifs/"+doc["id"].(string)+"/refuser", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/justificatifs/"+doc["id"].(string)+"/valider", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "VALIDE", decodeData(t, w)["status"])
}

func TestFallbackRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/inconnu", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w).Error.Type)

	w = s.do(http.MethodPatch, "/api/facturation/tarifs", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "method_not_allowed", decode(t, w).Error.Type)
}
