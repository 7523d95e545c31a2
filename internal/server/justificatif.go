package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	justificatifdomain "github.com/montessori/ecole/internal/justificatif/domain"
)

func (s *Server) ListJustificatifTypes(c *gin.Context) {
	active, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	items, err := s.justificatifSvc.ListTypes(c.Request.Context(), active != nil && *active)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) CreateJustificatifType(c *gin.Context) {
	var req justificatifdomain.CreateTypeRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.justificatifSvc.CreateType(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) UpdateJustificatifType(c *gin.Context) {
	var req justificatifdomain.UpdateTypeRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.justificatifSvc.UpdateType(c.Request.Context(), param(c, "id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DeleteJustificatifType(c *gin.Context) {
	if err := s.justificatifSvc.DeleteType(c.Request.Context(), param(c, "id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) SubmitJustificatif(c *gin.Context) {
	var req justificatifdomain.SubmitRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.justificatifSvc.Submit(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) GetJustificatif(c *gin.Context) {
	item, err := s.justificatifSvc.Get(c.Request.Context(), param(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) ApproveJustificatif(c *gin.Context) {
	item, err := s.justificatifSvc.Approve(c.Request.Context(), param(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) RefuseJustificatif(c *gin.Context) {
	var req justificatifdomain.RefuseRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.justificatifSvc.Refuse(c.Request.Context(), param(c, "id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) ListChildJustificatifs(c *gin.Context) {
	items, err := s.justificatifSvc.ListForChild(c.Request.Context(), param(c, "childId"), query(c, "school_year"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) ListMissingJustificatifs(c *gin.Context) {
	items, err := s.justificatifSvc.Missing(c.Request.Context(), param(c, "childId"), query(c, "school_year"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func justificatifValidationError(err error) (error, bool) {
	return match(err, []error{
		justificatifdomain.ErrInvalidID,
		justificatifdomain.ErrInvalidLabel,
		justificatifdomain.ErrInvalidCode,
		justificatifdomain.ErrInvalidSchoolYear,
		justificatifdomain.ErrInvalidFileName,
		justificatifdomain.ErrInvalidComment,
	})
}
