package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	preinscriptiondomain "github.com/montessori/ecole/internal/preinscription/domain"
)

func (s *Server) ListPreinscriptions(c *gin.Context) {
	var req preinscriptiondomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.preinscriptionSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Preinscriptions, "page_info": resp.PageInfo})
}

func (s *Server) GetPreinscription(c *gin.Context) {
	item, err := s.preinscriptionSvc.Get(c.Request.Context(), param(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) CreatePreinscription(c *gin.Context) {
	var req preinscriptiondomain.CreateRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.preinscriptionSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) UpdatePreinscription(c *gin.Context) {
	var req preinscriptiondomain.UpdateRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.preinscriptionSvc.Update(c.Request.Context(), param(c, "id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) ValidatePreinscription(c *gin.Context) {
	decision, err := s.preinscriptionSvc.Validate(c.Request.Context(), param(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": decision})
}

func (s *Server) RefusePreinscription(c *gin.Context) {
	var req preinscriptiondomain.RefuseRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.preinscriptionSvc.Refuse(c.Request.Context(), param(c, "id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) CancelPreinscription(c *gin.Context) {
	item, err := s.preinscriptionSvc.Cancel(c.Request.Context(), param(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DownloadPreinscriptionPDF(c *gin.Context) {
	doc, err := s.preinscriptionSvc.PDF(c.Request.Context(), param(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writePDF(c, doc.FileName, doc.Content)
}

func preinscriptionValidationError(err error) (error, bool) {
	return match(err, []error{
		preinscriptiondomain.ErrInvalidID,
		preinscriptiondomain.ErrInvalidSchoolYear,
		preinscriptiondomain.ErrInvalidName,
		preinscriptiondomain.ErrInvalidEmail,
		preinscriptiondomain.ErrInvalidBirthDate,
		preinscriptiondomain.ErrInvalidLevel,
		preinscriptiondomain.ErrInvalidStatus,
		preinscriptiondomain.ErrInvalidComment,
	})
}
