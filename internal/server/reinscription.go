package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	reinscriptiondomain "github.com/montessori/ecole/internal/reinscription/domain"
)

func (s *Server) ListReinscriptions(c *gin.Context) {
	var req reinscriptiondomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reinscriptionSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Reinscriptions, "page_info": resp.PageInfo})
}

func (s *Server) GetReinscription(c *gin.Context) {
	item, err := s.reinscriptionSvc.Get(c.Request.Context(), param(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) RequestReinscription(c *gin.Context) {
	var req reinscriptiondomain.CreateRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.reinscriptionSvc.Request(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) ValidateReinscription(c *gin.Context) {
	item, err := s.reinscriptionSvc.Validate(c.Request.Context(), param(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) RefuseReinscription(c *gin.Context) {
	var req reinscriptiondomain.RefuseRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.reinscriptionSvc.Refuse(c.Request.Context(), param(c, "id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func reinscriptionValidationError(err error) (error, bool) {
	return match(err, []error{
		reinscriptiondomain.ErrInvalidID,
		reinscriptiondomain.ErrInvalidSchoolYear,
		reinscriptiondomain.ErrInvalidStatus,
		reinscriptiondomain.ErrInvalidComment,
	})
}
