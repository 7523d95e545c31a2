package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tariffdomain "github.com/montessori/ecole/internal/tariff/domain"
)

func (s *Server) ListTariffs(c *gin.Context) {
	var req tariffdomain.ListTariffRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tariffSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Tariffs, "page_info": resp.PageInfo})
}

func (s *Server) GetTariff(c *gin.Context) {
	item, err := s.tariffSvc.Get(c.Request.Context(), param(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) CreateTariff(c *gin.Context) {
	var req tariffdomain.CreateTariffRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.tariffSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) UpdateTariff(c *gin.Context) {
	var req tariffdomain.UpdateTariffRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.tariffSvc.Update(c.Request.Context(), param(c, "id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DeleteTariff(c *gin.Context) {
	if err := s.tariffSvc.Delete(c.Request.Context(), param(c, "id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) CopyTariffYear(c *gin.Context) {
	var req tariffdomain.CopyYearRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.tariffSvc.CopyYear(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func tariffValidationError(err error) (error, bool) {
	return match(err, []error{
		tariffdomain.ErrInvalidID,
		tariffdomain.ErrInvalidKey,
		tariffdomain.ErrInvalidAmount,
		tariffdomain.ErrInvalidCategory,
		tariffdomain.ErrInvalidSchoolYear,
	})
}
