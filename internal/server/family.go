package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	familydomain "github.com/montessori/ecole/internal/family/domain"
)

type enrollRequest struct {
	SchoolYear string `json:"school_year" validate:"required,len=9"`
}

func (s *Server) ListParents(c *gin.Context) {
	var req familydomain.ListParentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.familySvc.ListParents(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Parents, "page_info": resp.PageInfo})
}

func (s *Server) GetParent(c *gin.Context) {
	item, err := s.familySvc.GetParent(c.Request.Context(), param(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) CreateParent(c *gin.Context) {
	var req familydomain.CreateParentRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.familySvc.CreateParent(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) UpdateParent(c *gin.Context) {
	var req familydomain.UpdateParentRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.familySvc.UpdateParent(c.Request.Context(), param(c, "id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DeleteParent(c *gin.Context) {
	if err := s.familySvc.DeleteParent(c.Request.Context(), param(c, "id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListChildren(c *gin.Context) {
	var req familydomain.ListChildrenRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.familySvc.ListChildren(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Children, "page_info": resp.PageInfo})
}

func (s *Server) GetChild(c *gin.Context) {
	item, err := s.familySvc.GetChildDetail(c.Request.Context(), param(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) CreateChild(c *gin.Context) {
	var req familydomain.CreateChildRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.familySvc.CreateChild(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) UpdateChild(c *gin.Context) {
	var req familydomain.UpdateChildRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.familySvc.UpdateChild(c.Request.Context(), param(c, "id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DeleteChild(c *gin.Context) {
	if err := s.familySvc.DeleteChild(c.Request.Context(), param(c, "id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListChildEnrollments(c *gin.Context) {
	items, err := s.familySvc.ListChildEnrollments(c.Request.Context(), param(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) EnrollChild(c *gin.Context) {
	var req enrollRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.familySvc.Enroll(c.Request.Context(), param(c, "id"), req.SchoolYear)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) TerminateEnrollment(c *gin.Context) {
	item, err := s.familySvc.TerminateEnrollment(c.Request.Context(), param(c, "id"), param(c, "year"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) ListEnrollments(c *gin.Context) {
	items, err := s.familySvc.ListEnrollments(c.Request.Context(), query(c, "school_year"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) ListChildrenAwaitingEnrollment(c *gin.Context) {
	items, err := s.familySvc.ChildrenAwaitingEnrollment(c.Request.Context(), query(c, "school_year"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) SignRegulation(c *gin.Context) {
	var req familydomain.SignRegulationRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.familySvc.SignRegulation(c.Request.Context(), param(c, "id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) GetRegulationSignature(c *gin.Context) {
	item, err := s.familySvc.GetRegulationSignature(c.Request.Context(), param(c, "id"), query(c, "school_year"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func familyValidationError(err error) (error, bool) {
	return match(err, []error{
		familydomain.ErrInvalidID,
		familydomain.ErrInvalidName,
		familydomain.ErrInvalidEmail,
		familydomain.ErrInvalidRate,
		familydomain.ErrInvalidBirthDate,
		familydomain.ErrInvalidLevel,
		familydomain.ErrInvalidFrequency,
		familydomain.ErrInvalidSchoolYear,
		familydomain.ErrInvalidSignature,
		familydomain.ErrSameParent,
	})
}
