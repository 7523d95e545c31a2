package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/montessori/ecole/internal/booking/domain"
)

// bookingHandlers serves one booking kind under /api/enfants/:id.
type bookingHandlers struct {
	s    *Server
	kind bookingdomain.Kind
}

func (h bookingHandlers) list(c *gin.Context) {
	items, err := h.s.bookingSvc.List(c.Request.Context(), param(c, "id"), h.kind, query(c, "month"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (h bookingHandlers) book(c *gin.Context) {
	var req bookingdomain.BookRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := h.s.bookingSvc.Book(c.Request.Context(), param(c, "id"), h.kind, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h bookingHandlers) cancel(c *gin.Context) {
	if err := h.s.bookingSvc.Cancel(c.Request.Context(), param(c, "id"), h.kind, param(c, "date")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func bookingValidationError(err error) (error, bool) {
	return match(err, []error{
		bookingdomain.ErrInvalidKind,
		bookingdomain.ErrInvalidDate,
		bookingdomain.ErrInvalidMonth,
		bookingdomain.ErrNoDates,
	})
}
