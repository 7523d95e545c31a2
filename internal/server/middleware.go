package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerFallback() {
	s.engine.HandleMethodNotAllowed = true
	s.engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: errorPayload{
			Type:    "not_found",
			Message: "route not found",
		}})
	})
	s.engine.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, errorResponse{Error: errorPayload{
			Type:    "method_not_allowed",
			Message: "method not allowed",
		}})
	})
}
