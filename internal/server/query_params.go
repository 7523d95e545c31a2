package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func param(c *gin.Context, name string) string {
	return strings.TrimSpace(c.Param(name))
}

func query(c *gin.Context, name string) string {
	return strings.TrimSpace(c.Query(name))
}
