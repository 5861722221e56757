package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradepro-api/internal/middleware"
	appErrors "github.com/noah-isme/gradepro-api/pkg/errors"
)

func studentIDFromContext(c *gin.Context) (string, error) {
	claims := middleware.Claims(c)
	if claims == nil || claims.StudentID == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	return claims.StudentID, nil
}
