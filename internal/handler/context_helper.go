package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/erfannorozi54/Rashed-sub001/internal/middleware"
	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
)

const dateLayout = "2006-01-02"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// dateQuery parses a YYYY-MM-DD query parameter as midnight in loc. Missing values yield fallback.
func dateQuery(c *gin.Context, key string, loc *time.Location, fallback *time.Time) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, key+" must be YYYY-MM-DD")
	}
	return &parsed, nil
}
