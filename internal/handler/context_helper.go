package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingua-crm-api/internal/middleware"
	"github.com/noah-isme/lingua-crm-api/internal/models"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

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

func bindJSON(c *gin.Context, dest interface{}) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	return nil
}

func pageRequest(c *gin.Context) models.PageRequest {
	var p models.PageRequest
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		p.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		p.PageSize = size
	}
	return p
}

// windowQuery reads ?window= plus ?from=&to= for custom ranges.
func windowQuery(c *gin.Context) (timewindow.Window, *timewindow.Range, error) {
	window, err := timewindow.ParseWindow(c.Query("window"))
	if err != nil {
		return "", nil, appErrors.Invalid("invalid query", appErrors.Field("window", err.Error()))
	}
	from, hasFrom := timewindow.ParseDate(c.Query("from"))
	to, hasTo := timewindow.ParseDate(c.Query("to"))
	if window != timewindow.Custom {
		return window, nil, nil
	}
	if !hasFrom || !hasTo {
		return "", nil, appErrors.Invalid("invalid query", appErrors.Field("from", "custom window requires from and to"))
	}
	custom := &timewindow.Range{Start: from, End: to}
	if err := custom.Validate(); err != nil {
		return "", nil, appErrors.Invalid("invalid query", appErrors.Field("to", err.Error()))
	}
	return window, custom, nil
}

func boolQuery(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && v
}
