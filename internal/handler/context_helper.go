package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bagrut-dashboard-api/internal/middleware"
	"github.com/noah-isme/bagrut-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/bagrut-dashboard-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// studentFilterFromQuery reads the student table filters shared by listing and export.
func studentFilterFromQuery(c *gin.Context) (models.StudentFilter, error) {
	filter := models.StudentFilter{
		Grade:           strings.TrimSpace(c.Query("grade")),
		Search:          strings.TrimSpace(c.Query("search")),
		Specialization1: strings.TrimSpace(c.Query("specialization1")),
		Specialization2: strings.TrimSpace(c.Query("specialization2")),
		Status:          strings.TrimSpace(c.Query("status")),
		SortBy:          c.Query("sort"),
		SortOrder:       strings.ToLower(c.Query("order")),
	}

	var err error
	if filter.MathUnits, err = optionalInt(c, "math_units"); err != nil {
		return filter, err
	}
	if filter.EnglishUnits, err = optionalInt(c, "english_units"); err != nil {
		return filter, err
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	if filter.SortOrder != "" && filter.SortOrder != "asc" && filter.SortOrder != "desc" {
		return filter, appErrors.Clone(appErrors.ErrValidation, "order must be asc or desc")
	}
	return filter, nil
}

func optionalInt(c *gin.Context, key string) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, key+" must be a number")
	}
	return &n, nil
}
