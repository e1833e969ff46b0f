package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/bagrut-dashboard-api/internal/handler"
	"github.com/noah-isme/bagrut-dashboard-api/internal/models"
	"github.com/noah-isme/bagrut-dashboard-api/internal/service"
)

const testSecret = "router-secret"

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authSvc := service.NewAuthService(nil, nil, zap.NewNop(), service.AuthConfig{
		AccessTokenSecret: testSecret,
		AccessTokenExpiry: time.Hour,
	})
	metrics := service.NewMetricsService()
	router := newRouter(routerDeps{
		APIPrefix:     "/api/v1",
		EnableMetrics: true,
		Logger:        zap.NewNop(),
		Metrics:       metrics,
		Tokens:        authSvc,
		Auth:          handler.NewAuthHandler(authSvc),
		Students:      handler.NewStudentHandler(nil),
		Imports:       handler.NewImportHandler(nil, 1024),
		Exports:       handler.NewExportHandler(nil),
		Dashboard:     handler.NewDashboardHandler(nil),
		System:        handler.NewMetricsHandler(metrics, nil),
	})
	return router
}

func bearer(t *testing.T, role models.UserRole) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID:           "u1",
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouterPublicEndpoints(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/health", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterRequiresAuthentication(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/api/v1/students", "/api/v1/dashboard", "/api/v1/students/export", "/api/v1/auth/me"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouterMutationsRequireAdmin(t *testing.T) {
	router := testRouter(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/students"},
		{http.MethodPost, "/api/v1/students/import"},
		{http.MethodPut, "/api/v1/students/s-1"},
		{http.MethodDelete, "/api/v1/students/s-1"},
		{http.MethodGet, "/api/v1/system/metrics"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", bearer(t, models.RoleViewer))
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, tc.method+" "+tc.path)
	}
}

func TestRouterViewerCanReadProfile(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", bearer(t, models.RoleViewer))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"VIEWER"`)
}
