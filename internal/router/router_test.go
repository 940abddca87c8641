package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/hall-booking-api/internal/handler"
	"github.com/noah-isme/hall-booking-api/internal/models"
	"github.com/noah-isme/hall-booking-api/internal/service"
	appErrors "github.com/noah-isme/hall-booking-api/pkg/errors"
)

type stubTokens map[string]*models.JWTClaims

func (s stubTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	window := service.NewBookingWindow(time.UTC, 17, 24)
	metrics := service.NewMetricsService()
	return New(Options{
		APIPrefix: "/api/v1",
		Tokens: stubTokens{
			"member": {UserID: "m1", Role: models.RoleMember},
		},
		MetricsService: metrics,
		Logger:         zap.NewNop(),
	}, Handlers{
		Auth:         handler.NewAuthHandler(nil),
		Users:        handler.NewUserHandler(nil),
		Bookings:     handler.NewBookingHandler(nil, nil, window),
		Calendar:     handler.NewCalendarHandler(nil, window),
		BlockedTimes: handler.NewBlockedTimeHandler(nil, window),
		Subscription: handler.NewSubscriptionHandler(nil, window),
		Metrics:      handler.NewMetricsHandler(metrics, nil),
	})
}

func TestRouterGuards(t *testing.T) {
	r := newTestRouter()

	cases := []struct {
		method string
		path   string
		token  string
		status int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/ready", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/v1/admin/users", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/admin/users", "member", http.StatusForbidden},
		{http.MethodDelete, "/api/v1/admin/sessions/expired", "member", http.StatusForbidden},
		{http.MethodPost, "/api/v1/bookings", "", http.StatusUnauthorized},
		{http.MethodPut, "/api/v1/bookings/b1", "member", http.StatusForbidden},
		{http.MethodPost, "/api/v1/blocked-times", "member", http.StatusForbidden},
		{http.MethodGet, "/api/v1/me", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, "%s %s", tc.method, tc.path)
	}
}
