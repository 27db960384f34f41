package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dentect/dentist-clinic-backend/internal/model"
)

type fakeAuthService struct {
	dentistID uuid.UUID
	calls     int
}

func (f *fakeAuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.Dentist, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeAuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeAuthService) ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error) {
	f.calls++
	if token != "good-token" {
		return nil, fmt.Errorf("invalid token")
	}
	return &model.TokenClaims{DentistID: f.dentistID}, nil
}

func setupAuthTest(t *testing.T) (*gin.Engine, *fakeAuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &fakeAuthService{dentistID: uuid.New()}
	m := NewAuthMiddleware(svc)

	r := gin.New()
	r.GET("/protected", m.Authenticate(), func(c *gin.Context) {
		id, _ := c.Get(ContextDentistID)
		c.JSON(http.StatusOK, gin.H{"dentistId": id.(uuid.UUID).String()})
	})
	return r, svc
}

func doRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateMissingHeader(t *testing.T) {
	r, svc := setupAuthTest(t)

	w := doRequest(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), MsgAccessDenied)
	assert.Zero(t, svc.calls, "validator must not run without a token")
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	r, svc := setupAuthTest(t)

	for _, header := range []string{"good-token", "Basic good-token", "Bearer a b"} {
		w := doRequest(r, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		assert.Contains(t, w.Body.String(), MsgAccessDenied)
	}
	assert.Zero(t, svc.calls)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	r, _ := setupAuthTest(t)

	w := doRequest(r, "Bearer bad-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), MsgAccessDenied)
}

func TestAuthenticateValidToken(t *testing.T) {
	r, svc := setupAuthTest(t)

	w := doRequest(r, "Bearer good-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), svc.dentistID.String())
}

func TestAuthenticateCachesClaims(t *testing.T) {
	r, svc := setupAuthTest(t)

	for i := 0; i < 3; i++ {
		w := doRequest(r, "Bearer good-token")
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 1, svc.calls, "repeat verifications should hit the cache")
}
