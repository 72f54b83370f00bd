package httpkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"movecrm_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jwtCfg string

func (s jwtCfg) GetJWTAccessSecret() string { return string(s) }

const testSecret = jwtCfg("test-secret")

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func protectedEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/me", AuthRequired(testSecret), func(c *gin.Context) {
		id := MustGetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"user": id.UserID(), "role": id.PrimaryRole()})
	})
	engine.GET("/admin", AuthRequired(testSecret), RequireRole("ADMIN"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return engine
}

func doGet(engine *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	engine := protectedEngine()
	userID := uuid.New()
	valid := jwt.MapClaims{
		"sub":   userID.String(),
		"type":  "access",
		"roles": []string{"SALES"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	}

	rec := doGet(engine, "/me", signToken(t, valid, string(testSecret)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userID.String())
	assert.Contains(t, rec.Body.String(), `"role":"SALES"`)

	assert.Equal(t, http.StatusUnauthorized, doGet(engine, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(engine, "/me", signToken(t, valid, "other-secret")).Code)

	refresh := jwt.MapClaims{"sub": userID.String(), "type": "refresh", "exp": time.Now().Add(time.Hour).Unix()}
	assert.Equal(t, http.StatusUnauthorized, doGet(engine, "/me", signToken(t, refresh, string(testSecret))).Code)

	expired := jwt.MapClaims{"sub": userID.String(), "type": "access", "exp": time.Now().Add(-time.Minute).Unix()}
	assert.Equal(t, http.StatusUnauthorized, doGet(engine, "/me", signToken(t, expired, string(testSecret))).Code)
}

func TestRequireRole(t *testing.T) {
	engine := protectedEngine()
	claims := func(role string) jwt.MapClaims {
		return jwt.MapClaims{
			"sub":   uuid.NewString(),
			"type":  "access",
			"roles": []string{role},
			"exp":   time.Now().Add(time.Hour).Unix(),
		}
	}

	assert.Equal(t, http.StatusNoContent, doGet(engine, "/admin", signToken(t, claims("ADMIN"), string(testSecret))).Code)
	assert.Equal(t, http.StatusForbidden, doGet(engine, "/admin", signToken(t, claims("SALES"), string(testSecret))).Code)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/intake", PerMinute(2, nil).RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, doGet(engine, "/intake", "").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		code int
		body string
	}{
		{apperr.NotFound("lead not found"), http.StatusNotFound, "lead not found"},
		{apperr.Forbidden("access denied"), http.StatusForbidden, "access denied"},
		{apperr.Validation("Override requires reason"), http.StatusBadRequest, "Override requires reason"},
		{errors.New("pool closed"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		assert.True(t, HandleError(c, tc.err))
		assert.Equal(t, tc.code, rec.Code)
		assert.Contains(t, rec.Body.String(), tc.body)
	}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, HandleError(c, nil))
}
