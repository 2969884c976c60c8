package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripmate/pkg/utils"
)

func newRouter(t *testing.T, mw ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  c.GetString("user_id"),
			"role":     c.GetString("Role"),
			"trace_id": c.GetString("trace_id"),
		})
	})
	return r
}

func do(r http.Handler, method, auth string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/whoami", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	jwt, err := utils.NewJWTManager("secret", time.Hour)
	require.NoError(t, err)
	token, _, err := jwt.CreateToken("u1", utils.RoleGuest)
	require.NoError(t, err)
	r := newRouter(t, JWTAuthMiddleware(jwt))

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "Bearer nonsense").Code)

	w := do(r, http.MethodGet, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
}

func TestOptionalJWTMiddleware(t *testing.T) {
	jwt, err := utils.NewJWTManager("secret", time.Hour)
	require.NoError(t, err)
	token, _, err := jwt.CreateToken("u1", utils.RoleAdmin)
	require.NoError(t, err)
	r := newRouter(t, OptionalJWTMiddleware(jwt))

	w := do(r, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":""`)

	w = do(r, http.MethodGet, "Bearer broken")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":""`)

	w = do(r, http.MethodGet, "Bearer "+token)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)
}

func TestRoleMiddleware(t *testing.T) {
	jwt, err := utils.NewJWTManager("secret", time.Hour)
	require.NoError(t, err)
	guest, _, _ := jwt.CreateToken("u1", utils.RoleGuest)
	admin, _, _ := jwt.CreateToken("u2", utils.RoleAdmin)
	r := newRouter(t, JWTAuthMiddleware(jwt), RoleMiddleware(utils.RoleAdmin))

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "Bearer "+guest).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "Bearer "+admin).Code)
}

func TestTraceIDMiddleware(t *testing.T) {
	r := newRouter(t, TraceIDMiddleware())

	w := do(r, http.MethodGet, "")
	minted := w.Header().Get(TraceHeader)
	_, err := uuid.Parse(minted)
	require.NoError(t, err)
	assert.Contains(t, w.Body.String(), minted)

	given := uuid.NewString()
	w = do(r, http.MethodGet, "", TraceHeader, given)
	assert.Equal(t, given, w.Header().Get(TraceHeader))

	w = do(r, http.MethodGet, "", TraceHeader, "<script>")
	assert.NotEqual(t, "<script>", w.Header().Get(TraceHeader))
}

func TestCORSMiddleware(t *testing.T) {
	r := newRouter(t, CORSMiddleware())
	r.OPTIONS("/whoami", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := do(r, http.MethodOptions, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(r, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Signature")
}
