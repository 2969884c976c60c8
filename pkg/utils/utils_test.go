package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONResponse(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"fenced":        {"```json\n{\"a\":1}\n```", `{"a":1}`},
		"prose around":  {"Sure! Here it is: {\"a\":{\"b\":2}} Hope that helps.", `{"a":{"b":2}}`},
		"brace in text": {`{"a":"}"} trailing`, `{"a":"}"}`},
		"escaped quote": {`{"a":"say \"}\""} x`, `{"a":"say \"}\""}`},
		"no object":     {"nothing here", "nothing here"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSONResponse(tt.in))
		})
	}
}

func TestParseBrief(t *testing.T) {
	got, err := parseBrief("```json\n{\"country\":\"Peru\",\"region\":\"South America\",\"highlights\":[\"Machu Picchu\"]}\n```", "Cusco")
	require.NoError(t, err)
	want := &DestinationBrief{Name: "Cusco", Country: "Peru", Region: "South America", Highlights: []string{"Machu Picchu"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseBrief mismatch (-want +got):\n%s", diff)
	}

	_, err = parseBrief("I don't know that place", "Nowhere")
	assert.Error(t, err)
}

func TestNewAIClientWithoutKey(t *testing.T) {
	for _, provider := range []string{"", "none", "openai", "gemini"} {
		client, err := NewAIClient(provider, "", "m", "e")
		require.NoError(t, err, provider)
		assert.Nil(t, client, provider)
	}
	_, err := NewAIClient("watson", "k", "m", "e")
	assert.Error(t, err)
}

func TestJWTRoundTripAndExpiry(t *testing.T) {
	m, err := NewJWTManager("secret", time.Minute)
	require.NoError(t, err)
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }

	token, expires, err := m.CreateToken("u1", RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Minute), expires)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)

	m.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	other, err := NewJWTManager("other", time.Minute)
	require.NoError(t, err)
	other.now = m.now
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = NewJWTManager("", time.Minute)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("open-sesame")
	require.NoError(t, err)
	assert.NoError(t, ComparePasswords(hash, "open-sesame"))
	assert.Error(t, ComparePasswords(hash, "open-sesame!"))

	tok, err := GenerateSecureToken(16)
	require.NoError(t, err)
	assert.Len(t, tok, 32)
	_, err = GenerateSecureToken(0)
	assert.Error(t, err)
}

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err  error
		code int
	}{
		{ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", ErrSessionNotFound), http.StatusNotFound},
		{ErrTripNotFound, http.StatusNotFound},
		{ErrForbidden, http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("%w: timeout", ErrUpstream), http.StatusBadGateway},
		{errors.Join(ErrDatabaseError, errors.New("conn refused")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Set("trace_id", "trace-1")
			HandleServiceError(c, tt.err)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), `"status":"error"`)
			assert.Contains(t, w.Body.String(), `"trace_id":"trace-1"`)
		})
	}
}

func TestTimeHelpers(t *testing.T) {
	assert.True(t, FromUnixSeconds(0).IsZero())
	assert.Equal(t, "", FormatRFC3339(time.Time{}))
	assert.Equal(t, "2026-05-01T12:00:00Z", FormatRFC3339(FromUnixSeconds(1777636800)))
}
