package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tripmate/internal/api/controllers"
	"tripmate/internal/models/response_models"
	"tripmate/internal/planner"
	"tripmate/internal/repositories"
	"tripmate/internal/services"
	mem "tripmate/pkg/memcache"
	"tripmate/pkg/utils"
)

const webhookSecret = "whsec_test"

type testApp struct {
	router *gin.Engine
	signer *services.HMACVerifier
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	rules := planner.DefaultRules()
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	engine := planner.NewEngine(rules, planner.NewMockCatalog(rules)).WithClock(func() time.Time { return now })

	jwt, err := utils.NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)

	destinations := services.NewDestinationService(rules, nil, nil)
	search := services.NewSearchService(services.OffersConfig{}, rules)
	trips := services.NewTripService(repositories.NewMemoryTripRepository())
	chat := services.NewChatService(engine, mem.NewTTLStore[planner.SessionState](time.Hour), destinations, search, trips)
	signer := services.NewHMACVerifier(webhookSecret)

	p := RouterParams{
		Log:         zap.NewNop(),
		JWT:         jwt,
		Chat:        controllers.NewChatController(chat),
		Destination: controllers.NewDestinationController(destinations),
		Search:      controllers.NewSearchController(search),
		Trips:       controllers.NewTripController(trips),
		Payments:    controllers.NewPaymentController(services.NewPaymentService(signer, services.NewTripPaymentHandler(trips))),
		Auth:        controllers.NewAuthController(services.NewAuthService(jwt, "admin-key")),
		Dashboard:   controllers.NewDashboardController(services.NewDashboardService(chat, trips)),
	}
	return &testApp{router: ProvideRouter(p), signer: signer}
}

type envelope struct {
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *testApp) call(t *testing.T, method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		raw = b
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), string(env.Data))
	return v
}

func (a *testApp) token(t *testing.T, adminKey string) response_models.TokenResponse {
	t.Helper()
	var body any
	if adminKey != "" {
		body = map[string]string{"admin_key": adminKey}
	}
	w, env := a.call(t, http.MethodPost, "/api/auth/guest", "", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[response_models.TokenResponse](t, env)
}

var conversation = []any{
	"I want to go to Italy for 7 days with a £3000 budget for 2 people",
	"Manchester",
	"June",
	"a hotel please",
	"seafood",
	"museums and history",
	"relaxed",
	"yes",
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	w, env := a.call(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", env.Status)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestPlanShareAndPayFlow(t *testing.T) {
	a := newTestApp(t)
	guest := a.token(t, "")

	w, env := a.call(t, http.MethodPost, "/api/chat/sessions", guest.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	started := decode[response_models.ChatResponse](t, env)
	assert.Equal(t, planner.PhaseCollecting, started.Phase)

	var tripID string
	for _, msg := range conversation {
		w, env = a.call(t, http.MethodPost, "/api/chat/message", guest.Token, map[string]any{
			"session_id": started.SessionID,
			"message":    msg,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		if res := decode[response_models.ChatResponse](t, env); res.TripID != "" {
			tripID = res.TripID
		}
	}
	require.NotEmpty(t, tripID)

	w, env = a.call(t, http.MethodGet, "/api/chat/sessions/"+started.SessionID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	session := decode[response_models.SessionResponse](t, env)
	assert.Equal(t, planner.PhaseDone, session.Phase)
	assert.Equal(t, guest.UserID, session.UserID)
	require.NotNil(t, session.Plan)
	assert.Equal(t, []string{"Rome", "Florence", "Venice"}, session.Plan.Cities)

	// Trips need a token and belong to their owner.
	w, _ = a.call(t, http.MethodGet, "/api/trips", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, env = a.call(t, http.MethodGet, "/api/trips?page=1&pageSize=10", guest.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]response_models.TripResponse](t, env), 1)
	w, _ = a.call(t, http.MethodGet, "/api/trips?pageSize=500", guest.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stranger := a.token(t, "")
	w, _ = a.call(t, http.MethodGet, "/api/trips/"+tripID, stranger.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = a.call(t, http.MethodPost, "/api/trips/"+tripID+"/share", guest.Token, map[string]string{"passcode": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "passcode too short")
	w, env = a.call(t, http.MethodPost, "/api/trips/"+tripID+"/share", guest.Token, map[string]string{"passcode": "abcd1234"})
	require.Equal(t, http.StatusOK, w.Code)
	share := decode[response_models.ShareTripResponse](t, env)
	assert.True(t, share.PasscodeRequired)

	w, _ = a.call(t, http.MethodGet, "/api/shared/"+share.ShareToken, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, env = a.call(t, http.MethodGet, "/api/shared/"+share.ShareToken+"?passcode=abcd1234", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Italy", decode[response_models.TripDetailResponse](t, env).Destination)

	// Payment webhook.
	event := []byte(`{"id":"evt_1","type":"payment.succeeded","trip_id":"` + tripID + `"}`)
	w, _ = a.call(t, http.MethodPost, "/api/payments/webhook", "", event, services.SignatureHeader, "deadbeef")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = a.call(t, http.MethodPost, "/api/payments/webhook", "", event, services.SignatureHeader, hex.EncodeToString(a.signer.Sign(event)))
	require.Equal(t, http.StatusOK, w.Code)

	w, env = a.call(t, http.MethodGet, "/api/trips/"+tripID, guest.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[response_models.TripDetailResponse](t, env).Paid)

	// Admin stats.
	w, _ = a.call(t, http.MethodGet, "/api/admin/stats", guest.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	admin := a.token(t, "admin-key")
	w, env = a.call(t, http.MethodGet, "/api/admin/stats", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[response_models.AdminStats](t, env)
	assert.EqualValues(t, 1, stats.SavedTrips)
	assert.EqualValues(t, 1, stats.PaidTrips)
	assert.Equal(t, 1, stats.SessionsByPhase[planner.PhaseDone])
}

func TestChatErrors(t *testing.T) {
	a := newTestApp(t)

	w, _ := a.call(t, http.MethodPost, "/api/chat/message", "", map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = a.call(t, http.MethodPost, "/api/chat/message", "", map[string]any{"session_id": "nope", "message": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := a.call(t, http.MethodPost, "/api/chat/sessions", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	id := decode[response_models.ChatResponse](t, env).SessionID

	w, env = a.call(t, http.MethodPost, "/api/chat/message", "", map[string]any{"session_id": id, "message": 12})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, planner.SlotDestination, decode[response_models.ChatResponse](t, env).NextSlot)

	w, env = a.call(t, http.MethodDelete, "/api/chat/sessions/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[response_models.ChatResponse](t, env).Restarted)
}

func TestChatSessionsAreOwned(t *testing.T) {
	a := newTestApp(t)
	owner := a.token(t, "")
	stranger := a.token(t, "")

	w, env := a.call(t, http.MethodPost, "/api/chat/sessions", owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	id := decode[response_models.ChatResponse](t, env).SessionID

	w, _ = a.call(t, http.MethodPost, "/api/chat/message", stranger.Token, map[string]any{"session_id": id, "message": "Italy"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = a.call(t, http.MethodGet, "/api/chat/sessions/"+id, stranger.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = a.call(t, http.MethodDelete, "/api/chat/sessions/"+id, stranger.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = a.call(t, http.MethodGet, "/api/chat/sessions/"+id, owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, owner.UserID, decode[response_models.SessionResponse](t, env).UserID)
}

func TestLookupEndpoints(t *testing.T) {
	a := newTestApp(t)

	w, _ := a.call(t, http.MethodPost, "/api/destinations/search", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	w, _ = a.call(t, http.MethodPost, "/api/destinations/search", "", map[string]string{"destination": "japan"})
	require.Equal(t, http.StatusOK, w.Code)
	var found response_models.DestinationSearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	assert.True(t, found.Success)
	assert.Equal(t, "Japan", found.DestinationInfo.Name)
	assert.Equal(t, response_models.SourceCatalogue, found.DestinationInfo.Source)

	w, env := a.call(t, http.MethodPost, "/api/flights/search", "", map[string]string{"origin": "London", "destination": "Japan"})
	require.Equal(t, http.StatusOK, w.Code)
	flights := decode[response_models.FlightSearchResponse](t, env)
	assert.Equal(t, services.SourceFallback, flights.Source)
	assert.Len(t, flights.Flights, 3)

	w, _ = a.call(t, http.MethodPost, "/api/hotels/search", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = a.call(t, http.MethodPost, "/api/activities/search", "", map[string]any{"city": "Tokyo", "preferences": []string{"museums"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[response_models.ActivitySearchResponse](t, env).Activities)
}
