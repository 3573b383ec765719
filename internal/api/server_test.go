package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/inventory-hub/internal/errors"
	"github.com/inventory-hub/internal/fields"
	"github.com/inventory-hub/internal/models"
	"github.com/inventory-hub/internal/service"
	"github.com/inventory-hub/internal/types"
)

// fakeOrchestrator returns canned results and records calls
type fakeOrchestrator struct {
	loadResult    *service.LoadResult
	advanceResult *service.AdvanceResult
	advanceErr    *apperrors.ReadError
	detail        *models.ListingDetail
	detailErr     *apperrors.ReadError
	offline       bool
	lastForce     bool
	lastGroups    fields.GroupSet
	clearedUser   string
}

func (f *fakeOrchestrator) Load(ctx context.Context, userID string, spec models.FilterSpec, force bool) *service.LoadResult {
	f.lastForce = force
	return f.loadResult
}

func (f *fakeOrchestrator) Advance(ctx context.Context, userID string, spec models.FilterSpec) (*service.AdvanceResult, *apperrors.ReadError) {
	return f.advanceResult, f.advanceErr
}

func (f *fakeOrchestrator) LoadDetail(ctx context.Context, userID, listingID string, groups fields.GroupSet) (*models.ListingDetail, *apperrors.ReadError) {
	f.lastGroups = groups
	return f.detail, f.detailErr
}

func (f *fakeOrchestrator) IsLoadingDetails(listingID string) bool { return false }

func (f *fakeOrchestrator) Health() (models.HealthStatus, types.HealthState) {
	return models.HealthStatus{ErrorCount: 1}, types.HealthHealthy
}

func (f *fakeOrchestrator) SetOfflineMode(enabled bool) { f.offline = enabled }

func (f *fakeOrchestrator) OfflineMode() bool { return f.offline }

func (f *fakeOrchestrator) ClearFallback(ctx context.Context, userID string) { f.clearedUser = userID }

// allowAllSessions authenticates any non-empty user id
type allowAllSessions struct{}

func (allowAllSessions) Resolve(ctx context.Context, userID string) types.IdentityResult {
	if userID == "" {
		return types.Unauthenticated()
	}
	return types.Authenticated(&types.Identity{UserID: userID})
}

func newTestServer(orch *fakeOrchestrator) *Server {
	return NewServer(&ServerConfig{
		Host:           "127.0.0.1",
		Port:           "0",
		ReadTimeout:    time.Second,
		WriteTimeout:   time.Second,
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}, orch, allowAllSessions{})
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListListings_OK(t *testing.T) {
	orch := &fakeOrchestrator{
		loadResult: &service.LoadResult{
			Listings:    []models.ListingSummary{{ID: "l1", Title: "lamp"}},
			Source:      types.SourceNetwork,
			CanLoadMore: true,
		},
	}
	s := newTestServer(orch)

	rec := doRequest(t, s, "GET", "/api/listings?status=active", nil, "u1")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.SourceNetwork, resp.Source)
	assert.Len(t, resp.Listings, 1)
	assert.True(t, resp.CanLoadMore)
	assert.Nil(t, resp.Error)
	assert.False(t, orch.lastForce)
}

func TestListListings_Unauthenticated(t *testing.T) {
	s := newTestServer(&fakeOrchestrator{})

	rec := doRequest(t, s, "GET", "/api/listings", nil, "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeUnauthorized, resp.Error.Code)
}

func TestListListings_FallbackKeepsOKStatus(t *testing.T) {
	orch := &fakeOrchestrator{
		loadResult: &service.LoadResult{
			Listings: []models.ListingSummary{{ID: "l1"}},
			Source:   types.SourceFallback,
			Stale:    true,
			Err:      apperrors.NewNetworkError("load listings", nil),
		},
	}
	s := newTestServer(orch)

	rec := doRequest(t, s, "GET", "/api/listings", nil, "u1")

	// Usable data degrades the payload, not the status code
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.SourceFallback, resp.Source)
	assert.True(t, resp.Stale)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NETWORK_UNAVAILABLE", resp.Error.Code)
}

func TestListListings_DatalessFailureMapsToStatus(t *testing.T) {
	orch := &fakeOrchestrator{
		loadResult: &service.LoadResult{
			Err: apperrors.NewTimeoutError("load listings", nil),
		},
	}
	s := newTestServer(orch)

	rec := doRequest(t, s, "GET", "/api/listings", nil, "u1")

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestRefresh_Forces(t *testing.T) {
	orch := &fakeOrchestrator{
		loadResult: &service.LoadResult{Source: types.SourceNetwork},
	}
	s := newTestServer(orch)

	rec := doRequest(t, s, "POST", "/api/refresh", nil, "u1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, orch.lastForce)
}

func TestAdvance_OK(t *testing.T) {
	orch := &fakeOrchestrator{
		advanceResult: &service.AdvanceResult{
			Appended: []models.ListingSummary{{ID: "l13"}},
		},
	}
	s := newTestServer(orch)

	rec := doRequest(t, s, "POST", "/api/listings/advance", AdvanceRequest{StatusFilter: "active"}, "u1")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AdvanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Appended, 1)
	assert.False(t, resp.Exhausted)
}

func TestAdvance_ValidationFailure(t *testing.T) {
	orch := &fakeOrchestrator{
		advanceErr: apperrors.NewValidationError("filter", "advance before initial load; call Reset first"),
	}
	s := newTestServer(orch)

	rec := doRequest(t, s, "POST", "/api/listings/advance", AdvanceRequest{}, "u1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdvance_MalformedBody(t *testing.T) {
	s := newTestServer(&fakeOrchestrator{})

	req := httptest.NewRequest("POST", "/api/listings/advance", bytes.NewReader([]byte("{not json")))
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetListing_FieldsParsed(t *testing.T) {
	orch := &fakeOrchestrator{
		detail: &models.ListingDetail{
			ListingSummary: models.ListingSummary{ID: "l1", Title: "lamp"},
		},
	}
	s := newTestServer(orch)

	rec := doRequest(t, s, "GET", "/api/listings/l1?fields=description,image", nil, "u1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, orch.lastGroups.Contains(types.GroupDescription))
	assert.True(t, orch.lastGroups.Contains(types.GroupImage))

	var resp DetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Listing)
	assert.Equal(t, "lamp", resp.Listing.Title)
}

func TestGetListing_UnknownFieldGroup(t *testing.T) {
	s := newTestServer(&fakeOrchestrator{})

	rec := doRequest(t, s, "GET", "/api/listings/l1?fields=bogus", nil, "u1")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeInvalidInput, resp.Error.Code)
}

func TestGetListing_NotFound(t *testing.T) {
	orch := &fakeOrchestrator{
		detailErr: apperrors.NewNotFoundError("listing", "l9"),
	}
	s := newTestServer(orch)

	rec := doRequest(t, s, "GET", "/api/listings/l9", nil, "u1")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOfflineToggle(t *testing.T) {
	orch := &fakeOrchestrator{}
	s := newTestServer(orch)

	rec := doRequest(t, s, "POST", "/api/offline", OfflineRequest{Enabled: true}, "u1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, orch.offline)

	rec = doRequest(t, s, "POST", "/api/offline", OfflineRequest{Enabled: false}, "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, orch.offline)
}

func TestClearFallbackEndpoint(t *testing.T) {
	orch := &fakeOrchestrator{}
	s := newTestServer(orch)

	rec := doRequest(t, s, "DELETE", "/api/fallback", nil, "u1")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u1", orch.clearedUser)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(&fakeOrchestrator{})

	rec := doRequest(t, s, "GET", "/health", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["state"])
	assert.Equal(t, "inventory-hub", resp["service"])
}

func TestRateLimit_TooManyRequests(t *testing.T) {
	orch := &fakeOrchestrator{
		loadResult: &service.LoadResult{Source: types.SourceCache},
	}
	s := NewServer(&ServerConfig{
		Host:           "127.0.0.1",
		Port:           "0",
		RateLimitRPS:   1,
		RateLimitBurst: 1,
	}, orch, allowAllSessions{})

	first := doRequest(t, s, "GET", "/api/listings", nil, "u1")
	require.Equal(t, http.StatusOK, first.Code)

	second := doRequest(t, s, "GET", "/api/listings", nil, "u1")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRequestIDAssignedAndEchoed(t *testing.T) {
	s := newTestServer(&fakeOrchestrator{})

	rec := doRequest(t, s, "GET", "/health", nil, "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	echo := httptest.NewRecorder()
	s.Handler().ServeHTTP(echo, req)
	assert.Equal(t, "req-42", echo.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(&fakeOrchestrator{})

	req := httptest.NewRequest("OPTIONS", "/api/listings", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
