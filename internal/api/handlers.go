package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/inventory-hub/internal/fields"
	"github.com/inventory-hub/internal/models"
	"github.com/inventory-hub/internal/service"
	"github.com/inventory-hub/internal/types"
)

// ListingsResponse is the wire form of a list load. Degraded outcomes
// with usable data carry both listings and the error that caused the
// degradation.
type ListingsResponse struct {
	Listings    []models.ListingSummary `json:"listings"`
	Source      types.ResultSource      `json:"source"`
	Stale       bool                    `json:"stale,omitempty"`
	CanLoadMore bool                    `json:"canLoadMore"`
	Error       *types.ServiceError     `json:"error,omitempty"`
}

// AdvanceRequest is the body of a load-more request; the filter must
// match the one the window was loaded with.
type AdvanceRequest struct {
	SearchTerm     string `json:"searchTerm,omitempty"`
	StatusFilter   string `json:"statusFilter,omitempty"`
	CategoryFilter string `json:"categoryFilter,omitempty"`
	PageSize       int    `json:"pageSize,omitempty"`
}

// AdvanceResponse reports what a load-more attempt did
type AdvanceResponse struct {
	Appended  []models.ListingSummary `json:"appended"`
	Exhausted bool                    `json:"exhausted"`
	EndOfData bool                    `json:"endOfData"`
}

// DetailResponse is the wire form of a detail load
type DetailResponse struct {
	Listing *models.ListingDetail `json:"listing"`
	Loading bool                  `json:"loading"`
}

// OfflineRequest toggles snapshot-only mode
type OfflineRequest struct {
	Enabled bool `json:"enabled"`
}

// identify resolves the caller's identity from the X-User-ID header.
// A missing or unknown identity writes the 401 response and reports
// ok=false.
func (s *Server) identify(w http.ResponseWriter, r *http.Request) (string, bool) {
	result := s.sessions.Resolve(r.Context(), r.Header.Get("X-User-ID"))
	if !result.OK {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "No authenticated session", map[string]interface{}{
			"kind": result.Kind,
		})
		return "", false
	}
	return result.Identity.UserID, true
}

// filterFromQuery builds a FilterSpec from list query parameters
func filterFromQuery(r *http.Request) models.FilterSpec {
	q := r.URL.Query()

	spec := models.FilterSpec{
		SearchTerm:     strings.TrimSpace(q.Get("search")),
		StatusFilter:   types.ListingStatus(q.Get("status")),
		CategoryFilter: q.Get("category"),
	}
	if raw := q.Get("pageSize"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			spec.PageSize = n
		}
	}
	return spec
}

// listingsResponse converts an orchestrator result to the wire form
func listingsResponse(result *service.LoadResult) *ListingsResponse {
	resp := &ListingsResponse{
		Listings:    result.Listings,
		Source:      result.Source,
		Stale:       result.Stale,
		CanLoadMore: result.CanLoadMore,
	}
	if resp.Listings == nil {
		resp.Listings = []models.ListingSummary{}
	}
	if result.Err != nil {
		resp.Error = result.Err.ToServiceError()
	}
	return resp
}

// handleListListings handles GET /api/listings.
// Failures that still produced data (fallback snapshots) return 200
// with the error attached; only dataless failures fail the request.
func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.identify(w, r)
	if !ok {
		return
	}

	force := r.URL.Query().Get("force") == "true"
	result := s.inventory.Load(r.Context(), userID, filterFromQuery(r), force)

	if result.Err != nil && result.Source == "" {
		respondReadError(w, result.Err)
		return
	}

	respondJSON(w, http.StatusOK, listingsResponse(result))
}

// handleAdvance handles POST /api/listings/advance
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.identify(w, r)
	if !ok {
		return
	}

	var req AdvanceRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	spec := models.FilterSpec{
		SearchTerm:     strings.TrimSpace(req.SearchTerm),
		StatusFilter:   types.ListingStatus(req.StatusFilter),
		CategoryFilter: req.CategoryFilter,
		PageSize:       req.PageSize,
	}

	result, readErr := s.inventory.Advance(r.Context(), userID, spec)
	if readErr != nil {
		respondReadError(w, readErr)
		return
	}

	resp := &AdvanceResponse{
		Appended:  result.Appended,
		Exhausted: result.Exhausted,
		EndOfData: result.EndOfData,
	}
	if resp.Appended == nil {
		resp.Appended = []models.ListingSummary{}
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleGetListing handles GET /api/listings/{id}?fields=a,b,c
func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.identify(w, r)
	if !ok {
		return
	}

	listingID := mux.Vars(r)["id"]

	var raw []string
	if fieldsParam := r.URL.Query().Get("fields"); fieldsParam != "" {
		raw = strings.Split(fieldsParam, ",")
	}
	groups, unknown := fields.ParseGroups(raw)
	if len(unknown) > 0 {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Unknown field groups", map[string]interface{}{
			"fields": unknown,
		})
		return
	}

	detail, readErr := s.inventory.LoadDetail(r.Context(), userID, listingID, groups)
	if readErr != nil {
		respondReadError(w, readErr)
		return
	}

	respondJSON(w, http.StatusOK, &DetailResponse{
		Listing: detail,
		Loading: s.inventory.IsLoadingDetails(listingID),
	})
}

// handleRefresh handles POST /api/refresh: a forced reload that
// bypasses the query cache.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.identify(w, r)
	if !ok {
		return
	}

	result := s.inventory.Load(r.Context(), userID, filterFromQuery(r), true)

	if result.Err != nil && result.Source == "" {
		respondReadError(w, result.Err)
		return
	}

	respondJSON(w, http.StatusOK, listingsResponse(result))
}

// handleOffline handles POST /api/offline
func (s *Server) handleOffline(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.identify(w, r); !ok {
		return
	}

	var req OfflineRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	s.inventory.SetOfflineMode(req.Enabled)
	respondJSON(w, http.StatusOK, map[string]bool{"offline": s.inventory.OfflineMode()})
}

// handleClearFallback handles DELETE /api/fallback
func (s *Server) handleClearFallback(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.identify(w, r)
	if !ok {
		return
	}

	s.inventory.ClearFallback(r.Context(), userID)
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, state := s.inventory.Health()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "inventory-hub",
		"state":   state,
		"status":  status,
	})
}
