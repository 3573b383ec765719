// Package service contains the read-orchestration facade for the
// inventory hub: the single seam UI consumers talk to for listing
// loads, incremental pagination, per-listing detail, and degraded-mode
// behavior.
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/inventory-hub/internal/errors"
	"github.com/inventory-hub/internal/fields"
	"github.com/inventory-hub/internal/logging"
	"github.com/inventory-hub/internal/models"
	"github.com/inventory-hub/internal/storage"
	"github.com/inventory-hub/internal/types"
)

// DefaultFetchTimeout bounds a single list or detail query
const DefaultFetchTimeout = 6 * time.Second

// ListingSource is the backing-store client the orchestrator reads from
type ListingSource interface {
	List(ctx context.Context, q *storage.ListQuery) ([]models.ListingSummary, error)
	GetByID(ctx context.Context, userID, id string, columns []string) (*models.ListingDetail, error)
}

// SnapshotStore is the durable last-known-good store consulted when the
// backing store is down. Its operations never fail outward.
type SnapshotStore interface {
	Save(ctx context.Context, userID string, listings []models.ListingSummary)
	Load(ctx context.Context, userID string) *models.FallbackSnapshot
	Has(ctx context.Context, userID string) bool
	Clear(ctx context.Context, userID string)
}

// HealthReporter receives the outcomes of real network attempts and
// classifies the store. Cache hits never reach it.
type HealthReporter interface {
	RecordFailure()
	RecordSuccess()
	State() types.HealthState
	Status() models.HealthStatus
}

// LoadResult is the tagged outcome of a list load. Err is non-nil for
// both fatal outcomes (no listings) and non-fatal ones (fallback data
// with the original failure attached); Source tells the consumer which
// it got.
type LoadResult struct {
	Listings    []models.ListingSummary `json:"listings"`
	Source      types.ResultSource      `json:"source"`
	Stale       bool                    `json:"stale,omitempty"`
	CanLoadMore bool                    `json:"canLoadMore"`
	Err         *apperrors.ReadError    `json:"-"`
}

// inflightLoad is a list fetch in progress; duplicate loads for the
// same key wait on done and share the result.
type inflightLoad struct {
	done   chan struct{}
	result *LoadResult
}

// InventoryService is the orchestrator in front of the listing store.
// It decides cache-hit vs fetch vs fallback, owns cancellation and
// timeouts, and is the only component UI consumers talk to.
type InventoryService struct {
	source    ListingSource
	snapshots SnapshotStore
	health    HealthReporter

	queryCache  *storage.QueryCache
	detailCache *storage.DetailCache

	fetchTimeout time.Duration
	pagOpts      PaginationOptions

	mu          sync.Mutex
	pagers      map[string]*PaginationController
	inflight    map[string]*inflightLoad
	currentKey  string
	cancelPrior context.CancelFunc

	offline atomic.Bool
}

// Options configures an InventoryService
type Options struct {
	Source    ListingSource
	Snapshots SnapshotStore
	Health    HealthReporter

	QueryTTL     time.Duration
	FetchTimeout time.Duration
	Pagination   PaginationOptions
}

// NewInventoryService creates the orchestrator and its caches
func NewInventoryService(opts Options) *InventoryService {
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}

	s := &InventoryService{
		source:       opts.Source,
		snapshots:    opts.Snapshots,
		health:       opts.Health,
		queryCache:   storage.NewQueryCache(opts.QueryTTL),
		fetchTimeout: fetchTimeout,
		pagOpts:      opts.Pagination,
		pagers:       make(map[string]*PaginationController),
		inflight:     make(map[string]*inflightLoad),
	}
	s.detailCache = storage.NewDetailCache(s.fetchDetail)

	return s
}

// cacheKey scopes the filter signature to a user, so one user's cached
// results never leak into another's.
func cacheKey(userID string, spec models.FilterSpec) string {
	return userID + "|" + spec.CacheKey()
}

// normalize fills in a usable page size so key computation and the
// store query agree.
func (s *InventoryService) normalize(spec models.FilterSpec) models.FilterSpec {
	if spec.PageSize <= 0 {
		spec.PageSize = s.pagOpts.InitialPageSize
		if spec.PageSize <= 0 {
			spec.PageSize = DefaultInitialPageSize
		}
	}
	return spec
}

// Load returns the first window of listings for a filter. Freshly
// cached results are served directly; otherwise one network fetch runs
// per key, shared by concurrent duplicate loads, and its outcome
// decides between network data, fallback data, and a bare error.
func (s *InventoryService) Load(ctx context.Context, userID string, spec models.FilterSpec, force bool) *LoadResult {
	spec = s.normalize(spec)

	if userID == "" {
		return &LoadResult{Err: apperrors.NewPermissionError("no authenticated identity")}
	}

	if s.offline.Load() {
		return s.fallbackResult(ctx, userID, nil)
	}

	key := cacheKey(userID, spec)

	if !force {
		if entry := s.queryCache.Get(key); entry != nil {
			s.pagerFor(userID).Prime(spec, entry.Listings)
			return &LoadResult{
				Listings:    entry.Listings,
				Source:      types.SourceCache,
				CanLoadMore: s.pagerFor(userID).CanLoadMore(),
			}
		}
	}

	s.mu.Lock()
	if flight, exists := s.inflight[key]; exists {
		s.mu.Unlock()
		select {
		case <-flight.done:
			return flight.result
		case <-ctx.Done():
			return &LoadResult{Err: apperrors.Classify("load listings", ctx.Err())}
		}
	}

	// One outstanding network request per orchestrator: a load for a
	// different key cancels the prior fetch instead of racing it.
	if s.cancelPrior != nil && s.currentKey != key {
		s.cancelPrior()
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	s.currentKey = key
	s.cancelPrior = cancel
	flight := &inflightLoad{done: make(chan struct{})}
	s.inflight[key] = flight
	s.mu.Unlock()

	listings, err := s.source.List(fetchCtx, &storage.ListQuery{
		UserID: userID,
		Filter: spec,
		Limit:  spec.PageSize,
	})
	cancel()

	flight.result = s.settleLoad(ctx, userID, spec, key, listings, err)

	s.mu.Lock()
	delete(s.inflight, key)
	if s.currentKey == key {
		s.currentKey = ""
		s.cancelPrior = nil
	}
	s.mu.Unlock()
	close(flight.done)

	return flight.result
}

// settleLoad turns a raw fetch outcome into the tagged result and
// applies the side effects (caches, snapshot, health).
func (s *InventoryService) settleLoad(ctx context.Context, userID string, spec models.FilterSpec, key string, listings []models.ListingSummary, err error) *LoadResult {
	if err == nil {
		s.health.RecordSuccess()
		s.queryCache.Set(key, listings)
		// Snapshot writes survive caller teardown; the store swallows
		// its own failures.
		s.snapshots.Save(context.WithoutCancel(ctx), userID, listings)
		pager := s.pagerFor(userID)
		pager.Prime(spec, listings)
		return &LoadResult{
			Listings:    listings,
			Source:      types.SourceNetwork,
			CanLoadMore: pager.CanLoadMore(),
		}
	}

	classified := apperrors.Classify("load listings", err)

	switch classified.Kind {
	case apperrors.KindCancelled:
		// The caller tore down (or a newer load for a different key
		// cancelled this one). Its outcome is discarded: no health
		// record, no fallback serve, no cache write.
		return &LoadResult{Err: classified}
	case apperrors.KindPermissionDenied, apperrors.KindValidationFailure:
		// Not an infrastructure problem; never masked by stale data.
		if classified.Kind == apperrors.KindValidationFailure {
			logging.FromContext(ctx).WithError(classified).Error("Malformed listing query reached the store")
		}
		return &LoadResult{Err: classified}
	}

	s.health.RecordFailure()
	return s.fallbackResult(ctx, userID, classified)
}

// fallbackResult serves the durable snapshot, attaching the original
// failure when there is one. Without a snapshot, the failure is
// surfaced with no data.
func (s *InventoryService) fallbackResult(ctx context.Context, userID string, cause *apperrors.ReadError) *LoadResult {
	snapshot := s.snapshots.Load(ctx, userID)
	if snapshot == nil {
		if cause == nil {
			cause = apperrors.NewNetworkError("offline mode", nil)
		}
		return &LoadResult{Err: cause}
	}

	return &LoadResult{
		Listings: snapshot.Listings,
		Source:   types.SourceFallback,
		Stale:    snapshot.Stale(time.Now()),
		Err:      cause,
	}
}

// pagerFor returns the user's pagination controller, creating it on
// first use with a fetcher bound to that user.
func (s *InventoryService) pagerFor(userID string) *PaginationController {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pager, ok := s.pagers[userID]; ok {
		return pager
	}

	fetch := func(ctx context.Context, spec models.FilterSpec, limit int, cursor *models.Cursor) ([]models.ListingSummary, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()

		rows, err := s.source.List(fetchCtx, &storage.ListQuery{
			UserID: userID,
			Filter: spec,
			Limit:  limit,
			Cursor: cursor,
		})
		if err != nil {
			classified := apperrors.Classify("advance listings", err)
			if apperrors.CanFallback(classified) {
				s.health.RecordFailure()
			}
			return nil, classified
		}
		s.health.RecordSuccess()

		// Extend the cached window so a later cache hit includes the
		// appended rows.
		key := cacheKey(userID, spec)
		if entry := s.queryCache.Peek(key); entry != nil {
			s.queryCache.Set(key, append(entry.Listings[:len(entry.Listings):len(entry.Listings)], rows...))
		}

		return rows, nil
	}

	pager := NewPaginationController(fetch, s.pagOpts)
	s.pagers[userID] = pager
	return pager
}

// Advance grows the user's visible window by one increment
func (s *InventoryService) Advance(ctx context.Context, userID string, spec models.FilterSpec) (*AdvanceResult, *apperrors.ReadError) {
	spec = s.normalize(spec)

	if userID == "" {
		return nil, apperrors.NewPermissionError("no authenticated identity")
	}
	if s.offline.Load() {
		// Offline mode serves only the snapshot; there is nothing to
		// advance into.
		return &AdvanceResult{EndOfData: true}, nil
	}

	result, err := s.pagerFor(userID).Advance(ctx, spec)
	if err != nil {
		return nil, apperrors.Classify("advance listings", err)
	}
	return result, nil
}

// fetchDetail is the DetailCache's fetcher: a timed, health-reported
// single-row projection fetch.
func (s *InventoryService) fetchDetail(ctx context.Context, userID, listingID string, columns []string) (*models.ListingDetail, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	detail, err := s.source.GetByID(fetchCtx, userID, listingID, columns)
	if err != nil {
		classified := apperrors.Classify("load listing detail", err)
		if apperrors.CanFallback(classified) {
			s.health.RecordFailure()
		}
		return nil, classified
	}
	s.health.RecordSuccess()
	return detail, nil
}

// LoadDetail returns a listing's detail projection covering the
// requested field groups. There is no fallback content for individual
// rows: infrastructure failures surface as an error with no data.
func (s *InventoryService) LoadDetail(ctx context.Context, userID, listingID string, groups fields.GroupSet) (*models.ListingDetail, *apperrors.ReadError) {
	if userID == "" {
		return nil, apperrors.NewPermissionError("no authenticated identity")
	}

	detail, err := s.detailCache.LoadDetail(ctx, userID, listingID, groups)
	if err != nil {
		return nil, apperrors.Classify("load listing detail", err)
	}
	return detail, nil
}

// IsLoadingDetails reports whether a detail fetch for the listing is in
// flight. UI consumers poll this rather than awaiting a shared promise.
func (s *InventoryService) IsLoadingDetails(listingID string) bool {
	return s.detailCache.IsLoadingDetails(listingID)
}

// InvalidateDetail drops the cached detail for a listing, forcing the
// next LoadDetail to refetch. Called after edits.
func (s *InventoryService) InvalidateDetail(listingID string) {
	s.detailCache.Invalidate(listingID)
}

// Health returns the current store health status and classification
func (s *InventoryService) Health() (models.HealthStatus, types.HealthState) {
	return s.health.Status(), s.health.State()
}

// ForceRefresh bypasses the query cache for one load
func (s *InventoryService) ForceRefresh(ctx context.Context, userID string, spec models.FilterSpec) *LoadResult {
	return s.Load(ctx, userID, spec, true)
}

// SetOfflineMode switches the orchestrator between live reads and
// snapshot-only reads. The reconnect action is SetOfflineMode(false)
// followed by a forced refresh.
func (s *InventoryService) SetOfflineMode(enabled bool) {
	s.offline.Store(enabled)
}

// OfflineMode reports whether snapshot-only mode is active
func (s *InventoryService) OfflineMode() bool {
	return s.offline.Load()
}

// ClearFallback removes the user's durable snapshot. Snapshots are
// never auto-deleted; this is the explicit user action.
func (s *InventoryService) ClearFallback(ctx context.Context, userID string) {
	s.snapshots.Clear(ctx, userID)
}

// ClearCaches empties the in-memory read caches. The fallback snapshot
// is left alone.
func (s *InventoryService) ClearCaches() {
	s.queryCache.Clear()
	s.detailCache.Clear()
}
