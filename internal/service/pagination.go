package service

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/inventory-hub/internal/errors"
	"github.com/inventory-hub/internal/models"
	"github.com/inventory-hub/internal/ratelimit"
)

// Default incremental loading parameters.
const (
	DefaultInitialPageSize = 12
	DefaultPageIncrement   = 6
	DefaultMaxPageSize     = 50
)

// PageFetcher loads one page of summaries for a filter, bounded by
// limit, starting strictly after the cursor when one is given.
type PageFetcher func(ctx context.Context, spec models.FilterSpec, limit int, cursor *models.Cursor) ([]models.ListingSummary, error)

// AdvanceResult reports the outcome of one load-more attempt.
// Exhausted (the visible window hit its maximum size) and EndOfData
// (this advance found fewer rows than requested) are distinct: the UI
// shows different messaging for each.
type AdvanceResult struct {
	Appended  []models.ListingSummary
	Exhausted bool
	EndOfData bool
}

// PaginationOptions configures a pagination controller
type PaginationOptions struct {
	InitialPageSize int
	PageIncrement   int
	MaxPageSize     int
	DebounceWindow  time.Duration
}

// PaginationController grows a visible window over a logically ordered
// result set.
//
// The window starts at the initial page size and grows by the increment
// up to the maximum. Advances are debounced: a call inside the window
// of the previous successful advance is dropped and resolves to a
// no-op, so duplicate load-more taps never issue duplicate fetches.
//
// Cursor and window size belong to one filter session. Any path that
// mutates the filter must call Reset with the new spec before the next
// Advance; an Advance against a different filter is rejected as a
// validation failure rather than silently mixing pages of two filters.
type PaginationController struct {
	fetch    PageFetcher
	initial  int
	incr     int
	max      int
	debounce *ratelimit.Debouncer

	mu           sync.Mutex
	filterKey    string
	currentLimit int
	cursor       *models.Cursor
	endOfData    bool
}

// NewPaginationController creates a controller with the given fetcher
// and options, applying defaults for zero values.
func NewPaginationController(fetch PageFetcher, opts PaginationOptions) *PaginationController {
	initial := opts.InitialPageSize
	if initial <= 0 {
		initial = DefaultInitialPageSize
	}
	incr := opts.PageIncrement
	if incr <= 0 {
		incr = DefaultPageIncrement
	}
	max := opts.MaxPageSize
	if max < initial {
		max = DefaultMaxPageSize
	}

	return &PaginationController{
		fetch:    fetch,
		initial:  initial,
		incr:     incr,
		max:      max,
		debounce: ratelimit.NewDebouncer(opts.DebounceWindow),
	}
}

// Reset atomically rebinds the controller to a new filter session:
// window back to the initial size, cursor dropped, debounce cleared.
func (p *PaginationController) Reset(spec models.FilterSpec) {
	p.mu.Lock()
	p.filterKey = spec.CacheKey()
	p.currentLimit = p.initial
	p.cursor = nil
	p.endOfData = false
	p.mu.Unlock()
	p.debounce.Reset()
}

// Prime records the result of the session's first page so subsequent
// advances continue after it. Called by the orchestrator after a
// successful initial load.
func (p *PaginationController) Prime(spec models.FilterSpec, rows []models.ListingSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.filterKey = spec.CacheKey()
	p.currentLimit = p.initial
	if len(rows) > p.currentLimit {
		p.currentLimit = len(rows)
	}
	// A short first page means the store ran out of rows already.
	firstPage := spec.PageSize
	if firstPage <= 0 {
		firstPage = p.initial
	}
	p.endOfData = len(rows) < firstPage
	if len(rows) == 0 {
		p.cursor = nil
		return
	}
	last := rows[len(rows)-1]
	p.cursor = &models.Cursor{CreatedAt: last.CreatedAt}
}

// Advance grows the window by one increment and returns the appended
// rows. Calls inside the debounce window are dropped and return an
// empty no-op result.
func (p *PaginationController) Advance(ctx context.Context, spec models.FilterSpec) (*AdvanceResult, error) {
	p.mu.Lock()
	if p.filterKey == "" {
		p.mu.Unlock()
		return nil, apperrors.NewValidationError("filter", "advance before initial load; call Reset first")
	}
	if spec.CacheKey() != p.filterKey {
		p.mu.Unlock()
		return nil, apperrors.NewValidationError("filter", "filter changed without Reset; cursor is invalid")
	}
	if p.endOfData {
		p.mu.Unlock()
		return &AdvanceResult{EndOfData: true, Exhausted: p.exhausted()}, nil
	}
	if p.currentLimit >= p.max {
		p.mu.Unlock()
		return &AdvanceResult{Exhausted: true}, nil
	}
	pageSize := p.incr
	if p.currentLimit+pageSize > p.max {
		pageSize = p.max - p.currentLimit
	}
	cursor := p.cursor
	p.mu.Unlock()

	if !p.debounce.Allow() {
		return &AdvanceResult{}, nil
	}

	rows, err := p.fetch(ctx, spec, pageSize, cursor)
	if err != nil {
		// The advance did not happen; let the caller retry immediately.
		p.debounce.Reset()
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentLimit += pageSize
	if len(rows) > 0 {
		last := rows[len(rows)-1]
		p.cursor = &models.Cursor{CreatedAt: last.CreatedAt}
	}
	if len(rows) < pageSize {
		p.endOfData = true
	}

	return &AdvanceResult{
		Appended:  rows,
		Exhausted: p.exhausted(),
		EndOfData: p.endOfData,
	}, nil
}

// exhausted reports whether the window hit its cap. Callers hold p.mu.
func (p *PaginationController) exhausted() bool {
	return p.currentLimit >= p.max
}

// SetClock overrides the debounce time source. Test hook.
func (p *PaginationController) SetClock(now func() time.Time) {
	p.debounce.SetClock(now)
}

// CurrentLimit returns the current window size
func (p *PaginationController) CurrentLimit() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentLimit
}

// CanLoadMore reports whether another advance could append rows
func (p *PaginationController) CanLoadMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filterKey != "" && !p.endOfData && p.currentLimit < p.max
}
