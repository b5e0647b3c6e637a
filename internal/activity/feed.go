package activity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/celerix-dev/celerix-cms/pkg/schema"
)

// MaxFetch is the hard cap on records fetched per load. Filtering happens
// after the fetch, so a filter never sees more than MaxFetch records.
const MaxFetch = 100

// View is what the presentation shell renders.
type View struct {
	Records          []schema.ActivityRecord `json:"records"`
	Page             int                     `json:"page"`
	PageSize         int                     `json:"pageSize"`
	TotalPages       int                     `json:"totalPages"`
	Total            int                     `json:"total"`
	Loading          bool                    `json:"loading"`
	Empty            bool                    `json:"empty"`
	ShowPagination   bool                    `json:"showPagination"`
	ActionFilter     schema.ActionFilter     `json:"actionFilter"`
	CollectionFilter schema.CollectionFilter `json:"collectionFilter"`
}

// Feed is the activity feed controller behind the admin Activity Log view.
// It is safe for concurrent use.
type Feed struct {
	src      Source
	logger   *slog.Logger
	limit    int
	pageSize int

	mu         sync.Mutex
	records    []schema.ActivityRecord
	loading    bool
	action     schema.ActionFilter
	collection schema.CollectionFilter
	page       int
	gen        uint64
	closed     bool
}

// FeedOptions configures a Feed. Zero values select the defaults.
type FeedOptions struct {
	Limit    int
	PageSize int
	Logger   *slog.Logger
}

// NewFeed returns a feed over src with both filters set to "all".
// The feed reports Loading until the first Load completes.
func NewFeed(src Source, opts FeedOptions) *Feed {
	limit := opts.Limit
	if limit <= 0 || limit > MaxFetch {
		limit = MaxFetch
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		src:        src,
		logger:     logger,
		limit:      limit,
		pageSize:   pageSize,
		action:     schema.FilterAll,
		collection: schema.FilterAll,
		page:       1,
		loading:    true,
	}
}

// Load fetches the most recent records. A failed fetch is logged and leaves
// the feed empty; there is no retry. Results that arrive after Close, or
// after a newer Load started, are discarded.
func (f *Feed) Load(ctx context.Context) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.gen++
	gen := f.gen
	f.loading = true
	f.mu.Unlock()

	records, err := f.src.Recent(ctx, f.limit)
	if err != nil {
		f.logger.Error("activity.feed: fetch failed", slog.Int("limit", f.limit), slog.Any("error", err))
		records = nil
	}
	if len(records) > f.limit {
		records = records[:f.limit]
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || gen != f.gen {
		return
	}
	f.records = records
	f.loading = false
	f.page = ClampPage(f.page, TotalPages(len(f.filtered()), f.pageSize))
}

// SetActionFilter changes the action filter and returns to page 1.
func (f *Feed) SetActionFilter(a schema.ActionFilter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.action = a
	f.page = 1
}

// SetCollectionFilter changes the collection filter and returns to page 1.
func (f *Feed) SetCollectionFilter(c schema.CollectionFilter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collection = c
	f.page = 1
}

// SetPage moves to page, clamped to [1, totalPages].
func (f *Feed) SetPage(page int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.page = ClampPage(page, TotalPages(len(f.filtered()), f.pageSize))
}

// NextPage and PrevPage step one page, staying in range.
func (f *Feed) NextPage() { f.step(1) }
func (f *Feed) PrevPage() { f.step(-1) }

func (f *Feed) step(delta int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.page = ClampPage(f.page+delta, TotalPages(len(f.filtered()), f.pageSize))
}

// View returns the current filtered, paged slice.
func (f *Feed) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := Paginate(f.filtered(), f.page, f.pageSize)
	return View{
		Records:          p.Items,
		Page:             p.Page,
		PageSize:         p.PageSize,
		TotalPages:       p.TotalPages,
		Total:            p.Total,
		Loading:          f.loading,
		Empty:            !f.loading && p.Total == 0,
		ShowPagination:   p.TotalPages > 1,
		ActionFilter:     f.action,
		CollectionFilter: f.collection,
	}
}

// Close tears the feed down. An in-flight Load finishes but its result is dropped.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.loading = false
}

// filtered MUST be called while holding f.mu.
func (f *Feed) filtered() []schema.ActivityRecord {
	return ApplyFilters(f.records, f.action, f.collection)
}
