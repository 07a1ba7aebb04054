package dashboard

import (
	"context"

	"github.com/al-ameen36/vcon-bubble-maps/models"
)

// PageSource is the record store boundary. *services.VconStore satisfies it.
type PageSource interface {
	FetchPage(ctx context.Context, cursor string, limit int) (models.VconPage, error)
}

type FeedStatus string

const (
	FeedIdle      FeedStatus = "idle"
	FeedLoading   FeedStatus = "loading"
	FeedExhausted FeedStatus = "exhausted"
)

// Feed accumulates pages in arrival order. A uuid seen before is skipped.
type Feed struct {
	records   []models.Vcon
	seen      map[string]bool
	cursor    string
	pages     int
	exhausted bool
	loading   bool
}

func NewFeed() *Feed {
	return &Feed{seen: make(map[string]bool)}
}

// Records returns the accumulated list. Callers must not modify it.
func (f *Feed) Records() []models.Vcon {
	return f.records
}

func (f *Feed) Pages() int {
	return f.pages
}

func (f *Feed) Status() FeedStatus {
	switch {
	case f.loading:
		return FeedLoading
	case f.exhausted:
		return FeedExhausted
	default:
		return FeedIdle
	}
}

// Begin marks a fetch in flight and returns the cursor to fetch from. ok is
// false when the feed is exhausted or a fetch is already running.
func (f *Feed) Begin() (cursor string, ok bool) {
	if f.exhausted || f.loading {
		return "", false
	}
	f.loading = true
	return f.cursor, true
}

// Apply appends a fetched page and returns how many records were new.
func (f *Feed) Apply(page models.VconPage) int {
	f.loading = false
	f.pages++
	added := 0
	for _, r := range page.Records {
		if r.UUID == "" || f.seen[r.UUID] {
			continue
		}
		f.seen[r.UUID] = true
		f.records = append(f.records, r)
		added++
	}
	f.cursor = page.NextCursor
	f.exhausted = page.Exhausted()
	return added
}

// Fail ends a fetch without changing the cursor, so the next Begin retries
// the same page.
func (f *Feed) Fail() {
	f.loading = false
}
