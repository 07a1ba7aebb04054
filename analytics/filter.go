// Package analytics derives dashboard views from the accumulated vCon list.
// Every function here is pure: inputs are never mutated and output order
// follows input order unless a function states otherwise.
package analytics

import (
	"strings"
	"time"

	"github.com/al-ameen36/vcon-bubble-maps/models"
)

var (
	openStart = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	openEnd   = time.Date(2100, time.December, 31, 23, 59, 59, 999999999, time.UTC)
)

// WorkingSet applies the content, date and sentiment facets. Category
// selection is not applied here.
func WorkingSet(records []models.Vcon, f models.FilterState) []models.Vcon {
	term := normalizeTerm(f.ContentSearchTerm)
	start, end := Bounds(f.DateRange)
	dated := f.DateRange.Active()

	out := make([]models.Vcon, 0, len(records))
	for i := range records {
		r := &records[i]
		if term != "" && !matchesContent(r, term) {
			continue
		}
		if dated && !withinRange(r, start, end) {
			continue
		}
		if len(f.SelectedSentiments) > 0 && !f.SelectedSentiments.Has(r.SentimentType()) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

// BubbleVisible restricts the working set to the selected categories. An
// empty selection draws nothing; it does not mean "no restriction".
func BubbleVisible(working []models.Vcon, selected models.StringSet) []models.Vcon {
	if len(selected) == 0 {
		return []models.Vcon{}
	}
	out := make([]models.Vcon, 0, len(working))
	for i := range working {
		cat, ok := working[i].Category()
		if ok && selected.Has(cat) {
			out = append(out, working[i])
		}
	}
	return out
}

// Bounds resolves a date range to inclusive instants. Open or unparsable
// bounds fall back to 1900-01-01 and 2100-12-31. A date-only end bound covers
// that whole day.
func Bounds(r models.DateRange) (time.Time, time.Time) {
	start, end := openStart, openEnd
	if t, ok := models.ParseTimestamp(r.Start); ok {
		start = t
	}
	if t, ok := models.ParseTimestamp(r.End); ok {
		if isDateOnly(r.End) {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		end = t
	}
	return start, end
}

func isDateOnly(s string) bool {
	_, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	return err == nil
}

func withinRange(r *models.Vcon, start, end time.Time) bool {
	t, ok := r.CreatedTime()
	if !ok {
		return false
	}
	return !t.Before(start) && !t.After(end)
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsFold(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

// matchesContent checks keywords and transcript messages.
func matchesContent(r *models.Vcon, term string) bool {
	if in, ok := r.Insights(); ok {
		for _, kw := range in.Keywords {
			if containsFold(kw, term) {
				return true
			}
		}
	}
	for _, turn := range r.Transcript() {
		if containsFold(turn.Message, term) {
			return true
		}
	}
	return false
}
