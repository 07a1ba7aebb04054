// Package filters holds the dashboard filter state and its transitions.
package filters

import (
	"errors"
	"strings"

	"github.com/al-ameen36/vcon-bubble-maps/models"
)

var (
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrUnknownSentiment = errors.New("unknown sentiment")
)

// Controller owns one session's FilterState. It is not safe for concurrent
// use; the dashboard loop is its only caller.
type Controller struct {
	state models.FilterState
	// seedArmed is true until categories are auto-populated on record
	// arrival. ResetFilters re-arms it.
	seedArmed bool
}

func NewController() *Controller {
	return &Controller{state: models.NewFilterState(), seedArmed: true}
}

// State returns a copy of the current facets.
func (c *Controller) State() models.FilterState {
	return c.state.Clone()
}

func (c *Controller) ToggleCategory(category string) bool {
	return c.state.SelectedCategories.Toggle(category)
}

// ResetFilters clears every facet. Categories go back to empty, which draws
// no bubbles until the user selects some or new records arrive.
func (c *Controller) ResetFilters() {
	c.state = models.NewFilterState()
	c.seedArmed = true
}

// SelectAll selects every category in summaries.
func (c *Controller) SelectAll(summaries []models.CategorySummary) {
	all := make(models.StringSet, len(summaries))
	for _, s := range summaries {
		all[s.Category] = struct{}{}
	}
	c.state.SelectedCategories = all
}

func (c *Controller) SetContentSearch(term string) {
	c.state.ContentSearchTerm = term
}

func (c *Controller) SetDateRange(r models.DateRange) error {
	r.Start = strings.TrimSpace(r.Start)
	r.End = strings.TrimSpace(r.End)
	start, okStart := models.ParseTimestamp(r.Start)
	if r.Start != "" && !okStart {
		return ErrInvalidDateRange
	}
	end, okEnd := models.ParseTimestamp(r.End)
	if r.End != "" && !okEnd {
		return ErrInvalidDateRange
	}
	if okStart && okEnd && end.Before(start) {
		return ErrInvalidDateRange
	}
	c.state.DateRange = r
	return nil
}

func (c *Controller) SetSentimentFilter(sentiments []string) error {
	next := make(models.StringSet, len(sentiments))
	for _, s := range sentiments {
		s = strings.ToLower(strings.TrimSpace(s))
		switch s {
		case models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative:
			next[s] = struct{}{}
		default:
			return ErrUnknownSentiment
		}
	}
	c.state.SelectedSentiments = next
	return nil
}

func (c *Controller) OpenDetail(category string) {
	c.state.SelectedCategoryForDetail = category
}

func (c *Controller) CloseDetail() {
	c.state.SelectedCategoryForDetail = ""
}

// ObserveRecords auto-selects every known category the first time a
// non-empty record list arrives while the selection is empty. It returns true
// when it changed the selection.
func (c *Controller) ObserveRecords(all []models.Vcon, categories []string) bool {
	if !c.seedArmed || len(all) == 0 {
		return false
	}
	if len(c.state.SelectedCategories) > 0 {
		c.seedArmed = false
		return false
	}
	c.seedArmed = false
	c.state.SelectedCategories = models.NewStringSet(categories...)
	return true
}
