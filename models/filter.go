package models

import "sort"

// StringSet is an unordered set of labels.
type StringSet map[string]struct{}

func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s StringSet) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Toggle flips membership and reports whether item is now present.
func (s StringSet) Toggle(item string) bool {
	if s.Has(item) {
		delete(s, item)
		return false
	}
	s[item] = struct{}{}
	return true
}

func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DateRange bounds are date or timestamp strings; empty means unbounded.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r DateRange) Active() bool {
	return r.Start != "" || r.End != ""
}

// FilterState holds the five dashboard facets.
type FilterState struct {
	SelectedCategories        StringSet `json:"-"`
	ContentSearchTerm         string    `json:"contentSearchTerm"`
	DateRange                 DateRange `json:"dateRange"`
	SelectedSentiments        StringSet `json:"-"`
	SelectedCategoryForDetail string    `json:"selectedCategoryForDetail,omitempty"`
}

func NewFilterState() FilterState {
	return FilterState{
		SelectedCategories: StringSet{},
		SelectedSentiments: StringSet{},
	}
}

// Clone returns a copy whose sets can be mutated independently.
func (f FilterState) Clone() FilterState {
	out := f
	out.SelectedCategories = f.SelectedCategories.Clone()
	out.SelectedSentiments = f.SelectedSentiments.Clone()
	return out
}

// FilterView is the wire form of FilterState.
type FilterView struct {
	SelectedCategories        []string  `json:"selectedCategories"`
	ContentSearchTerm         string    `json:"contentSearchTerm"`
	DateRange                 DateRange `json:"dateRange"`
	SelectedSentiments        []string  `json:"selectedSentiments"`
	SelectedCategoryForDetail string    `json:"selectedCategoryForDetail,omitempty"`
}

func (f FilterState) View() FilterView {
	return FilterView{
		SelectedCategories:        f.SelectedCategories.Sorted(),
		ContentSearchTerm:         f.ContentSearchTerm,
		DateRange:                 f.DateRange,
		SelectedSentiments:        f.SelectedSentiments.Sorted(),
		SelectedCategoryForDetail: f.SelectedCategoryForDetail,
	}
}
