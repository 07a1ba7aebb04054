package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSetToggle(t *testing.T) {
	s := NewStringSet("a")
	assert.False(t, s.Toggle("a"))
	assert.False(t, s.Has("a"))
	assert.True(t, s.Toggle("b"))
	assert.Equal(t, []string{"b"}, s.Sorted())
}

func TestFilterStateCloneIsIndependent(t *testing.T) {
	f := NewFilterState()
	f.SelectedCategories.Toggle("Billing")
	f.SelectedSentiments.Toggle(SentimentNegative)

	c := f.Clone()
	c.SelectedCategories.Toggle("Support")
	c.SelectedSentiments.Toggle(SentimentNegative)

	assert.Equal(t, []string{"Billing"}, f.SelectedCategories.Sorted())
	assert.Equal(t, []string{SentimentNegative}, f.SelectedSentiments.Sorted())
}

func TestFilterViewSortsSets(t *testing.T) {
	f := NewFilterState()
	f.SelectedCategories = NewStringSet("Support", "Billing")
	v := f.View()
	assert.Equal(t, []string{"Billing", "Support"}, v.SelectedCategories)
	assert.Equal(t, []string{}, v.SelectedSentiments)
}

func TestSentimentTally(t *testing.T) {
	var tally SentimentTally
	for _, s := range []string{"positive", "negative", "negative", "mixed", ""} {
		tally.Add(s)
	}
	assert.Equal(t, SentimentTally{Positive: 1, Negative: 2}, tally)
	assert.Equal(t, 3, tally.Total())
}
