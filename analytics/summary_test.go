package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/al-ameen36/vcon-bubble-maps/models"
)

func TestCategoryDetailEmptyAveragesAreZero(t *testing.T) {
	d := CategoryDetail(exampleRecords(), "Nope")
	assert.Equal(t, "Nope", d.Category)
	assert.Empty(t, d.Items)
	assert.NotNil(t, d.Items)
	assert.Zero(t, d.AvgDurationMinutes)
	assert.Zero(t, d.AvgParticipants)
	assert.NotNil(t, d.TopKeywords)
	assert.NotNil(t, d.MostRecentItems)
}

func TestCategoryDetailStatistics(t *testing.T) {
	working := []models.Vcon{
		rec("a", "Billing", "negative", "2024-01-01", withStats(3, 2)),
		rec("b", "Billing", "positive", "2024-01-02", withStats(4, 3)),
		rec("c", "Billing", "negative", "2024-01-03", withStats(5.5, 2)),
		rec("x", "Support", "neutral", "2024-01-04", withStats(100, 9)),
	}
	d := CategoryDetail(working, "Billing")

	assert.Equal(t, []string{"a", "b", "c"}, uuids(d.Items))
	assert.InDelta(t, 12.5, d.TotalDurationMinutes, 1e-9)
	assert.Equal(t, 7, d.TotalParticipants)
	assert.InDelta(t, d.TotalDurationMinutes, d.AvgDurationMinutes*float64(len(d.Items)), 1e-9)
	assert.InDelta(t, float64(d.TotalParticipants), d.AvgParticipants*float64(len(d.Items)), 1e-9)
	assert.Equal(t, models.SentimentTally{Positive: 1, Negative: 2}, d.SentimentTally)
}

func TestTopKeywordsLimitedAndOrdered(t *testing.T) {
	var working []models.Vcon
	// kw0 appears 12 times, kw1 11 times, ... kw11 once.
	for i := 0; i < 12; i++ {
		var kws []string
		for k := 0; k <= 11-i; k++ {
			kws = append(kws, fmt.Sprintf("kw%d", k))
		}
		working = append(working, rec(fmt.Sprintf("r%d", i), "Tech", "neutral", "2024-01-01", withKeywords(kws...)))
	}
	d := CategoryDetail(working, "Tech")

	require.Len(t, d.TopKeywords, TopKeywordLimit)
	assert.Equal(t, "kw0", d.TopKeywords[0].Keyword)
	assert.Equal(t, 12, d.TopKeywords[0].Count)
	for i := 1; i < len(d.TopKeywords); i++ {
		assert.LessOrEqual(t, d.TopKeywords[i].Count, d.TopKeywords[i-1].Count)
	}
}

func TestTopKeywordTiesKeepFirstSeenOrder(t *testing.T) {
	working := []models.Vcon{
		rec("a", "Tech", "neutral", "", withKeywords("zeta", "alpha")),
		rec("b", "Tech", "neutral", "", withKeywords("mid", "alpha")),
	}
	d := CategoryDetail(working, "Tech")
	assert.Equal(t, []models.KeywordCount{
		{Keyword: "alpha", Count: 2},
		{Keyword: "zeta", Count: 1},
		{Keyword: "mid", Count: 1},
	}, d.TopKeywords)
}

func TestMostRecentItems(t *testing.T) {
	working := []models.Vcon{
		rec("d1", "A", "neutral", "2024-01-01"),
		rec("none", "A", "neutral", ""),
		rec("d5", "A", "neutral", "2024-01-05T10:00:00Z"),
		rec("d3", "A", "neutral", "2024-01-03"),
		rec("bad", "A", "neutral", "not a date"),
		rec("d4", "A", "neutral", "2024-01-04"),
		rec("d2", "A", "neutral", "2024-01-02"),
		rec("d6", "A", "neutral", "2024-01-06"),
	}
	d := CategoryDetail(working, "A")
	assert.Equal(t, []string{"d6", "d5", "d4", "d3", "d2"}, uuids(d.MostRecentItems))
	assert.Len(t, d.Items, 8)
}

func TestCategoryCountsFollowFirstSeenOrder(t *testing.T) {
	records := append(exampleRecords(), rec("b3", "Billing", "negative", ""), bare("p", ""))
	got := CategoryCounts(records)
	require.Len(t, got, 2)
	assert.Equal(t, "Billing", got[0].Category)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, models.SentimentTally{Positive: 1, Negative: 2}, got[0].SentimentTally)
	assert.Equal(t, "Support", got[1].Category)
	assert.Equal(t, 1, got[1].Count)
}
