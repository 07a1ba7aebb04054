package analytics

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/al-ameen36/vcon-bubble-maps/models"
)

func TestExampleScenarioSentimentFilter(t *testing.T) {
	all := exampleRecords()
	f := models.NewFilterState()
	f.SelectedSentiments = models.NewStringSet("negative")

	working := WorkingSet(all, f)
	assert.Equal(t, []string{"b1"}, uuids(working))

	got := CategorySummaries(working, all, f.SelectedCategories)
	want := []models.CategorySummary{
		{Category: "Billing", Count: 1, SentimentTally: models.SentimentTally{Negative: 1}},
		{Category: "Support", Count: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summaries mismatch (-want +got):\n%s", diff)
	}
}

func TestCategoryUniverseIgnoresSelection(t *testing.T) {
	all := exampleRecords()
	working := WorkingSet(all, models.NewFilterState())

	selections := []models.StringSet{
		models.NewStringSet(),
		models.NewStringSet("Billing"),
		models.NewStringSet("Support"),
		models.NewStringSet("Billing", "Support"),
		models.NewStringSet("Unknown"),
	}
	for _, sel := range selections {
		var cats []string
		for _, s := range CategorySummaries(working, all, sel) {
			cats = append(cats, s.Category)
			assert.Equal(t, sel.Has(s.Category), s.IsSelected)
		}
		assert.Equal(t, []string{"Billing", "Support"}, cats, "selection %v", sel.Sorted())
	}
}

func TestBubbleVisibleEmptyCases(t *testing.T) {
	all := exampleRecords()

	got := BubbleVisible(nil, models.NewStringSet("Billing"))
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = BubbleVisible(all, models.NewStringSet())
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = BubbleVisible(all, models.NewStringSet("Support"))
	assert.Equal(t, []string{"s1"}, uuids(got))
}

func TestContentSearchIsCaseInsensitive(t *testing.T) {
	all := []models.Vcon{
		rec("k", "Billing", "neutral", "2024-01-01", withKeywords("refund policy")),
		rec("t", "Support", "neutral", "2024-01-01", withTurns(models.Turn{Speaker: "agent", Message: "Your Refund is on its way"})),
		rec("n", "Support", "neutral", "2024-01-01", withKeywords("password")),
	}
	f := models.NewFilterState()
	f.ContentSearchTerm = "  REFUND "
	assert.Equal(t, []string{"k", "t"}, uuids(WorkingSet(all, f)))
}

func TestContentSearchDoesNotMatchIssuesOrParties(t *testing.T) {
	all := []models.Vcon{
		rec("a", "Billing", "neutral", "2024-01-01", withIssues("refund"), withParties("Refund Desk")),
	}
	f := models.NewFilterState()
	f.ContentSearchTerm = "refund"
	assert.Empty(t, WorkingSet(all, f))
}

func TestDateRangeBounds(t *testing.T) {
	all := []models.Vcon{
		rec("jan1", "A", "neutral", "2024-01-01T00:00:00Z"),
		rec("jan15-late", "A", "neutral", "2024-01-15T23:30:00Z"),
		rec("jan16", "A", "neutral", "2024-01-16T00:00:00Z"),
		rec("undated", "A", "neutral", ""),
	}

	f := models.NewFilterState()
	f.DateRange = models.DateRange{Start: "2024-01-01", End: "2024-01-15"}
	assert.Equal(t, []string{"jan1", "jan15-late"}, uuids(WorkingSet(all, f)))

	f.DateRange = models.DateRange{Start: "2024-01-15"}
	assert.Equal(t, []string{"jan15-late", "jan16"}, uuids(WorkingSet(all, f)))

	f.DateRange = models.DateRange{End: "2024-01-01"}
	assert.Equal(t, []string{"jan1"}, uuids(WorkingSet(all, f)))

	f.DateRange = models.DateRange{}
	assert.Len(t, WorkingSet(all, f), 4, "inactive range keeps undated records")
}

func TestBoundsFallBackToOpenRange(t *testing.T) {
	start, end := Bounds(models.DateRange{})
	assert.Equal(t, 1900, start.Year())
	assert.Equal(t, 2100, end.Year())
	assert.Equal(t, time.December, end.Month())

	_, end = Bounds(models.DateRange{End: "2024-03-10T12:00:00Z"})
	assert.True(t, end.Equal(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)), "timestamp end is exact")
}

func TestRecordsWithoutInsights(t *testing.T) {
	all := append(exampleRecords(), bare("plain", "2024-01-20", models.Turn{Speaker: "a", Message: "hello refund"}))

	assert.Equal(t, []string{"Billing", "Support"}, AllCategories(all))

	working := WorkingSet(all, models.NewFilterState())
	require.Len(t, working, 4, "facets alone keep the record")

	visible := BubbleVisible(working, models.NewStringSet("Billing", "Support"))
	assert.NotContains(t, uuids(visible), "plain")

	for _, s := range CategorySummaries(working, all, models.NewStringSet()) {
		assert.NotEmpty(t, s.Category)
	}

	f := models.NewFilterState()
	f.SelectedSentiments = models.NewStringSet("neutral", "negative", "positive")
	assert.NotContains(t, uuids(WorkingSet(all, f)), "plain", "sentiment filter needs a sentiment")
}

func TestWorkingSetDoesNotMutateInput(t *testing.T) {
	all := exampleRecords()
	before := uuids(all)
	f := models.NewFilterState()
	f.SelectedSentiments = models.NewStringSet("positive")
	_ = WorkingSet(all, f)
	assert.Equal(t, before, uuids(all))
}
