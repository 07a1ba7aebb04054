package analytics

import (
	"sort"

	"github.com/al-ameen36/vcon-bubble-maps/models"
)

const (
	TopKeywordLimit = 10
	RecentItemLimit = 5
)

// AllCategories lists every category observed in records, in first-seen
// order. Records without an insights block have no category and are left out
// of the universe entirely; they never merge into a real label.
func AllCategories(records []models.Vcon) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range records {
		cat, ok := records[i].Category()
		if !ok || seen[cat] {
			continue
		}
		seen[cat] = true
		out = append(out, cat)
	}
	return out
}

// CategorySummaries enumerates the categories of all records and counts them
// over the working set, so a category hidden by other facets reports zero
// instead of disappearing.
func CategorySummaries(working, all []models.Vcon, selected models.StringSet) []models.CategorySummary {
	type bucket struct {
		count int
		tally models.SentimentTally
	}
	buckets := make(map[string]*bucket)
	for i := range working {
		in, ok := working[i].Insights()
		if !ok {
			continue
		}
		b := buckets[in.Category]
		if b == nil {
			b = &bucket{}
			buckets[in.Category] = b
		}
		b.count++
		b.tally.Add(in.Sentiment.Type)
	}

	universe := AllCategories(all)
	out := make([]models.CategorySummary, 0, len(universe))
	for _, cat := range universe {
		s := models.CategorySummary{Category: cat, IsSelected: selected.Has(cat)}
		if b := buckets[cat]; b != nil {
			s.Count = b.count
			s.SentimentTally = b.tally
		}
		out = append(out, s)
	}
	return out
}

// CategoryCounts counts items per category in first-seen order. It feeds the
// layout engine from the bubble-visible set.
func CategoryCounts(records []models.Vcon) []models.CategorySummary {
	index := make(map[string]int)
	var out []models.CategorySummary
	for i := range records {
		in, ok := records[i].Insights()
		if !ok {
			continue
		}
		pos, seen := index[in.Category]
		if !seen {
			pos = len(out)
			index[in.Category] = pos
			out = append(out, models.CategorySummary{Category: in.Category, IsSelected: true})
		}
		out[pos].Count++
		out[pos].SentimentTally.Add(in.Sentiment.Type)
	}
	return out
}

// CategoryDetail computes drill-down statistics for one category of the
// working set.
func CategoryDetail(working []models.Vcon, category string) models.CategoryDetail {
	d := models.CategoryDetail{
		Category:        category,
		Items:           []models.Vcon{},
		TopKeywords:     []models.KeywordCount{},
		MostRecentItems: []models.Vcon{},
	}

	var keywords []models.KeywordCount
	keywordIndex := make(map[string]int)

	for i := range working {
		in, ok := working[i].Insights()
		if !ok || in.Category != category {
			continue
		}
		d.Items = append(d.Items, working[i])
		d.TotalDurationMinutes += in.InteractionDuration
		d.TotalParticipants += in.NumberOfParticipants
		d.SentimentTally.Add(in.Sentiment.Type)

		for _, kw := range in.Keywords {
			pos, seen := keywordIndex[kw]
			if !seen {
				pos = len(keywords)
				keywordIndex[kw] = pos
				keywords = append(keywords, models.KeywordCount{Keyword: kw})
			}
			keywords[pos].Count++
		}
	}

	if n := len(d.Items); n > 0 {
		d.AvgDurationMinutes = d.TotalDurationMinutes / float64(n)
		d.AvgParticipants = float64(d.TotalParticipants) / float64(n)
	}

	// keywords is already in first-seen order, so a stable sort keeps that
	// order among equal counts.
	sort.SliceStable(keywords, func(i, j int) bool { return keywords[i].Count > keywords[j].Count })
	if len(keywords) > TopKeywordLimit {
		keywords = keywords[:TopKeywordLimit]
	}
	if keywords != nil {
		d.TopKeywords = keywords
	}

	d.MostRecentItems = MostRecent(d.Items, RecentItemLimit)
	return d
}

// MostRecent returns up to limit records ordered by descending created_at.
// Records without a parseable created_at are skipped.
func MostRecent(records []models.Vcon, limit int) []models.Vcon {
	type dated struct {
		rec models.Vcon
		at  int64
	}
	var withTime []dated
	for i := range records {
		t, ok := records[i].CreatedTime()
		if !ok {
			continue
		}
		withTime = append(withTime, dated{rec: records[i], at: t.UnixNano()})
	}
	sort.SliceStable(withTime, func(i, j int) bool { return withTime[i].at > withTime[j].at })
	if len(withTime) > limit {
		withTime = withTime[:limit]
	}
	out := make([]models.Vcon, 0, len(withTime))
	for _, d := range withTime {
		out = append(out, d.rec)
	}
	return out
}
