package analytics

import (
	"github.com/al-ameen36/vcon-bubble-maps/models"
)

type recOpt func(*models.Vcon, *models.Insights)

func withKeywords(kw ...string) recOpt {
	return func(_ *models.Vcon, in *models.Insights) { in.Keywords = kw }
}

func withStats(minutes float64, participants int) recOpt {
	return func(_ *models.Vcon, in *models.Insights) {
		in.InteractionDuration = minutes
		in.NumberOfParticipants = participants
	}
}

func withIssues(issues string) recOpt {
	return func(_ *models.Vcon, in *models.Insights) { in.IssuesRaised = issues }
}

func withParties(names ...string) recOpt {
	return func(v *models.Vcon, _ *models.Insights) {
		for _, n := range names {
			v.Parties = append(v.Parties, models.Party{Name: n})
		}
	}
}

func withTurns(turns ...models.Turn) recOpt {
	return func(v *models.Vcon, _ *models.Insights) {
		v.Analysis = append([]models.Analysis{models.NewTranscriptAnalysis("test", turns)}, v.Analysis...)
	}
}

// rec builds a record carrying an insights block.
func rec(uuid, category, sentiment, created string, opts ...recOpt) models.Vcon {
	v := models.Vcon{UUID: uuid, CreatedAt: created}
	in := models.Insights{Category: category, Sentiment: models.Sentiment{Type: sentiment}}
	for _, o := range opts {
		o(&v, &in)
	}
	v.Analysis = append(v.Analysis, models.NewInsightsAnalysis("test", in))
	return v
}

// bare builds a record with no insights block.
func bare(uuid, created string, turns ...models.Turn) models.Vcon {
	v := models.Vcon{UUID: uuid, CreatedAt: created}
	if len(turns) > 0 {
		v.Analysis = []models.Analysis{models.NewTranscriptAnalysis("test", turns)}
	}
	return v
}

func uuids(records []models.Vcon) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.UUID)
	}
	return out
}

func exampleRecords() []models.Vcon {
	return []models.Vcon{
		rec("b1", "Billing", "negative", "2024-01-01"),
		rec("b2", "Billing", "positive", "2024-02-01"),
		rec("s1", "Support", "neutral", "2024-01-15"),
	}
}
