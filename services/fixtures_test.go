package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/al-ameen36/vcon-bubble-maps/models"
)

func saveRecord(t *testing.T, store *VconStore, v models.Vcon) {
	t.Helper()
	doc, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, store.SaveDocument(context.Background(), doc))
}

func record(uuid, category, sentiment, created string, keywords ...string) models.Vcon {
	return models.Vcon{
		UUID:      uuid,
		CreatedAt: created,
		Analysis: []models.Analysis{models.NewInsightsAnalysis("test", models.Insights{
			Category:  category,
			Sentiment: models.Sentiment{Type: sentiment},
			Keywords:  keywords,
		})},
	}
}

func recordUUIDs(records []models.Vcon) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.UUID)
	}
	return out
}
