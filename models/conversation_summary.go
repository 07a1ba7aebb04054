package models

import (
	"time"

	"github.com/lib/pq"
)

// CategoryDigest is one category's summary captured by the batch job.
type CategoryDigest struct {
	ID          int64          `json:"id"`
	Category    string         `json:"category"`
	WindowEnd   time.Time      `json:"window_end"`
	ItemCount   int            `json:"item_count"`
	Sentiment   SentimentTally `json:"sentiment"`
	TopKeywords pq.StringArray `json:"top_keywords"`
	Narrative   string         `json:"narrative"`
	CreatedAt   time.Time      `json:"created_at"`
}
