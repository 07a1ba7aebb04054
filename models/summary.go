package models

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// SentimentTally counts records per sentiment label.
type SentimentTally struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Add counts one label. Unknown labels are ignored.
func (t *SentimentTally) Add(label string) {
	switch label {
	case SentimentPositive:
		t.Positive++
	case SentimentNeutral:
		t.Neutral++
	case SentimentNegative:
		t.Negative++
	}
}

func (t SentimentTally) Total() int {
	return t.Positive + t.Neutral + t.Negative
}

type CategorySummary struct {
	Category       string         `json:"category"`
	Count          int            `json:"count"`
	IsSelected     bool           `json:"isSelected"`
	SentimentTally SentimentTally `json:"sentiment"`
}

type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// CategoryDetail is the drill-down view of one category.
type CategoryDetail struct {
	Category             string         `json:"category"`
	Items                []Vcon         `json:"items"`
	TotalDurationMinutes float64        `json:"totalDuration"`
	AvgDurationMinutes   float64        `json:"avgDuration"`
	TotalParticipants    int            `json:"totalParticipants"`
	AvgParticipants      float64        `json:"avgParticipants"`
	SentimentTally       SentimentTally `json:"sentimentBreakdown"`
	TopKeywords          []KeywordCount `json:"topKeywords"`
	MostRecentItems      []Vcon         `json:"recentItems"`
}
