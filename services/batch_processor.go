package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/al-ameen36/vcon-bubble-maps/analytics"
	"github.com/al-ameen36/vcon-bubble-maps/models"
)

const (
	digestKeywordLimit = 5
	narrativeItemLimit = 20
)

const narrativeInstructions = "Summarize the following customer conversations of one category in a single short paragraph. " +
	"Name the recurring issues and the overall mood."

type RecordSource interface {
	FetchAll(ctx context.Context, pageSize int) ([]models.Vcon, error)
}

type DigestWriter interface {
	Save(ctx context.Context, digests []models.CategoryDigest) error
}

// Completer produces a model reply for a system prompt and history.
type Completer interface {
	Complete(ctx context.Context, instructions string, history []models.ThreadMessage) (string, error)
}

// BatchProcessor snapshots per-category statistics of the whole store into
// the digest table.
type BatchProcessor struct {
	source   RecordSource
	digests  DigestWriter
	narrator Completer
	pageSize int
	logger   *zap.Logger
	now      func() time.Time
}

// NewBatchProcessor builds a processor. narrator may be nil, in which case
// digests are saved without a narrative.
func NewBatchProcessor(source RecordSource, digests DigestWriter, narrator Completer, pageSize int, logger *zap.Logger) *BatchProcessor {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &BatchProcessor{
		source:   source,
		digests:  digests,
		narrator: narrator,
		pageSize: pageSize,
		logger:   logger,
		now:      time.Now,
	}
}

// ProcessDigests runs one digest pass. A failed narrative is logged and the
// digest is still saved.
func (bp *BatchProcessor) ProcessDigests(ctx context.Context) error {
	records, err := bp.source.FetchAll(ctx, bp.pageSize)
	if err != nil {
		return fmt.Errorf("failed to fetch vcons: %w", err)
	}

	windowEnd := bp.now().UTC().Truncate(time.Second)
	digests := BuildDigests(records, windowEnd)
	if len(digests) == 0 {
		bp.logger.Info("no categorized vcons, nothing to digest", zap.Int("records", len(records)))
		return nil
	}

	if bp.narrator != nil {
		for i := range digests {
			narrative, err := bp.summarizeCategory(ctx, records, digests[i].Category)
			if err != nil {
				bp.logger.Warn("narrative failed", zap.String("category", digests[i].Category), zap.Error(err))
				continue
			}
			digests[i].Narrative = narrative
		}
	}

	if err := bp.digests.Save(ctx, digests); err != nil {
		return fmt.Errorf("failed to save digests: %w", err)
	}
	bp.logger.Info("saved category digests",
		zap.Int("categories", len(digests)),
		zap.Int("records", len(records)),
		zap.Time("window_end", windowEnd),
	)
	return nil
}

// BuildDigests summarizes every category of records as of windowEnd.
func BuildDigests(records []models.Vcon, windowEnd time.Time) []models.CategoryDigest {
	summaries := analytics.CategoryCounts(records)
	out := make([]models.CategoryDigest, 0, len(summaries))
	for _, s := range summaries {
		detail := analytics.CategoryDetail(records, s.Category)
		keywords := make([]string, 0, digestKeywordLimit)
		for i, kw := range detail.TopKeywords {
			if i == digestKeywordLimit {
				break
			}
			keywords = append(keywords, kw.Keyword)
		}
		out = append(out, models.CategoryDigest{
			Category:    s.Category,
			WindowEnd:   windowEnd,
			ItemCount:   s.Count,
			Sentiment:   s.SentimentTally,
			TopKeywords: keywords,
		})
	}
	return out
}

func (bp *BatchProcessor) summarizeCategory(ctx context.Context, records []models.Vcon, category string) (string, error) {
	items := analytics.MostRecent(analytics.CategoryDetail(records, category).Items, narrativeItemLimit)

	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n\n", category)
	for i := range items {
		in, _ := items[i].Insights()
		fmt.Fprintf(&b, "- sentiment %s", in.Sentiment.Type)
		if in.IssuesRaised != "" {
			fmt.Fprintf(&b, "; issues: %s", in.IssuesRaised)
		}
		if len(in.Keywords) > 0 {
			fmt.Fprintf(&b, "; keywords: %s", strings.Join(in.Keywords, ", "))
		}
		b.WriteString("\n")
	}

	return bp.narrator.Complete(ctx, narrativeInstructions, []models.ThreadMessage{
		{Role: models.RoleUser, Content: b.String()},
	})
}
