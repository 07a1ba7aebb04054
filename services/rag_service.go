package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/al-ameen36/vcon-bubble-maps/analytics"
	"github.com/al-ameen36/vcon-bubble-maps/models"
)

const groundingKeywordLimit = 3

type DigestReader interface {
	Latest(ctx context.Context) ([]models.CategoryDigest, error)
}

// RAGService grounds assistant prompts in the records the user is looking at
// and, when a digest store is configured, in the latest batch digests.
type RAGService struct {
	digests DigestReader
}

// NewRAGService accepts a nil reader; prompts are then grounded in the
// visible records only.
func NewRAGService(digests DigestReader) *RAGService {
	return &RAGService{digests: digests}
}

// EnhancePrompt returns query prefixed with context. When the digest lookup
// fails the prompt built from the visible records is still returned together
// with the error.
func (rs *RAGService) EnhancePrompt(ctx context.Context, query string, visible []models.Vcon) (string, error) {
	var digests []models.CategoryDigest
	var lookupErr error
	if rs.digests != nil {
		digests, lookupErr = rs.digests.Latest(ctx)
		if lookupErr != nil {
			lookupErr = fmt.Errorf("digest lookup failed: %w", lookupErr)
			digests = nil
		}
	}

	if len(visible) == 0 && len(digests) == 0 {
		return query, lookupErr
	}
	return BuildPromptWithContext(query, visible, digests), lookupErr
}

func BuildPromptWithContext(query string, visible []models.Vcon, digests []models.CategoryDigest) string {
	var contextBuilder strings.Builder

	if len(visible) > 0 {
		contextBuilder.WriteString("The user is looking at these conversation categories:\n\n")
		for _, s := range analytics.CategoryCounts(visible) {
			fmt.Fprintf(&contextBuilder, "- %s: %d conversations (positive %d, neutral %d, negative %d)",
				s.Category, s.Count, s.SentimentTally.Positive, s.SentimentTally.Neutral, s.SentimentTally.Negative)
			top := analytics.CategoryDetail(visible, s.Category).TopKeywords
			if len(top) > groundingKeywordLimit {
				top = top[:groundingKeywordLimit]
			}
			if len(top) > 0 {
				words := make([]string, len(top))
				for i, kw := range top {
					words[i] = kw.Keyword
				}
				fmt.Fprintf(&contextBuilder, "; top keywords: %s", strings.Join(words, ", "))
			}
			contextBuilder.WriteString("\n")
		}
		contextBuilder.WriteString("\n")
	}

	var narratives []models.CategoryDigest
	for _, d := range digests {
		if d.Narrative != "" {
			narratives = append(narratives, d)
		}
	}
	if len(narratives) > 0 {
		contextBuilder.WriteString("Recent digests of the whole archive:\n\n")
		for _, d := range narratives {
			fmt.Fprintf(&contextBuilder, "- %s: %s\n", d.Category, d.Narrative)
		}
		contextBuilder.WriteString("\n")
	}

	contextBuilder.WriteString("Using the context above, answer the following question:\n")
	contextBuilder.WriteString(query)
	return contextBuilder.String()
}
