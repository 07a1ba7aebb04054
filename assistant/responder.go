// Package assistant answers questions about the dashboard's current view,
// either by phrase matching over the visible records or through an LLM
// chat thread.
package assistant

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/al-ameen36/vcon-bubble-maps/analytics"
	"github.com/al-ameen36/vcon-bubble-maps/models"
)

const helpText = `I can help you with:
• Count items in categories
• Compare category sizes
• List items in specific categories
• Find largest/smallest categories
• Analyze your current selection

Try asking: "How many items are in Billing?" or "Compare my categories"`

const noCategories = "No categories selected."

// Responder matches a question against a fixed set of phrasings. It is not
// safe for concurrent use.
type Responder struct {
	rng *rand.Rand
}

// NewResponder seeds the fallback choice. Equal seeds give equal answers.
func NewResponder(seed int64) *Responder {
	return &Responder{rng: rand.New(rand.NewSource(seed))}
}

// Respond answers question from the bubble-visible records and the selected
// categories. Branches are tried in order: totals, category list, largest,
// smallest, items of one category, comparison, help, fallback.
func (r *Responder) Respond(question string, visible []models.Vcon, selected models.StringSet) string {
	q := strings.ToLower(question)
	counts := analytics.CategoryCounts(visible)
	total := len(visible)

	switch {
	case strings.Contains(q, "how many") || strings.Contains(q, "count") || strings.Contains(q, "total items"):
		if strings.Contains(q, "total") {
			return fmt.Sprintf("You currently have %d items selected across %d categories.", total, len(selected))
		}
		if len(counts) == 0 {
			return "There are no items in the current selection."
		}
		parts := make([]string, len(counts))
		for i, c := range counts {
			parts[i] = fmt.Sprintf("%s: %d items", c.Category, c.Count)
		}
		return "Here's the breakdown: " + strings.Join(parts, ", ")

	case asksForCategoryList(q):
		if len(selected) == 0 {
			return "No categories are currently selected. Select some bubbles to explore them."
		}
		return fmt.Sprintf("You're currently viewing: %s. These categories contain %d items total.",
			strings.Join(selected.Sorted(), ", "), total)

	case strings.Contains(q, "largest") || strings.Contains(q, "biggest"):
		if len(counts) == 0 {
			return noCategories
		}
		top := bySize(counts, true)[0]
		return fmt.Sprintf("The largest category is %q with %d items.", top.Category, top.Count)

	case strings.Contains(q, "smallest") || strings.Contains(q, "least"):
		if len(counts) == 0 {
			return noCategories
		}
		bottom := bySize(counts, false)[0]
		return fmt.Sprintf("The smallest category is %q with %d items.", bottom.Category, bottom.Count)
	}

	if cat, ok := mentionedCategory(q, selected); ok && (strings.Contains(q, "items") || strings.Contains(q, "conversations")) {
		var names []string
		for i := range visible {
			if c, ok := visible[i].Category(); ok && c == cat {
				names = append(names, analytics.Label(&visible[i]))
			}
		}
		if len(names) == 0 {
			return fmt.Sprintf("There are no items in %s right now.", cat)
		}
		return fmt.Sprintf("Items in %s: %s", cat, strings.Join(names, ", "))
	}

	switch {
	case strings.Contains(q, "compare"):
		if len(counts) < 2 {
			return "You need at least 2 categories to make comparisons."
		}
		sorted := bySize(counts, true)
		parts := make([]string, len(sorted))
		for i, c := range sorted {
			parts[i] = fmt.Sprintf("%s (%d)", c.Category, c.Count)
		}
		return "Category comparison by size: " + strings.Join(parts, " > ")

	case strings.Contains(q, "help") || strings.Contains(q, "what can"):
		return helpText
	}

	return r.fallback(total, selected)
}

func (r *Responder) fallback(total int, selected models.StringSet) string {
	selection := "no categories"
	if len(selected) > 0 {
		selection = strings.Join(selected.Sorted(), ", ")
	}
	templates := []string{
		fmt.Sprintf("Based on your current selection of %d items across %d categories, what specific aspect would you like to explore?", total, len(selected)),
		fmt.Sprintf("I can see you have %s selected. What would you like to know about these categories?", selection),
		fmt.Sprintf("Your current data includes %d items. Try asking about counts, comparisons, or specific categories!", total),
	}
	return templates[r.rng.Intn(len(templates))]
}

// asksForCategoryList is narrower than "mentions category" so that
// "largest category" and "compare all categories" reach their own branches.
func asksForCategoryList(q string) bool {
	if strings.Contains(q, "which categories") || strings.Contains(q, "what categories") {
		return true
	}
	return strings.Contains(q, "list") && strings.Contains(q, "categor")
}

// mentionedCategory finds the longest selected category whose name appears
// in q.
func mentionedCategory(q string, selected models.StringSet) (string, bool) {
	best := ""
	for _, cat := range selected.Sorted() {
		if cat != "" && strings.Contains(q, strings.ToLower(cat)) && len(cat) > len(best) {
			best = cat
		}
	}
	return best, best != ""
}

// bySize orders a copy of counts by count. Ties keep first-seen order.
func bySize(counts []models.CategorySummary, desc bool) []models.CategorySummary {
	out := append([]models.CategorySummary(nil), counts...)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].Count > out[j].Count
		}
		return out[i].Count < out[j].Count
	})
	return out
}
