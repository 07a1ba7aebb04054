package analytics

import (
	"fmt"
	"strings"

	"github.com/al-ameen36/vcon-bubble-maps/models"
)

// SearchConversations narrows detail items with the content predicate,
// extended to party names and the issues-raised text. A blank term returns
// items unchanged.
func SearchConversations(items []models.Vcon, term string) []models.Vcon {
	term = normalizeTerm(term)
	if term == "" {
		return items
	}
	out := make([]models.Vcon, 0, len(items))
	for i := range items {
		if matchesConversation(&items[i], term) {
			out = append(out, items[i])
		}
	}
	return out
}

func matchesConversation(r *models.Vcon, term string) bool {
	if matchesContent(r, term) {
		return true
	}
	for _, p := range r.Parties {
		if containsFold(p.Name, term) {
			return true
		}
	}
	if in, ok := r.Insights(); ok && containsFold(in.IssuesRaised, term) {
		return true
	}
	return false
}

type Side string

const (
	SideAgent    Side = "agent"
	SideCustomer Side = "customer"
)

type TranscriptLine struct {
	Index   int    `json:"index"`
	Speaker string `json:"speaker"`
	Message string `json:"message"`
	Side    Side   `json:"side"`
}

// TranscriptLines projects a record's transcript turn by turn. A turn goes on
// the agent side when its speaker is "agent" or names a party whose role
// contains "agent".
func TranscriptLines(r *models.Vcon) []TranscriptLine {
	agents := make(map[string]bool)
	for _, p := range r.Parties {
		if strings.Contains(strings.ToLower(p.Meta.Role), "agent") {
			agents[strings.ToLower(strings.TrimSpace(p.Name))] = true
		}
	}

	turns := r.Transcript()
	out := make([]TranscriptLine, 0, len(turns))
	for i, t := range turns {
		speaker := strings.ToLower(strings.TrimSpace(t.Speaker))
		side := SideCustomer
		if speaker == "agent" || agents[speaker] {
			side = SideAgent
		}
		out = append(out, TranscriptLine{Index: i, Speaker: t.Speaker, Message: t.Message, Side: side})
	}
	return out
}

var botMarkers = []string{"bot", "agent", "assistant"}

// DisplayName keeps the name of automated or agent parties and replaces
// everyone else with a generic label.
func DisplayName(p models.Party, index int) string {
	role := strings.ToLower(p.Meta.Role)
	name := strings.ToLower(p.Name)
	for _, m := range botMarkers {
		if strings.Contains(role, m) {
			return p.Name
		}
	}
	if strings.Contains(name, "bot") || strings.Contains(name, "agent") {
		return p.Name
	}
	if index == 0 {
		return "User"
	}
	return fmt.Sprintf("User %d", index+1)
}

// Label is a short human name for a record: its party names, or its uuid.
func Label(r *models.Vcon) string {
	var names []string
	for _, p := range r.Parties {
		if n := strings.TrimSpace(p.Name); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return r.UUID
	}
	return strings.Join(names, " & ")
}
