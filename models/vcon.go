package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
)

// Vcon is one stored conversation record.
type Vcon struct {
	UUID        string       `json:"uuid" jsonschema:"required"`
	CreatedAt   string       `json:"created_at,omitempty"`
	UpdatedAt   string       `json:"updated_at,omitempty"`
	Dialog      []Dialog     `json:"dialog,omitempty"`
	Parties     []Party      `json:"parties,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Analysis    []Analysis   `json:"analysis,omitempty"`
}

type Dialog struct {
	Alg       string     `json:"alg,omitempty"`
	URL       string     `json:"url,omitempty"`
	Meta      DialogMeta `json:"meta"`
	Type      string     `json:"type,omitempty"`
	Start     string     `json:"start,omitempty"`
	Parties   Indices    `json:"parties,omitempty"`
	Duration  float64    `json:"duration"`
	Filename  string     `json:"filename,omitempty"`
	Mimetype  string     `json:"mimetype,omitempty"`
	Signature string     `json:"signature,omitempty"`
}

type DialogMeta struct {
	Direction   string `json:"direction,omitempty"`
	Disposition string `json:"disposition,omitempty"`
}

type Party struct {
	Tel    string    `json:"tel,omitempty"`
	Name   string    `json:"name"`
	Meta   PartyMeta `json:"meta"`
	Mailto string    `json:"mailto,omitempty"`
	Email  string    `json:"email,omitempty"`
}

type PartyMeta struct {
	Role string `json:"role"`
}

type Attachment struct {
	Type     string          `json:"type"`
	Encoding string          `json:"encoding"`
	Body     json.RawMessage `json:"body,omitempty"`
}

// AnalysisKind tags an analysis entry by what it carries.
type AnalysisKind string

const (
	KindTranscript AnalysisKind = "transcript"
	KindInsights   AnalysisKind = "insights"
	KindOther      AnalysisKind = "other"
)

// Analysis is one analysis block. Kind is resolved while decoding so callers
// look blocks up by kind rather than by position.
type Analysis struct {
	Type         string          `json:"type"`
	Dialog       Indices         `json:"dialog,omitempty"`
	Vendor       string          `json:"vendor"`
	Encoding     string          `json:"encoding"`
	Body         json.RawMessage `json:"body,omitempty"`
	VendorSchema json.RawMessage `json:"vendor_schema,omitempty"`
	Kind         AnalysisKind    `json:"-"`
	transcript   []Turn
	insights     *Insights
}

type Turn struct {
	Speaker string `json:"speaker"`
	Message string `json:"message"`
}

// Insights is the per-conversation classification produced upstream.
type Insights struct {
	Category             string    `json:"category"`
	Sentiment            Sentiment `json:"sentiment"`
	Keywords             []string  `json:"keywords,omitempty"`
	IssuesRaised         string    `json:"issues_raised,omitempty"`
	InteractionDuration  float64   `json:"interaction_duration"`
	NumberOfParticipants int       `json:"number_of_participants"`
}

// Sentiment decodes from either {"type":"..."} or a bare string. The label is
// stored lower-cased.
type Sentiment struct {
	Type string `json:"type"`
}

func (s *Sentiment) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		s.Type = ""
		return nil
	}
	var label string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &label); err != nil {
			return err
		}
	} else {
		var raw struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		label = raw.Type
	}
	s.Type = strings.ToLower(strings.TrimSpace(label))
	return nil
}

// Indices references dialogs or parties by position. vCon writers use either
// a single index or a list of them.
type Indices []int

func (x *Indices) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*x = nil
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var many []float64
		if err := json.Unmarshal(b, &many); err != nil {
			return err
		}
		out := make(Indices, len(many))
		for i, f := range many {
			out[i] = int(f)
		}
		*x = out
		return nil
	}
	var one float64
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*x = Indices{int(one)}
	return nil
}

func (Indices) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "integer"},
			{Type: "array", Items: &jsonschema.Schema{Type: "integer"}},
		},
	}
}

var transcriptTypes = map[string]bool{
	"transcript":    true,
	"transcription": true,
	"diarized":      true,
}

var insightTypes = map[string]bool{
	"insights":       true,
	"summary":        true,
	"classification": true,
	"analysis":       true,
}

// UnmarshalJSON reads a vCon document field by field. A field or list element
// of the wrong shape is dropped on its own instead of failing the record.
func (v *Vcon) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*v = Vcon{}
	_ = json.Unmarshal(fields["uuid"], &v.UUID)
	_ = json.Unmarshal(fields["created_at"], &v.CreatedAt)
	_ = json.Unmarshal(fields["updated_at"], &v.UpdatedAt)
	v.Dialog = decodeEach[Dialog](fields["dialog"])
	v.Parties = decodeEach[Party](fields["parties"])
	v.Attachments = decodeEach[Attachment](fields["attachments"])
	v.Analysis = decodeEach[Analysis](fields["analysis"])
	return nil
}

func decodeEach[T any](raw json.RawMessage) []T {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	var out []T
	for _, e := range elems {
		var item T
		if err := json.Unmarshal(e, &item); err == nil {
			out = append(out, item)
		}
	}
	return out
}

func (a *Analysis) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*a = Analysis{}
	_ = json.Unmarshal(fields["type"], &a.Type)
	_ = json.Unmarshal(fields["vendor"], &a.Vendor)
	_ = json.Unmarshal(fields["encoding"], &a.Encoding)
	_ = json.Unmarshal(fields["dialog"], &a.Dialog)
	a.Body = nonNull(fields["body"])
	a.VendorSchema = nonNull(fields["vendor_schema"])
	a.classify()
	return nil
}

func nonNull(raw json.RawMessage) json.RawMessage {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return raw
}

func (a *Analysis) classify() {
	a.Kind = KindOther
	a.transcript = nil
	a.insights = nil

	body := bytes.TrimSpace(a.Body)
	if len(body) == 0 {
		return
	}
	typ := strings.ToLower(strings.TrimSpace(a.Type))

	// encoding "json" bodies are sometimes shipped as a JSON string.
	if body[0] == '"' {
		var inner string
		if err := json.Unmarshal(body, &inner); err == nil {
			if t := bytes.TrimSpace([]byte(inner)); len(t) > 0 && (t[0] == '{' || t[0] == '[') {
				body = t
			}
		}
	}

	if body[0] == '[' && (transcriptTypes[typ] || !insightTypes[typ]) {
		var turns []Turn
		if err := json.Unmarshal(body, &turns); err == nil {
			a.Kind = KindTranscript
			a.transcript = turns
			return
		}
	}
	if body[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return
		}
		if _, ok := fields["category"]; !ok && !insightTypes[typ] {
			return
		}
		a.Kind = KindInsights
		a.insights = decodeInsights(fields)
	}
}

// decodeInsights reads each insights field on its own, so a malformed number
// or list leaves that field zero and keeps the category.
func decodeInsights(fields map[string]json.RawMessage) *Insights {
	in := &Insights{}
	_ = json.Unmarshal(fields["category"], &in.Category)
	_ = json.Unmarshal(fields["sentiment"], &in.Sentiment)
	in.Keywords = looseStrings(fields["keywords"])
	if issues := looseStrings(fields["issues_raised"]); len(issues) > 0 {
		in.IssuesRaised = strings.Join(issues, "; ")
	}
	if f, ok := looseNumber(fields["interaction_duration"]); ok {
		in.InteractionDuration = f
	}
	if f, ok := looseNumber(fields["number_of_participants"]); ok {
		in.NumberOfParticipants = int(math.Round(f))
	}
	return in
}

// looseNumber accepts a JSON number or a numeric string.
func looseNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// looseStrings accepts a string or a list, keeping only the string elements.
func looseStrings(raw json.RawMessage) []string {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one == "" {
			return nil
		}
		return []string{one}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	var out []string
	for _, e := range elems {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// Transcript returns the first transcript block's turns in playback order.
func (v *Vcon) Transcript() []Turn {
	for i := range v.Analysis {
		if v.Analysis[i].Kind == KindTranscript {
			return v.Analysis[i].transcript
		}
	}
	return nil
}

// Insights returns the first insights block, if the record carries one.
func (v *Vcon) Insights() (*Insights, bool) {
	for i := range v.Analysis {
		if v.Analysis[i].Kind == KindInsights && v.Analysis[i].insights != nil {
			return v.Analysis[i].insights, true
		}
	}
	return nil, false
}

// Category is "" for records without insights.
func (v *Vcon) Category() (string, bool) {
	in, ok := v.Insights()
	if !ok {
		return "", false
	}
	return in.Category, true
}

func (v *Vcon) SentimentType() string {
	in, ok := v.Insights()
	if !ok {
		return ""
	}
	return in.Sentiment.Type
}

var createdLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CreatedTime parses created_at. The second result is false when the field is
// empty or unparsable.
func (v *Vcon) CreatedTime() (time.Time, bool) {
	return ParseTimestamp(v.CreatedAt)
}

func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// VconPage is one page of records from the store.
type VconPage struct {
	Records    []Vcon `json:"records"`
	NextCursor string `json:"nextCursor,omitempty"`
}

func (p VconPage) Exhausted() bool {
	return p.NextCursor == ""
}

// NewTranscriptAnalysis builds a classified transcript block.
func NewTranscriptAnalysis(vendor string, turns []Turn) Analysis {
	body, _ := json.Marshal(turns)
	a := Analysis{Type: string(KindTranscript), Vendor: vendor, Encoding: "json", Body: body}
	a.classify()
	return a
}

// NewInsightsAnalysis builds a classified insights block.
func NewInsightsAnalysis(vendor string, in Insights) Analysis {
	body, _ := json.Marshal(in)
	a := Analysis{Type: string(KindInsights), Vendor: vendor, Encoding: "json", Body: body}
	a.classify()
	return a
}
