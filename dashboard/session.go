// Package dashboard drives one dashboard: it owns the filter state, the
// bubble simulation and the loaded records, and serializes every change to
// them through a single loop.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/al-ameen36/vcon-bubble-maps/analytics"
	"github.com/al-ameen36/vcon-bubble-maps/assistant"
	"github.com/al-ameen36/vcon-bubble-maps/filters"
	"github.com/al-ameen36/vcon-bubble-maps/layout"
	"github.com/al-ameen36/vcon-bubble-maps/models"
)

var (
	ErrSessionClosed   = errors.New("dashboard session closed")
	ErrUnknownRecord   = errors.New("unknown vcon")
	ErrNoDetail        = errors.New("no category selected for detail")
	ErrInvalidViewport = errors.New("viewport must be positive")
)

type Options struct {
	PageSize      int
	TickInterval  time.Duration
	Width         float64
	Height        float64
	Layout        layout.Params
	LayoutSeed    int64
	ResponderSeed int64
}

// Snapshot is a consistent copy of the session's derived views.
type Snapshot struct {
	Filters      models.FilterView        `json:"filters"`
	Summaries    []models.CategorySummary `json:"summaries"`
	Bubbles      []layout.Node            `json:"bubbles"`
	TotalRecords int                      `json:"totalRecords"`
	WorkingCount int                      `json:"workingCount"`
	VisibleCount int                      `json:"visibleCount"`
	Status       FeedStatus               `json:"status"`
	Notice       string                   `json:"notice,omitempty"`
	Settled      bool                     `json:"settled"`
}

type DetailView struct {
	models.CategoryDetail
	// Conversations is Items narrowed by the conversation search.
	Conversations []models.Vcon `json:"conversations"`
	Search        string        `json:"search,omitempty"`
}

type PartyView struct {
	DisplayName string `json:"displayName"`
	Role        string `json:"role,omitempty"`
}

type TranscriptView struct {
	UUID    string                     `json:"uuid"`
	Label   string                     `json:"label"`
	Parties []PartyView                `json:"parties"`
	Lines   []analytics.TranscriptLine `json:"lines"`
}

// state is owned by the loop goroutine.
type state struct {
	feed      *Feed
	filters   *filters.Controller
	sim       *layout.Simulation
	responder *assistant.Responder

	working   []models.Vcon
	visible   []models.Vcon
	summaries []models.CategorySummary
	notice    string
}

type Session struct {
	source PageSource
	opts   Options
	logger *zap.Logger

	cmds chan func(*state)
	done chan struct{}
	st   *state
}

func NewSession(source PageSource, opts Options, logger *zap.Logger) *Session {
	if opts.PageSize <= 0 {
		opts.PageSize = 5
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 16 * time.Millisecond
	}
	st := &state{
		feed:      NewFeed(),
		filters:   filters.NewController(),
		sim:       layout.NewSimulation(opts.Width, opts.Height, opts.Layout, opts.LayoutSeed),
		responder: assistant.NewResponder(opts.ResponderSeed),
		working:   []models.Vcon{},
		visible:   []models.Vcon{},
		summaries: []models.CategorySummary{},
	}
	return &Session{
		source: source,
		opts:   opts,
		logger: logger,
		cmds:   make(chan func(*state)),
		done:   make(chan struct{}),
		st:     st,
	}
}

// Run serializes commands and simulation ticks until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	s.logger.Info("dashboard loop started", zap.Duration("tick", s.opts.TickInterval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("dashboard loop stopped")
			return nil
		case cmd := <-s.cmds:
			cmd(s.st)
		case <-ticker.C:
			s.st.sim.Tick()
		}
	}
}

// do runs fn on the loop and waits for it.
func (s *Session) do(ctx context.Context, fn func(st *state)) error {
	finished := make(chan struct{})
	cmd := func(st *state) {
		defer close(finished)
		fn(st)
	}
	select {
	case s.cmds <- cmd:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	// An accepted command always finishes before the loop exits.
	<-finished
	return nil
}

func (s *Session) snapshot(ctx context.Context, fn func(st *state) error) (Snapshot, error) {
	var snap Snapshot
	var cmdErr error
	err := s.do(ctx, func(st *state) {
		if fn != nil {
			if cmdErr = fn(st); cmdErr != nil {
				return
			}
		}
		snap = st.snapshot()
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, cmdErr
}

// LoadMore fetches the next page outside the loop and applies it inside. A
// fetch failure lands in Snapshot.Notice; an exhausted feed is a no-op.
func (s *Session) LoadMore(ctx context.Context) (Snapshot, error) {
	var cursor string
	var ok bool
	if err := s.do(ctx, func(st *state) { cursor, ok = st.feed.Begin() }); err != nil {
		return Snapshot{}, err
	}
	if !ok {
		return s.Snapshot(ctx)
	}

	page, fetchErr := s.source.FetchPage(ctx, cursor, s.opts.PageSize)

	// The in-flight mark must be cleared even if the caller has gone away.
	return s.snapshot(context.WithoutCancel(ctx), func(st *state) error {
		if fetchErr != nil {
			st.feed.Fail()
			st.notice = fmt.Sprintf("Failed to load conversations: %v", fetchErr)
			s.logger.Warn("page fetch failed", zap.String("cursor", cursor), zap.Error(fetchErr))
			return nil
		}
		added := st.feed.Apply(page)
		st.notice = ""
		st.rederive(added > 0)
		s.logger.Debug("page applied",
			zap.Int("added", added),
			zap.Int("total", len(st.feed.Records())),
			zap.String("status", string(st.feed.Status())),
		)
		return nil
	})
}

// LoadAll keeps loading until the feed is exhausted or a fetch fails. It
// returns early while another caller's load is in flight.
func (s *Session) LoadAll(ctx context.Context) (Snapshot, error) {
	for {
		snap, err := s.LoadMore(ctx)
		if err != nil {
			return snap, err
		}
		if snap.Status != FeedIdle || snap.Notice != "" {
			return snap, nil
		}
		if err := ctx.Err(); err != nil {
			return snap, err
		}
	}
}

func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.snapshot(ctx, nil)
}

func (s *Session) ToggleCategory(ctx context.Context, category string) (Snapshot, error) {
	return s.snapshot(ctx, func(st *state) error {
		st.filters.ToggleCategory(category)
		st.rederive(false)
		return nil
	})
}

func (s *Session) ResetFilters(ctx context.Context) (Snapshot, error) {
	return s.snapshot(ctx, func(st *state) error {
		st.filters.ResetFilters()
		st.rederive(false)
		return nil
	})
}

func (s *Session) SelectAll(ctx context.Context) (Snapshot, error) {
	return s.snapshot(ctx, func(st *state) error {
		st.filters.SelectAll(st.summaries)
		st.rederive(false)
		return nil
	})
}

func (s *Session) SetContentSearch(ctx context.Context, term string) (Snapshot, error) {
	return s.snapshot(ctx, func(st *state) error {
		st.filters.SetContentSearch(term)
		st.rederive(false)
		return nil
	})
}

func (s *Session) SetDateRange(ctx context.Context, r models.DateRange) (Snapshot, error) {
	return s.snapshot(ctx, func(st *state) error {
		if err := st.filters.SetDateRange(r); err != nil {
			return err
		}
		st.rederive(false)
		return nil
	})
}

func (s *Session) SetSentimentFilter(ctx context.Context, sentiments []string) (Snapshot, error) {
	return s.snapshot(ctx, func(st *state) error {
		if err := st.filters.SetSentimentFilter(sentiments); err != nil {
			return err
		}
		st.rederive(false)
		return nil
	})
}

func (s *Session) OpenDetail(ctx context.Context, category string) (Snapshot, error) {
	return s.snapshot(ctx, func(st *state) error {
		st.filters.OpenDetail(category)
		return nil
	})
}

func (s *Session) CloseDetail(ctx context.Context) (Snapshot, error) {
	return s.snapshot(ctx, func(st *state) error {
		st.filters.CloseDetail()
		return nil
	})
}

func (s *Session) Resize(ctx context.Context, width, height float64) (Snapshot, error) {
	if width <= 0 || height <= 0 {
		return Snapshot{}, ErrInvalidViewport
	}
	return s.snapshot(ctx, func(st *state) error {
		st.sim.Resize(width, height)
		return nil
	})
}

func (s *Session) DragStart(ctx context.Context, category string, x, y float64) error {
	var dragErr error
	if err := s.do(ctx, func(st *state) { dragErr = st.sim.DragStart(category, x, y) }); err != nil {
		return err
	}
	return dragErr
}

func (s *Session) DragMove(ctx context.Context, category string, x, y float64) error {
	var dragErr error
	if err := s.do(ctx, func(st *state) { dragErr = st.sim.DragMove(category, x, y) }); err != nil {
		return err
	}
	return dragErr
}

// DragEnd releases a bubble. A gesture that barely moved counts as a click
// and opens the category's detail.
func (s *Session) DragEnd(ctx context.Context, category string, x, y float64) (clicked bool, err error) {
	var dragErr error
	err = s.do(ctx, func(st *state) {
		clicked, dragErr = st.sim.DragEnd(category, x, y)
		if dragErr == nil && clicked {
			st.filters.OpenDetail(category)
		}
	})
	if err != nil {
		return false, err
	}
	return clicked, dragErr
}

// ClickBubble opens the detail of a drawn bubble.
func (s *Session) ClickBubble(ctx context.Context, category string) (Snapshot, error) {
	return s.snapshot(ctx, func(st *state) error {
		if _, ok := st.sim.Node(category); !ok {
			return layout.ErrUnknownNode
		}
		st.filters.OpenDetail(category)
		return nil
	})
}

// Ask answers from the bubble-visible records.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	var answer string
	err := s.do(ctx, func(st *state) {
		answer = st.responder.Respond(question, st.visible, st.filters.State().SelectedCategories)
	})
	return answer, err
}

// Visible returns a copy of the bubble-visible records.
func (s *Session) Visible(ctx context.Context) ([]models.Vcon, error) {
	var out []models.Vcon
	err := s.do(ctx, func(st *state) {
		out = append([]models.Vcon(nil), st.visible...)
	})
	return out, err
}

// Detail computes a category's drill-down over the working set. An empty
// category means the one opened with OpenDetail.
func (s *Session) Detail(ctx context.Context, category, search string) (DetailView, error) {
	var view DetailView
	var detailErr error
	err := s.do(ctx, func(st *state) {
		if category == "" {
			category = st.filters.State().SelectedCategoryForDetail
		}
		if category == "" {
			detailErr = ErrNoDetail
			return
		}
		d := analytics.CategoryDetail(st.working, category)
		view = DetailView{
			CategoryDetail: d,
			Conversations:  analytics.SearchConversations(d.Items, search),
			Search:         search,
		}
	})
	if err != nil {
		return DetailView{}, err
	}
	return view, detailErr
}

func (s *Session) Transcript(ctx context.Context, uuid string) (TranscriptView, error) {
	var view TranscriptView
	found := false
	err := s.do(ctx, func(st *state) {
		records := st.feed.Records()
		for i := range records {
			if records[i].UUID != uuid {
				continue
			}
			found = true
			r := &records[i]
			view = TranscriptView{
				UUID:    r.UUID,
				Label:   analytics.Label(r),
				Parties: make([]PartyView, 0, len(r.Parties)),
				Lines:   analytics.TranscriptLines(r),
			}
			for j, p := range r.Parties {
				view.Parties = append(view.Parties, PartyView{DisplayName: analytics.DisplayName(p, j), Role: p.Meta.Role})
			}
			return
		}
	})
	if err != nil {
		return TranscriptView{}, err
	}
	if !found {
		return TranscriptView{}, ErrUnknownRecord
	}
	return view, nil
}

// rederive recomputes every derived view and syncs the bubbles with the
// bubble-visible counts.
func (st *state) rederive(recordsChanged bool) {
	all := st.feed.Records()
	if recordsChanged {
		st.filters.ObserveRecords(all, analytics.AllCategories(all))
	}
	f := st.filters.State()
	st.working = analytics.WorkingSet(all, f)
	st.visible = analytics.BubbleVisible(st.working, f.SelectedCategories)
	st.summaries = analytics.CategorySummaries(st.working, all, f.SelectedCategories)
	st.sim.Sync(analytics.CategoryCounts(st.visible))
}

func (st *state) snapshot() Snapshot {
	return Snapshot{
		Filters:      st.filters.State().View(),
		Summaries:    append([]models.CategorySummary{}, st.summaries...),
		Bubbles:      st.sim.Nodes(),
		TotalRecords: len(st.feed.Records()),
		WorkingCount: len(st.working),
		VisibleCount: len(st.visible),
		Status:       st.feed.Status(),
		Notice:       st.notice,
		Settled:      st.sim.Settled(),
	}
}
