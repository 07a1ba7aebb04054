package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/al-ameen36/vcon-bubble-maps/controllers"
	"github.com/al-ameen36/vcon-bubble-maps/dashboard"
	"github.com/al-ameen36/vcon-bubble-maps/layout"
	"github.com/al-ameen36/vcon-bubble-maps/models"
	"github.com/al-ameen36/vcon-bubble-maps/services"
)

// memoryVcons is a single-page store.
type memoryVcons struct {
	records []models.Vcon
}

func (m *memoryVcons) SaveDocument(_ context.Context, doc []byte) error {
	var v models.Vcon
	if err := json.Unmarshal(doc, &v); err != nil {
		return err
	}
	m.records = append(m.records, v)
	return nil
}

func (m *memoryVcons) Document(_ context.Context, uuid string) (json.RawMessage, error) {
	for _, v := range m.records {
		if v.UUID == uuid {
			return json.Marshal(v)
		}
	}
	return nil, services.ErrNotFound
}

func (m *memoryVcons) FetchPage(context.Context, string, int) (models.VconPage, error) {
	return models.VconPage{Records: m.records}, nil
}

type staticDigests struct {
	digests []models.CategoryDigest
	err     error
}

func (s staticDigests) Latest(context.Context) ([]models.CategoryDigest, error) {
	return s.digests, s.err
}

func record(uuid, category, sentiment string) models.Vcon {
	return models.Vcon{
		UUID:      uuid,
		CreatedAt: "2024-01-01",
		Analysis: []models.Analysis{models.NewInsightsAnalysis("test", models.Insights{
			Category:  category,
			Sentiment: models.Sentiment{Type: sentiment},
		})},
	}
}

func newTestRouter(t *testing.T, h Handlers, logger *zap.Logger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return SetupRouter(h, logger)
}

func startDashboard(t *testing.T, store *memoryVcons) *dashboard.Session {
	t.Helper()
	session := dashboard.NewSession(store, dashboard.Options{
		TickInterval: time.Millisecond,
		Width:        800,
		Height:       600,
		Layout:       layout.DefaultParams(),
		LayoutSeed:   1,
	}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- session.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errc
	})
	return session
}

func call(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func snapshotOf(t *testing.T, w *httptest.ResponseRecorder) dashboard.Snapshot {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var snap dashboard.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func TestDashboardFlowOverHTTP(t *testing.T) {
	store := &memoryVcons{}
	session := startDashboard(t, store)
	r := newTestRouter(t, Handlers{
		Vcons:     controllers.NewVconController(store, zap.NewNop()),
		Dashboard: controllers.NewDashboardController(session, zap.NewNop()),
	}, zap.NewNop())

	for _, doc := range []string{
		`{"uuid":"b1","created_at":"2024-01-01","analysis":[{"type":"insights","vendor":"v","encoding":"json","body":{"category":"Billing","sentiment":"negative","keywords":["refund"]}}]}`,
		`{"uuid":"s1","created_at":"2024-01-02","analysis":[{"type":"insights","vendor":"v","encoding":"json","body":{"category":"Support","sentiment":"Positive"}}]}`,
	} {
		require.Equal(t, http.StatusOK, call(r, http.MethodPost, "/api/vcons", doc).Code)
	}

	w := call(r, http.MethodGet, "/api/vcons/b1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uuid":"b1"`)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/api/vcons/zzz", "").Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/vcons/schema", "").Code)

	snap := snapshotOf(t, call(r, http.MethodPost, "/dashboard/load-more", ""))
	assert.Equal(t, 2, snap.TotalRecords)
	assert.Equal(t, []string{"Billing", "Support"}, snap.Filters.SelectedCategories)
	assert.Len(t, snap.Bubbles, 2)

	snap = snapshotOf(t, call(r, http.MethodPost, "/dashboard/categories/toggle", `{"category":"Support"}`))
	assert.Equal(t, 1, snap.VisibleCount)

	snap = snapshotOf(t, call(r, http.MethodPut, "/dashboard/filters/search", `{"term":"refund"}`))
	assert.Equal(t, 1, snap.WorkingCount)

	snap = snapshotOf(t, call(r, http.MethodPost, "/dashboard/filters/reset", ""))
	assert.Empty(t, snap.Bubbles)
	assert.Equal(t, 2, snap.WorkingCount)

	snap = snapshotOf(t, call(r, http.MethodPost, "/dashboard/categories/select-all", ""))
	assert.Len(t, snap.Filters.SelectedCategories, 2)

	snap = snapshotOf(t, call(r, http.MethodPut, "/dashboard/filters/sentiments", `{"sentiments":["positive"]}`))
	assert.Equal(t, 1, snap.WorkingCount)

	snap = snapshotOf(t, call(r, http.MethodPut, "/dashboard/filters/date-range", `{"start":"2024-01-02","end":"2024-01-02"}`))
	assert.Equal(t, 1, snap.WorkingCount)

	w = call(r, http.MethodGet, "/dashboard/categories/Support?q=", "")
	require.Equal(t, http.StatusOK, w.Code)
	var detail dashboard.DetailView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "Support", detail.Category)

	snap = snapshotOf(t, call(r, http.MethodPost, "/dashboard/detail/Support", ""))
	assert.Equal(t, "Support", snap.Filters.SelectedCategoryForDetail)
	snap = snapshotOf(t, call(r, http.MethodDelete, "/dashboard/detail", ""))
	assert.Empty(t, snap.Filters.SelectedCategoryForDetail)

	w = call(r, http.MethodGet, "/dashboard/vcons/s1/transcript", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uuid":"s1"`)

	w = call(r, http.MethodPost, "/dashboard/bubbles/Support/drag", `{"phase":"start","x":10,"y":10}`)
	assert.Equal(t, http.StatusOK, w.Code)
	w = call(r, http.MethodPost, "/dashboard/bubbles/Support/drag", `{"phase":"end","x":10,"y":10}`)
	assert.JSONEq(t, `{"clicked": true}`, w.Body.String())

	snap = snapshotOf(t, call(r, http.MethodPost, "/dashboard/viewport", `{"width":1024,"height":768}`))
	assert.Len(t, snap.Bubbles, 1)

	w = call(r, http.MethodPost, "/dashboard/assistant", `{"question":"help"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "I can help you with")

	snap = snapshotOf(t, call(r, http.MethodGet, "/dashboard", ""))
	assert.Equal(t, dashboard.FeedExhausted, snap.Status)
}

func TestDashboardErrorStatuses(t *testing.T) {
	store := &memoryVcons{records: []models.Vcon{record("b1", "Billing", "neutral")}}
	session := startDashboard(t, store)
	r := newTestRouter(t, Handlers{
		Vcons:     controllers.NewVconController(store, zap.NewNop()),
		Dashboard: controllers.NewDashboardController(session, zap.NewNop()),
	}, zap.NewNop())
	require.Equal(t, http.StatusOK, call(r, http.MethodPost, "/dashboard/load-more", "").Code)

	tests := []struct {
		method, target, body string
		code                 int
	}{
		{http.MethodPut, "/dashboard/filters/date-range", `{"start":"2024-02-01","end":"2024-01-01"}`, http.StatusBadRequest},
		{http.MethodPut, "/dashboard/filters/date-range", `{"start":"yesterday"}`, http.StatusBadRequest},
		{http.MethodPut, "/dashboard/filters/sentiments", `{"sentiments":["furious"]}`, http.StatusBadRequest},
		{http.MethodPost, "/dashboard/categories/toggle", `{}`, http.StatusBadRequest},
		{http.MethodPost, "/dashboard/viewport", `{"width":0,"height":10}`, http.StatusBadRequest},
		{http.MethodPost, "/dashboard/bubbles/Billing/drag", `{"phase":"hover"}`, http.StatusBadRequest},
		{http.MethodPost, "/dashboard/bubbles/Nope/drag", `{"phase":"start"}`, http.StatusNotFound},
		{http.MethodGet, "/dashboard/vcons/missing/transcript", "", http.StatusNotFound},
		{http.MethodPost, "/dashboard/assistant", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := call(r, tt.method, tt.target, tt.body)
		assert.Equal(t, tt.code, w.Code, "%s %s %s", tt.method, tt.target, tt.body)
	}
}

func TestOptionalGroupsAndMiddleware(t *testing.T) {
	store := &memoryVcons{}
	session := startDashboard(t, store)
	core, logs := observer.New(zapcore.DebugLevel)
	h := Handlers{
		Vcons:     controllers.NewVconController(store, zap.NewNop()),
		Dashboard: controllers.NewDashboardController(session, zap.NewNop()),
	}

	r := newTestRouter(t, h, zap.New(core))
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/api/digests", "").Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodPost, "/chat/session", "").Code)

	w := call(r, http.MethodOptions, "/api/vcons", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	call(r, http.MethodPost, "/api/vcons", `{}`)
	warned := logs.FilterMessage("request").FilterField(zap.Int("status", http.StatusBadRequest))
	require.Equal(t, 1, warned.Len())
	assert.Equal(t, zapcore.WarnLevel, warned.All()[0].Level)

	h.Digests = controllers.NewDigestController(staticDigests{digests: []models.CategoryDigest{
		{Category: "Billing", ItemCount: 3, Narrative: "Refunds."},
	}}, zap.NewNop())
	r = newTestRouter(t, h, zap.NewNop())
	w = call(r, http.MethodGet, "/api/digests", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"narrative":"Refunds."`)

	h.Digests = controllers.NewDigestController(staticDigests{err: errors.New("db down")}, zap.NewNop())
	r = newTestRouter(t, h, zap.NewNop())
	assert.Equal(t, http.StatusInternalServerError, call(r, http.MethodGet, "/api/digests", "").Code)

	h.Digests = controllers.NewDigestController(staticDigests{}, zap.NewNop())
	r = newTestRouter(t, h, zap.NewNop())
	assert.JSONEq(t, `{"digests": []}`, call(r, http.MethodGet, "/api/digests", "").Body.String())
}
