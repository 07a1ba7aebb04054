package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/al-ameen36/vcon-bubble-maps/dashboard"
	"github.com/al-ameen36/vcon-bubble-maps/filters"
	"github.com/al-ameen36/vcon-bubble-maps/layout"
	"github.com/al-ameen36/vcon-bubble-maps/models"
)

type DashboardController struct {
	session *dashboard.Session
	logger  *zap.Logger
}

func NewDashboardController(session *dashboard.Session, logger *zap.Logger) *DashboardController {
	return &DashboardController{session: session, logger: logger}
}

// respond writes a snapshot or maps err to a status.
func (dc *DashboardController) respond(c *gin.Context, snap dashboard.Snapshot, err error) {
	if err != nil {
		dc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (dc *DashboardController) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, filters.ErrInvalidDateRange),
		errors.Is(err, filters.ErrUnknownSentiment),
		errors.Is(err, dashboard.ErrInvalidViewport),
		errors.Is(err, dashboard.ErrNoDetail):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, layout.ErrUnknownNode), errors.Is(err, dashboard.ErrUnknownRecord):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, dashboard.ErrSessionClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		dc.logger.Error("dashboard request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (dc *DashboardController) Snapshot(c *gin.Context) {
	snap, err := dc.session.Snapshot(c.Request.Context())
	dc.respond(c, snap, err)
}

func (dc *DashboardController) LoadMore(c *gin.Context) {
	snap, err := dc.session.LoadMore(c.Request.Context())
	dc.respond(c, snap, err)
}

func (dc *DashboardController) ToggleCategory(c *gin.Context) {
	var request struct {
		Category string `json:"category" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category is required"})
		return
	}
	snap, err := dc.session.ToggleCategory(c.Request.Context(), request.Category)
	dc.respond(c, snap, err)
}

func (dc *DashboardController) SelectAll(c *gin.Context) {
	snap, err := dc.session.SelectAll(c.Request.Context())
	dc.respond(c, snap, err)
}

func (dc *DashboardController) ResetFilters(c *gin.Context) {
	snap, err := dc.session.ResetFilters(c.Request.Context())
	dc.respond(c, snap, err)
}

func (dc *DashboardController) SetContentSearch(c *gin.Context) {
	var request struct {
		Term string `json:"term"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := dc.session.SetContentSearch(c.Request.Context(), request.Term)
	dc.respond(c, snap, err)
}

func (dc *DashboardController) SetDateRange(c *gin.Context) {
	var r models.DateRange
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := dc.session.SetDateRange(c.Request.Context(), r)
	dc.respond(c, snap, err)
}

func (dc *DashboardController) SetSentiments(c *gin.Context) {
	var request struct {
		Sentiments []string `json:"sentiments"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := dc.session.SetSentimentFilter(c.Request.Context(), request.Sentiments)
	dc.respond(c, snap, err)
}

func (dc *DashboardController) CategoryDetail(c *gin.Context) {
	view, err := dc.session.Detail(c.Request.Context(), c.Param("category"), c.Query("q"))
	if err != nil {
		dc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (dc *DashboardController) OpenDetail(c *gin.Context) {
	snap, err := dc.session.OpenDetail(c.Request.Context(), c.Param("category"))
	dc.respond(c, snap, err)
}

func (dc *DashboardController) CloseDetail(c *gin.Context) {
	snap, err := dc.session.CloseDetail(c.Request.Context())
	dc.respond(c, snap, err)
}

func (dc *DashboardController) Transcript(c *gin.Context) {
	view, err := dc.session.Transcript(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		dc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (dc *DashboardController) Resize(c *gin.Context) {
	var request struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := dc.session.Resize(c.Request.Context(), request.Width, request.Height)
	dc.respond(c, snap, err)
}

// Drag handles one pointer phase on a bubble. The end phase reports whether
// the gesture was a click, in which case the detail is now open.
func (dc *DashboardController) Drag(c *gin.Context) {
	var request struct {
		Phase string  `json:"phase" binding:"required"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phase is required"})
		return
	}

	ctx := c.Request.Context()
	category := c.Param("category")
	var err error
	clicked := false
	switch request.Phase {
	case "start":
		err = dc.session.DragStart(ctx, category, request.X, request.Y)
	case "move":
		err = dc.session.DragMove(ctx, category, request.X, request.Y)
	case "end":
		clicked, err = dc.session.DragEnd(ctx, category, request.X, request.Y)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "phase must be start, move or end"})
		return
	}
	if err != nil {
		dc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clicked": clicked})
}

func (dc *DashboardController) Ask(c *gin.Context) {
	var request struct {
		Question string `json:"question" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	answer, err := dc.session.Ask(c.Request.Context(), request.Question)
	if err != nil {
		dc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}
