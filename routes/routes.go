package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/al-ameen36/vcon-bubble-maps/controllers"
	"github.com/al-ameen36/vcon-bubble-maps/middlewares"
)

// Handlers groups the controllers the router mounts. Chat and Digests may be
// nil when their backends are not configured.
type Handlers struct {
	Vcons     *controllers.VconController
	Dashboard *controllers.DashboardController
	Chat      *controllers.ChatController
	Digests   *controllers.DigestController
}

func SetupRouter(h Handlers, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.CORS())
	r.Use(middlewares.Logger(logger))

	api := r.Group("/api")
	api.POST("/vcons", h.Vcons.Ingest)
	api.GET("/vcons", h.Vcons.List)
	api.GET("/vcons/schema", h.Vcons.Schema)
	api.GET("/vcons/:uuid", h.Vcons.Get)
	if h.Digests != nil {
		api.GET("/digests", h.Digests.Latest)
	}

	d := r.Group("/dashboard")
	d.GET("", h.Dashboard.Snapshot)
	d.POST("/load-more", h.Dashboard.LoadMore)
	d.POST("/categories/toggle", h.Dashboard.ToggleCategory)
	d.POST("/categories/select-all", h.Dashboard.SelectAll)
	d.GET("/categories/:category", h.Dashboard.CategoryDetail)
	d.POST("/filters/reset", h.Dashboard.ResetFilters)
	d.PUT("/filters/search", h.Dashboard.SetContentSearch)
	d.PUT("/filters/date-range", h.Dashboard.SetDateRange)
	d.PUT("/filters/sentiments", h.Dashboard.SetSentiments)
	d.POST("/detail/:category", h.Dashboard.OpenDetail)
	d.DELETE("/detail", h.Dashboard.CloseDetail)
	d.GET("/vcons/:uuid/transcript", h.Dashboard.Transcript)
	d.POST("/viewport", h.Dashboard.Resize)
	d.POST("/bubbles/:category/drag", h.Dashboard.Drag)
	d.POST("/assistant", h.Dashboard.Ask)

	if h.Chat != nil {
		chat := r.Group("/chat")
		chat.POST("/session", h.Chat.CreateSession)
		chat.POST("/threads/:threadId/messages", h.Chat.SendMessage)
		chat.GET("/threads/:threadId/messages", h.Chat.ListMessages)
	}

	return r
}
