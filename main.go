package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/al-ameen36/vcon-bubble-maps/assistant"
	"github.com/al-ameen36/vcon-bubble-maps/config"
	"github.com/al-ameen36/vcon-bubble-maps/controllers"
	"github.com/al-ameen36/vcon-bubble-maps/dashboard"
	"github.com/al-ameen36/vcon-bubble-maps/logging"
	"github.com/al-ameen36/vcon-bubble-maps/routes"
	"github.com/al-ameen36/vcon-bubble-maps/services"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Root, logger *zap.Logger) error {
	gin.SetMode(cfg.Server.Mode)

	db, err := services.GetDynamoDBClient(ctx, cfg.DynamoDB)
	if err != nil {
		return err
	}
	services.EnsureTables(ctx, db, cfg.DynamoDB, logger)
	vcons := services.NewVconStore(db, cfg.DynamoDB.VconTable, logger.Named("vcons"))

	responderSeed := cfg.Assistant.FallbackSeed
	if responderSeed == 0 {
		responderSeed = time.Now().UnixNano()
	}
	session := dashboard.NewSession(vcons, dashboard.Options{
		PageSize:      cfg.Dashboard.PageSize,
		TickInterval:  cfg.Dashboard.TickInterval(),
		Width:         cfg.Dashboard.ViewportWidth,
		Height:        cfg.Dashboard.ViewportHeight,
		Layout:        cfg.Layout,
		LayoutSeed:    cfg.Dashboard.LayoutSeed,
		ResponderSeed: responderSeed,
	}, logger.Named("dashboard"))

	handlers := routes.Handlers{
		Vcons:     controllers.NewVconController(vcons, logger),
		Dashboard: controllers.NewDashboardController(session, logger),
	}

	var digests services.DigestReader
	if cfg.Postgres.DSN != "" {
		store, err := services.OpenDigestStore(ctx, cfg.Postgres.DSN)
		if err != nil {
			logger.Warn("digests disabled", zap.Error(err))
		} else {
			defer store.Close()
			digests = store
			handlers.Digests = controllers.NewDigestController(store, logger)
		}
	}

	if client, err := services.NewOpenAIClient(cfg.OpenAI); err != nil {
		logger.Warn("assistant threads disabled", zap.Error(err))
	} else {
		llm := services.NewOpenAIService(client, cfg.OpenAI.Model, logger.Named("openai"))
		threadStore := services.NewThreadStore(db, cfg.DynamoDB.ThreadTable, logger.Named("threads"))
		threads := assistant.NewThreadService(threadStore, llm, cfg.Assistant.Instructions, cfg.Assistant.HistoryLimit, logger.Named("assistant"))
		if cfg.Assistant.GroundWithFilteredSet {
			threads.WithGrounding(services.NewRAGService(digests), session)
		}
		handlers.Chat = controllers.NewChatController(threads, logger)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: routes.SetupRouter(handlers, logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return session.Run(gctx)
	})
	g.Go(func() error {
		snap, err := session.LoadMore(gctx)
		if err != nil {
			return nil
		}
		logger.Info("initial page loaded", zap.Int("records", snap.TotalRecords), zap.String("notice", snap.Notice))
		return nil
	})
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
