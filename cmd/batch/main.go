// cmd/batch/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/al-ameen36/vcon-bubble-maps/config"
	"github.com/al-ameen36/vcon-bubble-maps/logging"
	"github.com/al-ameen36/vcon-bubble-maps/services"
)

const connectAttempts = 3

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

	if cfg.Postgres.DSN == "" {
		logger.Fatal("postgres.dsn is required for the digest batch")
	}

	dynamoClient, err := services.GetDynamoDBClient(ctx, cfg.DynamoDB)
	if err != nil {
		logger.Fatal("failed to create dynamodb client", zap.Error(err))
	}
	vcons := services.NewVconStore(dynamoClient, cfg.DynamoDB.VconTable, logger.Named("vcons"))

	var digests *services.DigestStore
	for i := 0; i < connectAttempts; i++ {
		digests, err = services.OpenDigestStore(ctx, cfg.Postgres.DSN)
		if err == nil {
			break
		}
		logger.Warn("failed to open digest store", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		logger.Fatal("failed to open digest store after retries", zap.Error(err))
	}
	defer digests.Close()
	if err := digests.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to prepare digest schema", zap.Error(err))
	}

	var narrator services.Completer
	if cfg.Batch.Narratives {
		client, err := services.NewOpenAIClient(cfg.OpenAI)
		if err != nil {
			logger.Warn("narratives disabled", zap.Error(err))
		} else {
			narrator = services.NewOpenAIService(client, cfg.OpenAI.Model, logger.Named("openai"))
		}
	}

	processor := services.NewBatchProcessor(vcons, digests, narrator, cfg.Dashboard.PageSize, logger.Named("batch"))
	logger.Info("starting digest batch", zap.Duration("interval", cfg.Batch.Interval()))

	if err := processor.ProcessDigests(ctx); err != nil {
		logger.Error("initial digest run failed", zap.Error(err))
	}

	ticker := time.NewTicker(cfg.Batch.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("digest batch stopped")
			return
		case <-ticker.C:
			if err := processor.ProcessDigests(ctx); err != nil {
				logger.Error("digest run failed", zap.Error(err))
			}
		}
	}
}
