// Package main runs the background job worker (inline image offload to S3).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/campushub/backend/config"
	"github.com/campushub/backend/internal/models"
	"github.com/campushub/backend/internal/worker"
	"github.com/campushub/backend/pkg/docstore"
	"github.com/campushub/backend/pkg/queue"
	"github.com/campushub/backend/pkg/redis"
	"github.com/campushub/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.AWS.Region == "" {
		logger.Fatal("AWS_REGION not set; the media worker needs S3")
	}

	ctx := context.Background()
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Cfg := storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		MediaBucket:          cfg.AWS.MediaBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}
	s3Client, err := storage.NewS3(ctx, s3Cfg, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	itemColl := docstore.NewCollection[models.Item](rdb.Client, docstore.CollectionItems)
	eventColl := docstore.NewCollection[models.Event](rdb.Client, docstore.CollectionEvents)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewMediaProcessor(itemColl, eventColl, s3Client, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
