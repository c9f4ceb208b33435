package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"monksiq/backend/internal/app"
	"monksiq/backend/internal/config"
	"monksiq/backend/internal/logger"
)

func main() {
	log := logger.Setup(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer deps.DB.Close()

	application, err := app.New(cfg, deps.DB, deps.Index, deps.NSQProducer, log)
	if err != nil {
		return err
	}

	if cfg.EnableWorker {
		consumers, err := startConsumers(cfg, application)
		if err != nil {
			return err
		}
		defer func() {
			for _, c := range consumers {
				c.Stop()
			}
		}()
	}

	return application.Run(ctx)
}

// startConsumers subscribes the ingestion pipeline to its topics. Both
// consumers share one channel so replicas split the work.
func startConsumers(cfg *config.Config, application *app.App) ([]*nsq.Consumer, error) {
	nsqCfg := nsq.NewConfig()

	taskConsumer, err := nsq.NewConsumer(config.TopicIngestTask, config.WorkerChannel, nsqCfg)
	if err != nil {
		return nil, err
	}
	taskConsumer.AddHandler(application.TaskConsumer)

	resultConsumer, err := nsq.NewConsumer(config.TopicIngestResult, config.WorkerChannel, nsqCfg)
	if err != nil {
		return nil, err
	}
	resultConsumer.AddHandler(application.ResultConsumer)

	for _, c := range []*nsq.Consumer{taskConsumer, resultConsumer} {
		if err := c.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
			return nil, err
		}
	}

	slog.Info("NSQ consumers connected", "channel", config.WorkerChannel)
	return []*nsq.Consumer{taskConsumer, resultConsumer}, nil
}
