package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/vatsal3003/imgderive/internal/config"
	"github.com/vatsal3003/imgderive/internal/journal"
	"github.com/vatsal3003/imgderive/internal/pipeline"
	"github.com/vatsal3003/imgderive/internal/rabbitmq"
	"github.com/vatsal3003/imgderive/pkg/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.NewConfig().Logger().Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger()

	// Connect to RabbitMQ
	mqClient, err := rabbitmq.NewRabbitMQClient(cfg.RabbitMQURL, cfg.QueueName, cfg.ProgressExchange, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer mqClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	processor := pipeline.New(cfg, func(p models.Progress) {
		if err := mqClient.PublishProgress(ctx, p); err != nil {
			logger.Warn("failed to publish progress", "batch_id", p.BatchID, "error", err)
		}
	}, logger)

	handle := processor.ProcessJob
	if cfg.JournalStream != "" {
		j, err := journal.Open(cfg.JournalOptions(), logger)
		if err != nil {
			logger.Warn("running without journal", "stream", cfg.JournalStream, "error", err)
		} else {
			defer j.Close()
			handle = func(ctx context.Context, job models.BatchJob) models.BatchSummary {
				summary := processor.ProcessJob(ctx, job)
				if err := j.Append(summary); err != nil {
					logger.Warn("failed to journal summary", "job_id", job.JobID, "error", err)
				}
				return summary
			}
		}
	}

	logger.Info("starting worker")
	if err := mqClient.ConsumeJobs(ctx, handle); err != nil {
		logger.Error("failed to start consuming jobs", "error", err)
		return
	}
}
