package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/vatsal3003/imgderive/internal/cli"
	"github.com/vatsal3003/imgderive/internal/config"
	"github.com/vatsal3003/imgderive/internal/journal"
	"github.com/vatsal3003/imgderive/pkg/models"
)

func main() {
	consumerName := flag.String("name", "imgderive-journal", "consumer name the read position is stored under")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		config.NewConfig().Logger().Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger()
	if cfg.JournalStream == "" {
		logger.Error("JOURNAL_STREAM is not set")
		os.Exit(2)
	}

	j, err := journal.Open(cfg.JournalOptions(), logger)
	if err != nil {
		logger.Error("failed to open journal", "error", err)
		os.Exit(1)
	}
	defer j.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("following journal, press CTRL+C to stop", "stream", cfg.JournalStream, "consumer", *consumerName)
	err = j.Follow(ctx, *consumerName, func(s models.BatchSummary) {
		cli.PrintSummary(os.Stdout, s)
	})
	if err != nil {
		logger.Error("failed to follow journal", "error", err)
	}
}
