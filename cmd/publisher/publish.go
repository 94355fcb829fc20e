package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vatsal3003/imgderive/internal/cli"
	"github.com/vatsal3003/imgderive/internal/config"
	"github.com/vatsal3003/imgderive/internal/rabbitmq"
	"github.com/vatsal3003/imgderive/pkg/models"
)

func main() {
	var (
		policyFlags cli.PolicyFlags
		wait        bool
		watch       bool
		timeout     time.Duration
	)
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	policyFlags.Register(fs)
	fs.BoolVar(&wait, "wait", false, "wait for the worker's batch summary")
	fs.BoolVar(&watch, "watch", false, "print progress events while waiting")
	fs.DurationVar(&timeout, "timeout", 10*time.Minute, "how long -wait waits for the summary")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] image...\n", os.Args[0])
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if watch {
		wait = true
	}
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		config.NewConfig().Logger().Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger()

	policy, err := policyFlags.Policy()
	if err != nil {
		logger.Error("invalid policy", "error", err)
		os.Exit(2)
	}

	imagePaths := make([]string, 0, fs.NArg())
	for _, p := range fs.Args() {
		abs, err := filepath.Abs(p)
		if err != nil {
			logger.Error("failed to resolve image path", "path", p, "error", err)
			os.Exit(1)
		}
		imagePaths = append(imagePaths, abs)
	}

	// Connect to RabbitMQ
	mqClient, err := rabbitmq.NewRabbitMQClient(cfg.RabbitMQURL, cfg.QueueName, cfg.ProgressExchange, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer mqClient.Close()

	outputDir, err := filepath.Abs(filepath.Join(cfg.OutputDir, time.Now().Format("20060102150405")))
	if err != nil {
		logger.Error("failed to resolve output directory", "error", err)
		return
	}
	job := models.NewBatchJob(imagePaths, outputDir, policy)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var replyTo string
	if wait {
		if replyTo, err = mqClient.DeclareReplyQueue(); err != nil {
			logger.Error("failed to prepare reply queue", "error", err)
			return
		}
	}
	if watch {
		events, err := mqClient.SubscribeProgress()
		if err != nil {
			logger.Error("failed to subscribe to progress", "error", err)
			return
		}
		go cli.PrintProgress(os.Stdout, events)
	}

	if err := mqClient.PublishJob(ctx, job, replyTo); err != nil {
		logger.Error("failed to publish job", "error", err)
		return
	}
	fmt.Printf("Published %s job %s for %d image(s) into %s\n", policy.Mode(), job.JobID, len(imagePaths), outputDir)

	if !wait {
		return
	}
	summary, err := mqClient.AwaitSummary(ctx, replyTo, job.JobID)
	if err != nil {
		logger.Error("failed to receive summary", "job_id", job.JobID, "error", err)
		return
	}
	cli.PrintSummary(os.Stdout, summary)
}
