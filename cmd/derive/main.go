package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/vatsal3003/imgderive/internal/cli"
	"github.com/vatsal3003/imgderive/internal/config"
	"github.com/vatsal3003/imgderive/internal/pipeline"
	"github.com/vatsal3003/imgderive/pkg/models"
)

func main() {
	var (
		policyFlags cli.PolicyFlags
		outputDir   string
	)
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	policyFlags.Register(fs)
	fs.StringVar(&outputDir, "out", "", "output directory (default from OUTPUT_DIR)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] image...\n", os.Args[0])
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

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
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}

	policy, err := policyFlags.Policy()
	if err != nil {
		logger.Error("invalid policy", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := pipeline.New(cfg, func(pr models.Progress) { cli.WriteProgress(os.Stdout, pr) }, logger)
	summary := p.ProcessJob(ctx, models.NewBatchJob(fs.Args(), outputDir, policy))
	cli.PrintSummary(os.Stdout, summary)
	if summary.Error != "" {
		stop()
		os.Exit(1)
	}
}
