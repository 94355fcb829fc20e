// Package pipeline runs a batch job end to end: read the images, derive the
// variants, then write them, their archive and any embed markup to disk.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vatsal3003/imgderive/internal/batch"
	"github.com/vatsal3003/imgderive/internal/config"
	"github.com/vatsal3003/imgderive/internal/output"
	"github.com/vatsal3003/imgderive/internal/report"
	"github.com/vatsal3003/imgderive/internal/resize"
	"github.com/vatsal3003/imgderive/internal/upload"
	"github.com/vatsal3003/imgderive/pkg/models"
)

type Pipeline struct {
	orch       *batch.Orchestrator
	archiver   output.Archiver
	pathPrefix string
	logger     *slog.Logger
}

// New wires the executor and orchestrator from cfg. onProgress may be nil.
func New(cfg *config.Config, onProgress func(models.Progress), logger *slog.Logger) *Pipeline {
	exec := resize.NewExecutor(resize.NewImagingCodec(), cfg.CompressAttempts, logger)
	orch := batch.New(exec, batch.Config{
		Concurrency: cfg.Concurrency,
		OnProgress:  onProgress,
		Logger:      logger,
	})
	return &Pipeline{
		orch:       orch,
		archiver:   output.ZipArchiver{},
		pathPrefix: cfg.PathPrefix,
		logger:     logger,
	}
}

// ProcessJob runs job and writes its outputs below job.OutputDir. Per-image
// problems end up in the summary; only job-level problems set Error.
func (p *Pipeline) ProcessJob(ctx context.Context, job models.BatchJob) models.BatchSummary {
	summary := models.BatchSummary{JobID: job.JobID, Images: len(job.ImagePaths)}

	run, err := p.run(ctx, job)
	if err != nil {
		summary.Error = err.Error()
		return summary
	}
	summary.BatchID = run.ID
	summary.Rejections = run.Rejections

	agg := output.NewAggregator(output.DirSaver{Dir: job.OutputDir}, p.archiver, p.logger)
	for _, v := range run.Variants() {
		if _, err := agg.DownloadOne(ctx, run, v); err != nil {
			summary.Error = err.Error()
			return summary
		}
		summary.Variants++
	}

	if output.CanDownloadAll(run) {
		name, err := agg.DownloadAll(ctx, run)
		if err != nil {
			summary.Error = err.Error()
			return summary
		}
		summary.Archive = name
	}

	if run.Policy.Mode() == models.ModeSrcset {
		if err := p.writeMarkup(ctx, run, output.DirSaver{Dir: job.OutputDir}); err != nil {
			summary.Error = err.Error()
			return summary
		}
	}

	if s, ok := p.orch.Reporter().Flush(); ok {
		p.logSummary(s)
	}
	return summary
}

func (p *Pipeline) run(ctx context.Context, job models.BatchJob) (*models.BatchRun, error) {
	policy, err := job.Policy.Policy()
	if err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	uploads, err := upload.FromPaths(job.ImagePaths)
	if err != nil {
		return nil, err
	}

	return p.orch.Run(ctx, uploads, policy)
}

func (p *Pipeline) writeMarkup(ctx context.Context, run *models.BatchRun, saver output.Saver) error {
	for _, out := range run.Outputs {
		if out.State != models.ImageDone {
			continue
		}
		markup, err := output.EmbedMarkup(run, out.Source.ID, p.pathPrefix)
		if err != nil {
			return err
		}
		if err := saver.Save(ctx, []byte(markup+"\n"), out.Source.ID+".html"); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) logSummary(s report.Summary) {
	for _, e := range s.Entries {
		p.logger.Warn(e.Message,
			"batch_id", s.BatchID,
			"source", e.SourceID,
			"kind", e.Kind,
			"actual_width", e.Detail.ActualWidth,
			"required_width", e.Detail.RequiredWidth,
		)
	}
}
