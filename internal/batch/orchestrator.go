// Package batch drives a set of uploads through validation and transformation.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vatsal3003/imgderive/internal/report"
	"github.com/vatsal3003/imgderive/internal/resize"
	"github.com/vatsal3003/imgderive/internal/upload"
	"github.com/vatsal3003/imgderive/internal/validate"
	"github.com/vatsal3003/imgderive/pkg/models"
)

// ErrPrecondition wraps every reason a batch refused to start.
var ErrPrecondition = errors.New("batch precondition failed")

// Executor plans and performs the transformations of one image.
type Executor interface {
	Plan(src *models.SourceImage, p models.Policy) ([]resize.Target, error)
	Produce(ctx context.Context, h *resize.Handle, t resize.Target) (*models.DerivedVariant, error)
}

type Config struct {
	// Concurrency is the number of images in flight; 1 keeps upload order.
	Concurrency int
	// OnProgress is called once per finished image, in increasing Completed order.
	OnProgress func(models.Progress)
	Reporter   *report.Reporter
	Logger     *slog.Logger
}

func (c *Config) defaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.Reporter == nil {
		c.Reporter = report.NewReporter()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Orchestrator owns at most one live run. Starting a run discards the previous one.
type Orchestrator struct {
	exec Executor
	cfg  Config

	mu      sync.Mutex
	current *Run
}

func New(exec Executor, cfg Config) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{exec: exec, cfg: cfg}
}

// Reporter returns the reporter completed runs hand their rejections to.
func (o *Orchestrator) Reporter() *report.Reporter { return o.cfg.Reporter }

// Current returns the live or most recently started run, or nil.
func (o *Orchestrator) Current() *Run {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Start validates the policy, discards the previous run and processes
// uploads in the background.
func (o *Orchestrator) Start(ctx context.Context, uploads []upload.Upload, p models.Policy) (*Run, error) {
	if err := validate.CheckPrecondition(p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := newRun(p, len(uploads), cancel)

	o.mu.Lock()
	if prev := o.current; prev != nil {
		prev.cancel()
		o.cfg.Logger.Info("discarding previous batch", "batch_id", prev.id)
	}
	o.cfg.Reporter.Reset()
	o.current = r
	r.setRunning()
	o.mu.Unlock()

	o.cfg.Logger.Info("batch started", "batch_id", r.id, "mode", p.Mode(), "images", len(uploads))
	go o.execute(runCtx, r, uploads)
	return r, nil
}

// Run is Start followed by Wait.
func (o *Orchestrator) Run(ctx context.Context, uploads []upload.Upload, p models.Policy) (*models.BatchRun, error) {
	r, err := o.Start(ctx, uploads, p)
	if err != nil {
		return nil, err
	}
	return r.Wait(), nil
}

func (o *Orchestrator) execute(ctx context.Context, r *Run, uploads []upload.Upload) {
	defer r.cancel()

	ids := upload.IDs(uploads)
	sources := make([]*models.SourceImage, len(uploads))
	decodeErrs := make([]error, len(uploads))
	for i, u := range uploads {
		src, err := upload.Describe(u)
		if err != nil {
			src = &models.SourceImage{
				Name:         u.Name,
				Extension:    upload.Extension(u.Name),
				MIME:         u.MIME,
				OriginalSize: int64(len(u.Data)),
				Data:         u.Data,
			}
			decodeErrs[i] = err
		}
		src.ID = ids[i]
		if err := r.store.Register(src); err != nil {
			// Without a store entry the image can only be accounted for as a rejection.
			o.recordFailure(r, i, src, fmt.Errorf("failed to register source: %w", err))
			o.deliver(r, src.ID, models.ImageFailed)
			continue
		}
		sources[i] = src
	}

	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)
	for i := range sources {
		if sources[i] == nil {
			continue
		}
		g.Go(func() error {
			o.processImage(ctx, r, i, sources[i], decodeErrs[i])
			return nil
		})
	}
	_ = g.Wait()

	o.complete(r)
}

func (o *Orchestrator) processImage(ctx context.Context, r *Run, idx int, src *models.SourceImage, decodeErr error) {
	if decodeErr != nil {
		o.fail(r, idx, src, decodeErr)
		return
	}

	decision := validate.Validate(src, r.policy)
	if !decision.Accepted {
		o.cfg.Logger.Warn("image rejected", "batch_id", r.id, "source", src.ID, "reason", decision.Reason)
		r.reject(idx, models.Rejection{
			SourceID: src.ID,
			Name:     src.Name,
			Kind:     models.ValidationRejection,
			Reason:   decision.Reason,
			Detail:   decision.Detail,
		})
		o.finish(r, src, models.ImageRejected, nil)
		return
	}

	targets, err := o.exec.Plan(src, r.policy)
	if err != nil {
		o.fail(r, idx, src, err)
		return
	}

	// One future per variant, joined before the image counts as done.
	h := resize.NewHandle(src)
	variants := make([]models.DerivedVariant, len(targets))
	vg, vctx := errgroup.WithContext(ctx)
	for j, t := range targets {
		vg.Go(func() error {
			v, err := o.exec.Produce(vctx, h, t)
			if err != nil {
				return err
			}
			variants[j] = *v
			return nil
		})
	}
	if err := vg.Wait(); err != nil {
		o.fail(r, idx, src, err)
		return
	}

	o.finish(r, src, models.ImageDone, variants)
}

func (o *Orchestrator) fail(r *Run, idx int, src *models.SourceImage, err error) {
	o.recordFailure(r, idx, src, err)
	o.finish(r, src, models.ImageFailed, nil)
}

func (o *Orchestrator) recordFailure(r *Run, idx int, src *models.SourceImage, err error) {
	o.cfg.Logger.Error("image failed", "batch_id", r.id, "source", src.ID, "error", err)
	r.reject(idx, models.Rejection{
		SourceID: src.ID,
		Name:     src.Name,
		Kind:     models.TransformationFailure,
		Reason:   fmt.Sprintf("The image %s could not be processed: %v", src.Name, err),
		Detail: models.RejectionDetail{
			ActualWidth: src.NaturalWidth,
			Preview:     src.Name,
		},
	})
}

func (o *Orchestrator) finish(r *Run, src *models.SourceImage, state models.ImageState, variants []models.DerivedVariant) {
	if err := r.store.Finish(src.ID, state, variants); err != nil {
		o.cfg.Logger.Error("failed to record image result", "batch_id", r.id, "source", src.ID, "error", err)
	}
	o.deliver(r, src.ID, state)
}

// deliver counts one finished image and reports it. Delivery is serialized
// so observers see Completed strictly increase.
func (o *Orchestrator) deliver(r *Run, sourceID string, state models.ImageState) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	p := r.advance(sourceID, state)
	if o.cfg.OnProgress != nil {
		o.cfg.OnProgress(p)
	}
}

func (o *Orchestrator) complete(r *Run) {
	o.mu.Lock()
	current := o.current == r
	r.setCompleted()
	if current {
		o.cfg.Reporter.Report(r.id, r.rejectionList())
	}
	o.mu.Unlock()

	snap := r.Snapshot()
	o.cfg.Logger.Info("batch completed",
		"batch_id", r.id,
		"images", snap.Total,
		"variants", len(snap.Variants()),
		"rejections", len(snap.Rejections),
		"elapsed", snap.FinishedAt.Sub(snap.StartedAt).Round(time.Millisecond),
	)
	close(r.done)
}
