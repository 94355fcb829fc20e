// Package output names, saves and bundles the variants of a finished batch.
package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vatsal3003/imgderive/pkg/models"
)

var (
	// ErrNotReady means the batch cannot be bundled yet, or has nothing to bundle.
	ErrNotReady      = errors.New("batch is not ready for download")
	ErrUnknownSource = errors.New("unknown source")
)

type Aggregator struct {
	saver    Saver
	archiver Archiver
	logger   *slog.Logger
}

func NewAggregator(saver Saver, archiver Archiver, logger *slog.Logger) *Aggregator {
	if archiver == nil {
		archiver = ZipArchiver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{saver: saver, archiver: archiver, logger: logger}
}

// CanDownloadAll reports whether run has completed and every accepted image
// finished with at least one variant. Rejected and failed images are left out.
func CanDownloadAll(run *models.BatchRun) bool {
	if run.Status != models.StatusCompleted {
		return false
	}
	accepted := 0
	for _, out := range run.Outputs {
		switch out.State {
		case models.ImagePending:
			return false
		case models.ImageDone:
			if len(out.Variants) == 0 {
				return false
			}
			accepted++
		}
	}
	return accepted > 0
}

// Entries lists every successful variant of run under its archive path.
func Entries(run *models.BatchRun) []Entry {
	mode := run.Policy.Mode()
	names := downloadNames(run)
	var entries []Entry
	for _, out := range run.Outputs {
		if out.State != models.ImageDone {
			continue
		}
		for _, v := range out.Variants {
			entries = append(entries, Entry{
				Name: archivePath(mode, names[variantKey{out.Source.ID, v.TargetWidth}]),
				Data: v.Blob,
			})
		}
	}
	return entries
}

// DownloadOne saves a single variant of run and returns the name it used.
func (a *Aggregator) DownloadOne(ctx context.Context, run *models.BatchRun, v models.DerivedVariant) (string, error) {
	out, ok := run.Output(v.SourceID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSource, v.SourceID)
	}

	name, ok := downloadNames(run)[variantKey{v.SourceID, v.TargetWidth}]
	if !ok {
		name = FileName(run.Policy.Mode(), out.Source, v)
	}
	if err := a.saver.Save(ctx, v.Blob, name); err != nil {
		return "", err
	}
	a.logger.Debug("saved variant", "batch_id", run.ID, "name", name, "bytes", len(v.Blob))
	return name, nil
}

// DownloadAll packs every successful variant of run into one archive and
// saves it. It refuses while any accepted image is still pending.
func (a *Aggregator) DownloadAll(ctx context.Context, run *models.BatchRun) (string, error) {
	if !CanDownloadAll(run) {
		return "", ErrNotReady
	}

	entries := Entries(run)
	blob, err := a.archiver.Pack(entries)
	if err != nil {
		return "", fmt.Errorf("failed to pack batch %s: %w", run.ID, err)
	}

	name := ArchiveName(run.Policy.Mode())
	if err := a.saver.Save(ctx, blob, name); err != nil {
		return "", err
	}
	a.logger.Info("saved archive", "batch_id", run.ID, "name", name, "entries", len(entries), "bytes", len(blob))
	return name, nil
}
