// Package resize produces derived variants from source images.
package resize

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/vatsal3003/imgderive/pkg/models"
)

// DefaultAttempts bounds the quality search of one budget target.
const DefaultAttempts = 10

// Handle is a source image plus its decoded raster, decoded at most once and
// shared by every variant of that image.
type Handle struct {
	Source *models.SourceImage

	once sync.Once
	img  image.Image
	err  error
}

func NewHandle(src *models.SourceImage) *Handle {
	return &Handle{Source: src}
}

func (h *Handle) raster(c Codec) (image.Image, error) {
	h.once.Do(func() {
		h.img, h.err = c.Decode(h.Source.Data)
	})
	return h.img, h.err
}

type Executor struct {
	codec    Codec
	attempts int
	logger   *slog.Logger
}

func NewExecutor(codec Codec, attempts int, logger *slog.Logger) *Executor {
	if codec == nil {
		codec = NewImagingCodec()
	}
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		codec:    codec,
		attempts: attempts,
		logger:   logger,
	}
}

func (e *Executor) Plan(src *models.SourceImage, p models.Policy) ([]Target, error) {
	return Plan(src, p)
}

// Produce performs one transformation of h into a variant.
func (e *Executor) Produce(ctx context.Context, h *Handle, t Target) (*models.DerivedVariant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := h.Source
	switch t.Kind {
	case KindWidth, KindDimensions:
		return e.resample(h, t)
	case KindBudget:
		if t.Passthrough {
			return &models.DerivedVariant{
				SourceID:         src.ID,
				TargetSizeBudget: t.Budget,
				ResultWidth:      src.NaturalWidth,
				ResultHeight:     src.NaturalHeight,
				ResultBytes:      src.OriginalSize,
				Extension:        src.Extension,
				Blob:             src.Data,
			}, nil
		}
		return e.compress(h, t)
	}
	return nil, fmt.Errorf("%w: kind %d", ErrUnsupportedTarget, t.Kind)
}

func (e *Executor) resample(h *Handle, t Target) (*models.DerivedVariant, error) {
	src := h.Source
	img, err := h.raster(e.codec)
	if err != nil {
		return nil, err
	}

	format, ext := imaging.PNG, "png"
	if t.Kind == KindWidth {
		format, ext = OutputFormat(src.Extension)
	}

	dst := e.codec.Resize(img, t.Width, t.Height)
	blob, err := e.codec.Encode(dst, format, t.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s at %dx%d: %w", src.Name, t.Width, t.Height, err)
	}

	b := dst.Bounds()
	return &models.DerivedVariant{
		SourceID:     src.ID,
		TargetWidth:  t.Width,
		ResultWidth:  b.Dx(),
		ResultHeight: b.Dy(),
		ResultBytes:  int64(len(blob)),
		Extension:    ext,
		Blob:         blob,
	}, nil
}

func (e *Executor) compress(h *Handle, t Target) (*models.DerivedVariant, error) {
	src := h.Source
	img, err := h.raster(e.codec)
	if err != nil {
		return nil, err
	}

	format, ext := OutputFormat(src.Extension)
	attempts := 1
	if Lossy(format) {
		attempts = e.attempts
	}
	blob, err := searchQuality(t.Quality, t.Budget, attempts, func(q float64) ([]byte, error) {
		return e.codec.Encode(img, format, q)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compress %s: %w", src.Name, err)
	}

	if int64(len(blob)) >= src.OriginalSize {
		e.logger.Debug("compression did not shrink image, keeping original",
			"source", src.ID, "original", src.OriginalSize, "compressed", len(blob))
		blob, ext = src.Data, src.Extension
	} else if int64(len(blob)) > t.Budget {
		e.logger.Debug("size budget not reached",
			"source", src.ID, "budget", t.Budget, "compressed", len(blob))
	}

	b := img.Bounds()
	return &models.DerivedVariant{
		SourceID:         src.ID,
		TargetSizeBudget: t.Budget,
		ResultWidth:      b.Dx(),
		ResultHeight:     b.Dy(),
		ResultBytes:      int64(len(blob)),
		Extension:        ext,
		Blob:             blob,
	}, nil
}
