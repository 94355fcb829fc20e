package resize

import (
	"errors"
	"fmt"
	"math"

	"github.com/vatsal3003/imgderive/pkg/models"
)

var ErrUnsupportedTarget = errors.New("unsupported target")

type TargetKind int

const (
	// KindWidth resamples to a breakpoint width in the source's format family.
	KindWidth TargetKind = iota
	// KindDimensions resamples to explicit dimensions and encodes PNG.
	KindDimensions
	// KindBudget recompresses at the source dimensions toward a size cap.
	KindBudget
)

// Target is one unit of work for the executor.
type Target struct {
	Kind    TargetKind
	Width   int
	Height  int
	Budget  int64
	Quality float64
	// Passthrough keeps the original bytes of a budget target untouched.
	Passthrough bool
}

// Plan lists the targets src needs under p, in output order.
func Plan(src *models.SourceImage, p models.Policy) ([]Target, error) {
	switch p := p.(type) {
	case models.SrcsetPolicy:
		widths := p.DerivedWidths()
		targets := make([]Target, 0, len(widths))
		for _, w := range widths {
			targets = append(targets, Target{
				Kind:    KindWidth,
				Width:   w,
				Height:  scaleHeight(src.NaturalWidth, src.NaturalHeight, w),
				Quality: models.SrcsetQuality,
			})
		}
		return targets, nil

	case models.OptimizePolicy:
		if p.OptimizeMode == models.OptimizeAuto {
			tier := AutoTier(src.OriginalSize)
			t := Target{Kind: KindBudget, Budget: tier.Cap, Quality: tier.Quality}
			if tier.Cap == 0 {
				t.Budget = src.OriginalSize
				t.Passthrough = true
			}
			return []Target{t}, nil
		}
		return []Target{{Kind: KindBudget, Budget: p.TargetBytes(), Quality: p.Quality()}}, nil

	case models.ResizePolicy:
		w, h := ResizeDimensions(src.NaturalWidth, src.NaturalHeight, p)
		return []Target{{Kind: KindDimensions, Width: w, Height: h}}, nil
	}
	return nil, fmt.Errorf("%w: policy %T", ErrUnsupportedTarget, p)
}

// ResizeDimensions computes the output size of a resize policy for an image
// of naturalW x naturalH.
func ResizeDimensions(naturalW, naturalH int, p models.ResizePolicy) (int, int) {
	if p.ResizeMode == models.ResizePercentage {
		return scale(naturalW, p.Percentage), scale(naturalH, p.Percentage)
	}

	w, h := p.Width, p.Height
	if w == 0 {
		w = naturalW
	}
	if h == 0 {
		h = naturalH
	}
	if p.LockAspect {
		switch {
		case p.Width != 0 && p.Height == 0:
			h = scaleHeight(naturalW, naturalH, w)
		case p.Height != 0 && p.Width == 0:
			w = max(int(math.Round(float64(naturalW)*float64(h)/float64(naturalH))), 1)
		}
	}
	return w, h
}

func scaleHeight(naturalW, naturalH, width int) int {
	return max(int(math.Round(float64(naturalH)/float64(naturalW)*float64(width))), 1)
}

func scale(n, percentage int) int {
	return max(int(math.Round(float64(n)*float64(percentage)/100)), 1)
}
