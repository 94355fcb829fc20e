// Package validate decides whether a source image can be processed under a policy.
package validate

import (
	"errors"
	"fmt"

	"github.com/vatsal3003/imgderive/pkg/models"
)

var (
	// ErrNoDimensions means a dimensions resize was requested without a width or height.
	ErrNoDimensions = errors.New("please provide dimensions or adjust the percentage")
	// ErrPercentageRange means a percentage resize is outside 1-200.
	ErrPercentageRange = errors.New("resize percentage must be between 1 and 200")
	ErrNegativeSize    = errors.New("resize dimensions must not be negative")
)

// Decision is the outcome of validating one source image.
type Decision struct {
	Accepted bool
	Reason   string
	Detail   models.RejectionDetail
}

func accept() Decision { return Decision{Accepted: true} }

// Validate checks src against p. It has no side effects.
func Validate(src *models.SourceImage, p models.Policy) Decision {
	if p, ok := p.(models.SrcsetPolicy); ok && src.NaturalWidth < p.MaxWidth {
		return Decision{
			Reason: fmt.Sprintf("The image %s has a width of %dpx, which is smaller than the selected resolution (%dpx).",
				src.Name, src.NaturalWidth, p.MaxWidth),
			Detail: models.RejectionDetail{
				ActualWidth:   src.NaturalWidth,
				RequiredWidth: p.MaxWidth,
				Preview:       src.Name,
			},
		}
	}
	return accept()
}

// CheckPrecondition validates the policy itself before a batch may start.
func CheckPrecondition(p models.Policy) error {
	switch p := p.(type) {
	case models.SrcsetPolicy:
		if _, err := models.NewSrcsetPolicy(p.MaxWidth); err != nil {
			return err
		}
	case models.OptimizePolicy:
		switch p.OptimizeMode {
		case models.OptimizeAuto, models.OptimizeManual:
		default:
			return fmt.Errorf("unknown optimize mode %q", p.OptimizeMode)
		}
	case models.ResizePolicy:
		switch p.ResizeMode {
		case models.ResizeDimensions:
			if p.Width < 0 || p.Height < 0 {
				return ErrNegativeSize
			}
			if p.Width == 0 && p.Height == 0 {
				return ErrNoDimensions
			}
		case models.ResizePercentage:
			if p.Percentage < 1 || p.Percentage > 200 {
				return ErrPercentageRange
			}
		default:
			return fmt.Errorf("unknown resize mode %q", p.ResizeMode)
		}
	case nil:
		return errors.New("no policy selected")
	}
	return nil
}
