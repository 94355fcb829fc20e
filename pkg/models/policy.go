package models

import "fmt"

// Mode names the kind of derivative a policy produces.
type Mode string

const (
	ModeSrcset   Mode = "srcset"
	ModeOptimize Mode = "optimize"
	ModeResize   Mode = "resize"
)

// Policy is the immutable configuration of one batch. It is one of
// SrcsetPolicy, OptimizePolicy or ResizePolicy.
type Policy interface {
	Mode() Mode
	isPolicy()
}

// SrcsetMaxWidths are the selectable maximum widths for a srcset batch.
var SrcsetMaxWidths = []int{3840, 2560, 1920, 1600, 1280}

// SrcsetBreakpoints are the standard widths a srcset is built from, widest first.
var SrcsetBreakpoints = []int{3840, 2560, 1920, 1600, 1280, 1024, 640, 320}

// SrcsetQuality is the fixed encode quality for srcset variants.
const SrcsetQuality = 0.9

type SrcsetPolicy struct {
	MaxWidth int `json:"max_width"`
}

func (SrcsetPolicy) Mode() Mode { return ModeSrcset }
func (SrcsetPolicy) isPolicy()  {}

// NewSrcsetPolicy returns a policy for maxWidth, which must be one of SrcsetMaxWidths.
func NewSrcsetPolicy(maxWidth int) (SrcsetPolicy, error) {
	for _, w := range SrcsetMaxWidths {
		if w == maxWidth {
			return SrcsetPolicy{MaxWidth: maxWidth}, nil
		}
	}
	return SrcsetPolicy{}, fmt.Errorf("unsupported srcset max width %d (allowed %v)", maxWidth, SrcsetMaxWidths)
}

// DerivedWidths returns the breakpoints not wider than MaxWidth, widest first.
func (p SrcsetPolicy) DerivedWidths() []int {
	widths := make([]int, 0, len(SrcsetBreakpoints))
	for _, w := range SrcsetBreakpoints {
		if w <= p.MaxWidth {
			widths = append(widths, w)
		}
	}
	return widths
}

type OptimizeMode string

const (
	OptimizeAuto   OptimizeMode = "auto"
	OptimizeManual OptimizeMode = "manual"
)

// DefaultTargetSizeMB is the manual size cap when none is chosen.
const DefaultTargetSizeMB = 1.2

// ManualQuality is the starting quality of a manual optimize pass.
const ManualQuality = 0.5

type OptimizePolicy struct {
	OptimizeMode OptimizeMode `json:"mode"`
	TargetSizeMB float64      `json:"target_size_mb,omitempty"`
	// CompressionLevel is 0-100; nil keeps ManualQuality.
	CompressionLevel *int `json:"compression_level,omitempty"`
}

func (OptimizePolicy) Mode() Mode { return ModeOptimize }
func (OptimizePolicy) isPolicy()  {}

// TargetBytes is the manual size cap in bytes.
func (p OptimizePolicy) TargetBytes() int64 {
	mb := p.TargetSizeMB
	if mb <= 0 {
		mb = DefaultTargetSizeMB
	}
	return MB(mb)
}

// Quality is the starting quality fraction of a manual optimize pass.
func (p OptimizePolicy) Quality() float64 {
	if p.CompressionLevel == nil {
		return ManualQuality
	}
	level := min(max(*p.CompressionLevel, 0), 100)
	return 1 - float64(level)/100
}

type ResizeMode string

const (
	ResizeDimensions ResizeMode = "dimensions"
	ResizePercentage ResizeMode = "percentage"
)

type ResizePolicy struct {
	ResizeMode ResizeMode `json:"mode"`
	Width      int        `json:"width,omitempty"`
	Height     int        `json:"height,omitempty"`
	LockAspect bool       `json:"lock_aspect"`
	Percentage int        `json:"percentage,omitempty"`
}

func (ResizePolicy) Mode() Mode { return ModeResize }
func (ResizePolicy) isPolicy()  {}

// MiB is the byte multiplier used for every MB figure in a policy.
const MiB = 1024 * 1024

// MB converts a size in MB to whole bytes.
func MB(v float64) int64 {
	return int64(v * MiB)
}
