// Package cli holds the command-line surface shared by the binaries.
package cli

import (
	"flag"
	"fmt"

	"github.com/vatsal3003/imgderive/pkg/models"
)

// PolicyFlags collects the flags that select a batch policy.
type PolicyFlags struct {
	Mode string

	MaxWidth int

	Manual   bool
	TargetMB float64
	Level    int

	Width   int
	Height  int
	Unlock  bool
	Percent int
}

func (f *PolicyFlags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Mode, "mode", string(models.ModeSrcset), "srcset, optimize or resize")
	fs.IntVar(&f.MaxWidth, "max-width", 1920, "srcset: widest variant (3840, 2560, 1920, 1600 or 1280)")
	fs.BoolVar(&f.Manual, "manual", false, "optimize: use -target-mb instead of automatic size tiers")
	fs.Float64Var(&f.TargetMB, "target-mb", models.DefaultTargetSizeMB, "optimize: size cap in MB for manual mode")
	fs.IntVar(&f.Level, "level", -1, "optimize: compression level 0-100 for manual mode, -1 keeps the default quality")
	fs.IntVar(&f.Width, "width", 0, "resize: target width in pixels")
	fs.IntVar(&f.Height, "height", 0, "resize: target height in pixels")
	fs.BoolVar(&f.Unlock, "no-aspect", false, "resize: do not derive the missing dimension from the aspect ratio")
	fs.IntVar(&f.Percent, "percent", 0, "resize: scale by percentage (1-200) instead of dimensions")
}

// Policy builds the policy the flags describe.
func (f *PolicyFlags) Policy() (models.Policy, error) {
	switch models.Mode(f.Mode) {
	case models.ModeSrcset:
		return models.NewSrcsetPolicy(f.MaxWidth)

	case models.ModeOptimize:
		if !f.Manual {
			return models.OptimizePolicy{OptimizeMode: models.OptimizeAuto}, nil
		}
		p := models.OptimizePolicy{OptimizeMode: models.OptimizeManual, TargetSizeMB: f.TargetMB}
		if f.Level >= 0 {
			level := f.Level
			p.CompressionLevel = &level
		}
		return p, nil

	case models.ModeResize:
		if f.Percent != 0 {
			return models.ResizePolicy{ResizeMode: models.ResizePercentage, Percentage: f.Percent}, nil
		}
		return models.ResizePolicy{
			ResizeMode: models.ResizeDimensions,
			Width:      f.Width,
			Height:     f.Height,
			LockAspect: !f.Unlock,
		}, nil
	}
	return nil, fmt.Errorf("unknown mode %q", f.Mode)
}
