package models

import (
	"fmt"

	"github.com/google/uuid"
)

// BatchJob is the queue message asking a worker to run one batch.
type BatchJob struct {
	JobID      string     `json:"job_id"`
	ImagePaths []string   `json:"image_paths"`
	OutputDir  string     `json:"output_dir"`
	Policy     PolicySpec `json:"policy"`
}

// PolicySpec is the wire form of a Policy: a mode tag plus exactly one body.
type PolicySpec struct {
	Mode     Mode            `json:"mode"`
	Srcset   *SrcsetPolicy   `json:"srcset,omitempty"`
	Optimize *OptimizePolicy `json:"optimize,omitempty"`
	Resize   *ResizePolicy   `json:"resize,omitempty"`
}

func NewBatchJob(imagePaths []string, outputDir string, policy Policy) BatchJob {
	return BatchJob{
		JobID:      uuid.New().String(),
		ImagePaths: imagePaths,
		OutputDir:  outputDir,
		Policy:     SpecFor(policy),
	}
}

// SpecFor wraps p for the wire.
func SpecFor(p Policy) PolicySpec {
	switch p := p.(type) {
	case SrcsetPolicy:
		return PolicySpec{Mode: ModeSrcset, Srcset: &p}
	case OptimizePolicy:
		return PolicySpec{Mode: ModeOptimize, Optimize: &p}
	case ResizePolicy:
		return PolicySpec{Mode: ModeResize, Resize: &p}
	}
	return PolicySpec{}
}

// Policy unwraps s, rejecting a missing or mismatched body.
func (s PolicySpec) Policy() (Policy, error) {
	switch s.Mode {
	case ModeSrcset:
		if s.Srcset != nil {
			return NewSrcsetPolicy(s.Srcset.MaxWidth)
		}
	case ModeOptimize:
		if s.Optimize != nil {
			return *s.Optimize, nil
		}
	case ModeResize:
		if s.Resize != nil {
			return *s.Resize, nil
		}
	default:
		return nil, fmt.Errorf("unknown policy mode %q", s.Mode)
	}
	return nil, fmt.Errorf("policy mode %q has no %s body", s.Mode, s.Mode)
}

// BatchSummary is the worker's reply once a job's batch has completed.
type BatchSummary struct {
	JobID      string      `json:"job_id"`
	BatchID    string      `json:"batch_id"`
	Images     int         `json:"images"`
	Variants   int         `json:"variants"`
	Archive    string      `json:"archive,omitempty"`
	Rejections []Rejection `json:"rejections,omitempty"`
	Error      string      `json:"error,omitempty"`
}
