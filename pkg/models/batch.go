package models

import "time"

type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
)

// ImageState is the fate of one source image inside a batch.
type ImageState string

const (
	ImagePending  ImageState = "pending"
	ImageDone     ImageState = "done"
	ImageRejected ImageState = "rejected"
	ImageFailed   ImageState = "failed"
)

type RejectionKind string

const (
	ValidationRejection   RejectionKind = "validation"
	TransformationFailure RejectionKind = "transformation"
)

// RejectionDetail carries what a user needs to fix and re-upload an image.
type RejectionDetail struct {
	ActualWidth   int `json:"actual_width,omitempty"`
	RequiredWidth int `json:"required_width,omitempty"`
	// Preview references the rejected upload for display next to the message.
	Preview string `json:"preview,omitempty"`
}

type Rejection struct {
	SourceID string          `json:"source_id"`
	Name     string          `json:"name"`
	Kind     RejectionKind   `json:"kind"`
	Reason   string          `json:"reason"`
	Detail   RejectionDetail `json:"detail"`
}

// ImageOutput groups a source image with the variants produced from it.
type ImageOutput struct {
	Source   *SourceImage     `json:"source"`
	State    ImageState       `json:"state"`
	Variants []DerivedVariant `json:"variants"`
}

// BatchRun is the unit of work for one upload action.
type BatchRun struct {
	ID         string        `json:"id"`
	Policy     Policy        `json:"-"`
	Outputs    []ImageOutput `json:"outputs"`
	Completed  int           `json:"completed"`
	Total      int           `json:"total"`
	Rejections []Rejection   `json:"rejections"`
	Status     Status        `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at,omitempty"`
}

// Variants returns every produced variant in output order.
func (r *BatchRun) Variants() []DerivedVariant {
	var all []DerivedVariant
	for _, out := range r.Outputs {
		all = append(all, out.Variants...)
	}
	return all
}

// Output returns the output group for sourceID.
func (r *BatchRun) Output(sourceID string) (*ImageOutput, bool) {
	for i := range r.Outputs {
		if r.Outputs[i].Source.ID == sourceID {
			return &r.Outputs[i], true
		}
	}
	return nil, false
}

// Progress is emitted each time an image finishes, whatever its fate.
type Progress struct {
	BatchID   string     `json:"batch_id"`
	SourceID  string     `json:"source_id"`
	State     ImageState `json:"state"`
	Completed int        `json:"completed"`
	Total     int        `json:"total"`
}

func (p Progress) Done() bool { return p.Completed == p.Total }
