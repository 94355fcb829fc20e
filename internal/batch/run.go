package batch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vatsal3003/imgderive/internal/store"
	"github.com/vatsal3003/imgderive/pkg/models"
)

// Run is the live handle of one batch.
type Run struct {
	id     string
	policy models.Policy
	total  int
	store  *store.Store
	cancel context.CancelFunc
	done   chan struct{}

	progressMu sync.Mutex

	mu         sync.Mutex
	status     models.Status
	completed  int
	rejections []*models.Rejection // indexed by upload position
	startedAt  time.Time
	finishedAt time.Time
}

func newRun(p models.Policy, total int, cancel context.CancelFunc) *Run {
	return &Run{
		id:         uuid.New().String(),
		policy:     p,
		total:      total,
		store:      store.New(total),
		cancel:     cancel,
		done:       make(chan struct{}),
		status:     models.StatusIdle,
		rejections: make([]*models.Rejection, total),
	}
}

func (r *Run) ID() string            { return r.id }
func (r *Run) Policy() models.Policy { return r.policy }

// Done is closed once the run has completed.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run completes and returns its final state.
func (r *Run) Wait() *models.BatchRun {
	<-r.done
	return r.Snapshot()
}

// Snapshot returns a consistent copy of the run as it is now.
func (r *Run) Snapshot() *models.BatchRun {
	outputs := r.store.Snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()
	return &models.BatchRun{
		ID:         r.id,
		Policy:     r.policy,
		Outputs:    outputs,
		Completed:  r.completed,
		Total:      r.total,
		Rejections: r.rejectionListLocked(),
		Status:     r.status,
		StartedAt:  r.startedAt,
		FinishedAt: r.finishedAt,
	}
}

func (r *Run) setRunning() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == models.StatusIdle {
		r.status = models.StatusRunning
		r.startedAt = time.Now()
	}
}

func (r *Run) setCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == models.StatusRunning {
		r.status = models.StatusCompleted
		r.finishedAt = time.Now()
	}
}

func (r *Run) reject(idx int, rej models.Rejection) {
	r.mu.Lock()
	r.rejections[idx] = &rej
	r.mu.Unlock()
}

func (r *Run) advance(sourceID string, state models.ImageState) models.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completed < r.total {
		r.completed++
	}
	return models.Progress{
		BatchID:   r.id,
		SourceID:  sourceID,
		State:     state,
		Completed: r.completed,
		Total:     r.total,
	}
}

func (r *Run) rejectionList() []models.Rejection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rejectionListLocked()
}

func (r *Run) rejectionListLocked() []models.Rejection {
	var list []models.Rejection
	for _, rej := range r.rejections {
		if rej != nil {
			list = append(list, *rej)
		}
	}
	return list
}
