// Package store holds the per-image state of one batch run.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vatsal3003/imgderive/pkg/models"
)

var (
	ErrUnknownSource = errors.New("unknown source")
	ErrDuplicate     = errors.New("source already registered")
	ErrFinished      = errors.New("source already finished")
)

type entry struct {
	source   *models.SourceImage
	state    models.ImageState
	variants []models.DerivedVariant
}

// Store keeps one entry per source image in upload order. Each entry is
// finished exactly once; reads take a consistent snapshot.
type Store struct {
	mu      sync.RWMutex
	entries []*entry
	index   map[string]*entry
}

func New(capacity int) *Store {
	return &Store{
		entries: make([]*entry, 0, capacity),
		index:   make(map[string]*entry, capacity),
	}
}

// Register adds src as pending.
func (s *Store) Register(src *models.SourceImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[src.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, src.ID)
	}
	e := &entry{source: src, state: models.ImagePending}
	s.entries = append(s.entries, e)
	s.index[src.ID] = e
	return nil
}

// Finish records the fate of a source and the variants it produced.
func (s *Store) Finish(id string, state models.ImageState, variants []models.DerivedVariant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, id)
	}
	if e.state != models.ImagePending {
		return fmt.Errorf("%w: %s", ErrFinished, id)
	}
	e.state = state
	e.variants = variants
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot copies every entry in upload order.
func (s *Store) Snapshot() []models.ImageOutput {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ImageOutput, len(s.entries))
	for i, e := range s.entries {
		out[i] = models.ImageOutput{
			Source:   e.source,
			State:    e.state,
			Variants: append([]models.DerivedVariant(nil), e.variants...),
		}
	}
	return out
}
