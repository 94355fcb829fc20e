// Package report turns a batch's rejections into a one-shot summary.
package report

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vatsal3003/imgderive/pkg/models"
)

type Entry struct {
	SourceID string
	Name     string
	Kind     models.RejectionKind
	Message  string
	Detail   models.RejectionDetail
}

// Summary lists every rejected or failed image of one batch.
type Summary struct {
	BatchID string
	Entries []Entry
}

func (s Summary) Empty() bool { return len(s.Entries) == 0 }

func (s Summary) String() string {
	if s.Empty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("Upload Errors:\n")
	for _, e := range s.Entries {
		b.WriteString("  ")
		b.WriteString(e.Message)
		b.WriteByte('\n')
	}
	return b.String()
}

// Reporter buffers the summary of the last completed batch until it is flushed.
type Reporter struct {
	mu      sync.Mutex
	pending *Summary
}

func NewReporter() *Reporter {
	return &Reporter{}
}

// Report replaces any pending summary with one built from rejections.
func (r *Reporter) Report(batchID string, rejections []models.Rejection) {
	s := Summary{BatchID: batchID, Entries: make([]Entry, 0, len(rejections))}
	for _, rej := range rejections {
		s.Entries = append(s.Entries, Entry{
			SourceID: rej.SourceID,
			Name:     rej.Name,
			Kind:     rej.Kind,
			Message:  message(rej),
			Detail:   rej.Detail,
		})
	}

	r.mu.Lock()
	r.pending = &s
	r.mu.Unlock()
}

// Flush returns the pending summary and clears it. ok is false when there
// is nothing to show.
func (r *Reporter) Flush() (Summary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == nil || r.pending.Empty() {
		r.pending = nil
		return Summary{}, false
	}
	s := *r.pending
	r.pending = nil
	return s, true
}

// Reset drops a summary nobody flushed.
func (r *Reporter) Reset() {
	r.mu.Lock()
	r.pending = nil
	r.mu.Unlock()
}

func message(rej models.Rejection) string {
	if rej.Reason != "" {
		return rej.Reason
	}
	switch rej.Kind {
	case models.ValidationRejection:
		return fmt.Sprintf("The image %s has a width of %dpx, which is smaller than the selected resolution (%dpx).",
			rej.Name, rej.Detail.ActualWidth, rej.Detail.RequiredWidth)
	default:
		return fmt.Sprintf("The image %s could not be processed.", rej.Name)
	}
}
