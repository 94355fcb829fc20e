package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vatsal3003/imgderive/pkg/models"
)

func rejection(name string, actual int) models.Rejection {
	return models.Rejection{
		SourceID: name,
		Name:     name + ".jpg",
		Kind:     models.ValidationRejection,
		Detail:   models.RejectionDetail{ActualWidth: actual, RequiredWidth: 1920},
	}
}

func TestReporter_FlushOnce(t *testing.T) {
	r := NewReporter()
	r.Report("b1", []models.Rejection{rejection("small", 1000)})

	s, ok := r.Flush()
	require.True(t, ok)
	assert.Equal(t, "b1", s.BatchID)
	require.Len(t, s.Entries, 1)
	assert.Equal(t, "The image small.jpg has a width of 1000px, which is smaller than the selected resolution (1920px).", s.Entries[0].Message)
	assert.Equal(t, 1920, s.Entries[0].Detail.RequiredWidth)

	_, ok = r.Flush()
	assert.False(t, ok, "summary is shown once")
}

func TestReporter_NewBatchReplacesStaleSummary(t *testing.T) {
	r := NewReporter()
	r.Report("b1", []models.Rejection{rejection("old", 10)})
	r.Report("b2", []models.Rejection{rejection("new", 20)})

	s, ok := r.Flush()
	require.True(t, ok)
	assert.Equal(t, "b2", s.BatchID)
	require.Len(t, s.Entries, 1)
	assert.Equal(t, "new", s.Entries[0].SourceID)
}

func TestReporter_ResetDropsPending(t *testing.T) {
	r := NewReporter()
	r.Report("b1", []models.Rejection{rejection("old", 10)})
	r.Reset()

	_, ok := r.Flush()
	assert.False(t, ok)
}

func TestReporter_EmptyBatchHasNothingToShow(t *testing.T) {
	r := NewReporter()
	r.Report("b1", nil)

	_, ok := r.Flush()
	assert.False(t, ok)
}

func TestSummary_String(t *testing.T) {
	s := Summary{Entries: []Entry{{Message: "first"}, {Message: "second"}}}

	assert.Equal(t, "Upload Errors:\n  first\n  second\n", s.String())
	assert.Empty(t, Summary{}.String())
}

func TestMessage_PrefersReason(t *testing.T) {
	rej := models.Rejection{Name: "a.png", Kind: models.TransformationFailure, Reason: "custom"}
	assert.Equal(t, "custom", message(rej))

	rej.Reason = ""
	assert.Equal(t, "The image a.png could not be processed.", message(rej))
}
