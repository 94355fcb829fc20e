package journal

import (
	"errors"
	"testing"

	"github.com/rabbitmq/rabbitmq-stream-go-client/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vatsal3003/imgderive/pkg/models"
)

func TestEncodeDecode(t *testing.T) {
	s := models.BatchSummary{
		JobID:    "job-1",
		BatchID:  "batch-1",
		Images:   2,
		Variants: 5,
		Archive:  "srcset-images.zip",
		Rejections: []models.Rejection{{
			SourceID: "small",
			Name:     "small.jpg",
			Kind:     models.ValidationRejection,
			Detail:   models.RejectionDetail{ActualWidth: 1000, RequiredWidth: 1920, Preview: "small.jpg"},
		}},
	}

	body, err := encode(s)
	require.NoError(t, err)
	got, err := decode(body)
	require.NoError(t, err)

	assert.Equal(t, s, got)
}

func TestDecode_Rejects(t *testing.T) {
	_, err := decode([]byte("not json"))
	assert.Error(t, err)

	_, err = decode([]byte(`{"batch_id":"b"}`))
	assert.Error(t, err)
}

func TestStartOffset(t *testing.T) {
	offset, err := startOffset(0, stream.OffsetNotFoundError)
	require.NoError(t, err)
	assert.Equal(t, stream.OffsetSpecification{}.First(), offset)

	offset, err = startOffset(41, nil)
	require.NoError(t, err)
	assert.Equal(t, stream.OffsetSpecification{}.Offset(42), offset)

	_, err = startOffset(0, errors.New("broker gone"))
	assert.Error(t, err)
}
