package cli

import (
	"bytes"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vatsal3003/imgderive/pkg/models"
)

func parse(t *testing.T, args ...string) (models.Policy, error) {
	t.Helper()
	var f PolicyFlags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f.Register(fs)
	require.NoError(t, fs.Parse(args))
	return f.Policy()
}

func TestPolicyFlags(t *testing.T) {
	p, err := parse(t)
	require.NoError(t, err)
	assert.Equal(t, models.SrcsetPolicy{MaxWidth: 1920}, p)

	p, err = parse(t, "-mode", "optimize")
	require.NoError(t, err)
	assert.Equal(t, models.OptimizePolicy{OptimizeMode: models.OptimizeAuto}, p)

	p, err = parse(t, "-mode", "optimize", "-manual", "-target-mb", "0.5", "-level", "30")
	require.NoError(t, err)
	opt := p.(models.OptimizePolicy)
	assert.Equal(t, models.OptimizeManual, opt.OptimizeMode)
	assert.Equal(t, 0.5, opt.TargetSizeMB)
	require.NotNil(t, opt.CompressionLevel)
	assert.Equal(t, 30, *opt.CompressionLevel)

	p, err = parse(t, "-mode", "resize", "-width", "800")
	require.NoError(t, err)
	assert.Equal(t, models.ResizePolicy{ResizeMode: models.ResizeDimensions, Width: 800, LockAspect: true}, p)

	p, err = parse(t, "-mode", "resize", "-percent", "50")
	require.NoError(t, err)
	assert.Equal(t, models.ResizePolicy{ResizeMode: models.ResizePercentage, Percentage: 50}, p)
}

func TestPolicyFlags_Invalid(t *testing.T) {
	_, err := parse(t, "-mode", "crop")
	assert.Error(t, err)

	_, err = parse(t, "-max-width", "1000")
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, models.BatchSummary{
		BatchID:  "b1",
		Images:   2,
		Variants: 5,
		Archive:  "srcset-images.zip",
		Rejections: []models.Rejection{{
			Reason: "The image small.jpg has a width of 1000px, which is smaller than the selected resolution (1920px).",
		}},
	})

	assert.Equal(t, "Batch b1: 2 image(s), 5 variant(s), archive srcset-images.zip\n"+
		"Upload Errors:\n"+
		"  The image small.jpg has a width of 1000px, which is smaller than the selected resolution (1920px).\n",
		buf.String())

	buf.Reset()
	PrintSummary(&buf, models.BatchSummary{JobID: "j1", Error: "invalid policy"})
	assert.Equal(t, "Job j1 failed: invalid policy\n", buf.String())
}

func TestWriteProgress(t *testing.T) {
	var buf bytes.Buffer
	WriteProgress(&buf, models.Progress{SourceID: "a", State: models.ImageDone, Completed: 1, Total: 3})

	assert.Equal(t, "Processing images... 1/3 (a: done)\n", buf.String())
}
