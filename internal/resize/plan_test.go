package resize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vatsal3003/imgderive/pkg/models"
)

func TestPlan_Srcset(t *testing.T) {
	src := &models.SourceImage{NaturalWidth: 4000, NaturalHeight: 3000}

	targets, err := Plan(src, models.SrcsetPolicy{MaxWidth: 1920})
	require.NoError(t, err)

	var widths []int
	for _, tg := range targets {
		widths = append(widths, tg.Width)
		assert.Equal(t, KindWidth, tg.Kind)
		assert.Equal(t, int(math.Round(3000.0/4000.0*float64(tg.Width))), tg.Height)
		assert.Equal(t, models.SrcsetQuality, tg.Quality)
	}
	assert.Equal(t, []int{1920, 1600, 1280, 1024, 640, 320}, widths)
}

func TestPlan_OptimizeAuto(t *testing.T) {
	src := &models.SourceImage{OriginalSize: 3 * models.MiB}

	targets, err := Plan(src, models.OptimizePolicy{OptimizeMode: models.OptimizeAuto})
	require.NoError(t, err)
	require.Len(t, targets, 1)

	assert.Equal(t, KindBudget, targets[0].Kind)
	assert.Equal(t, models.MB(0.8), targets[0].Budget)
	assert.False(t, targets[0].Passthrough)
}

func TestPlan_OptimizeAutoSmallFileIsPassthrough(t *testing.T) {
	src := &models.SourceImage{OriginalSize: 500 * 1024}

	targets, err := Plan(src, models.OptimizePolicy{OptimizeMode: models.OptimizeAuto})
	require.NoError(t, err)

	assert.True(t, targets[0].Passthrough)
	assert.Equal(t, src.OriginalSize, targets[0].Budget)
}

func TestPlan_OptimizeManual(t *testing.T) {
	level := 30
	src := &models.SourceImage{OriginalSize: 3 * models.MiB}

	targets, err := Plan(src, models.OptimizePolicy{OptimizeMode: models.OptimizeManual, TargetSizeMB: 0.5, CompressionLevel: &level})
	require.NoError(t, err)

	assert.Equal(t, models.MB(0.5), targets[0].Budget)
	assert.InDelta(t, 0.7, targets[0].Quality, 1e-9)
}

func TestResizeDimensions_LockedWidthOnly(t *testing.T) {
	w, h := ResizeDimensions(1600, 900, models.ResizePolicy{ResizeMode: models.ResizeDimensions, Width: 800, LockAspect: true})

	assert.Equal(t, 800, w)
	assert.Equal(t, 450, h)
}

func TestResizeDimensions_AspectLaw(t *testing.T) {
	sizes := [][2]int{{1600, 900}, {1023, 677}, {3, 7}, {4000, 3000}, {641, 479}}
	for _, s := range sizes {
		for _, width := range []int{1, 99, 320, 801, 2048} {
			_, h := ResizeDimensions(s[0], s[1], models.ResizePolicy{ResizeMode: models.ResizeDimensions, Width: width, LockAspect: true})
			want := max(int(math.Round(float64(s[1])/float64(s[0])*float64(width))), 1)
			assert.Equal(t, want, h, "source %dx%d width %d", s[0], s[1], width)
		}
	}
}

func TestResizeDimensions_LockedHeightOnly(t *testing.T) {
	w, h := ResizeDimensions(1600, 900, models.ResizePolicy{ResizeMode: models.ResizeDimensions, Height: 450, LockAspect: true})

	assert.Equal(t, 800, w)
	assert.Equal(t, 450, h)
}

func TestResizeDimensions_UnlockedKeepsNaturalSide(t *testing.T) {
	w, h := ResizeDimensions(1600, 900, models.ResizePolicy{ResizeMode: models.ResizeDimensions, Width: 800})

	assert.Equal(t, 800, w)
	assert.Equal(t, 900, h)
}

func TestResizeDimensions_Percentage(t *testing.T) {
	for _, pct := range []int{1, 33, 50, 100, 150, 200} {
		w, h := ResizeDimensions(1001, 667, models.ResizePolicy{ResizeMode: models.ResizePercentage, Percentage: pct})

		assert.Equal(t, max(int(math.Round(1001*float64(pct)/100)), 1), w)
		assert.Equal(t, max(int(math.Round(667*float64(pct)/100)), 1), h)
	}
}
