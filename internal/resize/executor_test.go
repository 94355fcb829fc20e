package resize

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vatsal3003/imgderive/pkg/models"
)

func noisyImage(w, h int) *image.NRGBA {
	rng := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	return img
}

func jpegSource(t *testing.T, name string, w, h, quality int) *models.SourceImage {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, noisyImage(w, h), &jpeg.Options{Quality: quality}))
	return &models.SourceImage{
		ID: "photo", Name: name, Extension: "jpg",
		NaturalWidth: w, NaturalHeight: h,
		OriginalSize: int64(buf.Len()), Data: buf.Bytes(),
	}
}

func TestExecutor_SrcsetVariantMatchesTarget(t *testing.T) {
	src := jpegSource(t, "photo.jpg", 1300, 700, 90)
	e := NewExecutor(nil, 0, nil)

	targets, err := e.Plan(src, models.SrcsetPolicy{MaxWidth: 1280})
	require.NoError(t, err)
	require.Len(t, targets, 4)

	h := NewHandle(src)
	for _, tg := range targets {
		v, err := e.Produce(context.Background(), h, tg)
		require.NoError(t, err)

		assert.Equal(t, tg.Width, v.ResultWidth)
		assert.Equal(t, tg.Height, v.ResultHeight)
		assert.Equal(t, tg.Width, v.TargetWidth)
		assert.Equal(t, "jpg", v.Extension)
		assert.Equal(t, int64(len(v.Blob)), v.ResultBytes)

		cfg, format, err := image.DecodeConfig(bytes.NewReader(v.Blob))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, tg.Width, cfg.Width)
	}
}

func TestExecutor_ResizeAlwaysPNG(t *testing.T) {
	src := jpegSource(t, "photo.jpg", 160, 90, 90)
	e := NewExecutor(nil, 0, nil)

	targets, err := e.Plan(src, models.ResizePolicy{ResizeMode: models.ResizeDimensions, Width: 80, LockAspect: true})
	require.NoError(t, err)

	v, err := e.Produce(context.Background(), NewHandle(src), targets[0])
	require.NoError(t, err)

	assert.Equal(t, 80, v.ResultWidth)
	assert.Equal(t, 45, v.ResultHeight)
	assert.Equal(t, "png", v.Extension)
	_, err = png.Decode(bytes.NewReader(v.Blob))
	assert.NoError(t, err)
}

func TestExecutor_OptimizeKeepsDimensionsAndShrinks(t *testing.T) {
	src := jpegSource(t, "photo.jpg", 300, 200, 100)
	e := NewExecutor(nil, 0, nil)

	budget := src.OriginalSize / 3
	v, err := e.Produce(context.Background(), NewHandle(src), Target{Kind: KindBudget, Budget: budget, Quality: 0.9})
	require.NoError(t, err)

	assert.Equal(t, 300, v.ResultWidth)
	assert.Equal(t, 200, v.ResultHeight)
	assert.Less(t, v.ResultBytes, src.OriginalSize)
	assert.Equal(t, budget, v.TargetSizeBudget)
}

func TestExecutor_PassthroughSkipsDecode(t *testing.T) {
	src := &models.SourceImage{ID: "x", Extension: "jpg", NaturalWidth: 10, NaturalHeight: 20, OriginalSize: 3, Data: []byte("raw")}
	e := NewExecutor(failingCodec{}, 0, nil)

	v, err := e.Produce(context.Background(), NewHandle(src), Target{Kind: KindBudget, Budget: 3, Passthrough: true})
	require.NoError(t, err)

	assert.Equal(t, []byte("raw"), v.Blob)
	assert.Equal(t, 10, v.ResultWidth)
	assert.Equal(t, 20, v.ResultHeight)
}

func TestExecutor_DecodeFailure(t *testing.T) {
	src := &models.SourceImage{ID: "x", Extension: "jpg", NaturalWidth: 10, NaturalHeight: 10, Data: []byte("raw")}
	e := NewExecutor(failingCodec{}, 0, nil)

	_, err := e.Produce(context.Background(), NewHandle(src), Target{Kind: KindWidth, Width: 5, Height: 5})

	assert.ErrorIs(t, err, errDecode)
}

func TestExecutor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExecutor(nil, 0, nil).Produce(ctx, NewHandle(&models.SourceImage{}), Target{Kind: KindWidth})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutputFormat(t *testing.T) {
	f, ext := OutputFormat("JPEG")
	assert.Equal(t, imaging.JPEG, f)
	assert.Equal(t, "JPEG", ext, "extension case is kept")

	f, ext = OutputFormat("Jpg")
	assert.Equal(t, imaging.JPEG, f)
	assert.Equal(t, "Jpg", ext)

	f, ext = OutputFormat("webp")
	assert.Equal(t, imaging.PNG, f)
	assert.Equal(t, "png", ext)

	assert.True(t, Lossy(imaging.JPEG))
	assert.False(t, Lossy(imaging.PNG))
}

var errDecode = errors.New("decode failed")

type failingCodec struct{}

func (failingCodec) Decode([]byte) (image.Image, error) { return nil, errDecode }
func (failingCodec) Resize(img image.Image, _, _ int) image.Image { return img }
func (failingCodec) Encode(image.Image, imaging.Format, float64) ([]byte, error) {
	return nil, errors.New("encode failed")
}
