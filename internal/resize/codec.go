package resize

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Codec is the resampling capability the executor drives.
type Codec interface {
	Decode(data []byte) (image.Image, error)
	Resize(img image.Image, width, height int) image.Image
	// Encode writes img in format. quality is a 0-1 fraction and is ignored
	// by lossless formats.
	Encode(img image.Image, format imaging.Format, quality float64) ([]byte, error)
}

// ImagingCodec implements Codec with disintegration/imaging.
type ImagingCodec struct {
	Filter imaging.ResampleFilter
}

func NewImagingCodec() *ImagingCodec {
	return &ImagingCodec{Filter: imaging.Lanczos}
}

func (c *ImagingCodec) Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func (c *ImagingCodec) Resize(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, c.Filter)
}

func (c *ImagingCodec) Encode(img image.Image, format imaging.Format, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, format,
		imaging.JPEGQuality(jpegQuality(quality)),
		imaging.PNGCompressionLevel(png.BestCompression),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

func jpegQuality(q float64) int {
	return min(max(int(math.Round(q*100)), 1), 100)
}

// OutputFormat picks the encoder for a source extension. An encodable
// extension is returned as written; others fall back to PNG and "png".
func OutputFormat(ext string) (imaging.Format, string) {
	f, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return imaging.PNG, "png"
	}
	return f, ext
}

// Lossy reports whether quality affects the output size of f.
func Lossy(f imaging.Format) bool {
	return f == imaging.JPEG
}
