// Package upload turns selected files into source images.
package upload

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/vatsal3003/imgderive/pkg/models"
)

// Upload is one selected file as it arrives from the selection surface.
type Upload struct {
	Name string
	MIME string
	Data []byte
}

var whitespace = regexp.MustCompile(`\s+`)

// FromPaths reads each path into an Upload, keeping the given order.
func FromPaths(paths []string) ([]Upload, error) {
	uploads := make([]Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", p, err)
		}
		uploads = append(uploads, Upload{
			Name: filepath.Base(p),
			MIME: mimetype.Detect(data).String(),
			Data: data,
		})
	}
	return uploads, nil
}

// SanitizeName returns the part of name before its first dot with
// whitespace runs replaced by dashes.
func SanitizeName(name string) string {
	base, _, _ := strings.Cut(name, ".")
	return whitespace.ReplaceAllString(base, "-")
}

// Extension returns the text after the last dot of name, or "" when there is none.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

// Describe reads the image header of u and builds its SourceImage. The ID is
// the sanitized name; callers dedupe IDs with IDs.
func Describe(u Upload) (*models.SourceImage, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(u.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header of %s: %w", u.Name, err)
	}

	mime := u.MIME
	if mime == "" {
		mime = mimetype.Detect(u.Data).String()
	}
	ext := Extension(u.Name)
	if ext == "" {
		ext = format
	}

	return &models.SourceImage{
		ID:            SanitizeName(u.Name),
		Name:          u.Name,
		Extension:     ext,
		MIME:          mime,
		NaturalWidth:  cfg.Width,
		NaturalHeight: cfg.Height,
		OriginalSize:  int64(len(u.Data)),
		Data:          u.Data,
	}, nil
}

// IDs returns one unique source ID per upload, in order. A sanitized name
// already issued gets the lowest free numeric suffix starting at 2.
func IDs(uploads []Upload) []string {
	taken := make(map[string]bool, len(uploads))
	ids := make([]string, len(uploads))
	for i, u := range uploads {
		base := SanitizeName(u.Name)
		id := base
		for n := 2; taken[id]; n++ {
			id = base + "-" + strconv.Itoa(n)
		}
		taken[id] = true
		ids[i] = id
	}
	return ids
}
