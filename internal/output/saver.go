package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Saver stores a blob under a filename.
type Saver interface {
	Save(ctx context.Context, blob []byte, name string) error
}

// DirSaver writes blobs as files below Dir.
type DirSaver struct {
	Dir string
}

func (s DirSaver) Save(ctx context.Context, blob []byte, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("refusing to save outside %s: %q", s.Dir, name)
	}
	path := filepath.Join(s.Dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, blob, 0644); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
