package output

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zip"
)

// Entry is one named blob of an archive.
type Entry struct {
	Name string
	Data []byte
}

// Archiver packs named blobs into a single archive blob.
type Archiver interface {
	Pack(entries []Entry) ([]byte, error)
}

type ZipArchiver struct{}

func (ZipArchiver) Pack(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("failed to write %s to archive: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return buf.Bytes(), nil
}
