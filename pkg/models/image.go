package models

import "fmt"

// SourceImage is one uploaded file. It is never modified after upload.
type SourceImage struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Extension     string `json:"extension"`
	MIME          string `json:"mime"`
	NaturalWidth  int    `json:"natural_width"`
	NaturalHeight int    `json:"natural_height"`
	OriginalSize  int64  `json:"original_size"`
	Data          []byte `json:"-"`
}

// BaseName is the filename up to its first dot.
func (s *SourceImage) BaseName() string {
	for i := 0; i < len(s.Name); i++ {
		if s.Name[i] == '.' {
			return s.Name[:i]
		}
	}
	return s.Name
}

// DerivedVariant is one produced artifact of a source image.
type DerivedVariant struct {
	SourceID string `json:"source_id"`
	// TargetWidth is set for srcset and resize targets.
	TargetWidth int `json:"target_width,omitempty"`
	// TargetSizeBudget is set for optimize targets, in bytes.
	TargetSizeBudget int64  `json:"target_size_budget,omitempty"`
	ResultWidth      int    `json:"result_width"`
	ResultHeight     int    `json:"result_height"`
	ResultBytes      int64  `json:"result_bytes"`
	Extension        string `json:"extension"`
	Blob             []byte `json:"-"`
}

// FormatSize renders a byte count in MB with two decimals.
func FormatSize(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/MiB)
}

// Saved is the fraction of the original size removed by v, or 0 when v grew.
func (v *DerivedVariant) Saved(original int64) float64 {
	if original <= 0 || v.ResultBytes >= original {
		return 0
	}
	return 1 - float64(v.ResultBytes)/float64(original)
}
