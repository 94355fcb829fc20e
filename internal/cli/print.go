package cli

import (
	"fmt"
	"io"

	"github.com/vatsal3003/imgderive/pkg/models"
)

// PrintProgress writes one line per progress event until events closes.
func PrintProgress(w io.Writer, events <-chan models.Progress) {
	for p := range events {
		WriteProgress(w, p)
	}
}

func WriteProgress(w io.Writer, p models.Progress) {
	fmt.Fprintf(w, "Processing images... %d/%d (%s: %s)\n", p.Completed, p.Total, p.SourceID, p.State)
}

// PrintSummary writes the outcome of a batch job, rejections included.
func PrintSummary(w io.Writer, s models.BatchSummary) {
	if s.Error != "" {
		fmt.Fprintf(w, "Job %s failed: %s\n", s.JobID, s.Error)
		return
	}
	fmt.Fprintf(w, "Batch %s: %d image(s), %d variant(s)", s.BatchID, s.Images, s.Variants)
	if s.Archive != "" {
		fmt.Fprintf(w, ", archive %s", s.Archive)
	}
	fmt.Fprintln(w)
	if len(s.Rejections) > 0 {
		fmt.Fprintln(w, "Upload Errors:")
		for _, r := range s.Rejections {
			fmt.Fprintf(w, "  %s\n", r.Reason)
		}
	}
}
