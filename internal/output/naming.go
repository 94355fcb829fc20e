package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vatsal3003/imgderive/pkg/models"
)

// ResizeFolder is the archive folder resized images are packed under.
const ResizeFolder = "resized-images"

// FileName is the download name of v, derived from its source and the batch mode.
func FileName(mode models.Mode, src *models.SourceImage, v models.DerivedVariant) string {
	return fileName(mode, src, v, "")
}

// fileName appends suffix to the base of the name FileName would give.
func fileName(mode models.Mode, src *models.SourceImage, v models.DerivedVariant, suffix string) string {
	switch mode {
	case models.ModeSrcset:
		return fmt.Sprintf("%s%s-%d.%s", src.ID, suffix, v.TargetWidth, v.Extension)
	case models.ModeOptimize:
		return fmt.Sprintf("%s%s_compressed.%s", src.BaseName(), suffix, v.Extension)
	default:
		base, rest, ok := strings.Cut(src.Name, ".")
		if !ok {
			return base + suffix
		}
		return base + suffix + "." + rest
	}
}

type variantKey struct {
	source string
	width  int
}

// downloadNames gives every variant of run's finished images a name no
// other variant of the run shares. A repeated name gets -2, -3 and so on
// after its base, in output order.
func downloadNames(run *models.BatchRun) map[variantKey]string {
	mode := run.Policy.Mode()
	names := make(map[variantKey]string)
	taken := make(map[string]bool)
	for _, out := range run.Outputs {
		if out.State != models.ImageDone {
			continue
		}
		for _, v := range out.Variants {
			name := fileName(mode, out.Source, v, "")
			for n := 2; taken[name]; n++ {
				name = fileName(mode, out.Source, v, "-"+strconv.Itoa(n))
			}
			taken[name] = true
			names[variantKey{out.Source.ID, v.TargetWidth}] = name
		}
	}
	return names
}

// ArchiveName is the download name of the bundle for mode.
func ArchiveName(mode models.Mode) string {
	switch mode {
	case models.ModeSrcset:
		return "srcset-images.zip"
	case models.ModeOptimize:
		return "compressed_images.zip"
	default:
		return ResizeFolder + ".zip"
	}
}

// archivePath places name inside the archive layout of mode.
func archivePath(mode models.Mode, name string) string {
	if mode == models.ModeResize {
		return ResizeFolder + "/" + name
	}
	return name
}
