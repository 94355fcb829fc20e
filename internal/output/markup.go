package output

import (
	"errors"
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/vatsal3003/imgderive/pkg/models"
)

// DefaultPathPrefix is prepended to every file referenced from embed markup.
const DefaultPathPrefix = "path/"

var ErrNotSrcset = errors.New("embed markup is only generated for srcset batches")

type sizeBreakpoint struct {
	maxWidth int
	size     string
}

var sizeBreakpoints = []sizeBreakpoint{
	{640, "100vw"},
	{1024, "50vw"},
	{1280, "33vw"},
	{1600, "25vw"},
	{1920, "20vw"},
}

// SizesAttribute builds the sizes list for a srcset capped at maxWidth.
func SizesAttribute(maxWidth int) string {
	parts := make([]string, 0, len(sizeBreakpoints)+1)
	for _, bp := range sizeBreakpoints {
		if bp.maxWidth <= maxWidth {
			parts = append(parts, fmt.Sprintf("(max-width: %dpx) %s", bp.maxWidth, bp.size))
		}
	}
	parts = append(parts, "10vw")
	return strings.Join(parts, ", ")
}

// EmbedMarkup renders a responsive <img> tag for the variants of sourceID.
// The smallest variant is the fallback src; srcset lists widths ascending.
func EmbedMarkup(run *models.BatchRun, sourceID, pathPrefix string) (string, error) {
	p, ok := run.Policy.(models.SrcsetPolicy)
	if !ok {
		return "", ErrNotSrcset
	}
	out, ok := run.Output(sourceID)
	if !ok || len(out.Variants) == 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownSource, sourceID)
	}

	variants := slices.Clone(out.Variants)
	slices.SortFunc(variants, func(a, b models.DerivedVariant) int {
		return a.TargetWidth - b.TargetWidth
	})

	names := downloadNames(run)
	path := func(v models.DerivedVariant) string {
		name, ok := names[variantKey{sourceID, v.TargetWidth}]
		if !ok {
			name = FileName(models.ModeSrcset, out.Source, v)
		}
		return html.EscapeString(pathPrefix + name)
	}

	candidates := make([]string, len(variants))
	for i, v := range variants {
		candidates[i] = fmt.Sprintf("%s %dw", path(v), v.TargetWidth)
	}

	smallest, largest := variants[0], variants[len(variants)-1]

	var b strings.Builder
	b.WriteString("<img\n")
	fmt.Fprintf(&b, "  src=\"%s\"\n", path(smallest))
	fmt.Fprintf(&b, "  srcset=\"%s\"\n", strings.Join(candidates, ", "))
	fmt.Fprintf(&b, "  sizes=\"%s\"\n", SizesAttribute(p.MaxWidth))
	fmt.Fprintf(&b, "  width=\"%d\"\n", largest.ResultWidth)
	fmt.Fprintf(&b, "  height=\"%d\"\n", largest.ResultHeight)
	b.WriteString("  alt=\"Responsive Image\"\n")
	b.WriteString("  loading=\"lazy\"\n")
	b.WriteString("  decoding=\"async\"\n")
	b.WriteString("/>")
	return b.String(), nil
}
