package ffmpeg

import (
	"fmt"
	"strings"
)

// FilterChain builds comma-separated filter chains.
type FilterChain struct {
	filters []string
}

// NewFilterChain creates a new empty filter chain.
func NewFilterChain() *FilterChain {
	return &FilterChain{}
}

// AddCrop adds a crop filter to the chain.
func (c *FilterChain) AddCrop(crop string) *FilterChain {
	if crop != "" {
		c.filters = append(c.filters, crop)
	}
	return c
}

// AddFilter adds a custom filter to the chain.
func (c *FilterChain) AddFilter(filter string) *FilterChain {
	if filter != "" {
		c.filters = append(c.filters, filter)
	}
	return c
}

// Build builds the filter chain into a single filter string.
// Returns empty string if no filters are present.
func (c *FilterChain) Build() string {
	if len(c.filters) == 0 {
		return ""
	}
	return strings.Join(c.filters, ",")
}

// IsEmpty returns true if no filters are present.
func (c *FilterChain) IsEmpty() bool {
	return len(c.filters) == 0
}

// ScaleToFit scales a stream to fit inside width x height without stretching.
func ScaleToFit(width, height int) string {
	return fmt.Sprintf("scale=w=%d:h=%d:force_original_aspect_ratio=decrease", width, height)
}

// PadCentered pads a stream to exactly width x height with centered black borders.
func PadCentered(width, height int) string {
	return fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black", width, height)
}

// NormalizeChain returns the letterbox chain used before comparing two streams.
func NormalizeChain(width, height int) *FilterChain {
	return NewFilterChain().
		AddFilter(ScaleToFit(width, height)).
		AddFilter(PadCentered(width, height))
}

// SSIMFilterGraph returns a filter_complex graph that normalizes inputs 0 and 1
// to a common geometry and writes per-frame SSIM statistics to reportPath.
func SSIMFilterGraph(width, height int, reportPath string) string {
	norm := NormalizeChain(width, height).Build()
	return fmt.Sprintf("[0:v]%s[ref];[1:v]%s[dist];[ref][dist]ssim=stats_file=%s",
		norm, norm, EscapeFilterValue(reportPath))
}

// EscapeFilterValue escapes a filter option value for embedding in a filtergraph.
// Option values and the graph are parsed separately, so both levels are escaped.
func EscapeFilterValue(value string) string {
	return escapeChars(escapeChars(value, `\':`), `\'[],;`)
}

func escapeChars(value, special string) string {
	var b strings.Builder
	for _, r := range value {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
