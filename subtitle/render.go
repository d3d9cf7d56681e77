// Package subtitle renders timed caption segments into SRT or WebVTT text.
package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/AgentDance/yt-subs/models"
)

// Render serializes segments into the requested format. It is deterministic,
// performs no I/O, and never fails for well-formed input.
func Render(segments []models.Segment, format models.Format) string {
	if format == models.FormatVTT {
		return renderVTT(segments)
	}
	return renderSRT(segments)
}

func renderSRT(segments []models.Segment) string {
	lines := make([]string, 0, len(segments)*4)
	for i, seg := range segments {
		end := seg.Start + seg.Duration
		lines = append(lines,
			strconv.Itoa(i+1),
			fmt.Sprintf("%s --> %s", timestamp(seg.Start, ','), timestamp(end, ',')),
			normalizeText(seg.Text),
			"",
		)
	}
	return strings.Join(lines, "\n")
}

func renderVTT(segments []models.Segment) string {
	lines := make([]string, 0, len(segments)*3+2)
	lines = append(lines, "WEBVTT", "")
	for _, seg := range segments {
		end := seg.Start + seg.Duration
		lines = append(lines,
			fmt.Sprintf("%s --> %s", timestamp(seg.Start, '.'), timestamp(end, '.')),
			normalizeText(seg.Text),
			"",
		)
	}
	return strings.Join(lines, "\n")
}

// timestamp renders HH:MM:SS<sep>mmm. Hour, minute and second components are
// truncated from the whole seconds; milliseconds are rounded from the
// fractional remainder.
func timestamp(t float64, sep byte) string {
	if t < 0 {
		t = 0
	}
	whole := int64(t)
	h := whole / 3600
	m := (whole % 3600) / 60
	s := whole % 60
	ms := int64(math.Round((t - float64(whole)) * 1000))
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, sep, ms)
}

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(text)
}
