package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/skilltree/internal/skilltree"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a progress bar like [████░░░░] 45%. pct is a
// fraction in 0..1 and is clamped. The bar is green above 66%, yellow from
// 33% and red below.
func RenderProgress(pct float64, width int) string {
	pct = min(max(pct, 0), 1)
	width = max(width, 2)

	filled := min(int(pct*float64(width)), width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	if pct < 0.33 {
		style = StyleRed
	} else if pct < 0.66 {
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), pct*100)
}

// RenderStats renders "3/8 skills" followed by a progress bar.
func RenderStats(s skilltree.Stats, width int) string {
	label := fmt.Sprintf("%d/%d skills", s.Completed, s.Total)
	return Bold(label) + "  " + RenderProgress(s.Percent()/100, width)
}
