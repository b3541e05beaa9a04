package styles

import "github.com/charmbracelet/lipgloss"

const (
	// LayoutGap is the default space between columns.
	LayoutGap = 2

	// LayoutInnerPadding is the default panel content padding.
	LayoutInnerPadding = 1

	// GridCellWidth is the width of one image cell, gap included.
	GridCellWidth = 24

	minNavigatorWidth = 16
	maxNavigatorWidth = 24
	minContentWidth   = 30
)

// ColumnWidths splits the timeline screen into month navigator and groups.
type ColumnWidths struct {
	Navigator int
	Content   int
}

// ComputeColumnWidths returns responsive widths for the timeline columns.
// Narrow terminals drop the navigator.
func ComputeColumnWidths(totalWidth int) ColumnWidths {
	if totalWidth <= 0 {
		return ColumnWidths{}
	}
	nav := clampInt(totalWidth/5, minNavigatorWidth, maxNavigatorWidth)
	content := totalWidth - nav - LayoutGap
	if content < minContentWidth {
		return ColumnWidths{Navigator: 0, Content: totalWidth}
	}
	return ColumnWidths{Navigator: nav, Content: content}
}

// GridColumns returns how many image cells fit in width.
func GridColumns(width int) int {
	if width < GridCellWidth {
		return 1
	}
	return width / GridCellWidth
}

// PanelStyle returns a focused/unfocused border style for panes.
func PanelStyle(theme Theme, focused bool) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(panelBorderStyle(theme)).
		BorderForeground(lipgloss.Color(panelBorderColor(theme, focused))).
		Padding(0, LayoutInnerPadding)
}

// DividerStyle returns the divider style between sections.
func DividerStyle(theme Theme) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Borders.Divider))
}

func panelBorderColor(theme Theme, focused bool) string {
	if focused {
		return theme.Borders.ActivePane
	}
	return theme.Borders.InactivePane
}

func panelBorderStyle(theme Theme) lipgloss.Border {
	switch theme.BorderStyle {
	case "double":
		return lipgloss.DoubleBorder()
	case "sharp":
		return lipgloss.NormalBorder()
	case "hidden":
		return lipgloss.HiddenBorder()
	default:
		return lipgloss.RoundedBorder()
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
