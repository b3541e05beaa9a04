package gallerytui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tOgg1/galleria/internal/gallerytui/styles"
)

func (m *Model) renderHeader(palette styles.Theme) string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Base.Foreground)).
		Background(lipgloss.Color(palette.Chrome.Header)).
		Bold(true).
		Padding(0, 1)

	route := m.activeRoute()
	left := "galleria"
	center := route.Title
	if route.Subtitle != "" {
		center += " · " + route.Subtitle
	}
	right := loadProgress(m.lib)
	line := joinHeader(left, center, right, maxInt(0, m.width-2))
	return style.Width(maxInt(0, m.width)).Render(line)
}

func (m *Model) renderStatusLine(palette styles.Theme) string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Base.Foreground)).
		Background(lipgloss.Color(palette.Chrome.StatusLine)).
		Padding(0, 1)

	parts := []string{}
	if s := storageSummary(m); s != "" {
		parts = append(parts, s)
	}
	if s := scanSummary(m); s != "" {
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		parts = append(parts, "status unavailable")
	}
	line := strings.Join(parts, "  |  ")
	return style.Width(maxInt(0, m.width)).Render(truncate(line, maxInt(0, m.width-2)))
}

func (m *Model) renderFooter(palette styles.Theme) string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Base.Foreground)).
		Background(lipgloss.Color(palette.Chrome.Footer)).
		Padding(0, 1)

	base := m.footerHints()
	if m.showHelp {
		base += "  " + hints(keys.Global.NextView, keys.Global.PrevView) + "  1-5 views"
	}

	right := ""
	if errText := m.errors[m.active]; errText != "" {
		right = palette.Error().Render(errText)
	} else if m.notice != "" {
		right = palette.Notice().Render(m.notice)
	}

	width := maxInt(0, m.width-2)
	if right == "" {
		return style.Width(maxInt(0, m.width)).Render(truncate(base, width))
	}
	left := truncate(base, maxInt(0, width-lipgloss.Width(right)-2))
	gap := maxInt(1, width-lipgloss.Width(left)-lipgloss.Width(right))
	return style.Width(maxInt(0, m.width)).Render(left + strings.Repeat(" ", gap) + right)
}

func (m *Model) footerHints() string {
	global := hints(keys.Global.Help, keys.Global.Quit)
	if m.lightbox != nil {
		return m.lightbox.Hints() + "  " + global
	}
	if view := m.activeView(); view != nil {
		if h := view.Hints(); h != "" {
			return h + "  " + global
		}
	}
	return global
}

func (m *Model) renderOverlay(palette styles.Theme) string {
	switch {
	case m.prompt != nil:
		return styles.PanelStyle(palette, true).Width(maxInt(0, m.width-2)).Render(m.prompt.View())
	case m.confirm != nil:
		text := m.confirm.question + "  " + palette.Muted().Render("y confirm, any other key cancels")
		return styles.PanelStyle(palette, true).Width(maxInt(0, m.width-2)).Render(text)
	}
	return ""
}

func loadProgress(lib *library) string {
	st := lib.state
	switch {
	case st.Error != "" && len(st.Items) == 0:
		return "load failed"
	case st.Loading:
		return "loading..."
	case st.Background:
		return fmt.Sprintf("%d/%d loaded", len(st.Items), st.Total)
	}
	return fmt.Sprintf("%d photos", st.Total)
}

func storageSummary(m *Model) string {
	if m.storage == nil {
		return ""
	}
	s := fmt.Sprintf("%d images, %s", m.storage.ImageCount, humanize.Bytes(uint64(maxInt64(0, m.storage.TotalBytes))))
	if m.storage.MediaPath != "" {
		s += " in " + m.storage.MediaPath
	}
	return s
}

func scanSummary(m *Model) string {
	scan := m.scan
	if scan == nil {
		return ""
	}
	switch {
	case scan.IsRunning:
		s := fmt.Sprintf("face scan %.0f%% (%d/%d)", scan.ProgressPercent, scan.ProcessedImages, scan.TotalImages)
		if scan.CurrentImage != nil && *scan.CurrentImage != "" {
			s += " " + *scan.CurrentImage
		}
		return s
	case scan.IsSyncing:
		return "media sync running"
	}
	return "face scan idle"
}

func joinHeader(left, center, right string, width int) string {
	left = strings.TrimSpace(left)
	center = strings.TrimSpace(center)
	right = strings.TrimSpace(right)
	if width <= 0 {
		return left
	}

	space := width - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right)
	if space < 2 {
		line := left
		if center != "" {
			line = left + "  " + center
		}
		return truncate(line, width)
	}

	leftGap := space / 2
	rightGap := space - leftGap
	return truncate(left+strings.Repeat(" ", leftGap)+center+strings.Repeat(" ", rightGap)+right, width)
}
