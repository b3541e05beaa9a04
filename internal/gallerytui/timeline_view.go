package gallerytui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tOgg1/galleria/internal/api"
	"github.com/tOgg1/galleria/internal/gallerytui/styles"
	"github.com/tOgg1/galleria/internal/router"
	"github.com/tOgg1/galleria/internal/timeline"
)

// timelineView lists images by day, newest first, with a month navigator.
type timelineView struct {
	lib     *library
	grouper *timeline.Grouper
	now     func() time.Time

	cursor int
	top    int
}

type timelineLine struct {
	text  string
	index int // flattened image index, -1 for headings
	kind  lineKind
}

type lineKind int

const (
	lineImage lineKind = iota
	lineYear
	lineMonth
	lineDay
)

func newTimelineView(lib *library, loc *time.Location, now func() time.Time) *timelineView {
	if now == nil {
		now = time.Now
	}
	return &timelineView{lib: lib, grouper: timeline.NewGrouper(loc), now: now}
}

func (v *timelineView) project() ([]timeline.Group, []timeline.MonthBucket, []api.Image) {
	groups, months := v.grouper.Project(v.lib.state.Items, v.now(), timeline.Filter{}, v.lib.isFavorite, v.lib.favVersion)
	flat := make([]api.Image, 0, len(v.lib.state.Items))
	for _, g := range groups {
		flat = append(flat, g.Images...)
	}
	return groups, months, flat
}

func (v *timelineView) Init() tea.Cmd {
	return nil
}

func (v *timelineView) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	groups, months, flat := v.project()
	v.cursor = clampInt(v.cursor, 0, maxInt(0, len(flat)-1))

	switch {
	case key.Matches(keyMsg, keys.Grid.Refresh):
		return refreshCmd()
	case key.Matches(keyMsg, keys.Grid.Up):
		v.cursor = maxInt(0, v.cursor-1)
	case key.Matches(keyMsg, keys.Grid.Down):
		v.cursor = clampInt(v.cursor+1, 0, maxInt(0, len(flat)-1))
	case key.Matches(keyMsg, keys.Grid.Home):
		v.cursor = 0
	case key.Matches(keyMsg, keys.Grid.End):
		v.cursor = maxInt(0, len(flat)-1)
	case key.Matches(keyMsg, keys.Timeline.NextMonth):
		v.jumpMonth(groups, months, 1)
	case key.Matches(keyMsg, keys.Timeline.PrevMonth):
		v.jumpMonth(groups, months, -1)
	}

	if len(flat) == 0 {
		return nil
	}
	return imageAction(router.Timeline, v.lib, keyMsg, flat, v.cursor, flat[v.cursor])
}

// jumpMonth moves the cursor to the first image of the adjacent month.
// Months are ordered newest first, so +1 goes back in time.
func (v *timelineView) jumpMonth(groups []timeline.Group, months []timeline.MonthBucket, delta int) {
	if len(months) == 0 {
		return
	}
	current := v.currentMonth(groups)
	idx := 0
	for i, b := range months {
		if b.Key == current {
			idx = i
			break
		}
	}
	target := clampInt(idx+delta, 0, len(months)-1)
	gi := timeline.IndexOfMonth(groups, months[target].Key)
	if gi < 0 {
		return
	}
	offset := 0
	for _, g := range groups[:gi] {
		offset += len(g.Images)
	}
	v.cursor = offset
}

func (v *timelineView) currentMonth(groups []timeline.Group) string {
	offset := 0
	for _, g := range groups {
		if v.cursor < offset+len(g.Images) {
			return g.MonthKey()
		}
		offset += len(g.Images)
	}
	if len(groups) > 0 {
		return groups[len(groups)-1].MonthKey()
	}
	return ""
}

func (v *timelineView) lines(groups []timeline.Group, width int, theme styles.Theme) []timelineLine {
	out := make([]timelineLine, 0, len(groups)*3)
	index := 0
	for _, g := range groups {
		if g.IsNewYear {
			out = append(out, timelineLine{text: strconv.Itoa(g.Date.Year()), index: -1, kind: lineYear})
		}
		if g.IsNewMonth {
			out = append(out, timelineLine{text: g.Date.Format("January"), index: -1, kind: lineMonth})
		}
		out = append(out, timelineLine{
			text:  fmt.Sprintf("%s (%d)", g.Label, len(g.Images)),
			index: -1,
			kind:  lineDay,
		})
		for _, img := range g.Images {
			marker := "  "
			if v.lib.isFavorite(img.ID) {
				marker = theme.Favorite().Render("★") + " "
			}
			size := humanize.Bytes(uint64(maxInt64(0, img.SizeBytes)))
			name := padRight(img.Name, maxInt(0, width-len(size)-6))
			out = append(out, timelineLine{text: marker + name + "  " + size, index: index, kind: lineImage})
			index++
		}
	}
	return out
}

func (v *timelineView) View(width, height int, theme styles.Theme) string {
	groups, months, flat := v.project()
	if msg, ok := emptyMessage(v.lib, len(flat), false); ok {
		return lipgloss.Place(maxInt(0, width), maxInt(0, height), lipgloss.Center, lipgloss.Center, theme.Muted().Render(msg))
	}
	v.cursor = clampInt(v.cursor, 0, len(flat)-1)

	cols := styles.ComputeColumnWidths(width)
	content := v.renderContent(groups, cols.Content, height, theme)
	if cols.Navigator == 0 {
		return content
	}
	nav := v.renderNavigator(months, v.currentMonth(groups), cols.Navigator, height, theme)
	return lipgloss.JoinHorizontal(lipgloss.Top, nav, strings.Repeat(" ", styles.LayoutGap), content)
}

func (v *timelineView) renderContent(groups []timeline.Group, width, height int, theme styles.Theme) string {
	lines := v.lines(groups, width, theme)
	cursorLine := 0
	for i, l := range lines {
		if l.index == v.cursor {
			cursorLine = i
			break
		}
	}
	rows := maxInt(1, height)
	if cursorLine < v.top {
		v.top = cursorLine
		// Keep the day heading above the first image visible.
		for v.top > 0 && lines[v.top-1].index < 0 {
			v.top--
		}
	}
	if cursorLine >= v.top+rows {
		v.top = cursorLine - rows + 1
	}
	v.top = clampInt(v.top, 0, maxInt(0, len(lines)-1))

	out := make([]string, 0, rows)
	for i := v.top; i < len(lines) && len(out) < rows; i++ {
		l := lines[i]
		switch {
		case l.kind == lineYear:
			out = append(out, theme.Accent().Bold(true).Render(l.text))
		case l.kind == lineMonth:
			out = append(out, theme.Accent().Render(l.text))
		case l.kind == lineDay:
			out = append(out, lipgloss.NewStyle().Bold(true).Render(truncate(l.text, width)))
		case l.index == v.cursor:
			out = append(out, theme.Selected().Render(l.text))
		default:
			out = append(out, l.text)
		}
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(out, "\n"))
}

func (v *timelineView) renderNavigator(months []timeline.MonthBucket, current string, width, height int, theme styles.Theme) string {
	rows := maxInt(1, height-2)
	start := 0
	for i, b := range months {
		if b.Key == current && i >= rows {
			start = i - rows + 1
		}
	}
	lines := make([]string, 0, rows)
	for i := start; i < len(months) && len(lines) < rows; i++ {
		b := months[i]
		text := padRight(fmt.Sprintf("%s %d", shortMonth(b), b.Count), width-4)
		if b.Key == current {
			text = theme.Selected().Render(text)
		}
		lines = append(lines, text)
	}
	return styles.PanelStyle(theme, false).Width(width - 2).Render(strings.Join(lines, "\n"))
}

// shortMonth renders "Jan 2024" from a bucket label.
func shortMonth(b timeline.MonthBucket) string {
	t, err := time.Parse("2006-01", b.Key)
	if err != nil {
		return b.Label
	}
	return t.Format("Jan 2006")
}

func (v *timelineView) Hints() string {
	return hints(keys.Grid.Open, keys.Timeline.PrevMonth, keys.Timeline.NextMonth, keys.Grid.Favorite, keys.Grid.Refresh)
}
