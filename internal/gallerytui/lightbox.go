package gallerytui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tOgg1/galleria/internal/api"
	"github.com/tOgg1/galleria/internal/gallerytui/styles"
	"github.com/tOgg1/galleria/internal/viewer"
)

const (
	// Keyboard pan steps in cells. Cells are roughly twice as tall as wide.
	panStepX = 4
	panStepY = 2

	// Assumed on-screen aspect (width/height in cells) of a 3:2 photo.
	cellAspect = 3.0

	mousePointer = 1
)

// lightbox shows one image at a time through a viewer machine.
type lightbox struct {
	images  []api.Image
	index   int
	machine *viewer.Machine
	now     func() time.Time

	// canvas origin on screen, for translating mouse coordinates.
	originY int
}

func newLightbox(images []api.Image, index int, now func() time.Time, noticeFor time.Duration) *lightbox {
	lb := &lightbox{
		images:  append([]api.Image(nil), images...),
		index:   clampInt(index, 0, len(images)-1),
		machine: viewer.New(viewer.WithClock(now), viewer.WithNoticeDuration(noticeFor)),
		now:     now,
		originY: 2,
	}
	lb.machine.SetImage(lb.images[lb.index].ID)
	return lb
}

func (lb *lightbox) current() (api.Image, bool) {
	if len(lb.images) == 0 {
		return api.Image{}, false
	}
	return lb.images[lb.index], true
}

func (lb *lightbox) resize(width, height int) {
	lb.machine.SetContainer(float64(maxInt(0, width)), float64(maxInt(0, canvasHeight(height))))
}

// step moves to the adjacent image. The machine resets on a new id.
func (lb *lightbox) step(delta int) {
	if len(lb.images) == 0 {
		return
	}
	next := clampInt(lb.index+delta, 0, len(lb.images)-1)
	if next == lb.index {
		return
	}
	lb.index = next
	lb.machine.SetImage(lb.images[next].ID)
}

// remove drops id and reports whether any image is left to show.
func (lb *lightbox) remove(id string) bool {
	for i, img := range lb.images {
		if img.ID != id {
			continue
		}
		lb.images = append(lb.images[:i], lb.images[i+1:]...)
		if len(lb.images) == 0 {
			return false
		}
		if lb.index >= len(lb.images) {
			lb.index = len(lb.images) - 1
		}
		lb.machine.SetImage(lb.images[lb.index].ID)
		return true
	}
	return len(lb.images) > 0
}

func (lb *lightbox) replace(img api.Image) {
	for i := range lb.images {
		if lb.images[i].ID == img.ID {
			lb.images[i] = img
		}
	}
}

// handleKey applies viewer keys and reports whether a notice may have
// been raised.
func (lb *lightbox) handleKey(msg tea.KeyMsg) bool {
	m := lb.machine
	switch {
	case key.Matches(msg, keys.Lightbox.Cycle):
		m.Cycle()
		return true
	case key.Matches(msg, keys.Lightbox.Toggle):
		m.ToggleZoom()
		return true
	case key.Matches(msg, keys.Lightbox.ZoomIn):
		m.Wheel(-1)
	case key.Matches(msg, keys.Lightbox.ZoomOut):
		m.Wheel(1)
	case key.Matches(msg, keys.Lightbox.PanLeft):
		m.PanBy(panStepX, 0)
	case key.Matches(msg, keys.Lightbox.PanRight):
		m.PanBy(-panStepX, 0)
	case key.Matches(msg, keys.Lightbox.PanUp):
		m.PanBy(0, panStepY)
	case key.Matches(msg, keys.Lightbox.PanDown):
		m.PanBy(0, -panStepY)
	case key.Matches(msg, keys.Lightbox.Next):
		lb.step(1)
	case key.Matches(msg, keys.Lightbox.Prev):
		lb.step(-1)
	}
	return false
}

func (lb *lightbox) handleMouse(msg tea.MouseMsg) {
	m := lb.machine
	x, y := float64(msg.X), float64(msg.Y-lb.originY)
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.Wheel(-1)
		return
	case tea.MouseButtonWheelDown:
		m.Wheel(1)
		return
	}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.PointerDown(mousePointer, x, y)
		}
	case tea.MouseActionMotion:
		m.PointerMove(mousePointer, x, y)
	case tea.MouseActionRelease:
		m.PointerUp(mousePointer)
	}
}

func canvasHeight(height int) int {
	// title above, details below.
	return height - 3
}

func (lb *lightbox) View(width, height int, theme styles.Theme, lib *library) string {
	img, ok := lb.current()
	if !ok {
		return ""
	}
	st := lb.machine.State()

	star := ""
	if lib.isFavorite(img.ID) {
		star = " " + theme.Favorite().Render("★")
	}
	title := fmt.Sprintf("%s%s  %s", img.Name, star, theme.Muted().Render(fmt.Sprintf("%d/%d", lb.index+1, len(lb.images))))
	if notice, ok := lb.machine.Notice(lb.now()); ok {
		title += "  " + theme.Notice().Render(notice.Text)
	}

	ch := maxInt(0, canvasHeight(height))
	canvas := renderCanvas(width, ch, st, theme)

	mode := st.Mode.Label() + " mode"
	if st.Mode == viewer.Zoom {
		mode = fmt.Sprintf("Zoom %.0f%%", st.Zoom*100)
		if st.Pan.X != 0 || st.Pan.Y != 0 {
			mode += fmt.Sprintf("  pan %+.0f,%+.0f", st.Pan.X, st.Pan.Y)
		}
	}
	details := []string{
		theme.Accent().Render(mode),
		img.RelativePath,
		humanize.Bytes(uint64(maxInt64(0, img.SizeBytes))),
	}
	if !img.ModifiedAt.IsZero() {
		details = append(details, img.ModifiedAt.Format("2006-01-02 15:04"))
	}
	info := truncate(strings.Join(details, "  "), width)
	link := theme.Muted().Render(truncate(lib.link(img), width))

	return lipgloss.JoinVertical(lipgloss.Left, lipgloss.NewStyle().MaxWidth(maxInt(1, width)).Render(title), canvas, info, link)
}

// renderCanvas draws the image footprint inside the container: fitted in
// frame mode, covering it in fill mode, scaled and panned in zoom mode.
func renderCanvas(width, height int, st viewer.State, theme styles.Theme) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	w, h := float64(width), float64(height)
	fitW, fitH := w, w/cellAspect
	if fitH > h {
		fitH, fitW = h, h*cellAspect
	}

	iw, ih := fitW, fitH
	switch st.Mode {
	case viewer.Fill:
		iw, ih = w, h
	case viewer.Zoom:
		iw, ih = fitW*st.Zoom, fitH*st.Zoom
	}
	left := (w-iw)/2 + st.Pan.X
	top := (h-ih)/2 + st.Pan.Y

	fill := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Accent))
	var b strings.Builder
	for y := 0; y < height; y++ {
		row := make([]rune, width)
		for x := 0; x < width; x++ {
			inside := float64(x) >= math.Floor(left) && float64(x) < math.Ceil(left+iw) &&
				float64(y) >= math.Floor(top) && float64(y) < math.Ceil(top+ih)
			if inside {
				row[x] = '░'
			} else {
				row[x] = ' '
			}
		}
		b.WriteString(fill.Render(string(row)))
		if y < height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (lb *lightbox) Hints() string {
	return hints(keys.Lightbox.Close, keys.Lightbox.Cycle, keys.Lightbox.Toggle, keys.Lightbox.ZoomIn, keys.Lightbox.ZoomOut,
		keys.Lightbox.Prev, keys.Lightbox.Next, keys.Grid.Favorite, keys.Grid.Copy)
}
