package gallerytui

import (
	"fmt"
	"path"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/galleria/internal/actions"
	"github.com/tOgg1/galleria/internal/api"
	"github.com/tOgg1/galleria/internal/gallerytui/styles"
	"github.com/tOgg1/galleria/internal/router"
	"github.com/tOgg1/galleria/internal/timeline"
)

// gridView renders the library (or its favorites) as a grid of names.
type gridView struct {
	key           router.Key
	lib           *library
	favoritesOnly bool

	cursor int
	top    int
	cols   int
	rows   int
}

func newGridView(key router.Key, lib *library, favoritesOnly bool) *gridView {
	return &gridView{key: key, lib: lib, favoritesOnly: favoritesOnly, cols: 1, rows: 1}
}

func (v *gridView) images() []api.Image {
	if !v.favoritesOnly {
		return v.lib.state.Items
	}
	return timeline.Filter{FavoritesOnly: true}.Apply(v.lib.state.Items, v.lib.isFavorite)
}

func (v *gridView) Init() tea.Cmd {
	return nil
}

func (v *gridView) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	images := v.images()
	v.cursor = clampInt(v.cursor, 0, maxInt(0, len(images)-1))

	switch {
	case key.Matches(keyMsg, keys.Grid.Refresh):
		return refreshCmd()
	case key.Matches(keyMsg, keys.Grid.Up):
		v.move(len(images), -v.cols)
	case key.Matches(keyMsg, keys.Grid.Down):
		v.move(len(images), v.cols)
	case key.Matches(keyMsg, keys.Grid.Left):
		v.move(len(images), -1)
	case key.Matches(keyMsg, keys.Grid.Right):
		v.move(len(images), 1)
	case key.Matches(keyMsg, keys.Grid.PageUp):
		v.move(len(images), -v.cols*v.rows)
	case key.Matches(keyMsg, keys.Grid.PageDown):
		v.move(len(images), v.cols*v.rows)
	case key.Matches(keyMsg, keys.Grid.Home):
		v.cursor = 0
	case key.Matches(keyMsg, keys.Grid.End):
		v.cursor = maxInt(0, len(images)-1)
	}

	if len(images) == 0 {
		return nil
	}
	img := images[v.cursor]
	return imageAction(v.key, v.lib, keyMsg, images, v.cursor, img)
}

// imageAction handles the keys shared by every image list.
func imageAction(origin router.Key, lib *library, msg tea.KeyMsg, images []api.Image, index int, img api.Image) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Grid.Open):
		return openLightboxCmd(images, index)
	case key.Matches(msg, keys.Grid.Favorite):
		return dispatchCmd(origin, actions.ToggleFavorite{ID: img.ID})
	case key.Matches(msg, keys.Grid.Copy):
		return copyLinkCmd(lib.link(img))
	case key.Matches(msg, keys.Grid.Rename):
		oldPath := img.RelativePath
		id := img.ID
		stem := strings.TrimSuffix(img.Name, path.Ext(img.Name))
		return promptCmd(origin, "Rename", stem, func(name string) actions.Command {
			return actions.RenameImage{ID: id, RelativePath: oldPath, NewName: name}
		})
	case key.Matches(msg, keys.Grid.Delete):
		return confirmCmd(origin, fmt.Sprintf("Move %s to trash?", img.Name),
			actions.DeleteImage{ID: img.ID, RelativePath: img.RelativePath})
	}
	return nil
}

func (v *gridView) move(n, delta int) {
	if n == 0 {
		v.cursor = 0
		return
	}
	v.cursor = clampInt(v.cursor+delta, 0, n-1)
}

func (v *gridView) View(width, height int, theme styles.Theme) string {
	images := v.images()
	if msg, ok := emptyMessage(v.lib, len(images), v.favoritesOnly); ok {
		return lipgloss.Place(maxInt(0, width), maxInt(0, height), lipgloss.Center, lipgloss.Center, theme.Muted().Render(msg))
	}

	v.cols = styles.GridColumns(width)
	v.rows = maxInt(1, height)
	v.cursor = clampInt(v.cursor, 0, len(images)-1)

	row := v.cursor / v.cols
	if row < v.top {
		v.top = row
	}
	if row >= v.top+v.rows {
		v.top = row - v.rows + 1
	}

	cellWidth := styles.GridCellWidth - 1
	lines := make([]string, 0, v.rows)
	for r := v.top; r < v.top+v.rows; r++ {
		start := r * v.cols
		if start >= len(images) {
			break
		}
		cells := make([]string, 0, v.cols)
		for i := start; i < minInt(start+v.cols, len(images)); i++ {
			cells = append(cells, v.renderCell(images[i], i == v.cursor, cellWidth, theme))
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}

func (v *gridView) renderCell(img api.Image, selected bool, width int, theme styles.Theme) string {
	marker := "  "
	if v.lib.isFavorite(img.ID) {
		marker = theme.Favorite().Render("★") + " "
	}
	label := padRight(img.Name, width-2)
	if selected {
		return marker + theme.Selected().Render(label)
	}
	return marker + label
}

func (v *gridView) Hints() string {
	return hints(keys.Grid.Open, keys.Grid.Favorite, keys.Grid.Refresh, keys.Grid.Rename, keys.Grid.Delete, keys.Grid.Copy)
}

func (v *gridView) selected() (api.Image, bool) {
	images := v.images()
	if len(images) == 0 {
		return api.Image{}, false
	}
	return images[clampInt(v.cursor, 0, len(images)-1)], true
}

// emptyMessage returns the placeholder for a list without rows.
func emptyMessage(lib *library, n int, favoritesOnly bool) (string, bool) {
	if n > 0 {
		return "", false
	}
	st := lib.state
	switch {
	case st.Error != "":
		return fmt.Sprintf("Could not load images: %s\npress r to retry", st.Error), true
	case st.Loading:
		return "Loading images...", true
	case favoritesOnly && len(st.Items) > 0:
		return "No favorites yet. Press f on a photo to add it.", true
	}
	return "No images found.", true
}
