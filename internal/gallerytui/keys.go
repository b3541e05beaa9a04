package gallerytui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type globalKeys struct {
	Quit     key.Binding
	Help     key.Binding
	NextView key.Binding
	PrevView key.Binding
}

type gridKeys struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Home     key.Binding
	End      key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Open     key.Binding
	Favorite key.Binding
	Refresh  key.Binding
	Rename   key.Binding
	Delete   key.Binding
	Copy     key.Binding
}

type timelineKeys struct {
	NextMonth key.Binding
	PrevMonth key.Binding
}

type lightboxKeys struct {
	Close    key.Binding
	Cycle    key.Binding
	Toggle   key.Binding
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	PanLeft  key.Binding
	PanRight key.Binding
	PanUp    key.Binding
	PanDown  key.Binding
	Next     key.Binding
	Prev     key.Binding
}

type personKeys struct {
	Create    key.Binding
	Rename    key.Binding
	Delete    key.Binding
	Mark      key.Binding
	Merge     key.Binding
	Reload    key.Binding
	ScanStart key.Binding
	ScanStop  key.Binding
	Sync      key.Binding
}

var keys = struct {
	Global   globalKeys
	Grid     gridKeys
	Timeline timelineKeys
	Lightbox lightboxKeys
	Persons  personKeys
}{
	Global: globalKeys{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		NextView: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		PrevView: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev view")),
	},
	Grid: gridKeys{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Home:     key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
		End:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Favorite: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Rename:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rename")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Copy:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy link")),
	},
	Timeline: timelineKeys{
		NextMonth: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "older month")),
		PrevMonth: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "newer month")),
	},
	Lightbox: lightboxKeys{
		Close:    key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "close")),
		Cycle:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
		Toggle:   key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "zoom")),
		ZoomIn:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
		PanLeft:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "pan left")),
		PanRight: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "pan right")),
		PanUp:    key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "pan up")),
		PanDown:  key.NewBinding(key.WithKeys("j"), key.WithHelp("j", "pan down")),
		Next:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next")),
		Prev:     key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "prev")),
	},
	Persons: personKeys{
		Create:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Rename:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rename")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Mark:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "mark")),
		Merge:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "merge marked")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		ScanStart: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start scan")),
		ScanStop:  key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "stop scan")),
		Sync:      key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "sync media")),
	},
}

// hints renders "key desc" pairs for the footer.
func hints(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, "  ")
}
