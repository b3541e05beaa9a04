package gallerytui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/galleria/internal/actions"
	"github.com/tOgg1/galleria/internal/api"
	"github.com/tOgg1/galleria/internal/gallerytui/styles"
	"github.com/tOgg1/galleria/internal/router"
)

type personsLoadedMsg struct {
	list api.PersonList
	err  error
}

// personsView lists named face groups and drives person mutations.
type personsView struct {
	ctx     context.Context
	backend Backend

	persons []api.Person
	loaded  bool
	loading bool
	err     string

	cursor    int
	top       int
	marked    map[string]bool
	restoreID string
}

func newPersonsView(ctx context.Context, backend Backend, restoreID string) *personsView {
	return &personsView{
		ctx:       ctx,
		backend:   backend,
		marked:    make(map[string]bool),
		restoreID: restoreID,
	}
}

func (v *personsView) Init() tea.Cmd {
	if v.loaded || v.loading {
		return nil
	}
	return v.load()
}

func (v *personsView) load() tea.Cmd {
	v.loading = true
	ctx := v.ctx
	backend := v.backend
	return func() tea.Msg {
		callCtx, cancel := context.WithTimeout(ctx, statusTimeout*3)
		defer cancel()
		list, err := backend.ListPersons(callCtx)
		return personsLoadedMsg{list: list, err: err}
	}
}

func (v *personsView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case personsLoadedMsg:
		v.applyLoaded(typed)
		return nil
	case mutationDoneMsg:
		if typed.err == nil && isPersonCommand(typed.cmd) {
			if _, ok := typed.cmd.(actions.MergePersons); ok {
				v.marked = make(map[string]bool)
			}
			if typed.result.Person != nil {
				v.restoreID = typed.result.Person.ID
			}
			return v.load()
		}
		return nil
	case tea.KeyMsg:
		return v.handleKey(typed)
	}
	return nil
}

func (v *personsView) applyLoaded(msg personsLoadedMsg) {
	v.loading = false
	if msg.err != nil {
		v.err = msg.err.Error()
		return
	}
	v.err = ""
	v.loaded = true
	v.persons = msg.list.Items
	for id := range v.marked {
		if v.indexOf(id) < 0 {
			delete(v.marked, id)
		}
	}
	if v.restoreID != "" {
		if i := v.indexOf(v.restoreID); i >= 0 {
			v.cursor = i
		}
		v.restoreID = ""
	}
	v.cursor = clampInt(v.cursor, 0, maxInt(0, len(v.persons)-1))
}

func (v *personsView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Grid.Up):
		v.cursor = maxInt(0, v.cursor-1)
		return nil
	case key.Matches(msg, keys.Grid.Down):
		v.cursor = clampInt(v.cursor+1, 0, maxInt(0, len(v.persons)-1))
		return nil
	case key.Matches(msg, keys.Persons.Reload):
		return v.load()
	case key.Matches(msg, keys.Persons.Create):
		return promptCmd(router.Faces, "New person", "", func(label string) actions.Command {
			return actions.CreatePerson{Label: label}
		})
	case key.Matches(msg, keys.Persons.ScanStart):
		return dispatchCmd(router.Faces, actions.ControlScan{Action: api.ScanStart})
	case key.Matches(msg, keys.Persons.ScanStop):
		return dispatchCmd(router.Faces, actions.ControlScan{Action: api.ScanStop})
	case key.Matches(msg, keys.Persons.Sync):
		return dispatchCmd(router.Faces, actions.SyncMedia{})
	}

	p, ok := v.selected()
	if !ok {
		return nil
	}
	switch {
	case key.Matches(msg, keys.Persons.Mark):
		if v.marked[p.ID] {
			delete(v.marked, p.ID)
		} else {
			v.marked[p.ID] = true
		}
	case key.Matches(msg, keys.Persons.Rename):
		id := p.ID
		return promptCmd(router.Faces, "Rename person", p.Label, func(label string) actions.Command {
			return actions.RenamePerson{ID: id, Label: label}
		})
	case key.Matches(msg, keys.Persons.Delete):
		return confirmCmd(router.Faces, fmt.Sprintf("Delete %s? Faces become unassigned.", personName(p)),
			actions.DeletePerson{ID: p.ID})
	case key.Matches(msg, keys.Persons.Merge):
		sources := v.mergeSources(p.ID)
		if len(sources) == 0 {
			return noticeCmd("Mark persons with space to merge them")
		}
		return confirmCmd(router.Faces, fmt.Sprintf("Merge %d person(s) into %s?", len(sources), personName(p)),
			actions.MergePersons{TargetID: p.ID, SourceIDs: sources})
	}
	return nil
}

func (v *personsView) mergeSources(target string) []string {
	out := make([]string, 0, len(v.marked))
	for id := range v.marked {
		if id != target {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (v *personsView) selected() (api.Person, bool) {
	if len(v.persons) == 0 {
		return api.Person{}, false
	}
	return v.persons[clampInt(v.cursor, 0, len(v.persons)-1)], true
}

func (v *personsView) indexOf(id string) int {
	for i, p := range v.persons {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (v *personsView) View(width, height int, theme styles.Theme) string {
	switch {
	case v.err != "" && len(v.persons) == 0:
		return lipgloss.Place(maxInt(0, width), maxInt(0, height), lipgloss.Center, lipgloss.Center,
			theme.Error().Render("Could not load people: "+v.err)+"\n"+theme.Muted().Render("press r to retry"))
	case !v.loaded:
		return lipgloss.Place(maxInt(0, width), maxInt(0, height), lipgloss.Center, lipgloss.Center, theme.Muted().Render("Loading people..."))
	case len(v.persons) == 0:
		return lipgloss.Place(maxInt(0, width), maxInt(0, height), lipgloss.Center, lipgloss.Center,
			theme.Muted().Render("No people yet. Press n to create one."))
	}

	rows := maxInt(1, height)
	if v.cursor < v.top {
		v.top = v.cursor
	}
	if v.cursor >= v.top+rows {
		v.top = v.cursor - rows + 1
	}

	lines := make([]string, 0, rows)
	for i := v.top; i < len(v.persons) && len(lines) < rows; i++ {
		p := v.persons[i]
		mark := "[ ]"
		if v.marked[p.ID] {
			mark = theme.Marked().Render("[x]")
		}
		faces := fmt.Sprintf("%d face", p.FaceCount)
		if p.FaceCount != 1 {
			faces += "s"
		}
		name := padRight(personName(p), maxInt(8, width-len(faces)-8))
		if i == v.cursor {
			name = theme.Selected().Render(name)
		}
		lines = append(lines, fmt.Sprintf("%s %s  %s", mark, name, theme.Muted().Render(faces)))
	}
	return strings.Join(lines, "\n")
}

func (v *personsView) Hints() string {
	return hints(keys.Persons.Create, keys.Persons.Rename, keys.Persons.Delete, keys.Persons.Mark, keys.Persons.Merge,
		keys.Persons.ScanStart, keys.Persons.ScanStop, keys.Persons.Sync)
}

func personName(p api.Person) string {
	if strings.TrimSpace(p.Label) == "" {
		return "Unnamed"
	}
	return p.Label
}

func isPersonCommand(cmd actions.Command) bool {
	switch cmd.(type) {
	case actions.CreatePerson, actions.RenamePerson, actions.DeletePerson,
		actions.MergePersons, actions.AssignFaces, actions.UnassignFaces:
		return true
	}
	return false
}
