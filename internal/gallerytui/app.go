// Package gallerytui is the interactive galleria shell. It composes the
// gallery loader, favorites, viewer machine, timeline grouper and view
// router behind a bubbletea program.
package gallerytui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/tOgg1/galleria/internal/actions"
	"github.com/tOgg1/galleria/internal/api"
	"github.com/tOgg1/galleria/internal/config"
	"github.com/tOgg1/galleria/internal/favorites"
	"github.com/tOgg1/galleria/internal/gallery"
	"github.com/tOgg1/galleria/internal/gallerytui/styles"
	"github.com/tOgg1/galleria/internal/logging"
	"github.com/tOgg1/galleria/internal/media"
	"github.com/tOgg1/galleria/internal/router"
	"github.com/tOgg1/galleria/internal/viewer"
)

const (
	defaultStatusInterval = 5 * time.Second
	statusTimeout         = 3 * time.Second
	mutationTimeout       = 30 * time.Second
)

type Theme string

const (
	ThemeDefault      Theme = "default"
	ThemeHighContrast Theme = "high-contrast"
)

// Config tunes the shell.
type Config struct {
	Theme          string
	ThumbnailSize  string
	NoticeDuration time.Duration
	StatusInterval time.Duration
	Location       *time.Location
	Now            func() time.Time
}

// Backend is the read side of the API the shell polls directly.
type Backend interface {
	ListPersons(ctx context.Context) (api.PersonList, error)
	Storage(ctx context.Context) (api.StorageStats, error)
	ScanStatus(ctx context.Context) (api.ScanStatus, error)
}

// Executor runs typed commands.
type Executor interface {
	Execute(ctx context.Context, cmd actions.Command) (actions.Result, error)
}

// Deps are the components the shell drives. Loader, Favorites, Dispatcher
// and Backend are required.
type Deps struct {
	Backend    Backend
	Loader     *gallery.Loader
	Favorites  *favorites.Store
	Dispatcher Executor
	Resolver   media.Resolver
	Sessions   *config.SessionStore
	Clipboard  func(string) error
}

// library is the gallery data shared by the image views.
type library struct {
	state      gallery.State
	favs       favorites.Set
	favVersion uint64
	resolver   media.Resolver
	thumb      media.Size
}

func (l *library) isFavorite(id string) bool {
	return l.favs.Has(id)
}

func (l *library) link(img api.Image) string {
	if img.URL != "" {
		return l.resolver.Absolute(img.URL)
	}
	return l.resolver.Media(img.RelativePath)
}

type Model struct {
	deps   Deps
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger

	theme          Theme
	now            func() time.Time
	noticeFor      time.Duration
	statusInterval time.Duration

	width    int
	height   int
	showHelp bool

	active router.Key
	views  map[router.Key]viewModel

	lib     *library
	updates <-chan gallery.State

	storage *api.StorageStats
	scan    *api.ScanStatus

	lightbox *lightbox
	prompt   *prompt
	confirm  *confirmation

	errors    map[router.Key]string
	notice    string
	noticeSeq uint64

	session *config.Session
}

type viewModel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int, theme styles.Theme) string
	Hints() string
}

type galleryStateMsg struct {
	ch    <-chan gallery.State
	state gallery.State
}

type galleryDoneMsg struct {
	ch <-chan gallery.State
}

type refreshMsg struct{}

type statusMsg struct {
	storage *api.StorageStats
	scan    *api.ScanStatus
}

type statusTickMsg struct{}

type dispatchMsg struct {
	origin router.Key
	cmd    actions.Command
}

type mutationDoneMsg struct {
	origin router.Key
	cmd    actions.Command
	result actions.Result
	err    error
}

type openLightboxMsg struct {
	images []api.Image
	index  int
}

type openPromptMsg struct {
	origin  router.Key
	title   string
	initial string
	submit  func(string) actions.Command
}

type openConfirmMsg struct {
	origin   router.Key
	question string
	cmd      actions.Command
}

type copyLinkMsg struct {
	url string
}

type noticeMsg struct {
	text string
}

type noticeExpiredMsg struct {
	seq uint64
}

type viewerNoticeExpiredMsg struct {
	seq uint64
}

func refreshCmd() tea.Cmd {
	return func() tea.Msg { return refreshMsg{} }
}

func dispatchCmd(origin router.Key, cmd actions.Command) tea.Cmd {
	return func() tea.Msg { return dispatchMsg{origin: origin, cmd: cmd} }
}

func openLightboxCmd(images []api.Image, index int) tea.Cmd {
	return func() tea.Msg { return openLightboxMsg{images: images, index: index} }
}

func promptCmd(origin router.Key, title, initial string, submit func(string) actions.Command) tea.Cmd {
	return func() tea.Msg {
		return openPromptMsg{origin: origin, title: title, initial: initial, submit: submit}
	}
}

func confirmCmd(origin router.Key, question string, cmd actions.Command) tea.Cmd {
	return func() tea.Msg {
		return openConfirmMsg{origin: origin, question: question, cmd: cmd}
	}
}

func copyLinkCmd(url string) tea.Cmd {
	return func() tea.Msg { return copyLinkMsg{url: url} }
}

func noticeCmd(text string) tea.Cmd {
	return func() tea.Msg { return noticeMsg{text: text} }
}

func waitForGallery(ch <-chan gallery.State) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return galleryDoneMsg{ch: ch}
		}
		return galleryStateMsg{ch: ch, state: st}
	}
}

// NewModel builds the shell. The returned model owns a child of ctx that
// Close cancels.
func NewModel(ctx context.Context, cfg Config, deps Deps) (*Model, error) {
	normalized, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Clipboard == nil {
		deps.Clipboard = clipboard.WriteAll
	}

	runCtx, cancel := context.WithCancel(ctx)
	m := &Model{
		deps:           deps,
		ctx:            runCtx,
		cancel:         cancel,
		log:            logging.Component("tui"),
		theme:          Theme(normalized.Theme),
		now:            normalized.Now,
		noticeFor:      normalized.NoticeDuration,
		statusInterval: normalized.StatusInterval,
		active:         router.Default,
		views:          make(map[router.Key]viewModel),
		errors:         make(map[router.Key]string),
		lib: &library{
			favs:     deps.Favorites.Load(runCtx),
			resolver: deps.Resolver,
			thumb:    media.ParseSize(normalized.ThumbnailSize),
		},
		session: &config.Session{},
	}
	m.lib.state = deps.Loader.Snapshot()

	if deps.Sessions != nil {
		session, err := deps.Sessions.Load()
		if err != nil {
			// Non-fatal: start from the default view.
			m.log.Warn().Err(err).Msg("session restore failed")
		} else {
			m.session = session
			if router.Known(session.View) {
				m.active = router.Resolve(session.View).Key
			}
		}
	}

	m.initViews(normalized)
	return m, nil
}

// Run starts the full-screen program and blocks until it exits.
func Run(ctx context.Context, cfg Config, deps Deps) error {
	model, err := NewModel(ctx, cfg, deps)
	if err != nil {
		return err
	}
	defer model.Close()

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Close stops background loading and persists the session.
func (m *Model) Close() error {
	if m == nil {
		return nil
	}
	m.deps.Loader.Cancel()
	m.cancel()
	if m.deps.Sessions == nil {
		return nil
	}
	m.session.SetView(string(m.active))
	if pv, ok := m.views[router.Faces].(*personsView); ok {
		if p, ok := pv.selected(); ok {
			m.session.SetPerson(p.ID, p.Label)
		}
	}
	return m.deps.Sessions.Save(m.session)
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.startLoad(), m.fetchStatus()}
	if view := m.activeView(); view != nil {
		cmds = append(cmds, view.Init())
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		if m.lightbox != nil {
			m.lightbox.resize(m.width, m.bodyHeight())
		}
		return m, nil
	case galleryStateMsg:
		if typed.ch != m.updates {
			return m, nil
		}
		// The loader's snapshot also carries renames and removals applied
		// after this update was queued.
		m.lib.state = m.deps.Loader.Snapshot()
		if typed.state.Error != "" {
			m.log.Warn().Str("error", typed.state.Error).Msg("gallery load failed")
		}
		return m, waitForGallery(typed.ch)
	case galleryDoneMsg:
		if typed.ch == m.updates {
			m.updates = nil
		}
		return m, nil
	case refreshMsg:
		return m, m.startLoad()
	case statusMsg:
		if typed.storage != nil {
			m.storage = typed.storage
		}
		if typed.scan != nil {
			m.scan = typed.scan
		}
		return m, tea.Tick(m.statusInterval, func(time.Time) tea.Msg { return statusTickMsg{} })
	case statusTickMsg:
		return m, m.fetchStatus()
	case dispatchMsg:
		delete(m.errors, typed.origin)
		return m, m.execute(typed.origin, typed.cmd)
	case mutationDoneMsg:
		return m, m.applyMutation(typed)
	case openLightboxMsg:
		if len(typed.images) == 0 {
			return m, nil
		}
		m.lightbox = newLightbox(typed.images, typed.index, m.now, m.noticeFor)
		m.lightbox.resize(m.width, m.bodyHeight())
		return m, nil
	case openPromptMsg:
		m.prompt = newPrompt(typed)
		return m, m.prompt.focus()
	case openConfirmMsg:
		m.confirm = &confirmation{origin: typed.origin, question: typed.question, cmd: typed.cmd}
		return m, nil
	case copyLinkMsg:
		return m, m.copyLink(typed.url)
	case noticeMsg:
		return m, m.showNotice(typed.text)
	case noticeExpiredMsg:
		if typed.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	case viewerNoticeExpiredMsg:
		if m.lightbox != nil {
			m.lightbox.machine.DismissNotice(typed.seq)
		}
		return m, nil
	case personsLoadedMsg:
		if view := m.views[router.Faces]; view != nil {
			return m, view.Update(msg)
		}
		return m, nil
	case tea.MouseMsg:
		if m.lightbox != nil {
			m.lightbox.handleMouse(typed)
		}
		return m, nil
	case tea.KeyMsg:
		if typed.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.prompt != nil {
			return m, m.updatePrompt(typed)
		}
		if m.confirm != nil {
			return m, m.updateConfirm(typed)
		}
		if m.lightbox != nil {
			return m, m.updateLightbox(typed)
		}
		if cmd, handled := m.handleGlobalKey(typed); handled {
			return m, cmd
		}
	}

	if m.prompt != nil {
		return m, m.prompt.update(msg)
	}
	if active := m.activeView(); active != nil {
		return m, active.Update(msg)
	}
	return m, nil
}

func (m *Model) View() string {
	palette := m.palette()
	header := m.renderHeader(palette)
	status := m.renderStatusLine(palette)
	footer := m.renderFooter(palette)
	chrome := []string{header}
	overlay := m.renderOverlay(palette)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(status) - lipgloss.Height(footer)
	if overlay != "" {
		contentHeight -= lipgloss.Height(overlay)
	}
	contentHeight = maxInt(0, contentHeight)

	var body string
	switch {
	case m.lightbox != nil:
		body = m.lightbox.View(m.width, contentHeight, palette, m.lib)
	case m.activeView() != nil:
		body = m.activeView().View(m.width, contentHeight, palette)
	default:
		body = "no active view"
	}
	body = lipgloss.NewStyle().Height(contentHeight).MaxHeight(contentHeight).Render(body)

	chrome = append(chrome, body)
	if overlay != "" {
		chrome = append(chrome, overlay)
	}
	chrome = append(chrome, status, footer)
	return lipgloss.JoinVertical(lipgloss.Left, chrome...)
}

func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keys.Global.Quit):
		return tea.Quit, true
	case key.Matches(msg, keys.Global.Help):
		m.showHelp = !m.showHelp
		return nil, true
	case key.Matches(msg, keys.Global.NextView):
		return m.switchView(router.Next(m.active)), true
	case key.Matches(msg, keys.Global.PrevView):
		return m.switchView(router.Prev(m.active)), true
	}
	if len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '9' {
		if next, ok := router.At(int(msg.Runes[0] - '0')); ok {
			return m.switchView(next), true
		}
	}
	return nil, false
}

func (m *Model) switchView(next router.Key) tea.Cmd {
	if next == m.active {
		return nil
	}
	m.active = next
	m.session.SetView(string(next))
	if view := m.activeView(); view != nil {
		return view.Init()
	}
	return nil
}

func (m *Model) activeView() viewModel {
	return m.views[m.active]
}

func (m *Model) activeRoute() router.View {
	return router.Resolve(string(m.active))
}

func (m *Model) palette() styles.Theme {
	return styles.Lookup(string(m.theme))
}

func (m *Model) bodyHeight() int {
	// header, status line and footer take one row each.
	return maxInt(0, m.height-3)
}

func (m *Model) startLoad() tea.Cmd {
	m.updates = m.deps.Loader.Load(m.ctx)
	return waitForGallery(m.updates)
}

func (m *Model) fetchStatus() tea.Cmd {
	backend := m.deps.Backend
	ctx := m.ctx
	log := m.log
	return func() tea.Msg {
		callCtx, cancel := context.WithTimeout(ctx, statusTimeout)
		defer cancel()
		var out statusMsg
		if stats, err := backend.Storage(callCtx); err == nil {
			out.storage = &stats
		} else {
			log.Debug().Err(err).Msg("storage stats unavailable")
		}
		if scan, err := backend.ScanStatus(callCtx); err == nil {
			out.scan = &scan
		} else {
			log.Debug().Err(err).Msg("scan status unavailable")
		}
		return out
	}
}

func (m *Model) execute(origin router.Key, cmd actions.Command) tea.Cmd {
	dispatcher := m.deps.Dispatcher
	ctx := m.ctx
	return func() tea.Msg {
		callCtx, cancel := context.WithTimeout(ctx, mutationTimeout)
		defer cancel()
		res, err := dispatcher.Execute(callCtx, cmd)
		return mutationDoneMsg{origin: origin, cmd: cmd, result: res, err: err}
	}
}

func (m *Model) applyMutation(msg mutationDoneMsg) tea.Cmd {
	if msg.err != nil {
		m.errors[msg.origin] = mutationMessage(msg.err)
		return nil
	}
	delete(m.errors, msg.origin)
	m.lib.state = m.deps.Loader.Snapshot()
	if msg.result.Favorites != nil {
		m.lib.favs = m.deps.Favorites.Snapshot()
		m.lib.favVersion++
	}
	if m.lightbox != nil {
		switch c := msg.cmd.(type) {
		case actions.DeleteImage:
			if !m.lightbox.remove(c.ID) {
				m.lightbox = nil
			}
		case actions.RenameImage:
			if msg.result.Image != nil {
				m.lightbox.replace(*msg.result.Image)
			}
		}
	}

	cmds := []tea.Cmd{m.showNotice(msg.result.Message)}
	if view := m.views[msg.origin]; view != nil {
		cmds = append(cmds, view.Update(msg))
	}
	if _, ok := msg.cmd.(actions.ControlScan); ok {
		cmds = append(cmds, m.fetchStatus())
	}
	return tea.Batch(cmds...)
}

func mutationMessage(err error) string {
	var mErr *actions.MutationError
	if errors.As(err, &mErr) {
		return mErr.Message()
	}
	return err.Error()
}

func (m *Model) copyLink(url string) tea.Cmd {
	write := m.deps.Clipboard
	log := m.log
	return func() tea.Msg {
		if err := write(url); err != nil {
			log.Debug().Err(err).Msg("clipboard unavailable")
			return noticeMsg{text: "Could not copy link"}
		}
		return noticeMsg{text: "Link copied"}
	}
}

func (m *Model) showNotice(text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	m.noticeSeq++
	m.notice = text
	seq := m.noticeSeq
	return tea.Tick(m.noticeFor, func(time.Time) tea.Msg { return noticeExpiredMsg{seq: seq} })
}

func (m *Model) updatePrompt(msg tea.KeyMsg) tea.Cmd {
	p := m.prompt
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt = nil
		return nil
	case tea.KeyEnter:
		m.prompt = nil
		value := strings.TrimSpace(p.input.Value())
		if value == "" || p.submit == nil {
			return nil
		}
		return dispatchCmd(p.origin, p.submit(value))
	}
	return p.update(msg)
}

func (m *Model) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	c := m.confirm
	m.confirm = nil
	if msg.String() == "y" || msg.String() == "Y" {
		return dispatchCmd(c.origin, c.cmd)
	}
	return nil
}

func (m *Model) updateLightbox(msg tea.KeyMsg) tea.Cmd {
	lb := m.lightbox
	switch {
	case key.Matches(msg, keys.Lightbox.Close):
		m.lightbox = nil
		return nil
	case key.Matches(msg, keys.Grid.Favorite):
		if img, ok := lb.current(); ok {
			return dispatchCmd(m.active, actions.ToggleFavorite{ID: img.ID})
		}
		return nil
	case key.Matches(msg, keys.Grid.Copy):
		if img, ok := lb.current(); ok {
			return copyLinkCmd(m.lib.link(img))
		}
		return nil
	}
	if lb.handleKey(msg) {
		return m.scheduleViewerNotice()
	}
	return nil
}

func (m *Model) scheduleViewerNotice() tea.Cmd {
	if m.lightbox == nil {
		return nil
	}
	now := m.now()
	notice, ok := m.lightbox.machine.Notice(now)
	if !ok {
		return nil
	}
	seq := notice.Seq
	return tea.Tick(notice.Expires.Sub(now), func(time.Time) tea.Msg {
		return viewerNoticeExpiredMsg{seq: seq}
	})
}

func (m *Model) initViews(cfg Config) {
	m.views[router.All] = newGridView(router.All, m.lib, false)
	m.views[router.Favorites] = newGridView(router.Favorites, m.lib, true)
	m.views[router.Timeline] = newTimelineView(m.lib, cfg.Location, cfg.Now)
	m.views[router.Faces] = newPersonsView(m.ctx, m.deps.Backend, m.session.PersonID)
	m.views[router.Memories] = newPlaceholderView(router.Resolve(string(router.Memories)))
}

func (c Config) normalize() (Config, error) {
	if c.NoticeDuration <= 0 {
		c.NoticeDuration = viewer.DefaultNoticeDuration
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = defaultStatusInterval
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if strings.TrimSpace(c.Theme) == "" {
		c.Theme = string(ThemeDefault)
	}
	switch Theme(c.Theme) {
	case ThemeDefault, ThemeHighContrast:
	default:
		return Config{}, fmt.Errorf("invalid theme %q", c.Theme)
	}
	return c, nil
}

func (d Deps) validate() error {
	switch {
	case d.Loader == nil:
		return errors.New("gallery loader is required")
	case d.Favorites == nil:
		return errors.New("favorites store is required")
	case d.Dispatcher == nil:
		return errors.New("command dispatcher is required")
	case d.Backend == nil:
		return errors.New("backend is required")
	}
	return nil
}

type placeholderView struct {
	route router.View
}

func newPlaceholderView(route router.View) *placeholderView {
	return &placeholderView{route: route}
}

func (p *placeholderView) Init() tea.Cmd {
	return nil
}

func (p *placeholderView) Update(tea.Msg) tea.Cmd {
	return nil
}

func (p *placeholderView) View(width, height int, theme styles.Theme) string {
	text := fmt.Sprintf("%s\n\nComing soon.", p.route.Title)
	return lipgloss.Place(maxInt(0, width), maxInt(0, height), lipgloss.Center, lipgloss.Center, theme.Muted().Render(text))
}

func (p *placeholderView) Hints() string {
	return ""
}
