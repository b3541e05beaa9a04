package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tOgg1/galleria/internal/actions"
	"github.com/tOgg1/galleria/internal/config"
	"github.com/tOgg1/galleria/internal/gallery"
	"github.com/tOgg1/galleria/internal/gallerytui"
	"github.com/tOgg1/galleria/internal/logging"
)

// ErrNoTTY is returned when the UI is requested without a terminal.
var ErrNoTTY = errors.New("the galleria UI requires an interactive terminal; use a subcommand such as 'galleria images list' instead")

func newUICmd(a *app) *cobra.Command {
	var theme string
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Launch the terminal UI",
		Long:  "Launch the galleria terminal user interface. This is also the default when no subcommand is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if theme != "" {
				a.cfg.TUI.Theme = theme
			}
			return a.runUI(cmd)
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "", "theme: default|high-contrast")
	return cmd
}

var isInteractive = hasTTY

func (a *app) runUI(cmd *cobra.Command) error {
	if !isInteractive() {
		return ErrNoTTY
	}
	ctx := cmd.Context()

	// The UI owns the terminal; logs go to a file.
	if err := a.cfg.EnsureDirectories(); err != nil {
		return err
	}
	if err := logging.Init(logging.Config{
		Level:        a.cfg.Logging.Level,
		Format:       "json",
		File:         a.cfg.TUILogPath(),
		EnableCaller: a.cfg.Logging.EnableCaller,
	}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	deps, err := a.uiDeps(cmd)
	if err != nil {
		return err
	}
	logging.Info().Str("server", logging.RedactURL(a.cfg.Server.URL)).Msg("starting ui")
	return gallerytui.Run(ctx, gallerytui.Config{
		Theme:          a.cfg.TUI.Theme,
		ThumbnailSize:  a.cfg.TUI.ThumbnailSize,
		NoticeDuration: a.cfg.Viewer.NoticeDuration,
		Location:       time.Local,
	}, deps)
}

// uiDeps wires the components the shell drives.
func (a *app) uiDeps(cmd *cobra.Command) (gallerytui.Deps, error) {
	ctx := cmd.Context()
	client, err := a.apiClient()
	if err != nil {
		return gallerytui.Deps{}, err
	}
	favs, err := a.favoritesStore(ctx)
	if err != nil {
		return gallerytui.Deps{}, err
	}
	resolver, err := a.resolver()
	if err != nil {
		return gallerytui.Deps{}, err
	}
	loader := gallery.NewLoader(client, gallery.Options{
		FirstPageSize: a.cfg.Gallery.FirstPageSize,
		PageSize:      a.cfg.Gallery.PageSize,
		Contiguous:    a.cfg.Gallery.Contiguous,
	})
	dispatcher, err := a.dispatcher(ctx, true, actions.WithGallery(loader))
	if err != nil {
		return gallerytui.Deps{}, err
	}
	return gallerytui.Deps{
		Backend:    client,
		Loader:     loader,
		Favorites:  favs,
		Dispatcher: dispatcher,
		Resolver:   resolver,
		Sessions:   config.NewSessionStore(a.cfg.SessionPath()),
	}, nil
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
