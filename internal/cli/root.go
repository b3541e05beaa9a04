// Package cli implements the galleria command line.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/galleria/internal/actions"
	"github.com/tOgg1/galleria/internal/api"
	"github.com/tOgg1/galleria/internal/config"
	"github.com/tOgg1/galleria/internal/events"
	"github.com/tOgg1/galleria/internal/favorites"
	"github.com/tOgg1/galleria/internal/kvstore"
	"github.com/tOgg1/galleria/internal/logging"
	"github.com/tOgg1/galleria/internal/media"
)

type globalOptions struct {
	configFile string
	server     string
	stateDir   string
	logLevel   string
	logFormat  string
	json       bool
	jsonl      bool
	yaml       bool
	quiet      bool
}

// app carries per-invocation state shared by the commands.
type app struct {
	version string
	opts    globalOptions
	now     func() time.Time

	cfg       *config.Config
	client    *api.Client
	store     kvstore.Store
	favs      *favorites.Store
	publisher *events.InMemoryPublisher
}

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// String formats the build for --version.
func (b BuildInfo) String() string {
	version := b.Version
	if version == "" {
		version = "dev"
	}
	var extra []string
	if b.Commit != "" && b.Commit != "none" {
		extra = append(extra, "commit "+b.Commit)
	}
	if b.Date != "" && b.Date != "unknown" {
		extra = append(extra, "built "+b.Date)
	}
	if len(extra) == 0 {
		return version
	}
	return version + " (" + strings.Join(extra, ", ") + ")"
}

// Execute runs the root command with os.Args.
func Execute(ctx context.Context, build BuildInfo) error {
	cmd, a := newRoot(build)
	return a.run(ctx, cmd)
}

// NewRootCmd builds the galleria command tree. Running it without a
// subcommand opens the terminal UI.
func NewRootCmd(version string) *cobra.Command {
	cmd, _ := newRoot(BuildInfo{Version: version})
	return cmd
}

func newRoot(build BuildInfo) (*cobra.Command, *app) {
	a := &app{version: build.Version, now: time.Now}

	cmd := &cobra.Command{
		Use:           "galleria",
		Short:         "Browse a self-hosted photo gallery",
		Long:          "galleria browses and curates a photo gallery backend from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.String(),
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUI(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.opts.configFile, "config", "", "config file (default: ~/.config/galleria/config.yaml)")
	flags.StringVar(&a.opts.server, "server", "", "backend API base URL, e.g. http://localhost:8000/api")
	flags.StringVar(&a.opts.stateDir, "state-dir", "", "directory for local state")
	flags.StringVar(&a.opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.opts.logFormat, "log-format", "", "log format (console, json)")
	flags.BoolVar(&a.opts.json, "json", false, "output JSON")
	flags.BoolVar(&a.opts.jsonl, "jsonl", false, "output JSON lines")
	flags.BoolVar(&a.opts.yaml, "yaml", false, "output YAML")
	flags.BoolVarP(&a.opts.quiet, "quiet", "q", false, "suppress confirmation messages")

	cmd.AddCommand(
		newUICmd(a),
		newImagesCmd(a),
		newFavoritesCmd(a),
		newTimelineCmd(a),
		newPersonsCmd(a),
		newFacesCmd(a),
		newStorageCmd(a),
		newScanCmd(a),
		newViewsCmd(a),
	)
	return cmd, a
}

// run executes cmd and then releases the state database and log file.
// Cobra skips post-run hooks when a command fails, so this is the only
// place they are closed.
func (a *app) run(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

// setup loads configuration with flag overrides and initializes logging.
func (a *app) setup(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if strings.TrimSpace(a.opts.configFile) != "" {
		loader.SetConfigFile(a.opts.configFile)
	}
	flags := cmd.Root().PersistentFlags()
	bindings := map[string]string{
		"server.url":        "server",
		"storage.state_dir": "state-dir",
		"logging.level":     "log-level",
		"logging.format":    "log-format",
	}
	for key, name := range bindings {
		flag := flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := loader.BindFlag(key, flag); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}

	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cmd.ErrOrStderr(),
		File:         cfg.Logging.File,
		EnableCaller: cfg.Logging.EnableCaller,
	}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if used := loader.ConfigFileUsed(); used != "" {
		logging.Debug().Str("path", used).Msg("loaded config file")
	}
	return nil
}

func (a *app) close() error {
	var firstErr error
	if a.publisher != nil {
		a.publisher.Close()
		a.publisher = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			firstErr = err
		}
		a.store = nil
		a.favs = nil
	}
	if err := logging.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// apiClient returns the backend client, building it on first use.
func (a *app) apiClient() (*api.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	log := logging.Component("api")
	client, err := api.New(api.Config{
		BaseURL:   a.cfg.Server.URL,
		Timeout:   a.cfg.Server.Timeout,
		Token:     a.cfg.Server.Token,
		UserAgent: userAgent(a.cfg.Server.UserAgent, a.version),
		Logger:    &log,
	})
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	a.client = client
	return client, nil
}

func userAgent(configured, version string) string {
	if strings.TrimSpace(configured) != "" {
		return configured
	}
	if version == "" {
		return "galleria"
	}
	return "galleria/" + version
}

// stateStore opens the local state database on first use.
func (a *app) stateStore(ctx context.Context) (kvstore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if err := a.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	store, err := kvstore.OpenSQLite(ctx, a.cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	a.store = store
	return store, nil
}

func (a *app) favoritesStore(ctx context.Context) (*favorites.Store, error) {
	if a.favs != nil {
		return a.favs, nil
	}
	store, err := a.stateStore(ctx)
	if err != nil {
		return nil, err
	}
	favs := favorites.New(store)
	favs.Load(ctx)
	a.favs = favs
	return favs, nil
}

func (a *app) resolver() (media.Resolver, error) {
	client, err := a.apiClient()
	if err != nil {
		return media.Resolver{}, err
	}
	return media.NewResolver(client.Origin()), nil
}

// eventBus returns the publisher mutations report to, with the audit log
// subscribed.
func (a *app) eventBus() (*events.InMemoryPublisher, error) {
	if a.publisher != nil {
		return a.publisher, nil
	}
	pub := events.NewInMemoryPublisher()
	if err := subscribeAudit(pub, logging.Component("audit")); err != nil {
		return nil, err
	}
	a.publisher = pub
	return pub, nil
}

// dispatcher builds the command dispatcher. The favorites store is opened
// only when withFavorites is set.
func (a *app) dispatcher(ctx context.Context, withFavorites bool, opts ...actions.Option) (*actions.Dispatcher, error) {
	client, err := a.apiClient()
	if err != nil {
		return nil, err
	}
	pub, err := a.eventBus()
	if err != nil {
		return nil, err
	}
	opts = append(opts, actions.WithPublisher(pub))
	if withFavorites {
		favs, err := a.favoritesStore(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, actions.WithFavorites(favs))
	}
	return actions.NewDispatcher(client, opts...), nil
}

// execute runs one command and prints its confirmation.
func (a *app) execute(cmd *cobra.Command, withFavorites bool, command actions.Command) error {
	ctx := cmd.Context()
	d, err := a.dispatcher(ctx, withFavorites)
	if err != nil {
		return err
	}
	res, err := d.Execute(ctx, command)
	if err != nil {
		return err
	}
	return a.writeResult(cmd, res)
}
