package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/galleria/internal/actions"
	"github.com/tOgg1/galleria/internal/api"
	"github.com/tOgg1/galleria/internal/favorites"
	"github.com/tOgg1/galleria/internal/gallery"
	"github.com/tOgg1/galleria/internal/logging"
	"github.com/tOgg1/galleria/internal/media"
)

func newImagesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "images",
		Aliases: []string{"image", "img"},
		Short:   "List and manage library images",
	}
	cmd.AddCommand(
		newImagesListCmd(a),
		newImagesRenameCmd(a),
		newImagesDeleteCmd(a),
		newImagesURLCmd(a),
	)
	return cmd
}

type imageRow struct {
	api.Image `yaml:",inline"`
	Favorite  bool `json:"favorite" yaml:"favorite"`
}

func newImagesListCmd(a *app) *cobra.Command {
	var (
		page     int
		pageSize int
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List images, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var images []api.Image
			if all {
				loaded, err := a.loadAll(ctx)
				if err != nil {
					return err
				}
				images = loaded
			} else {
				client, err := a.apiClient()
				if err != nil {
					return err
				}
				if pageSize <= 0 {
					pageSize = a.cfg.Gallery.PageSize
				}
				res, err := client.ListImages(ctx, page, pageSize)
				if err != nil {
					return err
				}
				images = res.Items
			}

			favs, err := a.favoritesStore(ctx)
			if err != nil {
				return err
			}
			set := favs.Snapshot()
			rows := make([]imageRow, 0, len(images))
			for _, img := range images {
				rows = append(rows, imageRow{Image: img, Favorite: set.Has(img.ID)})
			}
			return a.writeImages(cmd, rows)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number (1-based)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "page size (default: gallery.page_size)")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")
	return cmd
}

func (a *app) writeImages(cmd *cobra.Command, rows []imageRow) error {
	out := cmd.OutOrStdout()
	if a.structured() {
		return a.writeOutput(out, rows)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, "No images found.")
		return err
	}
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, []string{
			row.ID,
			row.RelativePath,
			formatBytes(row.SizeBytes),
			formatTime(row.ModifiedAt.Time),
			formatYesNo(row.Favorite),
		})
	}
	return writeTable(out, []string{"ID", "PATH", "SIZE", "MODIFIED", "FAVORITE"}, table)
}

// loadAll streams every page through a contiguous loader and returns the
// final rows.
func (a *app) loadAll(ctx context.Context) ([]api.Image, error) {
	client, err := a.apiClient()
	if err != nil {
		return nil, err
	}
	log := logging.Component("gallery")
	loader := gallery.NewLoader(client, gallery.Options{
		FirstPageSize: a.cfg.Gallery.PageSize,
		PageSize:      a.cfg.Gallery.PageSize,
		Contiguous:    true,
		Logger:        &log,
	})
	var last gallery.State
	for st := range loader.Load(ctx) {
		last = st
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if last.Error != "" {
		return nil, errors.New(last.Error)
	}
	if len(last.Items) < last.Total {
		log.Warn().Int("loaded", len(last.Items)).Int("total", last.Total).Msg("library partially loaded")
	}
	return last.Items, nil
}

func newImagesRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <relative-path> <new-name>",
		Short: "Rename an image file; the extension is kept",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd, false, actions.RenameImage{
				RelativePath: strings.TrimSpace(args[0]),
				NewName:      strings.TrimSpace(args[1]),
			})
		},
	}
}

func newImagesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <relative-path>",
		Aliases: []string{"rm", "trash"},
		Short:   "Move an image to the backend trash",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd, false, actions.DeleteImage{RelativePath: strings.TrimSpace(args[0])})
		},
	}
}

func newImagesURLCmd(a *app) *cobra.Command {
	var size string
	cmd := &cobra.Command{
		Use:   "url <relative-path>",
		Short: "Print the media or thumbnail URL of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := a.resolver()
			if err != nil {
				return err
			}
			rel := strings.TrimSpace(args[0])
			if rel == "" {
				return errors.New("relative path is required")
			}
			link := resolver.Media(rel)
			if size != "" {
				link = resolver.Thumbnail(rel, media.ParseSize(size))
			}
			if a.structured() {
				return a.writeOutput(cmd.OutOrStdout(), map[string]string{"path": rel, "url": link})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), link)
			return err
		},
	}
	cmd.Flags().StringVar(&size, "size", "", "thumbnail size (small, medium, large); omit for the original")
	return cmd
}

// favoriteSet returns the persisted favorites without opening a dispatcher.
func (a *app) favoriteSet(ctx context.Context) (favorites.Set, error) {
	favs, err := a.favoritesStore(ctx)
	if err != nil {
		return nil, err
	}
	return favs.Snapshot(), nil
}
