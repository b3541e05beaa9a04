package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/galleria/internal/actions"
	"github.com/tOgg1/galleria/internal/timeline"
)

func newFavoritesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav", "favs"},
		Short:   "List and toggle locally stored favorites",
	}
	cmd.AddCommand(newFavoritesListCmd(a), newFavoritesToggleCmd(a), newFavoritesClearCmd(a))
	return cmd
}

func newFavoritesListCmd(a *app) *cobra.Command {
	var details bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List favorite image ids",
		Long:  "List favorite image ids. With --details the library is loaded and favorites are shown as images, skipping ids the backend no longer has.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			set, err := a.favoriteSet(ctx)
			if err != nil {
				return err
			}
			if details {
				images, err := a.loadAll(ctx)
				if err != nil {
					return err
				}
				matched := timeline.Filter{FavoritesOnly: true}.Apply(images, set.Has)
				rows := make([]imageRow, 0, len(matched))
				for _, img := range matched {
					rows = append(rows, imageRow{Image: img, Favorite: true})
				}
				return a.writeImages(cmd, rows)
			}

			ids := set.Sorted()
			out := cmd.OutOrStdout()
			if a.structured() {
				return a.writeOutput(out, ids)
			}
			if len(ids) == 0 {
				_, err := fmt.Fprintln(out, "No favorites yet.")
				return err
			}
			_, err = fmt.Fprintln(out, strings.Join(ids, "\n"))
			return err
		},
	}
	cmd.Flags().BoolVar(&details, "details", false, "load the library and show favorite images")
	return cmd
}

func newFavoritesToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <image-id>",
		Short: "Add or remove an image from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd, true, actions.ToggleFavorite{ID: args[0]})
		},
	}
}

func newFavoritesClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every favorite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			favs, err := a.favoritesStore(cmd.Context())
			if err != nil {
				return err
			}
			n := favs.Clear(cmd.Context())
			return a.writeResult(cmd, actions.Result{
				Command: "clear favorites",
				Message: fmt.Sprintf("Cleared %d favorites", n),
				Count:   n,
			})
		},
	}
}
