package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tOgg1/galleria/internal/router"
)

type viewOutput struct {
	Position int    `json:"position" yaml:"position"`
	Key      string `json:"key" yaml:"key"`
	Title    string `json:"title" yaml:"title"`
	Subtitle string `json:"subtitle" yaml:"subtitle"`
}

func newViewsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List the navigation views of the UI",
		Long:  "List the navigation views in order. The position is the digit that jumps to the view in the UI.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := router.Keys()
			views := make([]viewOutput, 0, len(keys))
			for i, k := range keys {
				v := router.Resolve(string(k))
				views = append(views, viewOutput{Position: i + 1, Key: string(v.Key), Title: v.Title, Subtitle: v.Subtitle})
			}
			out := cmd.OutOrStdout()
			if a.structured() {
				return a.writeOutput(out, views)
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{strconv.Itoa(v.Position), v.Key, v.Title, v.Subtitle})
			}
			return writeTable(out, []string{"#", "KEY", "TITLE", "SUBTITLE"}, rows)
		},
	}
}
