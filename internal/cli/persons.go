package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/galleria/internal/actions"
	"github.com/tOgg1/galleria/internal/api"
)

func newPersonsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "persons",
		Aliases: []string{"person", "people"},
		Short:   "Manage named face groups",
	}
	cmd.AddCommand(
		newPersonsListCmd(a),
		&cobra.Command{
			Use:   "create <label>",
			Short: "Create an empty person",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.execute(cmd, false, actions.CreatePerson{Label: strings.TrimSpace(args[0])})
			},
		},
		&cobra.Command{
			Use:   "rename <person-id> <label>",
			Short: "Change a person's label",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.execute(cmd, false, actions.RenamePerson{ID: args[0], Label: strings.TrimSpace(args[1])})
			},
		},
		&cobra.Command{
			Use:     "delete <person-id>",
			Aliases: []string{"rm"},
			Short:   "Delete a person; its faces become unassigned",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.execute(cmd, false, actions.DeletePerson{ID: args[0]})
			},
		},
		&cobra.Command{
			Use:   "assign <person-id> <face-id>...",
			Short: "Attach faces to a person",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.execute(cmd, false, actions.AssignFaces{PersonID: args[0], FaceIDs: args[1:]})
			},
		},
		&cobra.Command{
			Use:   "unassign <person-id> <face-id>...",
			Short: "Detach faces from a person",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.execute(cmd, false, actions.UnassignFaces{PersonID: args[0], FaceIDs: args[1:]})
			},
		},
		&cobra.Command{
			Use:   "merge <target-id> <source-id>...",
			Short: "Fold source persons into the target",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.execute(cmd, false, actions.MergePersons{TargetID: args[0], SourceIDs: args[1:]})
			},
		},
	)
	return cmd
}

func newPersonsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.apiClient()
			if err != nil {
				return err
			}
			list, err := client.ListPersons(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.structured() {
				return a.writeOutput(out, list.Items)
			}
			if len(list.Items) == 0 {
				_, err := fmt.Fprintln(out, "No persons yet.")
				return err
			}
			rows := make([][]string, 0, len(list.Items))
			for _, p := range list.Items {
				rows = append(rows, []string{p.ID, personLabel(p), strconv.Itoa(p.FaceCount), formatOptional(p.CoverFaceID)})
			}
			return writeTable(out, []string{"ID", "LABEL", "FACES", "COVER"}, rows)
		},
	}
}

func personLabel(p api.Person) string {
	if strings.TrimSpace(p.Label) == "" {
		return "Unnamed"
	}
	return p.Label
}
