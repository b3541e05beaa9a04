package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/galleria/internal/api"
)

func newFacesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faces",
		Short: "Inspect detected faces and clusters",
	}
	cmd.AddCommand(newFacesListCmd(a), newFacesClustersCmd(a))
	return cmd
}

func newFacesListCmd(a *app) *cobra.Command {
	var q api.FaceQuery
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List detected faces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.apiClient()
			if err != nil {
				return err
			}
			q.Status = api.FaceStatus(strings.ToLower(strings.TrimSpace(status)))
			list, err := client.ListFaces(cmd.Context(), q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.structured() {
				return a.writeOutput(out, list)
			}
			if len(list.Items) == 0 {
				_, err := fmt.Fprintln(out, "No faces found.")
				return err
			}
			if err := writeFaces(out, list.Items); err != nil {
				return err
			}
			if shown := list.Offset + len(list.Items); shown < list.Total {
				_, err = fmt.Fprintf(out, "showing %d-%d of %d\n", list.Offset+1, shown, list.Total)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&q.PersonID, "person", "", "only faces of this person")
	cmd.Flags().StringVar(&status, "status", "", "assigned, unassigned or any")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "maximum number of faces")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "number of faces to skip")
	return cmd
}

func writeFaces(out io.Writer, faces []api.Face) error {
	rows := make([][]string, 0, len(faces))
	for _, f := range faces {
		rows = append(rows, []string{
			f.ID,
			f.RelativePath,
			formatOptional(f.PersonID),
			strconv.FormatFloat(f.Confidence, 'f', 2, 64),
		})
	}
	return writeTable(out, []string{"ID", "IMAGE", "PERSON", "CONFIDENCE"}, rows)
}

func newFacesClustersCmd(a *app) *cobra.Command {
	var (
		threshold float64
		minSize   int
		all       bool
	)
	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Group similar faces into suggested clusters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.apiClient()
			if err != nil {
				return err
			}
			var q api.ClusterQuery
			flags := cmd.Flags()
			if flags.Changed("threshold") {
				q.Threshold = &threshold
			}
			if flags.Changed("min-size") {
				q.MinClusterSize = &minSize
			}
			if flags.Changed("all") {
				unassigned := !all
				q.UnassignedOnly = &unassigned
			}
			list, err := client.Clusters(cmd.Context(), q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.structured() {
				return a.writeOutput(out, list)
			}
			if len(list.Clusters) == 0 {
				_, err := fmt.Fprintln(out, "No clusters found.")
				return err
			}
			rows := make([][]string, 0, len(list.Clusters))
			for _, c := range list.Clusters {
				rows = append(rows, []string{
					strconv.Itoa(c.ClusterID),
					strconv.Itoa(len(c.FaceIDs)),
					c.RepresentativeFaceID,
					strings.Join(c.FaceIDs, ","),
				})
			}
			return writeTable(out, []string{"CLUSTER", "FACES", "REPRESENTATIVE", "FACE IDS"}, rows)
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 0.6, "maximum face distance within a cluster")
	cmd.Flags().IntVar(&minSize, "min-size", 1, "minimum faces per cluster")
	cmd.Flags().BoolVar(&all, "all", false, "include faces already assigned to a person")
	return cmd
}
