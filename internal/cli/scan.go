package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tOgg1/galleria/internal/actions"
	"github.com/tOgg1/galleria/internal/api"
)

func newStorageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "storage",
		Short: "Show library size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.apiClient()
			if err != nil {
				return err
			}
			stats, err := client.Storage(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.structured() {
				return a.writeOutput(out, stats)
			}
			mediaPath := stats.MediaPath
			if mediaPath == "" {
				mediaPath = emptyCell
			}
			return writeTable(out, []string{"IMAGES", "SIZE", "MEDIA PATH"}, [][]string{{
				strconv.Itoa(stats.ImageCount),
				formatBytes(stats.TotalBytes),
				mediaPath,
			}})
		},
	}
}

func newScanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Control the face scan and media sync",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show face scan progress",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := a.apiClient()
				if err != nil {
					return err
				}
				st, err := client.ScanStatus(cmd.Context())
				if err != nil {
					return err
				}
				return a.writeScanStatus(cmd, st)
			},
		},
		&cobra.Command{
			Use:   "start",
			Short: "Start the face scan",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.execute(cmd, false, actions.ControlScan{Action: api.ScanStart})
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the face scan after the current image",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.execute(cmd, false, actions.ControlScan{Action: api.ScanStop})
			},
		},
		&cobra.Command{
			Use:   "sync",
			Short: "Sync the media directory into the library",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.execute(cmd, false, actions.SyncMedia{})
			},
		},
		&cobra.Command{
			Use:   "sync-status",
			Short: "Show the media sync state",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := a.apiClient()
				if err != nil {
					return err
				}
				st, err := client.SyncStatus(cmd.Context())
				if err != nil {
					return err
				}
				return a.writeSyncStatus(cmd, st)
			},
		},
	)
	return cmd
}

func (a *app) writeScanStatus(cmd *cobra.Command, st api.ScanStatus) error {
	out := cmd.OutOrStdout()
	if a.structured() {
		return a.writeOutput(out, st)
	}
	started := emptyCell
	if st.StartedAt != nil {
		started = formatTime(st.StartedAt.Time)
	}
	return writeTable(out, []string{"RUNNING", "PROGRESS", "IMAGES", "CURRENT", "STARTED", "SYNCING"}, [][]string{{
		formatYesNo(st.IsRunning),
		fmt.Sprintf("%.0f%%", st.ProgressPercent),
		fmt.Sprintf("%d/%d", st.ProcessedImages, st.TotalImages),
		formatOptional(st.CurrentImage),
		started,
		formatYesNo(st.IsSyncing),
	}})
}

func (a *app) writeSyncStatus(cmd *cobra.Command, st api.SyncStatus) error {
	out := cmd.OutOrStdout()
	if a.structured() {
		return a.writeOutput(out, st)
	}
	row := []string{formatYesNo(st.IsRunning), emptyCell, emptyCell, emptyCell, emptyCell}
	if r := st.LastReport; r != nil {
		row = []string{
			formatYesNo(st.IsRunning),
			strconv.Itoa(r.Scanned),
			strconv.Itoa(r.Inserted),
			strconv.Itoa(r.Updated),
			strconv.Itoa(r.Removed),
		}
	}
	return writeTable(out, []string{"RUNNING", "SCANNED", "INSERTED", "UPDATED", "REMOVED"}, [][]string{row})
}
