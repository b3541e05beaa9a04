package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/galleria/internal/timeline"
)

type timelineDay struct {
	Day    string   `json:"day" yaml:"day"`
	Label  string   `json:"label" yaml:"label"`
	Count  int      `json:"count" yaml:"count"`
	Images []string `json:"images" yaml:"images"`
}

func newTimelineCmd(a *app) *cobra.Command {
	var (
		months    bool
		favorites bool
		name      string
		since     string
		until     string
	)
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show the library grouped by day",
		Long:  "Show the library grouped by calendar day, newest first. With --months only the month summary is printed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			filter := timeline.Filter{FavoritesOnly: favorites, NameContains: name}
			var err error
			if filter.Since, err = parseDay(since); err != nil {
				return fmt.Errorf("--since: %w", err)
			}
			if filter.Until, err = parseDay(until); err != nil {
				return fmt.Errorf("--until: %w", err)
			}

			images, err := a.loadAll(ctx)
			if err != nil {
				return err
			}
			var isFavorite func(string) bool
			if favorites {
				set, err := a.favoriteSet(ctx)
				if err != nil {
					return err
				}
				isFavorite = set.Has
			}
			groups := timeline.GroupImages(filter.Apply(images, isFavorite), a.now(), time.Local)

			if months {
				return a.writeMonths(cmd, timeline.Months(groups))
			}
			return a.writeDays(cmd, groups)
		},
	}
	cmd.Flags().BoolVar(&months, "months", false, "print month totals only")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "only favorites")
	cmd.Flags().StringVar(&name, "name", "", "only images whose name contains this text")
	cmd.Flags().StringVar(&since, "since", "", "only images modified on or after this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "only images modified before this day (YYYY-MM-DD)")
	return cmd
}

func parseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", value, time.Local)
}

func (a *app) writeMonths(cmd *cobra.Command, buckets []timeline.MonthBucket) error {
	out := cmd.OutOrStdout()
	if a.structured() {
		return a.writeOutput(out, buckets)
	}
	if len(buckets) == 0 {
		_, err := fmt.Fprintln(out, "No images found.")
		return err
	}
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, []string{b.Key, b.Label, strconv.Itoa(b.Count)})
	}
	return writeTable(out, []string{"MONTH", "LABEL", "IMAGES"}, rows)
}

func (a *app) writeDays(cmd *cobra.Command, groups []timeline.Group) error {
	out := cmd.OutOrStdout()
	if a.structured() {
		days := make([]timelineDay, 0, len(groups))
		for _, g := range groups {
			ids := make([]string, 0, len(g.Images))
			for _, img := range g.Images {
				ids = append(ids, img.ID)
			}
			days = append(days, timelineDay{Day: g.Key, Label: g.Label, Count: len(g.Images), Images: ids})
		}
		return a.writeOutput(out, days)
	}
	if len(groups) == 0 {
		_, err := fmt.Fprintln(out, "No images found.")
		return err
	}

	var b strings.Builder
	for _, g := range groups {
		if g.IsNewYear {
			fmt.Fprintf(&b, "%d\n", g.Date.Year())
		}
		if g.IsNewMonth {
			fmt.Fprintf(&b, "  %s\n", g.Date.Format("January"))
		}
		fmt.Fprintf(&b, "    %s (%d)\n", g.Label, len(g.Images))
		for _, img := range g.Images {
			fmt.Fprintf(&b, "      %s  %s\n", img.RelativePath, formatBytes(img.SizeBytes))
		}
	}
	_, err := fmt.Fprint(out, b.String())
	return err
}
