package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tasteline/tasteline/internal/analytics"
	"github.com/tasteline/tasteline/internal/temporal"
)

const dateLayout = "2006-01-02"

var (
	timelineUser        string
	timelineStart       string
	timelineEnd         string
	timelineGranularity string
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Render a user's taste timeline as a table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		start, err := time.Parse(dateLayout, timelineStart)
		if err != nil {
			return fmt.Errorf("parsing --start: %w", err)
		}
		end, err := time.Parse(dateLayout, timelineEnd)
		if err != nil {
			return fmt.Errorf("parsing --end: %w", err)
		}
		granularity, err := temporal.ParseGranularity(timelineGranularity)
		if err != nil {
			return err
		}

		env, err := newAppEnv(ctx)
		if err != nil {
			return err
		}
		defer env.close()

		resp, err := env.engine.GetTimeline(ctx, timelineUser, start, end, granularity, nil)
		if err != nil {
			return err
		}

		return renderTimeline(resp)
	},
}

func renderTimeline(resp *analytics.TimelineResponse) error {
	if len(resp.DataPoints) == 0 {
		fmt.Println("No listening activity in this period.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Period", "Listens", "Feedback", "Acceptance", "Mood", "Diversity", "Top Artist")

	for _, point := range resp.DataPoints {
		topArtist := ""
		if len(point.TopArtists) > 0 {
			topArtist = point.TopArtists[0].Name
		}
		label := point.Label
		if point.IsSignificantChange {
			label += " *"
		}
		err := table.Append([]string{
			label,
			fmt.Sprintf("%d", point.TotalListens),
			fmt.Sprintf("%d", point.TotalFeedback),
			fmt.Sprintf("%.0f%%", point.AcceptanceRate*100),
			string(point.Moods.Dominant()),
			fmt.Sprintf("%.2f", point.DiversityScore),
			topArtist,
		})
		if err != nil {
			return fmt.Errorf("rendering table: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	fmt.Printf("%d periods, %s granularity. * marks a significant taste change.\n",
		resp.TotalPeriods, resp.Granularity)
	return nil
}

func init() {
	rootCmd.AddCommand(timelineCmd)

	timelineCmd.Flags().StringVarP(&timelineUser, "user", "u", "", "user ID to analyze")
	timelineCmd.MarkFlagRequired("user")
	timelineCmd.Flags().StringVar(&timelineStart, "start", "", "period start (YYYY-MM-DD)")
	timelineCmd.MarkFlagRequired("start")
	timelineCmd.Flags().StringVar(&timelineEnd, "end", "", "period end (YYYY-MM-DD)")
	timelineCmd.MarkFlagRequired("end")
	timelineCmd.Flags().StringVarP(&timelineGranularity, "granularity", "g", "month", "day, week, month or year")
}
