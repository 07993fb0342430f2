package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tasteline/tasteline/internal/analytics"
)

var (
	seasonalUser    string
	seasonalMonthly bool
)

var seasonalCmd = &cobra.Command{
	Use:   "seasonal",
	Short: "Render a user's seasonal listening patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := newAppEnv(ctx)
		if err != nil {
			return err
		}
		defer env.close()

		var resp *analytics.SeasonalResponse
		if seasonalMonthly {
			resp, err = env.engine.GetMonthlyPatterns(ctx, seasonalUser)
		} else {
			resp, err = env.engine.GetSeasonalPatterns(ctx, seasonalUser)
		}
		if err != nil {
			return err
		}

		return renderSeasonal(resp, seasonalMonthly)
	},
}

func renderSeasonal(resp *analytics.SeasonalResponse, monthly bool) error {
	if len(resp.Patterns) == 0 {
		fmt.Println("Not enough feedback yet for a confident pattern.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Period", "Up", "Down", "Avg Rating", "Confidence", "Preferred Artists")

	for _, pattern := range resp.Patterns {
		period := string(pattern.Season)
		if monthly {
			period = time.Month(pattern.Month).String()
		}
		err := table.Append([]string{
			period,
			fmt.Sprintf("%d", pattern.ThumbsUpCount),
			fmt.Sprintf("%d", pattern.ThumbsDownCount),
			fmt.Sprintf("%.2f", pattern.AverageRating),
			fmt.Sprintf("%.2f", pattern.Confidence),
			strings.Join(pattern.PreferredArtists, ", "),
		})
		if err != nil {
			return fmt.Errorf("rendering table: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(seasonalCmd)

	seasonalCmd.Flags().StringVarP(&seasonalUser, "user", "u", "", "user ID to analyze")
	seasonalCmd.MarkFlagRequired("user")
	seasonalCmd.Flags().BoolVar(&seasonalMonthly, "monthly", false, "group by calendar month instead of season")
}
