package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tasteline/tasteline/internal/analytics"
	"github.com/tasteline/tasteline/internal/export"
)

var (
	snapshotUser         string
	snapshotExportFormat string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Work with stored taste snapshots",
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := newAppEnv(ctx)
		if err != nil {
			return err
		}
		defer env.close()

		snaps, err := env.engine.ListSnapshots(ctx, snapshotUser)
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			fmt.Println("No snapshots.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("ID", "Name", "Period", "Captured")
		for _, snap := range snaps {
			period := fmt.Sprintf("%s to %s",
				snap.PeriodStart.Format("2006-01-02"), snap.PeriodEnd.Format("2006-01-02"))
			if err := table.Append([]string{
				snap.ID.String(), snap.Name, period, snap.CapturedAt.Format(time.RFC3339),
			}); err != nil {
				return fmt.Errorf("rendering table: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("rendering table: %w", err)
		}
		return nil
	},
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export <snapshot-id>",
	Short: "Export a stored snapshot to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid snapshot id %q", args[0])
		}
		format, err := export.ParseFormat(snapshotExportFormat)
		if err != nil {
			return err
		}

		env, err := newAppEnv(ctx)
		if err != nil {
			return err
		}
		defer env.close()

		snap, err := env.engine.GetSnapshot(ctx, id)
		if err != nil {
			return err
		}

		body, err := export.Render(snap, format)
		if err != nil {
			return err
		}

		record := analytics.ExportRecord{Format: string(format), ExportedAt: time.Now().UTC()}
		if err := env.db.Snapshots().RecordExport(ctx, id, record); err != nil {
			return fmt.Errorf("recording export: %w", err)
		}

		fmt.Println(body)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotExportCmd)

	snapshotListCmd.Flags().StringVarP(&snapshotUser, "user", "u", "", "user ID")
	snapshotListCmd.MarkFlagRequired("user")

	snapshotExportCmd.Flags().StringVarP(&snapshotExportFormat, "format", "f", "structured", "structured or delimited")
}
