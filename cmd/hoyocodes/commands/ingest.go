package commands

import (
	"hoyocodes-backend/lib/serviceutil"
	"log/slog"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(reverifyCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Scrapes every source, verifies new codes and stores them in the catalog.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		t1 := time.Now()
		report, err := a.service.Ingest(cmd.Context())

		t := newTable()
		t.AppendHeader(table.Row{"Run", "Candidates", "Created", "Backfilled", "Skipped", "Failed"})
		t.AppendRow(table.Row{
			report.RunID,
			report.Candidates,
			report.Created,
			report.Backfilled,
			report.Skipped,
			report.Failed,
		})
		t.Render()

		slog.Info("ingest time", "seconds", time.Since(t1).Seconds())
		if err != nil {
			a.Close()
			serviceutil.Fatal("ingest aborted", err)
		}
	},
}

var reverifyCmd = &cobra.Command{
	Use:   "reverify",
	Short: "Verifies every code marked OK again and updates the ones that expired.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		t1 := time.Now()
		report, err := a.service.Reverify(cmd.Context())

		t := newTable()
		t.AppendHeader(table.Row{"Run", "Checked", "Changed", "Failed"})
		t.AppendRow(table.Row{report.RunID, report.Checked, report.Changed, report.Failed})
		t.Render()

		slog.Info("reverify time", "seconds", time.Since(t1).Seconds())
		if err != nil {
			a.Close()
			serviceutil.Fatal("reverify aborted", err)
		}
	},
}
