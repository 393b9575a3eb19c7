package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"airline_sim/internal/checks"
	"airline_sim/internal/clock"
	"airline_sim/internal/database"
	"airline_sim/internal/maintenance"
	"airline_sim/internal/statuscache"
	"airline_sim/internal/tasks"
	"airline_sim/internal/tiers"
	"airline_sim/internal/worldapi"

	"github.com/spf13/cobra"
)

const windowLayout = "2006-01-02 15:04"

var (
	statusAircraft string
	statusOffline  bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the maintenance check status of the fleet",
	Long: `Synchronize the world clock once, refresh the fleet snapshot and print the
status of every check tier. With --offline the stored snapshot is used as is.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAircraft, "aircraft", "", "Only show this aircraft id")
	statusCmd.Flags().BoolVar(&statusOffline, "offline", false, "Skip the fleet refresh and use the stored snapshot")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	scheme, err := tiers.Lookup(cfg.Maintenance.Scheme)
	if err != nil {
		return err
	}

	db, err := database.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	engine := clock.NewEngine(cfg.World.ID)
	api := worldapi.New(cfg.World.APIURL, cfg.World.PollTimeout)

	if err := tasks.NewWorldPollTask(api, engine, cfg.World.PollInterval, cfg.World.PollTimeout).Run(ctx); err != nil {
		slog.Warn("World poll failed, statuses will be unavailable", "error", err)
	}
	if !statusOffline {
		if err := tasks.NewFleetRefreshTask(api, db, engine, cfg.Fleet.RefreshInterval, cfg.Fleet.WindowDays).Run(ctx); err != nil {
			slog.Warn("Fleet refresh failed, using stored snapshot", "error", err)
		}
	}

	evaluator := checks.NewEvaluator(scheme, engine)
	publisher := tasks.NewStatusPublishTask(db, engine, evaluator, tasks.LogSink{}, cfg.Maintenance.PendingLead, cfg.Status.PublishInterval)
	report, err := publisher.Evaluate()
	if err != nil {
		return err
	}

	if statusAircraft != "" {
		statuses, ok := report.Statuses[statusAircraft]
		if !ok {
			return fmt.Errorf("aircraft %s not found in fleet snapshot", statusAircraft)
		}
		report.Statuses = map[string][]checks.CheckStatus{statusAircraft: statuses}
	}

	return printReport(os.Stdout, report)
}

func printReport(out io.Writer, report tasks.FleetReport) error {
	if report.EvaluatedAt.IsZero() {
		fmt.Fprintln(out, "Game time: unavailable")
	} else {
		fmt.Fprintf(out, "Game time: %s\n\n", report.EvaluatedAt.Format("2006-01-02 15:04 UTC"))
	}

	registrations := make(map[string]string, len(report.Aircraft))
	for _, ac := range report.Aircraft {
		registrations[ac.ID] = ac.Registration
	}

	ids := make([]string, 0, len(report.Statuses))
	for id := range report.Statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AIRCRAFT\tREG\tCHECK\tSTATUS\tEXPIRY\tLAST")
	for _, id := range ids {
		for _, st := range report.Statuses[id] {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", id, registrations[id], st.Tier, st.DisplayText, st.ExpiryInfo, st.LastCheckInfo)
		}
		airworthy := "no"
		if statuscache.Airworthy(report.Statuses[id]) {
			airworthy = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\t\n", id, registrations[id], "-", "airworthy: "+airworthy)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return printWindows(out, ids, report.Windows)
}

// printWindows lists the scheduled windows of the printed aircraft, if any
func printWindows(out io.Writer, ids []string, resolver *maintenance.Resolver) error {
	var scheduled []maintenance.Window
	for _, id := range ids {
		scheduled = append(scheduled, resolver.Windows(id)...)
	}
	if len(scheduled) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AIRCRAFT\tWINDOW\tSTART\tEND")
	for _, win := range scheduled {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", win.AircraftID, win.CheckType,
			win.Start.Format(windowLayout), win.End().Format(windowLayout))
	}
	return w.Flush()
}
