package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/leadscout-ai/leadscout/pkg/config"
	"github.com/leadscout-ai/leadscout/pkg/crew"
	"github.com/leadscout-ai/leadscout/pkg/report"
	"github.com/leadscout-ai/leadscout/pkg/server"
	"github.com/leadscout-ai/leadscout/pkg/store"
	"github.com/leadscout-ai/leadscout/pkg/telemetry"
)

func runRun(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	industry := fs.String("industry", "", "industry to research (required)")
	country := fs.String("country", "", "country to research (required)")
	reportDir := fs.String("report-dir", cfg.Report.Dir, "directory for the markdown report")
	noReport := fs.Bool("no-report", false, "skip writing the markdown report")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if *industry == "" || *country == "" {
		fatal(fmt.Errorf("usage: leadscout run --industry <name> --country <name>"))
	}

	shutdown, err := telemetry.InitWithConfig("leadscout", version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		fatal(err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	c, err := buildCrew(cfg)
	if err != nil {
		fatal(err)
	}

	runCtx, cancel := context.WithTimeout(ctx, global.Timeout)
	defer cancel()

	out, err := c.Kickoff(runCtx, crew.Inputs{Industry: *industry, Country: *country})
	if err != nil {
		fatal(err)
	}

	run := server.RunFromOutput(out)
	run.Report = report.Build(out.Leads)
	saveRun(ctx, cfg, run)

	reportPath := ""
	if !*noReport {
		reportPath, err = report.Write(*reportDir, out.Industry, out.Country, out.Leads)
		if err != nil {
			fatal(err)
		}
	}

	if global.JSON {
		printJSON(run)
		return
	}
	printRunSummary(out, reportPath)
}

// saveRun persists the run when a store is configured. Persistence failures
// are reported but do not fail the run.
func saveRun(ctx context.Context, cfg *config.Config, run *store.Run) {
	if cfg.Store.Path == "" {
		return
	}
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		fmt.Println("warning: could not open run store:", err)
		return
	}
	defer db.Close()

	runs, err := store.NewRunStore(db)
	if err != nil {
		fmt.Println("warning: could not prepare run store:", err)
		return
	}
	if err := runs.SaveRun(ctx, run); err != nil {
		fmt.Println("warning: could not save run:", err)
	}
}

func printRunSummary(out *crew.Output, reportPath string) {
	fmt.Printf("Run %s finished in %s\n", out.RunID, out.FinishedAt.Sub(out.StartedAt).Round(time.Second))
	fmt.Printf("Inputs: industry=%s country=%s\n\n", out.Industry, out.Country)

	if len(out.Leads) == 0 {
		fmt.Println("No structured leads parsed; raw output follows.")
		fmt.Println()
		fmt.Println(out.Raw)
	} else {
		writer := newTabWriter()
		writeRow(writer, "SCORE", "COMPANY", "LOCATION", "WEBSITE")
		for _, lead := range out.Leads {
			writeRow(writer,
				fmt.Sprintf("%.1f", float64(lead.Score)),
				lead.CompanyName,
				lead.Location.String(),
				lead.WebsiteURL,
			)
		}
		writer.Flush()
	}

	fmt.Println()
	fmt.Printf("Tokens: %d prompt + %d completion = %d total\n",
		out.Usage.PromptTokens, out.Usage.CompletionTokens, out.Usage.TotalTokens)
	fmt.Printf("Estimated cost (%s): $%.6f\n", out.Usage.Model, out.Usage.TotalCost)
	if reportPath != "" {
		fmt.Printf("Report written to %s\n", reportPath)
	}
}
