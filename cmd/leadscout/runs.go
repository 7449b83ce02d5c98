package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/leadscout-ai/leadscout/pkg/config"
	"github.com/leadscout-ai/leadscout/pkg/store"
)

func runRuns(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 {
		fatal(fmt.Errorf("usage: leadscout runs <list|show|delete> [args]"))
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		fatal(err)
	}
	defer db.Close()
	runs, err := store.NewRunStore(db)
	if err != nil {
		fatal(err)
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("runs list", flag.ExitOnError)
		limit := fs.Int("limit", 20, "maximum runs to show (0 for all)")
		if err := fs.Parse(args[1:]); err != nil {
			fatal(err)
		}
		listRuns(ctx, global, runs, *limit)
	case "show":
		if len(args) != 2 {
			fatal(fmt.Errorf("usage: leadscout runs show <run_id>"))
		}
		showRun(ctx, global, runs, args[1])
	case "delete":
		if len(args) != 2 {
			fatal(fmt.Errorf("usage: leadscout runs delete <run_id>"))
		}
		if err := runs.DeleteRun(ctx, args[1]); err != nil {
			fatal(err)
		}
		fmt.Println("deleted", args[1])
	default:
		fatal(fmt.Errorf("unknown runs subcommand %q", args[0]))
	}
}

func listRuns(ctx context.Context, global globalFlags, runs *store.RunStore, limit int) {
	list, err := runs.ListRuns(ctx, limit)
	if err != nil {
		fatal(err)
	}

	if global.JSON {
		if list == nil {
			list = []*store.Run{}
		}
		printJSON(list)
		return
	}

	writer := newTabWriter()
	writeRow(writer, "ID", "CREATED", "STATUS", "INDUSTRY", "COUNTRY", "LEADS", "TOKENS", "COST")
	for _, run := range list {
		writeRow(writer,
			truncateCell(run.ID, 12),
			formatTime(run.CreatedAt),
			string(run.Status),
			run.Industry,
			run.Country,
			fmt.Sprintf("%d", len(run.Leads)),
			fmt.Sprintf("%d", run.TotalTokens),
			fmt.Sprintf("$%.6f", run.TotalCost),
		)
	}
	writer.Flush()
}

func showRun(ctx context.Context, global globalFlags, runs *store.RunStore, id string) {
	run, err := runs.GetRun(ctx, id)
	if err != nil {
		fatal(err)
	}

	if global.JSON {
		printJSON(run)
		return
	}

	fmt.Printf("Run %s (%s)\n", run.ID, run.Status)
	fmt.Printf("Inputs: industry=%s country=%s\n", run.Industry, run.Country)
	fmt.Printf("Created: %s  Finished: %s\n", formatTime(run.CreatedAt), formatTime(run.FinishedAt))
	fmt.Printf("Tokens: %d  Cost: $%.6f (%s)\n", run.TotalTokens, run.TotalCost, run.Model)
	if run.Error != "" {
		fmt.Printf("Error: %s\n", run.Error)
	}
	if run.Report != "" {
		fmt.Println()
		fmt.Println(run.Report)
	} else if run.Raw != "" {
		fmt.Println()
		fmt.Println(run.Raw)
	}
}
