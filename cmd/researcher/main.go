package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/DGFellow/product-research-agent/config"
	"github.com/DGFellow/product-research-agent/internal/agent"
	"github.com/DGFellow/product-research-agent/internal/agent/telemetry"
	"github.com/DGFellow/product-research-agent/internal/analysis"
	"github.com/DGFellow/product-research-agent/internal/browse"
	"github.com/DGFellow/product-research-agent/internal/server"
	"github.com/DGFellow/product-research-agent/internal/store"
	"github.com/DGFellow/product-research-agent/models"
	"github.com/DGFellow/product-research-agent/provider"
	"github.com/DGFellow/product-research-agent/utils"
)

func main() {
	var cfgPath string
	root := &cobra.Command{Use: "researcher", Short: "LLM-planned product research across marketplaces"}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")

	root.AddCommand(researchCMD(&cfgPath), serveCMD(&cfgPath), historyCMD(&cfgPath))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func researchCMD(cfgPath *string) *cobra.Command {
	var headless bool
	var maxProducts int
	var csvOut bool
	cmd := &cobra.Command{
		Use:   "research <query>",
		Short: "Run one research pass for a product query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("headless") {
				cfg.Browser.Headless = headless
			}
			if maxProducts > 0 {
				cfg.General.MaxProductsPerSite = maxProducts
			}
			return runResearch(cmd.Context(), cfg, args[0], csvOut)
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	cmd.Flags().IntVar(&maxProducts, "max-products", 0, "max products per site (0 = configured default)")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "export the aggregate to CSV")
	return cmd
}

func runResearch(ctx context.Context, cfg *config.Config, query string, csvOut bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tele := telemetry.NewTelemetry(cfg.Telemetry)
	llm, err := provider.NewProvider(provider.Local, cfg.LLM)
	if err != nil {
		return err
	}
	session := browse.NewSession(cfg.Browser)
	planner := agent.NewPlanner(cfg.LLM, llm, tele)
	ag := agent.New(session, planner, agent.NewToolset(session, cfg.Scrapers), tele)

	if err := ag.Initialize(ctx); err != nil {
		return err
	}
	defer ag.Close()

	criteria := models.SearchCriteria{
		Query:                query,
		MinMOQ:               cfg.General.MinMOQ,
		MinSellerTenureYears: cfg.General.MinSellerTenureYears,
		MaxResultsPerTool:    cfg.General.MaxProductsPerSite,
	}
	result, err := ag.Research(ctx, criteria)
	if err != nil {
		return err
	}

	printResult(result)

	if st := maybeOpenStore(ctx, cfg); st != nil {
		defer st.Close()
		run := store.Run{
			ID:          result.RunID,
			Query:       result.Query,
			StartedAt:   result.Started,
			CompletedAt: result.Finished,
			Summary:     result.Analysis,
		}
		if err := st.SaveRun(ctx, run, result.Records); err != nil {
			log.Printf("saving run history: %v", err)
		}
	}

	if csvOut && len(result.Records) > 0 {
		path, err := analysis.ExportCSV(cfg.Output.Dir, result.Records)
		if err != nil {
			return fmt.Errorf("exporting csv: %w", err)
		}
		fmt.Printf("\nCSV written to %s\n", path)
	}
	return nil
}

func printResult(result agent.Result) {
	fmt.Printf("\nGoal: %s\n", result.Plan.Goal)
	for i, step := range result.Plan.Steps {
		fmt.Printf("  %d. %s (%s)\n", i+1, step.ToolName, utils.Truncate(step.Rationale, 80))
	}

	if len(result.Records) == 0 {
		fmt.Println("\nNo products found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Source", "Title", "Price", "MOQ"})
	for i, rec := range result.Records {
		t.AppendRow(table.Row{i + 1, rec.Source, utils.Truncate(rec.Title, 60), rec.PriceDisplay, rec.MOQ})
	}
	t.SetStyle(table.StyleLight)
	fmt.Println()
	t.Render()

	stats := analysis.Summarize(result.Records)
	fmt.Printf("\nTotal: %d", stats.Total)
	for source, count := range stats.BySource {
		fmt.Printf("  %s: %d", source, count)
	}
	fmt.Println()
	if stats.Prices != nil {
		fmt.Printf("Prices (%d parseable): mean %.2f, min %.2f, max %.2f\n",
			stats.Prices.Count, stats.Prices.Mean, stats.Prices.Min, stats.Prices.Max)
	}
	if result.Analysis != "" {
		fmt.Printf("\nAnalysis: %s\n", result.Analysis)
	}
}

// maybeOpenStore opens the history store when Postgres is configured.
// History is optional for CLI runs, so failures only log.
func maybeOpenStore(ctx context.Context, cfg *config.Config) *store.Store {
	dsn := cfg.Storage.Postgres.DSN()
	if dsn == "" {
		return nil
	}
	st, err := store.Open(ctx, dsn)
	if err != nil {
		log.Printf("history store unavailable: %v", err)
		return nil
	}
	return st
}

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = os.Getenv("RESEARCHER_HTTP_ADDR")
			}
			return server.Run(cfg, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func historyCMD(cfgPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent research runs from the history store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			dsn := cfg.Storage.Postgres.DSN()
			if dsn == "" {
				return fmt.Errorf("postgres not configured (storage.postgres)")
			}
			st, err := store.Open(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"ID", "Query", "Started", "Records"})
			for _, run := range runs {
				t.AppendRow(table.Row{run.ID, utils.Truncate(run.Query, 40), run.StartedAt.Format("2006-01-02 15:04"), run.RecordCount})
			}
			t.SetStyle(table.StyleLight)
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")
	return cmd
}
