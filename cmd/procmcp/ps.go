package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/procmcp/internal/proctable"
	"github.com/breeze-rmm/procmcp/internal/query"
	"github.com/breeze-rmm/procmcp/internal/server"
)

var (
	psSortBy        string
	psLimit         int
	psName          string
	psUser          string
	psStatus        string
	psMinCPU        float64
	psMinMemory     float64
	psIncludeSystem bool
	psAsc           bool
	psJSON          bool
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List processes once, through the same engine the server uses",
	Run: func(cmd *cobra.Command, args []string) {
		runPS(cmd)
	},
}

func init() {
	psCmd.Flags().StringVar(&psSortBy, "sort-by", "cpu", "sort metric: cpu or memory")
	psCmd.Flags().IntVar(&psLimit, "limit", 0, "maximum rows (0 uses the configured default)")
	psCmd.Flags().StringVar(&psName, "name", "", "substring match on process name or command line")
	psCmd.Flags().StringVar(&psUser, "user", "", "substring match on owning user")
	psCmd.Flags().StringVar(&psStatus, "status", "", "exact process state (running, sleeping, ...)")
	psCmd.Flags().Float64Var(&psMinCPU, "min-cpu", 0, "minimum CPU percent")
	psCmd.Flags().Float64Var(&psMinMemory, "min-memory", 0, "minimum memory in MB")
	psCmd.Flags().BoolVar(&psIncludeSystem, "include-system", false, "include system-account processes")
	psCmd.Flags().BoolVar(&psAsc, "asc", false, "sort ascending instead of descending")
	psCmd.Flags().BoolVar(&psJSON, "json", false, "print full records as JSON")

	rootCmd.AddCommand(psCmd)
}

func runPS(cmd *cobra.Command) {
	cfg := loadConfig()
	// Keep one-shot output clean; real problems still reach stderr.
	cfg.LogLevel = "warn"
	initLogging(cfg)
	cfg.Validate()

	if psSortBy != query.SortByCPU && psSortBy != query.SortByMemory {
		fmt.Fprintf(os.Stderr, "Unknown sort metric %q (use cpu or memory)\n", psSortBy)
		os.Exit(1)
	}

	filter := query.Filter{
		NameContains:  psName,
		User:          psUser,
		IncludeSystem: psIncludeSystem,
	}
	if psStatus != "" {
		status, ok := proctable.ParseStatus(psStatus)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown status %q\n", psStatus)
			os.Exit(1)
		}
		filter.Status = status
	}
	if cmd.Flags().Changed("min-cpu") {
		filter.MinCPUPercent = &psMinCPU
	}
	if cmd.Flags().Changed("min-memory") {
		filter.MinMemoryMB = &psMinMemory
	}

	engine, err := server.NewEngine(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build engine: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		engine.Close(ctx)
	}()

	records, err := engine.Table.Snapshot(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read process table: %v\n", err)
		os.Exit(1)
	}

	matched := query.Match(records, filter)

	order := query.OrderDesc
	if psAsc {
		order = query.OrderAsc
	}
	limit := cfg.DefaultLimit
	if psLimit > 0 {
		limit = psLimit
		if limit > cfg.MaxLimit {
			limit = cfg.MaxLimit
		}
	}

	final := query.SortAndLimit(matched, psSortBy, order, limit)

	if psJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(final); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode records: %v\n", err)
			os.Exit(1)
		}
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PID\tNAME\tUSER\tSTATUS\tCPU%\tMEM(MB)\tSYSTEM")
	for _, r := range final {
		system := ""
		if r.IsSystem {
			system = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.1f\t%.1f\t%s\n",
			r.PID, r.Name, r.User, r.Status, r.CPUPercent, r.MemoryMB, system)
	}
	w.Flush()
	fmt.Printf("\n%d shown of %d matched\n", len(final), len(matched))
}
