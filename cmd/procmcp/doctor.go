package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/procmcp/internal/doctor"
	"github.com/breeze-rmm/procmcp/internal/server"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the environment this server would run in",
	Run: func(cmd *cobra.Command, args []string) {
		runDoctor()
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor() {
	cfg := loadConfig()
	// The checks print their own lines; keep the logger out of the way.
	cfg.LogLevel = "error"
	initLogging(cfg)
	cfg.Validate()

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

	d := doctor.NewDoctor()
	d.RegisterAll(doctor.DefaultChecks()...)

	report := d.Run(context.Background(), &doctor.Env{Cfg: cfg, Engine: engine}, os.Stdout)

	fmt.Printf("\n%d checks: %d ok, %d warnings, %d errors (overall %s)\n",
		report.Summary.Total, report.Summary.OK, report.Summary.Warnings,
		report.Summary.Errors, report.Overall())

	if report.Summary.Errors > 0 {
		os.Exit(1)
	}
}
