package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/procmcp/internal/config"
	"github.com/breeze-rmm/procmcp/internal/logging"
	"github.com/breeze-rmm/procmcp/internal/server"
)

var (
	version  = "0.1.0"
	cfgFile  string
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:   "procmcp",
	Short: "Process management MCP server",
	Long: `procmcp exposes process listing, inspection and guarded termination
to MCP clients over stdio. System processes are protected by default and
every termination attempt is written to a tamper-evident audit trail.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over stdio",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("procmcp v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is procmcp.yaml in the platform config dir)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "override the configured log level")
	serveCmd.Flags().StringVar(&logFile, "log-file", "", "override the configured log file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// initLogging configures the log destination. Stdout is never an option
// here: on serve it carries the MCP protocol stream, on ps and doctor it
// carries the command output.
func initLogging(cfg *config.Config) {
	var out io.Writer
	if cfg.LogFile != "" {
		w, err := logging.NewRotatingWriter(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		out = w
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, out)
}

func runServe() {
	cfg := loadConfig()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	initLogging(cfg)
	cfg.Validate()

	s, err := server.New(cfg, version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
