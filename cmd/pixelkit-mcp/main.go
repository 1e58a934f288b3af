package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ironsheep/pixelkit-mcp/internal/config"
	"github.com/ironsheep/pixelkit-mcp/internal/logging"
	"github.com/ironsheep/pixelkit-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// rootCmd serves MCP over stdio.
var rootCmd = &cobra.Command{
	Use:   "pixelkit-mcp",
	Short: "MCP server for RGBA image adjustments, filters and effects",
	Long: `pixelkit-mcp exposes an image transform pipeline as MCP tools over stdin/stdout.

Configure it in your MCP client (e.g., Claude Desktop). Settings come from the
environment or a .env file in the working directory:

  PIXELKIT_LOG_LEVEL        debug, info, warn, error (default info)
  PIXELKIT_MAX_PIXELS       largest image accepted (default 100000000)
  PIXELKIT_DEFAULT_FORMAT   output format when a call names none (default png)
  PIXELKIT_DEFAULT_QUALITY  jpeg quality 0..1 (default 0.92)
  PIXELKIT_TOOL_TIMEOUT     per tool call limit (default 60s)`,
	SilenceUsage: true,
	RunE:         runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pixelkit-mcp %s\n", Version)
		fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(processCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads settings and initializes logging.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	logging.Init(cfg.LogLevel)
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Debug().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Int("max_pixels", cfg.MaxPixels).
		Str("default_format", string(cfg.DefaultFormat)).
		Dur("tool_timeout", cfg.ToolTimeout).
		Msg("Starting pixelkit-mcp")

	server.ServerVersion = Version
	srv := server.New(cfg)
	if err := srv.Run(cmd.Context()); err != nil {
		log.Error().Err(err).Msg("Server error")
		return err
	}
	return nil
}
