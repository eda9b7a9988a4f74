package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hession/memhub/internal/cli"
	"github.com/hession/memhub/internal/config"
	"github.com/hession/memhub/internal/logger"
)

var (
	version = cli.Version
)

// rootOptions are the persistent flags shared by every subcommand
type rootOptions struct {
	configDir string
	baseURL   string
	jsonOut   bool

	cfg *config.Config
}

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		logger.Error("command failed: %v", err)
	}
	_ = logger.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "memhub",
		Short: "memhub - terminal client for your memory notes",
		Long: `memhub is a terminal client for a personal memory service.

It can:
  • List, create, edit and delete tagged notes
  • Search them semantically or by text
  • Suggest ready-made notes for quick capture
  • Show a profile of the tags you use most

Run without a subcommand to start the interactive shell.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Run(opts.cfg)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configDir, "config-dir", "", "Configuration directory (default ./config)")
	flags.StringVar(&opts.baseURL, "base-url", "", "Memory service base URL, overrides server.base_url")
	flags.BoolVar(&opts.jsonOut, "json", false, "Output as JSON")

	rootCmd.AddCommand(
		newListCmd(opts),
		newSearchCmd(opts),
		newAddCmd(opts),
		newShowCmd(opts),
		newEditCmd(opts),
		newDeleteCmd(opts),
		newStatsCmd(opts),
		newProfileCmd(opts),
		newSuggestCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// setup loads configuration and starts logging
func (o *rootOptions) setup() error {
	if o.configDir != "" {
		config.SetConfigDir(o.configDir)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if o.baseURL != "" {
		cfg.Server.BaseURL = strings.TrimRight(o.baseURL, "/")
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --base-url: %w", err)
		}
	}
	o.cfg = cfg

	if err := logger.Init(logger.Config{
		LogDir:     config.LogDir(),
		Level:      logger.ParseLevel(cfg.Log.Level),
		MaxDays:    cfg.Log.MaxDays,
		ConsoleOut: cfg.Log.Console,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logConfigInfo(cfg)
	return nil
}

// logConfigInfo records the effective settings without secrets
func logConfigInfo(cfg *config.Config) {
	token := "not set"
	if cfg.IsTokenConfigured() {
		token = "set"
	}
	logger.Info("config: server=%s%s token=%s search=%s/%d suggestions=%s/%d",
		cfg.Server.BaseURL, cfg.Server.APIPrefix, token,
		cfg.Search.DefaultMode, cfg.Search.Limit,
		cfg.Suggestions.Mode, cfg.Suggestions.Count)
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, opts.cfg.String())

			path, _ := config.ConfigPath()
			fmt.Fprintf(out, "\nConfig file path: %s\n", path)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "memhub v%s\n", version)
		},
	}
}
