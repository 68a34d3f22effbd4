package main

import (
	"fmt"
	"log/slog"
	"os"

	"library-catalog/internal/config"
	"library-catalog/internal/logging"
	"library-catalog/library"

	"github.com/spf13/cobra"
)

// app carries the resolved configuration from the root command to its subcommands.
type app struct {
	cfgFile string
	cfg     config.FileConfig
	logger  *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "library-catalog",
		Short: "In-memory library catalog with borrow and return",
		Long: `library-catalog keeps a small catalog of books and users for the lifetime
of the process. Books can be borrowed, returned and searched by title.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: a.resolveConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./"+config.ConfigPath+" if present)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().String("store", "", "catalog store: memory or sqlite")
	root.PersistentFlags().String("seed", "", "YAML catalog to load at start-up")

	root.AddCommand(&cobra.Command{
		Use:   "shell",
		Short: "Run the interactive catalog shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell(cmd)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "demo",
		Short: "Replay the sample borrow/return walkthrough",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := library.Open(a.cfg.Store, library.WithLogger(a.logger))
			if err != nil {
				return err
			}
			defer lib.Close()
			return runDemo(cmd.OutOrStdout(), lib)
		},
	})
	return root
}

// resolveConfig merges configuration: file, then environment, then flags.
func (a *app) resolveConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("store") {
		cfg.Store, _ = flags.GetString("store")
	}
	if flags.Changed("seed") {
		cfg.SeedPath, _ = flags.GetString("seed")
	}

	logger, err := logging.Init(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) runShell(cmd *cobra.Command) error {
	lib, err := library.Open(a.cfg.Store, library.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer lib.Close()

	if a.cfg.SeedPath != "" {
		catalog, err := library.LoadCatalogFile(a.cfg.SeedPath)
		if err != nil {
			return err
		}
		report := lib.Seed(catalog)
		for _, e := range report.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: skipped %v\n", e)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d book(s) and %d user(s) from %s\n", report.Books, report.Users, a.cfg.SeedPath)
	}

	newShell(cmd.InOrStdin(), cmd.OutOrStdout(), lib).run()
	return nil
}
