package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-catalog/config"
	"library-catalog/library"
)

//go:embed demo_seed.yaml
var demoSeed []byte

// rootOptions holds global flags for all commands. Empty values fall back
// to the environment (see package config).
type rootOptions struct {
	Journal string
	Seed    string
	Reissue string
	Format  string
	Verbose bool
}

var validFormats = []string{"text", "json"}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "library-catalog",
		Short:         "In-memory library catalog demonstration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range validFormats {
				if f == opts.Format {
					return nil
				}
			}
			return &exitError{code: exitUsage, err: fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Journal, "journal", "", "circulation journal path (default $LIBRARY_JOURNAL_PATH or :memory:)")
	cmd.PersistentFlags().StringVar(&opts.Seed, "seed", "", "YAML seed file (default $LIBRARY_SEED_PATH or the built-in demo)")
	cmd.PersistentFlags().StringVar(&opts.Reissue, "reissue-policy", "", "strict | skip-ineligible")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newDemoCommand(opts))
	cmd.AddCommand(newSearchCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))
	return cmd
}

// loadConfig merges flags over the environment.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg := config.Load()
	if opts.Journal != "" {
		cfg.JournalPath = opts.Journal
	}
	if opts.Seed != "" {
		cfg.SeedPath = opts.Seed
	}
	if opts.Reissue != "" {
		cfg.ReissuePolicy = opts.Reissue
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, &exitError{code: exitUsage, err: err}
	}
	return cfg, nil
}

// openSeeded builds a manager from configuration and applies the seed.
func openSeeded(cmd *cobra.Command, opts *rootOptions) (*library.LibraryManager, *library.SeedResult, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	var seed *library.Seed
	if cfg.SeedPath == "" {
		seed, err = library.ParseSeed(demoSeed)
	} else {
		seed, err = library.LoadSeed(cfg.SeedPath)
	}
	if err != nil {
		return nil, nil, &exitError{code: exitUsage, err: err}
	}

	slog.Info("opening journal", "path", cfg.JournalPath, "reissue_policy", cfg.Policy())
	mgr, err := library.NewLibraryManager(cfg.JournalPath, library.WithReissuePolicy(cfg.Policy()))
	if err != nil {
		return nil, nil, &exitError{code: exitUsage, err: fmt.Errorf("open journal: %w", err)}
	}

	res, err := mgr.ApplySeed(seed)
	if err != nil {
		mgr.Close()
		return nil, nil, fmt.Errorf("apply seed: %w", err)
	}
	slog.Debug("seed applied", "books", len(res.Books), "members", len(res.Members))
	return mgr, res, nil
}

// tableWidth is the terminal width when stdout is a terminal, else 100.
func tableWidth() int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	return 100
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return s[:maxLength]
	}
	return s[:maxLength-3] + "..."
}

func shortID(s fmt.Stringer) string {
	return strings.SplitN(s.String(), "-", 2)[0]
}
