package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/handicap-check/internal/config"
	"github.com/pfrederiksen/handicap-check/internal/exclusion"
	"github.com/pfrederiksen/handicap-check/internal/logger"
	"github.com/pfrederiksen/handicap-check/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// Table store backends
const (
	StoreSheets = "sheets"
	StoreLocal  = "local"
)

var (
	flagEnvFile     string
	flagDryRun      bool
	flagStore       string
	flagDataDir     string
	flagExportDir   string
	flagPostingFile string
	flagNotifyTo    []string
	flagFormat      string
	flagVerbose     bool
)

// appClock supplies "today"; tests replace it with a mock
var appClock clock.Clock = clock.New()

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "handicap-check",
		Short: "Find golfers who played but did not post a score",
		Long: `A CLI tool that reconciles the club tee sheet against the GHIN
posting report, keeps cumulative non-poster tables and emails the results.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			format := OutputFormat(strings.ToLower(flagFormat))
			if format != FormatText && format != FormatJSON {
				return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
			}
			if flagStore != StoreSheets && flagStore != StoreLocal {
				return fmt.Errorf("invalid store: %s (must be 'sheets' or 'local')", flagStore)
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flagEnvFile, "env-file", ".env", "Path to a .env file")
	pf.BoolVar(&flagDryRun, "dry-run", false, "Show what would be done without writing tables or sending mail")
	pf.StringVar(&flagStore, "store", StoreSheets, "Where cumulative tables live: sheets or local")
	pf.StringVar(&flagDataDir, "data-dir", storage.DefaultDataDir, "Data directory for local tables and run snapshots")
	pf.StringVar(&flagExportDir, "export-dir", "reports", "Directory for the per-gender xlsx exports")
	pf.StringVar(&flagFormat, "format", "text", "Output format: text or json")
	pf.BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(newCheckCmd(), newShowCmd(), newTournamentCmd(), newAuthCmd(), newStatsCmd())
	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [MM-DD-YY]",
		Short: "Check one day's tee sheet (default yesterday)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCheck,
	}
	cmd.Flags().StringVar(&flagPostingFile, "posting-file", "", "Read the posting report from a local .xlsx/.csv/.html file instead of Gmail")
	cmd.Flags().StringSliceVar(&flagNotifyTo, "notify-to", nil, "Email recipients (overrides NOTIFY_TO)")
	return cmd
}

// runCheck is the main command logic
func runCheck(cmd *cobra.Command, args []string) error {
	date, err := parseRunDate(args, appClock.Now())
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateCheck(flagStore == StoreSheets); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if len(flagNotifyTo) > 0 {
		cfg.NotifyTo = flagNotifyTo
	}

	if flagVerbose {
		fmt.Fprintf(os.Stderr, "Checking rounds for %s\n", date.Format(exclusion.DateLayout))
		fmt.Fprintf(os.Stderr, "Store: %s, data directory: %s\n", flagStore, flagDataDir)
	}

	ctx := cmd.Context()
	deps, err := buildDeps(ctx, cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer deps.Close()

	sum, err := deps.Runner.Run(ctx, date)
	if err != nil {
		return err
	}

	if err := WriteOutput(cmd.OutOrStdout(), sum, currentFormat(), flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// parseRunDate reads the optional date argument. Without one the run covers
// the day before now.
func parseRunDate(args []string, now time.Time) (time.Time, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		y, m, d := now.AddDate(0, 0, -1).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	}

	date, ok := exclusion.ParseDate(args[0])
	if !ok {
		return time.Time{}, fmt.Errorf("invalid date %q (use MM-DD-YY or MM-DD-YYYY)", args[0])
	}
	return date, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return nil, err
	}

	level := logger.ParseLevel(cfg.LogLevel)
	if flagVerbose || cfg.Debug {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, os.Stderr))
	return cfg, nil
}

// Execute runs the CLI
func Execute() {
	err := NewRootCmd().Execute()
	logger.Default().Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}

