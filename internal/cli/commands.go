package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/handicap-check/internal/aggregate"
	"github.com/pfrederiksen/handicap-check/internal/crypto"
	"github.com/pfrederiksen/handicap-check/internal/google"
	"github.com/pfrederiksen/handicap-check/internal/history"
	"github.com/pfrederiksen/handicap-check/internal/runner"
	"github.com/pfrederiksen/handicap-check/internal/storage"
)

func newTournamentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tournament WORKBOOK.xlsx",
		Short: "Check a tournament field's posting percentages",
		Long: `Reads member numbers from column AC of a tournament golfer export,
looks each golfer up in the PostPercentage table and writes
"<event>- Handicap Check.txt" next to the workbook.`,
		Args: cobra.ExactArgs(1),
		RunE: runTournament,
	}
}

func runTournament(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateTournament(flagStore == StoreSheets); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := cmd.Context()
	local, err := storage.New(afero.NewOsFs(), flagDataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	var svcs *google.Services
	if flagStore == StoreSheets {
		if svcs, err = googleServices(ctx, cfg); err != nil {
			return err
		}
	}

	r := &runner.Runner{}
	r.Reference, r.Tables = referenceAndTables(svcs, cfg, local)

	rep, path, err := r.Tournament(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if currentFormat() == FormatJSON {
		return writeJSON(out, map[string]interface{}{"path": path, "report": rep})
	}
	fmt.Fprint(out, rep.Render())
	fmt.Fprintf(out, "\nReport saved to %s\n", path)
	return nil
}

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Gmail and Google Sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			enc := crypto.NewEncryptor(cfg.TokenEncryptionKey)
			auth, err := google.LoadAuth(cfg.CredentialsFile, cfg.TokenFile, enc)
			if err != nil {
				return err
			}
			if _, err := auth.Authorize(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}

			note := ""
			if enc.Enabled() {
				note = " (encrypted)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nAuthentication successful! Token saved to %s%s\n", cfg.TokenFile, note)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats NAME...",
		Short: "Show a golfer's recorded posting history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL must be set to read round history")
			}

			ctx := cmd.Context()
			store, err := history.New(ctx, cfg.DatabaseURL, appClock)
			if err != nil {
				return err
			}
			defer store.Close()

			var found []*history.Stats
			for _, name := range args {
				stats, err := store.GolferStats(ctx, name)
				if errors.Is(err, history.ErrGolferNotFound) {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: no recorded rounds\n", name)
					continue
				}
				if err != nil {
					return err
				}
				found = append(found, stats)
			}

			out := cmd.OutOrStdout()
			if currentFormat() == FormatJSON {
				return writeJSON(out, found)
			}
			for _, s := range found {
				fmt.Fprintf(out, "%s: %d posted, %d not posted, %d without GHIN (%s of played rounds, last played %s)\n",
					s.Name, s.Posted, s.NoPost, s.NoIdentifier,
					aggregate.FormatPercent(s.PctPlayed()), s.LastPlayed.Format("01-02-06"))
			}
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [MM-DD-YY]",
		Short: "Show the saved result of an earlier run (default yesterday)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseRunDate(args, appClock.Now())
			if err != nil {
				return err
			}

			store, err := storage.New(afero.NewOsFs(), flagDataDir)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}
			snap, err := store.LoadRun(date)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if currentFormat() == FormatJSON {
				return writeJSON(out, snap)
			}
			fmt.Fprintf(out, "Run %s for %s (saved %s)\n", snap.RunID, snap.Date, snap.CreatedAt)
			for _, r := range snap.Results {
				fmt.Fprintf(out, "  %-13s %s\n", r.Status, r.Name)
			}
			return nil
		},
	}
}
