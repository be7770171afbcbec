package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/pfrederiksen/handicap-check/internal/config"
	"github.com/pfrederiksen/handicap-check/internal/crypto"
	"github.com/pfrederiksen/handicap-check/internal/google"
	"github.com/pfrederiksen/handicap-check/internal/history"
	"github.com/pfrederiksen/handicap-check/internal/logger"
	"github.com/pfrederiksen/handicap-check/internal/metrics"
	"github.com/pfrederiksen/handicap-check/internal/notifier"
	"github.com/pfrederiksen/handicap-check/internal/posting"
	"github.com/pfrederiksen/handicap-check/internal/runner"
	"github.com/pfrederiksen/handicap-check/internal/sheets"
	"github.com/pfrederiksen/handicap-check/internal/storage"
	"github.com/pfrederiksen/handicap-check/internal/teesheet"
)

// deps is a wired runner plus whatever must be released after it
type deps struct {
	Runner  *runner.Runner
	closers []func()
}

func (d *deps) Close() {
	for _, c := range d.closers {
		c()
	}
}

// needsGoogle reports whether any collaborator talks to a Google API
func needsGoogle(cfg *config.Config) bool {
	return flagStore == StoreSheets ||
		flagPostingFile == "" ||
		(!flagDryRun && len(cfg.NotifyTo) > 0)
}

func googleServices(ctx context.Context, cfg *config.Config) (*google.Services, error) {
	auth, err := google.LoadAuth(cfg.CredentialsFile, cfg.TokenFile, crypto.NewEncryptor(cfg.TokenEncryptionKey))
	if err != nil {
		return nil, err
	}
	svcs, err := auth.NewServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting to Google: %w", err)
	}
	return svcs, nil
}

// referenceAndTables picks the backing store for reference data and the
// cumulative tables
func referenceAndTables(svcs *google.Services, cfg *config.Config, local *storage.Store) (runner.ReferenceSource, runner.TableStore) {
	if flagStore == StoreLocal {
		return local, local
	}
	return sheets.NewReference(svcs.Sheets, cfg.RosterSheetID, cfg.SheetID), sheets.NewStore(svcs.Sheets, cfg.SheetID)
}

func buildDeps(ctx context.Context, cfg *config.Config, out io.Writer) (*deps, error) {
	d := &deps{}

	local, err := storage.New(afero.NewOsFs(), flagDataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	var svcs *google.Services
	if needsGoogle(cfg) {
		if svcs, err = googleServices(ctx, cfg); err != nil {
			return nil, err
		}
	}

	tee, err := teesheet.NewClient(cfg.MTechAPIKey)
	if err != nil {
		return nil, fmt.Errorf("initializing tee sheet client: %w", err)
	}

	r := &runner.Runner{
		TeeSheet:  tee,
		NotifyTo:  cfg.NotifyTo,
		ExportDir: flagExportDir,
		Metrics:   metrics.NewRecorder(),
		Delimiter: cfg.NameDelimiter,
		Clock:     appClock,
	}
	r.Reference, r.Tables = referenceAndTables(svcs, cfg, local)

	if flagPostingFile != "" {
		r.Postings = &posting.FileSource{Path: flagPostingFile}
	} else {
		r.Postings = posting.NewGmailSource(svcs.Gmail)
	}

	r.Notifier = buildNotifier(cfg, svcs, out)

	if flagDryRun {
		r.Tables = &dryRunTables{TableStore: r.Tables, out: out}
		d.Runner = r
		return d, nil
	}

	r.Snapshots = local
	r.PushgatewayURL = cfg.PushgatewayURL

	if cfg.DatabaseURL != "" {
		h, err := history.New(ctx, cfg.DatabaseURL, appClock)
		if err != nil {
			// History is an optional sink; the check still runs without it.
			logger.Error("History database unavailable", nil, err)
		} else {
			r.History = h
			d.closers = append(d.closers, h.Close)
		}
	}

	d.Runner = r
	return d, nil
}

func buildNotifier(cfg *config.Config, svcs *google.Services, out io.Writer) notifier.Notifier {
	if flagDryRun {
		return notifier.NewDryRunNotifier(out)
	}

	var multi notifier.Multi
	if len(cfg.NotifyTo) > 0 && svcs != nil {
		multi = append(multi, notifier.NewGmailNotifier(svcs.Gmail))
	}
	if cfg.HasTelegram() {
		tg, err := notifier.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.Error("Telegram notifier disabled", nil, err)
		} else {
			multi = append(multi, tg)
		}
	}

	if len(multi) == 0 {
		logger.Warn("No notification channel configured; results will only be printed", nil)
		return nil
	}
	return multi
}

// dryRunTables reads through to the real store but only reports writes
type dryRunTables struct {
	runner.TableStore
	out io.Writer
}

func (t *dryRunTables) WriteTable(_ context.Context, name string, rows [][]string) error {
	body := len(rows) - 1
	if body < 0 {
		body = 0
	}
	fmt.Fprintf(t.out, "[dry run] would write %d rows to %s\n", body, name)
	return nil
}
