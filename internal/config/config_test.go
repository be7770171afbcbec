package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

var keys = []string{
	"MTECH_API_KEY", "GOOGLE_SHEET_ID", "ROSTER_SHEET_ID", "GOOGLE_CREDENTIALS_FILE",
	"GOOGLE_TOKEN_FILE", "TOKEN_ENCRYPTION_KEY", "NOTIFY_TO", "TELEGRAM_BOT_TOKEN",
	"TELEGRAM_CHAT_ID", "DATABASE_URL", "PUSHGATEWAY_URL", "NAME_DELIMITER", "LOG_LEVEL", "DEBUG",
}

// clearEnv blanks every key for the test; t.Setenv restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "credentials.json", cfg.CredentialsFile)
	assert.Equal(t, "token.json", cfg.TokenFile)
	assert.Equal(t, "-", cfg.NameDelimiter)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.False(t, cfg.Debug)
	assert.Empty(t, cfg.NotifyTo)
	assert.False(t, cfg.HasTelegram())
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("MTECH_API_KEY", "key")
	t.Setenv("GOOGLE_SHEET_ID", "report")
	t.Setenv("NOTIFY_TO", " pro@club.example , , captain@club.example")
	t.Setenv("DEBUG", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.MTechAPIKey)
	assert.Equal(t, "report", cfg.RosterSheetID, "roster defaults to the report spreadsheet")
	assert.Equal(t, []string{"pro@club.example", "captain@club.example"}, cfg.NotifyTo)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.HasTelegram())
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"MTECH_API_KEY=from-file\nROSTER_SHEET_ID=roster-file\nNAME_DELIMITER=/\n"), 0600))
	t.Setenv("MTECH_API_KEY", "from-env")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.MTechAPIKey)
	assert.Equal(t, "roster-file", cfg.RosterSheetID)
	assert.Equal(t, "/", cfg.NameDelimiter)
}

func TestValidateCheck(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		useSheets bool
		wantErrs  int
	}{
		{name: "complete", cfg: Config{MTechAPIKey: "k", SheetID: "s"}, useSheets: true, wantErrs: 0},
		{name: "local store needs no sheet", cfg: Config{MTechAPIKey: "k"}, useSheets: false, wantErrs: 0},
		{name: "missing everything", cfg: Config{}, useSheets: true, wantErrs: 2},
		{name: "missing api key", cfg: Config{SheetID: "s"}, useSheets: true, wantErrs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateCheck(tt.useSheets)
			assert.Len(t, multierr.Errors(err), tt.wantErrs)
		})
	}
}

func TestValidateTournament(t *testing.T) {
	assert.Error(t, (&Config{}).ValidateTournament(true))
	assert.NoError(t, (&Config{}).ValidateTournament(false))
}
