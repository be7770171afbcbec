// Package config loads settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Config holds all application configuration.
type Config struct {
	// Tee sheet feed
	MTechAPIKey string

	// Google: report spreadsheet (exclusions + cumulative tables) and roster.
	SheetID            string
	RosterSheetID      string
	CredentialsFile    string
	TokenFile          string
	TokenEncryptionKey string

	// Notification
	NotifyTo         []string
	TelegramBotToken string
	TelegramChatID   string

	// Optional sinks
	DatabaseURL    string
	PushgatewayURL string

	NameDelimiter string
	LogLevel      string
	Debug         bool
}

// Load reads configuration from envFile (if present) and then from
// environment variables. An empty envFile means ".env".
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	// A missing .env is fine; production uses real env vars.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	v := viper.New()
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json")
	v.SetDefault("GOOGLE_TOKEN_FILE", "token.json")
	v.SetDefault("NAME_DELIMITER", "-")
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("DEBUG", false)

	cfg := &Config{
		MTechAPIKey:        v.GetString("MTECH_API_KEY"),
		SheetID:            v.GetString("GOOGLE_SHEET_ID"),
		RosterSheetID:      v.GetString("ROSTER_SHEET_ID"),
		CredentialsFile:    v.GetString("GOOGLE_CREDENTIALS_FILE"),
		TokenFile:          v.GetString("GOOGLE_TOKEN_FILE"),
		TokenEncryptionKey: v.GetString("TOKEN_ENCRYPTION_KEY"),
		NotifyTo:           splitTrimmed(v.GetString("NOTIFY_TO")),
		TelegramBotToken:   v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:     v.GetString("TELEGRAM_CHAT_ID"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		PushgatewayURL:     v.GetString("PUSHGATEWAY_URL"),
		NameDelimiter:      v.GetString("NAME_DELIMITER"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		Debug:              v.GetBool("DEBUG"),
	}

	if cfg.RosterSheetID == "" {
		cfg.RosterSheetID = cfg.SheetID
	}
	return cfg, nil
}

// HasTelegram reports whether Telegram delivery is configured
func (c *Config) HasTelegram() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// ValidateCheck reports every setting the daily check is missing.
// useSheets is false when tables and reference data come from local files.
func (c *Config) ValidateCheck(useSheets bool) error {
	var err error
	if c.MTechAPIKey == "" {
		err = multierr.Append(err, errors.New("MTECH_API_KEY must be set"))
	}
	if useSheets && c.SheetID == "" {
		err = multierr.Append(err, errors.New("GOOGLE_SHEET_ID must be set"))
	}
	return err
}

// ValidateTournament reports settings the tournament check is missing
func (c *Config) ValidateTournament(useSheets bool) error {
	if useSheets && c.SheetID == "" {
		return errors.New("GOOGLE_SHEET_ID must be set")
	}
	return nil
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
