package google

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/pfrederiksen/handicap-check/internal/crypto"
	"github.com/pfrederiksen/handicap-check/internal/logger"
)

// Scopes requested for the mailbox and spreadsheet account
var Scopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailSendScope,
	sheets.SpreadsheetsScope,
}

// ErrNoToken is returned when no token has been saved yet; run `auth` first
var ErrNoToken = errors.New("no saved token: run `handicap-check auth` first")

// Auth manages the OAuth2 config and the token file
type Auth struct {
	config    *oauth2.Config
	tokenPath string
	enc       *crypto.Encryptor
}

// LoadAuth reads the client credentials JSON downloaded from the Google
// Cloud console. enc may be nil to store the token in plaintext.
func LoadAuth(credentialsPath, tokenPath string, enc *crypto.Encryptor) (*Auth, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	return NewAuth(data, tokenPath, enc)
}

// NewAuth builds an Auth from credentials JSON
func NewAuth(credentialsJSON []byte, tokenPath string, enc *crypto.Encryptor) (*Auth, error) {
	cfg, err := googleoauth.ConfigFromJSON(credentialsJSON, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return &Auth{config: cfg, tokenPath: tokenPath, enc: enc}, nil
}

// Config exposes the OAuth2 config
func (a *Auth) Config() *oauth2.Config {
	return a.config
}

// LoadToken reads the saved token
func (a *Auth) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	data, err = a.enc.Open(data)
	if err != nil {
		return nil, fmt.Errorf("decrypting token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	return &tok, nil
}

// SaveToken writes the token through a temporary file renamed into place
func (a *Auth) SaveToken(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshaling token: %w", err)
	}

	data, err = a.enc.Seal(data)
	if err != nil {
		return fmt.Errorf("encrypting token: %w", err)
	}

	if dir := filepath.Dir(a.tokenPath); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating token directory: %w", err)
		}
	}

	tmp := a.tokenPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmp, a.tokenPath); err != nil {
		return fmt.Errorf("renaming token file: %w", err)
	}
	return nil
}

// Token returns a valid token, refreshing and saving it when it expires
// within a minute.
func (a *Auth) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := a.LoadToken()
	if err != nil {
		return nil, err
	}

	if tok.Expiry.IsZero() || tok.Expiry.After(time.Now().Add(time.Minute)) {
		return tok, nil
	}

	logger.Debug("Refreshing Google token", logger.Fields{"expiry": tok.Expiry.Format(time.RFC3339)})
	fresh, err := a.config.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	if fresh.AccessToken != tok.AccessToken {
		if err := a.SaveToken(fresh); err != nil {
			return nil, fmt.Errorf("saving refreshed token: %w", err)
		}
	}
	return fresh, nil
}

// Authorize runs the interactive consent flow: the consent URL is written to
// out, the user pastes the code back on in, and the token is saved.
func (a *Auth) Authorize(ctx context.Context, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	url := a.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(out, "Open the following link in your browser, then paste the authorization code:\n\n%s\n\nCode: ", url)

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("no authorization code entered")
	}

	tok, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	if err := a.SaveToken(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// Services holds the API clients sharing one authorized HTTP client
type Services struct {
	Gmail  *gmail.Service
	Sheets *sheets.Service
}

// NewServices builds the Gmail and Sheets services from the saved token
func (a *Auth) NewServices(ctx context.Context) (*Services, error) {
	tok, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}

	client := a.config.Client(ctx, tok)

	gm, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}
	sh, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &Services{Gmail: gm, Sheets: sh}, nil
}
