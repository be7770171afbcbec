package notifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func writeAttachment(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBuildMessage_PlainText(t *testing.T) {
	raw, err := BuildMessage(&Notification{
		To:      []string{"pro@club.example", "captain@club.example"},
		Subject: "Non-Posters for 06-14-25",
		Body:    "The men that didn't post on 06-14-25 are:\nNone",
	})
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "pro@club.example, captain@club.example", msg.Header.Get("To"))

	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Non-Posters for 06-14-25", subject)

	body, _ := io.ReadAll(msg.Body)
	assert.Contains(t, string(body), "None")
}

func TestBuildMessage_Attachments(t *testing.T) {
	path := writeAttachment(t, "NoPost-Men-06-14-25.xlsx", "fake workbook bytes")

	raw, err := BuildMessage(&Notification{
		To:          []string{"pro@club.example"},
		Subject:     "s",
		Body:        "body text",
		Attachments: []string{path},
	})
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])

	text, err := mr.NextPart()
	require.NoError(t, err)
	b, _ := io.ReadAll(text)
	assert.Equal(t, "body text", string(b))

	att, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "NoPost-Men-06-14-25.xlsx", att.FileName())
	assert.Equal(t, xlsxContentType, att.Header.Get("Content-Type"))
	encoded, _ := io.ReadAll(att)
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(encoded), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, "fake workbook bytes", string(decoded))

	_, err = mr.NextPart()
	assert.Equal(t, io.EOF, err)
}

func TestBuildMessage_MissingAttachment(t *testing.T) {
	_, err := BuildMessage(&Notification{To: []string{"a@b"}, Attachments: []string{"/no/such/file.xlsx"}})
	assert.Error(t, err)
}

func TestGmailNotifier(t *testing.T) {
	var gotPath string
	var gotRaw string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var m gmail.Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		gotRaw = m.Raw
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"sent-1"}`))
	}))
	defer server.Close()

	svc, err := gmail.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	n := NewGmailNotifier(svc)
	require.NoError(t, n.Notify(context.Background(), &Notification{
		To: []string{"pro@club.example"}, Subject: "hello", Body: "world",
	}))

	assert.True(t, strings.HasSuffix(gotPath, "/users/me/messages/send"), gotPath)
	raw, err := base64.URLEncoding.DecodeString(gotRaw)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "To: pro@club.example")

	err = n.Notify(context.Background(), &Notification{Subject: "x"})
	assert.Error(t, err, "no recipients")
}

func TestTelegramNotifier(t *testing.T) {
	var messages []string
	var documents []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var payload map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "12345", payload["chat_id"])
			messages = append(messages, payload["text"].(string))
		case strings.HasSuffix(r.URL.Path, "/sendDocument"):
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "12345", r.FormValue("chat_id"))
			_, header, err := r.FormFile("document")
			require.NoError(t, err)
			documents = append(documents, header.Filename)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer server.Close()

	n, err := NewTelegramNotifier("test-token", "12345")
	require.NoError(t, err)
	n.WithBaseURL(server.URL + "/bot")

	path := writeAttachment(t, "NoPost-Women-06-14-25.xlsx", "x")
	err = n.Notify(context.Background(), &Notification{
		Subject:     "Non-Posters for 06-14-25",
		Body:        "The women that didn't post on 06-14-25 are:\nNone",
		Attachments: []string{path},
	})
	require.NoError(t, err)

	require.Len(t, messages, 1)
	assert.True(t, strings.HasPrefix(messages[0], "Non-Posters for 06-14-25\n\n"))
	assert.Equal(t, []string{"NoPost-Women-06-14-25.xlsx"}, documents)
}

func TestTelegramNotifier_APIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "not ok", status: http.StatusOK, body: `{"ok":false,"description":"Bad Request: chat not found"}`, wantErr: "chat not found"},
		{name: "http error", status: http.StatusUnauthorized, body: `{"ok":false}`, wantErr: "status 401"},
		{name: "bad json", status: http.StatusOK, body: `not json`, wantErr: "parsing response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			n, err := NewTelegramNotifier("t", "c")
			require.NoError(t, err)
			n.WithBaseURL(server.URL + "/bot")

			err = n.Notify(context.Background(), &Notification{Body: "hi"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewTelegramNotifier_Validation(t *testing.T) {
	_, err := NewTelegramNotifier("", "chat")
	assert.Error(t, err)
	_, err = NewTelegramNotifier("token", "")
	assert.Error(t, err)
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{name: "fits", text: "short", limit: 10, want: []string{"short"}},
		{name: "split on lines", text: "aaaa\nbbbb\ncccc", limit: 10, want: []string{"aaaa\nbbbb\n", "cccc"}},
		{name: "long line is cut", text: "abcdefghijkl\nxy", limit: 5, want: []string{"abcde", "fghij", "kl\nxy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitMessage(tt.text, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.text, strings.Join(got, ""))
		})
	}
}

func TestDryRunNotifier(t *testing.T) {
	var out bytes.Buffer
	n := NewDryRunNotifier(&out)

	err := n.Notify(context.Background(), &Notification{
		To:          []string{"pro@club.example"},
		Subject:     "Non-Posters for 06-14-25",
		Body:        "None",
		Attachments: []string{"/tmp/exports/NoPost-Men-06-14-25.xlsx"},
	})
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "To: pro@club.example")
	assert.Contains(t, got, "Subject: Non-Posters for 06-14-25")
	assert.Contains(t, got, "Attachment: NoPost-Men-06-14-25.xlsx")
}

type failingNotifier struct{ err error }

func (f failingNotifier) Notify(context.Context, *Notification) error { return f.err }

func TestMulti(t *testing.T) {
	var out bytes.Buffer
	first := errors.New("gmail down")
	second := errors.New("telegram down")

	m := Multi{failingNotifier{first}, NewDryRunNotifier(&out), failingNotifier{second}}
	err := m.Notify(context.Background(), &Notification{Body: "b"})

	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Len(t, multierr.Errors(err), 2)
	assert.NotEmpty(t, out.String(), "later notifiers still run after a failure")
}
