package notifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/api/gmail/v1"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GmailNotifier sends mail from the authorized account
type GmailNotifier struct {
	svc *gmail.Service
}

// NewGmailNotifier creates a Gmail notifier
func NewGmailNotifier(svc *gmail.Service) *GmailNotifier {
	return &GmailNotifier{svc: svc}
}

// Notify sends the notification as one email to every recipient
func (g *GmailNotifier) Notify(ctx context.Context, n *Notification) error {
	if len(n.To) == 0 {
		return errors.New("no recipients")
	}

	raw, err := BuildMessage(n)
	if err != nil {
		return err
	}

	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	if _, err := g.svc.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// BuildMessage renders an RFC 822 message. Without attachments it is a
// single text/plain part; otherwise multipart/mixed.
func BuildMessage(n *Notification) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(n.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", n.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(n.Attachments) == 0 {
		buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		buf.WriteString(n.Body)
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=\"UTF-8\""},
	})
	if err != nil {
		return nil, err
	}
	text.Write([]byte(n.Body))

	for _, path := range n.Attachments {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading attachment: %w", err)
		}

		name := filepath.Base(path)
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {contentType(name)},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": name})},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, err
		}
		writeBase64Lines(part, data)
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func contentType(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return xlsxContentType
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// writeBase64Lines wraps encoded data at 76 columns
func writeBase64Lines(w io.Writer, data []byte) {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 76 {
		w.Write([]byte(enc[:76] + "\r\n"))
		enc = enc[76:]
	}
	w.Write([]byte(enc + "\r\n"))
}
