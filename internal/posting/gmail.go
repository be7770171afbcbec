package posting

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/pfrederiksen/handicap-check/internal/logger"
)

const (
	ReportSender  = "reporting@ghin.com"
	ReportSubject = "Auto-Generated Scheduled Report - Played / Posted Report (Player Rounds)"
	gmailUser     = "me"
)

// GmailSource finds the GHIN report email in the authorized mailbox
type GmailSource struct {
	svc *gmail.Service
}

// NewGmailSource creates a source backed by the Gmail API
func NewGmailSource(svc *gmail.Service) *GmailSource {
	return &GmailSource{svc: svc}
}

// SearchQuery builds the mailbox query for a round date. GHIN sends the
// report the day after the round.
func SearchQuery(date time.Time) string {
	emailDate := date.AddDate(0, 0, 1)
	return fmt.Sprintf(`from:%s subject:"%s" after:%s before:%s`,
		ReportSender,
		ReportSubject,
		emailDate.Format("2006/01/02"),
		emailDate.AddDate(0, 0, 1).Format("2006/01/02"),
	)
}

// Fetch locates the report email and reads its xlsx attachment, falling back
// to an HTML table in the message body.
func (s *GmailSource) Fetch(ctx context.Context, date time.Time) ([][]string, error) {
	query := SearchQuery(date)

	list, err := s.svc.Users.Messages.List(gmailUser).Q(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("searching mailbox: %w", err)
	}
	if len(list.Messages) == 0 {
		return nil, fmt.Errorf("no email found from %s for %s", ReportSender, date.AddDate(0, 0, 1).Format("01-02-06"))
	}

	msgID := list.Messages[0].Id
	msg, err := s.svc.Users.Messages.Get(gmailUser, msgID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching message %s: %w", msgID, err)
	}
	if msg.Payload == nil {
		return nil, fmt.Errorf("message %s has no payload", msgID)
	}

	if part := findPart(msg.Payload, isXLSXPart); part != nil && part.Body != nil {
		data, err := s.attachmentData(ctx, msgID, part.Body)
		if err != nil {
			return nil, err
		}
		logger.Debug("Reading posting report attachment", logger.Fields{
			"message_id": msgID,
			"filename":   part.Filename,
		})
		return ParseXLSX(bytes.NewReader(data))
	}

	if part := findPart(msg.Payload, isHTMLPart); part != nil && part.Body != nil && part.Body.Data != "" {
		data, err := decodeBase64URL(part.Body.Data)
		if err != nil {
			return nil, fmt.Errorf("decoding message body: %w", err)
		}
		logger.Warn("Report email has no xlsx attachment, reading HTML body", logger.Fields{
			"message_id": msgID,
		})
		return ParseHTMLReport(bytes.NewReader(data))
	}

	return nil, fmt.Errorf("no xlsx attachment found in message %s", msgID)
}

func (s *GmailSource) attachmentData(ctx context.Context, msgID string, body *gmail.MessagePartBody) ([]byte, error) {
	encoded := body.Data
	if body.AttachmentId != "" {
		att, err := s.svc.Users.Messages.Attachments.Get(gmailUser, msgID, body.AttachmentId).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("fetching attachment: %w", err)
		}
		encoded = att.Data
	}

	data, err := decodeBase64URL(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding attachment: %w", err)
	}
	return data, nil
}

func isXLSXPart(p *gmail.MessagePart) bool {
	return strings.HasSuffix(strings.ToLower(p.Filename), ".xlsx")
}

func isHTMLPart(p *gmail.MessagePart) bool {
	return p.Filename == "" && strings.EqualFold(p.MimeType, "text/html")
}

// findPart walks a MIME tree depth-first
func findPart(p *gmail.MessagePart, match func(*gmail.MessagePart) bool) *gmail.MessagePart {
	if p == nil {
		return nil
	}
	if match(p) {
		return p
	}
	for _, child := range p.Parts {
		if found := findPart(child, match); found != nil {
			return found
		}
	}
	return nil
}

// decodeBase64URL accepts padded and unpadded URL-safe base64
func decodeBase64URL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if data, err := base64.URLEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
