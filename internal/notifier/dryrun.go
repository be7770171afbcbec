package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DryRunNotifier prints what would be sent without sending anything
type DryRunNotifier struct {
	out io.Writer
}

// NewDryRunNotifier creates a dry-run notifier writing to out (stdout if nil)
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out}
}

// Notify prints the message that would be sent
func (n *DryRunNotifier) Notify(_ context.Context, msg *Notification) error {
	fmt.Fprintln(n.out, "--- Notification (dry run) ---")
	fmt.Fprintf(n.out, "To: %s\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(n.out, "Subject: %s\n", msg.Subject)
	for _, a := range msg.Attachments {
		fmt.Fprintf(n.out, "Attachment: %s\n", filepath.Base(a))
	}
	fmt.Fprintf(n.out, "\n%s\n\n", msg.Body)
	return nil
}
