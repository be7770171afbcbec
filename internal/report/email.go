package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/handicap-check/internal/classify"
)

// DateLayout is how dates appear in subjects and bodies
const DateLayout = "01-02-06"

// NoPostSubject is the subject line of the daily email
func NoPostSubject(date time.Time) string {
	return "Non-Posters for " + date.Format(DateLayout)
}

// NoPostEmail lists the men and women who did not post, one per line as
// "- name | email | member #". An empty list reads "None".
func NoPostEmail(men, women []classify.Contact, date time.Time) string {
	d := date.Format(DateLayout)

	var b strings.Builder
	fmt.Fprintf(&b, "The men that didn't post on %s are:\n", d)
	writeContacts(&b, men)
	b.WriteString("\n")
	fmt.Fprintf(&b, "The women that didn't post on %s are:\n", d)
	writeContacts(&b, women)

	return strings.TrimSuffix(b.String(), "\n")
}

func writeContacts(b *strings.Builder, contacts []classify.Contact) {
	if len(contacts) == 0 {
		b.WriteString("None\n")
		return
	}
	for _, c := range contacts {
		fmt.Fprintf(b, "- %s | %s | %s\n", c.Name, or(c.Email, "No email"), or(c.MemberNumber, "No member #"))
	}
}

// SummaryEmail gives the counts for a run plus the golfers without a GHIN
// number, who are not covered by the gender lists.
func SummaryEmail(o *classify.Outcome, date time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Handicap check for %s\n\n", date.Format(DateLayout))
	fmt.Fprintf(&b, "Posted:        %d\n", len(o.Posted))
	fmt.Fprintf(&b, "Did not post:  %d\n", len(o.NoPost))
	fmt.Fprintf(&b, "No GHIN:       %d\n", len(o.NoIdentifier))

	if unknown := len(o.NoPost) - len(o.Men) - len(o.Women); unknown > 0 {
		fmt.Fprintf(&b, "Non-posters without a roster gender: %d\n", unknown)
	}

	if len(o.NoIdentifier) > 0 {
		b.WriteString("\nGolfers without a GHIN number:\n")
		for _, name := range o.NoIdentifier {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func or(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
