// Package notifier delivers a run's results to people.
//
// A Notification is an email-shaped message: recipients, subject, plain-text
// body and file attachments. Gmail sends it as a MIME message from the
// authorized mailbox; Telegram posts the body to a chat and uploads each
// attachment as a document. Several notifiers can be combined with Multi.
package notifier
