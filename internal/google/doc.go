// Package google wraps golang.org/x/oauth2 for the single mailbox account the
// checker runs as.
//
// The token lives in one file (GOOGLE_TOKEN_FILE). When TOKEN_ENCRYPTION_KEY
// is set the file is sealed with internal/crypto; a plaintext file written
// earlier is still read and is sealed on the next refresh.
package google
