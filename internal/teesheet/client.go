package teesheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultBaseURL = "https://www.clubmtech.com/cmtapi/teetimes/"
	UserAgent      = "handicap-check/1.0 (github.com/pfrederiksen/handicap-check)"
	Timeout        = 30 * time.Second
)

// Client fetches tee sheets from the MTech API
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewClient creates a new MTech client
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("MTech API key is required")
	}
	return &Client{
		client: &http.Client{
			Timeout: Timeout,
		},
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
	}, nil
}

// WithBaseURL points the client at a different endpoint
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// FormatDate renders a date the way the MTech API expects it: M-D-YYYY
// without leading zeros.
func FormatDate(date time.Time) string {
	return fmt.Sprintf("%d-%d-%d", int(date.Month()), date.Day(), date.Year())
}

// Fetch downloads and parses the tee sheet for a date.
func (c *Client) Fetch(ctx context.Context, date time.Time) ([]*Entry, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("TheDate", FormatDate(date))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/csv")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching tee sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	rows, err := readCSV(resp.Body)
	if err != nil {
		return nil, err
	}

	return ParseRows(rows), nil
}

// readCSV reads a feed body. Rows may have differing column counts.
func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing tee sheet CSV: %w", err)
	}
	return rows, nil
}
