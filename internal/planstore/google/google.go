package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"budgetbot/internal/core"
	"budgetbot/internal/planstore"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client stores the budget document in one sheet: key/value rows in A:B and
// a revision counter in D1.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

var _ planstore.Store = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Budget")
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheet == "" {
		sheet = "Budget"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling
// and bounded timeouts for the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

func (c *Client) dataRange() string     { return fmt.Sprintf("%s!A:B", c.sheet) }
func (c *Client) revisionRange() string { return fmt.Sprintf("%s!D1", c.sheet) }

func (c *Client) Read(ctx context.Context) (*core.Document, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.dataRange()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.dataRange(), err)
	}
	return parseRows(resp.Values)
}

// Write clears the key/value block, rewrites it and bumps the revision cell.
func (c *Client) Write(ctx context.Context, doc *core.Document) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if doc == nil || doc.Plan == nil {
		return fmt.Errorf("write empty document: %w", core.ErrPersist)
	}
	rows, err := encodeRows(doc)
	if err != nil {
		return err
	}
	rev, err := c.Version(ctx)
	if err != nil {
		return err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.dataRange(), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", c.dataRange(), err)
	}

	rng := fmt.Sprintf("%s!A1:B%d", c.sheet, len(rows))
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}

	next := &gsheet.ValueRange{Values: [][]any{{int64(rev) + 1}}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.revisionRange(), next).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update revision: %w", err)
	}

	slog.InfoContext(ctx, "Budget plan written to Google Sheets",
		"sheet", c.sheet,
		"rows", len(rows),
		"revision", int64(rev)+1)
	return nil
}

func (c *Client) Version(ctx context.Context) (core.Version, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.revisionRange()).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read revision: %w", err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(resp.Values[0][0])), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse revision cell: %w", err)
	}
	return core.Version(n), nil
}
