// Package google publishes worksheets to a Google spreadsheet with a service
// account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledger/internal/interchange"
	"ledger/internal/sheets"
)

var _ sheets.Publisher = (*Client)(nil)

// Config selects the target spreadsheet and the service account used to
// reach it. ServiceAccountJSON takes precedence over ServiceAccountFile.
type Config struct {
	SpreadsheetID      string
	ServiceAccountFile string
	ServiceAccountJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *slog.Logger
}

// New creates a client authenticated with the configured service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}

	creds, err := credentialsJSON(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return NewWithService(svc, spreadsheetID), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID string) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        slog.Default().With("component", "sheets"),
	}
}

func credentialsJSON(cfg Config) ([]byte, error) {
	if js := strings.TrimSpace(cfg.ServiceAccountJSON); js != "" {
		return []byte(js), nil
	}
	path := strings.TrimSpace(cfg.ServiceAccountFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// Publish creates missing tabs, clears the target tabs and writes every sheet
// with its header row first. Values are written raw so that text such as
// "2024-01-05" is not reinterpreted by the spreadsheet.
func (c *Client) Publish(ctx context.Context, in []interchange.Sheet) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if len(in) == 0 {
		return nil
	}

	if err := c.ensureTabs(ctx, in); err != nil {
		return err
	}

	ranges := make([]string, len(in))
	data := make([]*gsheet.ValueRange, len(in))
	for i, sh := range in {
		ranges[i] = quoteSheet(sh.Name)
		data[i] = valueRange(sh)
	}

	if _, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID,
		&gsheet.BatchClearValuesRequest{Ranges: ranges}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear tabs: %w", err)
	}

	resp, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write tabs: %w", err)
	}

	c.logger.InfoContext(ctx, "Published worksheets",
		"spreadsheet_id", c.spreadsheetID,
		"tabs", len(in),
		"cells", resp.TotalUpdatedCells)
	return nil
}

func (c *Client) ensureTabs(ctx context.Context, in []interchange.Sheet) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}

	existing := make(map[string]bool, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			existing[s.Properties.Title] = true
		}
	}

	var reqs []*gsheet.Request
	for _, sh := range in {
		if existing[sh.Name] {
			continue
		}
		existing[sh.Name] = true
		reqs = append(reqs, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: sh.Name},
			},
		})
	}
	if len(reqs) == 0 {
		return nil
	}

	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID,
		&gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tabs: %w", err)
	}
	c.logger.InfoContext(ctx, "Created missing tabs", "count", len(reqs))
	return nil
}

func valueRange(sh interchange.Sheet) *gsheet.ValueRange {
	values := make([][]any, 0, len(sh.Values)+1)
	header := make([]any, len(sh.Header))
	for i, h := range sh.Header {
		header[i] = h
	}
	values = append(values, header)
	values = append(values, sh.Values...)
	return &gsheet.ValueRange{
		Range:  quoteSheet(sh.Name) + "!A1",
		Values: values,
	}
}

// quoteSheet renders a tab name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
