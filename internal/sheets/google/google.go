package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"hisab/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options configures the exporter. Credentials are read from CredentialsJSON,
// then CredentialsFile; with neither set, application default credentials
// apply.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc             *gsheet.Service
	spreadsheetID   string
	monthlySheet    string
	categoriesSheet string
}

var _ sheets.ReportExporter = (*Client)(nil)

// New creates a Sheets exporter. Extra client options are appended after the
// credential options, which lets callers point the client at another endpoint.
func New(ctx context.Context, opts Options, extra ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(opts.SheetName)
	if base == "" {
		base = "Reports"
	}

	clientOpts, err := credentialOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	clientOpts = append(clientOpts, goption.WithScopes(gsheet.SpreadsheetsScope))
	clientOpts = append(clientOpts, extra...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready",
		"spreadsheet_id", spreadsheetID,
		"sheet", base)

	return &Client{
		svc:             svc,
		spreadsheetID:   spreadsheetID,
		monthlySheet:    base,
		categoriesSheet: base + " Categories",
	}, nil
}

func credentialOptions(ctx context.Context, opts Options) ([]goption.ClientOption, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []goption.ClientOption{goption.WithCredentialsJSON([]byte(inline))}, nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials file", "path", file, "size", len(b))
		return []goption.ClientOption{goption.WithCredentialsJSON(b)}, nil
	default:
		slog.DebugContext(ctx, "Using application default credentials")
		return nil, nil
	}
}

// ExportReport appends the monthly series to the report sheet and the
// category breakdown to its companion sheet.
func (c *Client) ExportReport(ctx context.Context, r sheets.Report) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if r.ID == "" {
		return "", errors.New("report id is required")
	}

	ref, err := c.appendRows(ctx, c.monthlySheet+"!A:I", monthlyRows(r))
	if err != nil {
		return "", fmt.Errorf("append monthly rows to %s: %w", c.monthlySheet, err)
	}
	if len(r.Categories) > 0 {
		if _, err := c.appendRows(ctx, c.categoriesSheet+"!A:H", categoryRows(r)); err != nil {
			return "", fmt.Errorf("append category rows to %s: %w", c.categoriesSheet, err)
		}
	}
	return ref, nil
}

func (c *Client) appendRows(ctx context.Context, rng string, rows [][]any) (string, error) {
	vr := &gsheet.ValueRange{Values: rows}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}
