// Package gsheets reads and appends the workout log in a Google Sheets worksheet.
package gsheets

import (
	"context"
	"fmt"

	"github.com/2beens/liftlog/internal/source"
	"github.com/2beens/liftlog/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	// typed values are parsed as if entered in the sheet UI: numbers stay numbers
	valueInputUserEntered = "USER_ENTERED"
	insertDataRows        = "INSERT_ROWS"
	valueRenderFormatted  = "FORMATTED_VALUE"
)

type Source struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	worksheet     string
}

// NewSource opens the worksheet. Pass option.WithHTTPClient with a client from
// gcp.NewHTTPClient for the service account auth.
func NewSource(ctx context.Context, spreadsheetID, worksheet string, opts ...option.ClientOption) (*Source, error) {
	if spreadsheetID == "" || worksheet == "" {
		return nil, fmt.Errorf("spreadsheet id and worksheet must be set")
	}

	sheetsService, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve sheets client: %w", err)
	}

	return &Source{
		values:        sheetsService.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
	}, nil
}

func (s *Source) ReadAllRows(ctx context.Context) (_ source.Table, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gsheets.read_all_rows")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	resp, err := s.values.
		Get(s.spreadsheetID, s.worksheet).
		ValueRenderOption(valueRenderFormatted).
		Context(ctx).
		Do()
	if err != nil {
		return source.Table{}, fmt.Errorf("get worksheet values [%s]: %w", s.worksheet, err)
	}

	values := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, cell := range row {
			if cell != nil {
				cells[i] = fmt.Sprint(cell)
			}
		}
		values = append(values, cells)
	}
	span.SetAttributes(attribute.Int("rows", len(values)))

	return source.NewTable(values)
}

func (s *Source) AppendRow(ctx context.Context, columns []string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gsheets.append_row")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	row := make([]interface{}, len(columns))
	for i, c := range columns {
		row[i] = c
	}

	_, err = s.values.
		Append(s.spreadsheetID, s.worksheet, &sheets.ValueRange{
			Values: [][]interface{}{row},
		}).
		ValueInputOption(valueInputUserEntered).
		InsertDataOption(insertDataRows).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row to [%s]: %w", s.worksheet, err)
	}
	return nil
}
