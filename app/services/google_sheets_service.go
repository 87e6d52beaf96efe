package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/FrandeScarlet/minimarket/app/config"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var shiftReportHeaders = []interface{}{
	"shift_id",
	"cashier",
	"start_at",
	"end_at",
	"transactions",
	"voided",
	"gross_sales",
	"discounts",
	"taxes",
	"cash_tendered",
	"change_given",
	"refunds",
	"expected_cash",
	"counted_cash",
	"difference",
}

// lastColumn is the sheet column of the final header ("O").
var lastColumn = string(rune('A' + len(shiftReportHeaders) - 1))

// ShiftReportExporter appends one row per closed shift to a Google Sheet
// using service account credentials.
type ShiftReportExporter struct {
	cfg    config.SheetsConfig
	logger zerolog.Logger
	// clientOptions builds the API client options; tests point it at a fake server.
	clientOptions func(ctx context.Context) ([]option.ClientOption, error)
}

// NewShiftReportExporter creates an exporter for cfg. logger may be nil.
func NewShiftReportExporter(cfg config.SheetsConfig, logger *LoggerService) *ShiftReportExporter {
	e := &ShiftReportExporter{cfg: cfg, logger: loggerOrNop(logger)}
	e.clientOptions = e.credentialOptions
	return e
}

// Enabled reports whether exports are configured.
func (e *ShiftReportExporter) Enabled() bool {
	return e.cfg.Enabled && e.cfg.SpreadsheetID != "" && e.cfg.SheetName != ""
}

func (e *ShiftReportExporter) credentialOptions(ctx context.Context) ([]option.ClientOption, error) {
	if e.cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("missing service account credentials file")
	}
	data, err := os.ReadFile(e.cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("could not read credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("invalid service account credentials: %w", err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

// Export appends the summary as a row. It does nothing when disabled.
func (e *ShiftReportExporter) Export(ctx context.Context, summary *ShiftSummary) error {
	if !e.Enabled() {
		return nil
	}

	opts, err := e.clientOptions(ctx)
	if err != nil {
		return err
	}
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("unable to create sheets service: %w", err)
	}

	if err := e.ensureHeaders(ctx, srv); err != nil {
		return fmt.Errorf("failed to ensure headers: %w", err)
	}

	valueRange := &sheets.ValueRange{Values: [][]interface{}{shiftReportRow(summary)}}
	sheetRange := fmt.Sprintf("%s!A:%s", e.cfg.SheetName, lastColumn)
	_, err = srv.Spreadsheets.Values.Append(e.cfg.SpreadsheetID, sheetRange, valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to append shift report: %w", err)
	}

	e.logger.Info().Uint("shift_id", summary.ShiftID).Str("spreadsheet", e.cfg.SpreadsheetID).Msg("Shift report exported")
	return nil
}

// ensureHeaders writes the header row when the sheet does not have it yet.
func (e *ShiftReportExporter) ensureHeaders(ctx context.Context, srv *sheets.Service) error {
	sheetRange := fmt.Sprintf("%s!A1:%s1", e.cfg.SheetName, lastColumn)
	resp, err := srv.Spreadsheets.Values.Get(e.cfg.SpreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return err
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) >= len(shiftReportHeaders) {
		return nil
	}

	valueRange := &sheets.ValueRange{Values: [][]interface{}{shiftReportHeaders}}
	_, err = srv.Spreadsheets.Values.Update(e.cfg.SpreadsheetID, sheetRange, valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

// shiftReportRow lays out a summary in header order. Amounts stay in whole
// minor units so the sheet can sum them.
func shiftReportRow(s *ShiftSummary) []interface{} {
	endAt := ""
	if s.EndAt != nil {
		endAt = s.EndAt.Format(time.RFC3339)
	}
	return []interface{}{
		s.ShiftID,
		s.Username,
		s.StartAt.Format(time.RFC3339),
		endAt,
		s.TransactionCount,
		s.VoidedCount,
		s.GrossSalesCents,
		s.DiscountCents,
		s.TaxCents,
		s.CashTenderedCents,
		s.ChangeGivenCents,
		s.RefundCents,
		s.ExpectedCashCents,
		s.EndingCashCents,
		s.DifferenceCents,
	}
}
