package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"smartwallet/internal/core"
	"smartwallet/internal/sheets"
)

// Result describes one export run.
type Result struct {
	Rows      int
	SheetRows int
	Totals    Totals
}

// Exporter writes the projection to a CSV stream and a spreadsheet at the same time.
type Exporter struct {
	sheet  sheets.RowWriter
	logger *slog.Logger
}

// NewExporter creates an exporter. sheet may be nil when no spreadsheet is configured.
func NewExporter(sheet sheets.RowWriter, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{sheet: sheet, logger: logger.With("component", "export")}
}

// HasSheet reports whether a spreadsheet sink is configured.
func (e *Exporter) HasSheet() bool { return e.sheet != nil }

// Export projects txs once and hands the rows to every configured writer.
// csvOut may be nil to skip the CSV output.
func (e *Exporter) Export(ctx context.Context, txs []core.Transaction, csvOut io.Writer) (Result, error) {
	rows := Project(txs)
	res := Result{Rows: len(rows), Totals: SumRows(rows)}

	g, gctx := errgroup.WithContext(ctx)
	if csvOut != nil {
		g.Go(func() error {
			return WriteCSV(csvOut, rows)
		})
	}
	if e.sheet != nil {
		g.Go(func() error {
			n, err := e.sheet.ReplaceRows(gctx, Values(rows))
			if err != nil {
				return fmt.Errorf("replace sheet rows: %w", err)
			}
			res.SheetRows = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.ErrorContext(ctx, "Export failed", "rows", len(rows), "error", err)
		return Result{}, err
	}

	e.logger.InfoContext(ctx, "Export completed",
		"rows", res.Rows,
		"sheet_rows", res.SheetRows)
	return res, nil
}
