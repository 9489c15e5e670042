package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes the header and one record per row with RFC 4180 quoting.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName is the suggested download name for an export taken on date (YYYY-MM-DD).
func FileName(date string) string {
	return "SmartWallet_Data_" + date + ".csv"
}
