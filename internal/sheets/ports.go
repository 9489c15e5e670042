package sheets

import "context"

// Ports for outbound adapters.
type (
	// RowWriter replaces the content of a sheet with values. The first row is the header.
	RowWriter interface {
		ReplaceRows(ctx context.Context, values [][]any) (updated int, err error)
	}
)
