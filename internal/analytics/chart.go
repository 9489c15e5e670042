package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"smartwallet/internal/core"
)

// ChartWindow is the number of points kept in a balance series.
const ChartWindow = 20

// ChartPoint is one transaction with the running balance after it.
type ChartPoint struct {
	Transaction  core.Transaction `json:"transaction"`
	Balance      decimal.Decimal  `json:"val"`
	CategoryName string           `json:"categoryName"`
}

// BalanceSeries orders txs by (date, id), accumulates the signed amounts and
// returns the last ChartWindow points. The running balance includes the
// transactions cut from the front of the window.
func BalanceSeries(txs []core.Transaction) []ChartPoint {
	sorted := append([]core.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date.Time) {
			return sorted[i].Date.Before(sorted[j].Date.Time)
		}
		return sorted[i].ID < sorted[j].ID
	})

	points := make([]ChartPoint, 0, len(sorted))
	balance := decimal.Zero
	for _, t := range sorted {
		balance = balance.Add(t.Signed())
		points = append(points, ChartPoint{
			Transaction:  t,
			Balance:      balance,
			CategoryName: core.CategoryOrFallback(t.Category).Name,
		})
	}
	if len(points) > ChartWindow {
		points = points[len(points)-ChartWindow:]
	}
	return points
}
