package profile

import (
	"sort"

	"cloud.google.com/go/civil"
	"github.com/iQube-Protocol/moneypenny/internal/domain"
	"github.com/shopspring/decimal"
)

// DailyFlow is the net of all transactions booked on one active day.
type DailyFlow struct {
	Date civil.Date      `json:"date"`
	Net  decimal.Decimal `json:"net"`
}

// DailyFlows groups transactions by calendar date and nets each day.
// Only dates present in the input appear in the result, ascending.
func DailyFlows(txs []domain.Transaction) []DailyFlow {
	byDay := make(map[civil.Date]decimal.Decimal, len(txs))
	for _, t := range txs {
		byDay[t.Date] = byDay[t.Date].Add(t.Amount)
	}

	flows := make([]DailyFlow, 0, len(byDay))
	for d, net := range byDay {
		flows = append(flows, DailyFlow{Date: d, Net: net})
	}
	sort.Slice(flows, func(i, j int) bool {
		return flows[i].Date.Before(flows[j].Date)
	})
	return flows
}
