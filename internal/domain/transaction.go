package domain

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is applied to transactions that arrive without a currency code.
const DefaultCurrency = "USD"

// Transaction is one dated, signed cash movement on a statement.
// Amount is negative for debits (expenses) and positive for credits (income).
type Transaction struct {
	Date        civil.Date      `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category,omitempty"`
}
