package domain

import (
	"errors"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStatement(t *testing.T) {
	body := `{
		"account_holder": "Demo User",
		"period_start": "2024-01-01",
		"period_end": "2024-01-31",
		"opening_balance": 900,
		"closing_balance": "1000.50",
		"transactions": [
			{"date": "2024-01-01", "description": "Coffee", "amount": -50},
			{"date": "2024-01-01", "description": "Salary", "amount": 200, "currency": "eur", "category": "Income"}
		]
	}`

	s, err := DecodeStatement(strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, "Demo User", s.AccountHolder)
	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 1}, s.PeriodStart)
	assert.True(t, s.ClosingBalance.Equal(decimal.RequireFromString("1000.50")))
	require.Len(t, s.Transactions, 2)
	assert.Equal(t, DefaultCurrency, s.Transactions[0].Currency)
	assert.Equal(t, "EUR", s.Transactions[1].Currency)
	assert.Equal(t, "Income", s.Transactions[1].Category)
	assert.True(t, s.Transactions[0].Amount.Equal(decimal.NewFromInt(-50)))
}

func TestDecodeStatement_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{
			name:      "malformed date",
			body:      `{"period_start":"2024-13-01","period_end":"2024-01-31","opening_balance":0,"closing_balance":0,"transactions":[]}`,
			wantField: "period_start",
		},
		{
			name:      "missing closing balance",
			body:      `{"period_start":"2024-01-01","period_end":"2024-01-31","opening_balance":0,"transactions":[]}`,
			wantField: "closing_balance",
		},
		{
			name:      "missing transactions",
			body:      `{"period_start":"2024-01-01","period_end":"2024-01-31","opening_balance":0,"closing_balance":0}`,
			wantField: "transactions",
		},
		{
			name:      "transaction without amount",
			body:      `{"period_start":"2024-01-01","period_end":"2024-01-31","opening_balance":0,"closing_balance":0,"transactions":[{"date":"2024-01-02","description":"x"}]}`,
			wantField: "transactions[0].amount",
		},
		{
			name:      "transaction with bad date",
			body:      `{"period_start":"2024-01-01","period_end":"2024-01-31","opening_balance":0,"closing_balance":0,"transactions":[{"date":"02/01/2024","description":"x","amount":1}]}`,
			wantField: "transactions[0].date",
		},
		{
			name:      "period reversed",
			body:      `{"period_start":"2024-02-01","period_end":"2024-01-31","opening_balance":0,"closing_balance":0,"transactions":[]}`,
			wantField: "period_end",
		},
		{
			name:      "non-numeric amount",
			body:      `{"period_start":"2024-01-01","period_end":"2024-01-31","opening_balance":0,"closing_balance":0,"transactions":[{"date":"2024-01-02","description":"x","amount":"ten"}]}`,
			wantField: "body",
		},
		{
			name:      "amount beyond float range",
			body:      `{"period_start":"2024-01-01","period_end":"2024-01-31","opening_balance":0,"closing_balance":0,"transactions":[{"date":"2024-01-02","description":"x","amount":"1e400"},{"date":"2024-01-02","description":"y","amount":"-1e400"}]}`,
			wantField: "transactions[1].amount",
		},
		{
			name:      "closing balance too large",
			body:      `{"period_start":"2024-01-01","period_end":"2024-01-31","opening_balance":0,"closing_balance":-2e15,"transactions":[]}`,
			wantField: "closing_balance",
		},
		{
			name:      "unknown field",
			body:      `{"period_start":"2024-01-01","period_end":"2024-01-31","opening_balance":0,"closing_balance":0,"transactions":[],"iban":"x"}`,
			wantField: "body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := DecodeStatement(strings.NewReader(tt.body))
			require.Error(t, err)
			assert.Nil(t, s)
			assert.True(t, errors.Is(err, ErrInvalidStatement))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			fields := make([]string, 0, len(verr.Errors))
			for _, fe := range verr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestStatementValidate(t *testing.T) {
	s := &Statement{
		PeriodStart: civil.Date{Year: 2024, Month: 1, Day: 1},
		PeriodEnd:   civil.Date{Year: 2024, Month: 1, Day: 1},
		Transactions: []Transaction{
			{Date: civil.Date{Year: 2024, Month: 1, Day: 1}, Amount: decimal.NewFromInt(5)},
		},
	}
	require.NoError(t, s.Validate())
	assert.Equal(t, DefaultCurrency, s.Transactions[0].Currency)

	s.Transactions = append(s.Transactions, Transaction{})
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transactions[1].date")
}

func TestStatementValidate_AmountBounds(t *testing.T) {
	day := civil.Date{Year: 2024, Month: 1, Day: 1}
	s := &Statement{
		PeriodStart:    day,
		PeriodEnd:      day,
		OpeningBalance: MaxAbsAmount.Neg(),
		ClosingBalance: MaxAbsAmount,
		Transactions:   []Transaction{{Date: day, Amount: MaxAbsAmount}},
	}
	require.NoError(t, s.Validate(), "the bound itself is accepted")

	s.OpeningBalance = MaxAbsAmount.Add(decimal.NewFromInt(1)).Neg()
	s.Transactions[0].Amount = decimal.RequireFromString("1e400")
	err := s.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Errors, 2)
	assert.Equal(t, "opening_balance", verr.Errors[0].Field)
	assert.Equal(t, "transactions[0].amount", verr.Errors[1].Field)
}
