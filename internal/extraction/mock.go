package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"time"

	"cloud.google.com/go/civil"
	"github.com/iQube-Protocol/moneypenny/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	mockDescriptions = []string{
		"Coffee Shop", "Grocery Store", "Gas Station",
		"Salary Deposit", "Transfer", "Restaurant", "Utilities",
	}
	mockCategories = []string{"Food", "Transport", "Income", "Other", "Bills"}
)

// amountRange bounds the magnitude of generated expenses and incomes.
type amountRange struct {
	expenseMin, expenseMax float64
	incomeMin, incomeMax   float64
}

var (
	trailingRange = amountRange{expenseMin: 10, expenseMax: 100, incomeMin: 50, incomeMax: 200}
	monthlyRange  = amountRange{expenseMin: 10, expenseMax: 150, incomeMin: 50, incomeMax: 300}
)

const (
	mockOpeningBalance = 5000.0
	mockOpeningJitter  = 500.0
	mockActiveDayRatio = 0.7
	mockTrailingDays   = 30
)

// MockExtractor fabricates plausible statements without reading the document.
// Output is deterministic for the same bytes, hint, seed and clock.
type MockExtractor struct {
	seed int64
	now  func() time.Time
}

// NewMockExtractor returns a mock provider using the wall clock.
func NewMockExtractor(seed int64) *MockExtractor {
	return &MockExtractor{seed: seed, now: time.Now}
}

// WithClock replaces the reference clock, mainly for tests.
func (m *MockExtractor) WithClock(now func() time.Time) *MockExtractor {
	m.now = now
	return m
}

func (m *MockExtractor) Name() string { return "mock" }

func (m *MockExtractor) Extract(ctx context.Context, raw []byte, hint Hint) (*domain.Statement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(m.seedFor(raw, hint)))
	today := civil.DateOf(m.now())

	var (
		start, end civil.Date
		amounts    = trailingRange
		opening    = mockOpeningBalance
	)
	if hint.Monthly {
		month := today.Month - time.Month(hint.MonthOffset)
		start = civil.DateOf(time.Date(today.Year, month, 1, 0, 0, 0, 0, time.UTC))
		// day zero of the following month is the last day of this one
		end = civil.DateOf(time.Date(today.Year, month+1, 0, 0, 0, 0, 0, time.UTC))
		amounts = monthlyRange
		opening += uniform(rng, -mockOpeningJitter, mockOpeningJitter)
	} else {
		start = today.AddDays(-mockTrailingDays)
		end = today
	}

	openingDec := decimal.NewFromFloat(opening).Round(2)
	balance := openingDec
	var txs []domain.Transaction

	days := mockTrailingDays
	if hint.Monthly {
		days = end.DaysSince(start) + 1
	}
	for i := 0; i < days; i++ {
		if rng.Float64() >= mockActiveDayRatio {
			continue
		}
		var amount float64
		if rng.Intn(2) == 0 {
			amount = -uniform(rng, amounts.expenseMin, amounts.expenseMax)
		} else {
			amount = uniform(rng, amounts.incomeMin, amounts.incomeMax)
		}
		amt := decimal.NewFromFloat(amount).Round(2)
		txs = append(txs, domain.Transaction{
			Date:        start.AddDays(i),
			Description: mockDescriptions[rng.Intn(len(mockDescriptions))],
			Amount:      amt,
			Currency:    domain.DefaultCurrency,
			Category:    mockCategories[rng.Intn(len(mockCategories))],
		})
		balance = balance.Add(amt)
	}

	stmt := &domain.Statement{
		AccountHolder:  "Demo User",
		Institution:    "Demo Bank",
		PeriodStart:    start,
		PeriodEnd:      end,
		OpeningBalance: openingDec,
		ClosingBalance: balance,
		Transactions:   txs,
	}
	if err := stmt.Validate(); err != nil {
		return nil, unavailable(m.Name(), err)
	}
	return stmt, nil
}

func (m *MockExtractor) seedFor(raw []byte, hint Hint) int64 {
	sum := sha256.Sum256(raw)
	s := int64(binary.BigEndian.Uint64(sum[:8]))
	return s ^ m.seed ^ int64(hint.MonthOffset)<<32
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
