package extraction

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/iQube-Protocol/moneypenny/internal/domain"
	"github.com/shopspring/decimal"
)

// statementFromModelOutput converts the model's generic JSON into a validated statement.
// Unknown keys are ignored; missing or mistyped required keys are errors.
func statementFromModelOutput(raw map[string]interface{}) (*domain.Statement, error) {
	s := &domain.Statement{}
	var err error

	if s.PeriodStart, err = getDateField(raw, "period_start"); err != nil {
		return nil, fmt.Errorf("statementFromModelOutput: %w", err)
	}
	if s.PeriodEnd, err = getDateField(raw, "period_end"); err != nil {
		return nil, fmt.Errorf("statementFromModelOutput: %w", err)
	}
	if s.OpeningBalance, err = getDecimalField(raw, "opening_balance"); err != nil {
		return nil, fmt.Errorf("statementFromModelOutput: %w", err)
	}
	if s.ClosingBalance, err = getDecimalField(raw, "closing_balance"); err != nil {
		return nil, fmt.Errorf("statementFromModelOutput: %w", err)
	}
	if holder, err := getOptionalStringField(raw, "account_holder"); err != nil {
		return nil, fmt.Errorf("statementFromModelOutput: %w", err)
	} else if holder != nil {
		s.AccountHolder = *holder
	}
	if inst, err := getOptionalStringField(raw, "institution"); err != nil {
		return nil, fmt.Errorf("statementFromModelOutput: %w", err)
	} else if inst != nil {
		s.Institution = *inst
	}

	txAny, ok := raw["transactions"]
	if !ok {
		return nil, fmt.Errorf("statementFromModelOutput: missing 'transactions' key in model output")
	}
	txSlice, ok := txAny.([]interface{})
	if !ok {
		return nil, fmt.Errorf("statementFromModelOutput: 'transactions' is %T, want []interface{}", txAny)
	}

	s.Transactions = make([]domain.Transaction, 0, len(txSlice))
	for i, item := range txSlice {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("transaction %d: is %T, want object", i, item)
		}

		t := domain.Transaction{}
		if t.Date, err = getDateField(obj, "date"); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		if t.Amount, err = getDecimalField(obj, "amount"); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		if t.Description, err = getStringField(obj, "description"); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		currency, err := getOptionalStringField(obj, "currency")
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		if currency != nil {
			t.Currency = strings.ToUpper(*currency)
		}
		category, err := getOptionalStringField(obj, "category")
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		if category != nil {
			t.Category = *category
		}

		s.Transactions = append(s.Transactions, t)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func getStringField(m map[string]interface{}, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", fmt.Errorf("missing required field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
	return s, nil
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want string or null", key, v)
	}
}

func getDateField(m map[string]interface{}, key string) (civil.Date, error) {
	s, err := getStringField(m, key)
	if err != nil {
		return civil.Date{}, err
	}
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q for field %q: %w", s, key, err)
	}
	return d, nil
}

func getDecimalField(m map[string]interface{}, key string) (decimal.Decimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return decimal.Zero, fmt.Errorf("missing required field %q", key)
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero, fmt.Errorf("field %q is not numeric: %w", key, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}
