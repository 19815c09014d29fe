package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ErrInvalidStatement is wrapped by every ValidationError.
var ErrInvalidStatement = errors.New("invalid statement")

// MaxAbsAmount bounds every balance and transaction amount. Anything larger is not a bank
// statement, and keeping amounts well inside float64 range keeps derived features finite.
var MaxAbsAmount = decimal.New(1, 15)

// Statement is a single statement period as produced by an extraction provider.
// AccountHolder and Institution are carried for display only.
type Statement struct {
	AccountHolder  string          `json:"account_holder,omitempty"`
	Institution    string          `json:"institution,omitempty"`
	PeriodStart    civil.Date      `json:"period_start"`
	PeriodEnd      civil.Date      `json:"period_end"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Transactions   []Transaction   `json:"transactions"`
}

// FieldError describes one invalid or missing field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field problem found in a statement.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidStatement, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidStatement
}

func (e *ValidationError) add(field, format string, args ...interface{}) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Validate checks the statement invariants and fills in default currencies.
func (s *Statement) Validate() error {
	verr := &ValidationError{}

	if !s.PeriodStart.IsValid() {
		verr.add("period_start", "invalid or missing date")
	}
	if !s.PeriodEnd.IsValid() {
		verr.add("period_end", "invalid or missing date")
	}
	if s.PeriodStart.IsValid() && s.PeriodEnd.IsValid() && s.PeriodEnd.Before(s.PeriodStart) {
		verr.add("period_end", "%s is before period_start %s", s.PeriodEnd, s.PeriodStart)
	}

	checkAmount(verr, "opening_balance", s.OpeningBalance)
	checkAmount(verr, "closing_balance", s.ClosingBalance)

	for i := range s.Transactions {
		t := &s.Transactions[i]
		if !t.Date.IsValid() {
			verr.add(fmt.Sprintf("transactions[%d].date", i), "invalid or missing date")
		}
		checkAmount(verr, fmt.Sprintf("transactions[%d].amount", i), t.Amount)
		if t.Currency == "" {
			t.Currency = DefaultCurrency
		}
	}

	return verr.orNil()
}

func checkAmount(verr *ValidationError, field string, v decimal.Decimal) {
	if v.Abs().GreaterThan(MaxAbsAmount) {
		verr.add(field, "%s exceeds the maximum magnitude %s", v, MaxAbsAmount)
	}
}

// Wire shapes with pointers so that absent required fields can be told apart from zero values.
type statementJSON struct {
	AccountHolder  *string            `json:"account_holder"`
	Institution    *string            `json:"institution"`
	PeriodStart    *string            `json:"period_start"`
	PeriodEnd      *string            `json:"period_end"`
	OpeningBalance *decimal.Decimal   `json:"opening_balance"`
	ClosingBalance *decimal.Decimal   `json:"closing_balance"`
	Transactions   *[]transactionJSON `json:"transactions"`
}

type transactionJSON struct {
	Date        *string          `json:"date"`
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    *string          `json:"currency"`
	Category    *string          `json:"category"`
}

// DecodeStatement reads a statement document, rejecting unknown fields, malformed dates,
// non-numeric amounts and missing required fields. The returned statement is validated.
func DecodeStatement(r io.Reader) (*Statement, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var raw statementJSON
	if err := dec.Decode(&raw); err != nil {
		verr := &ValidationError{}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			verr.add(typeErr.Field, "expected %s", typeErr.Type)
		} else {
			verr.add("body", "%v", err)
		}
		return nil, verr
	}

	return raw.toStatement()
}

func (raw *statementJSON) toStatement() (*Statement, error) {
	verr := &ValidationError{}
	s := &Statement{}

	if raw.AccountHolder != nil {
		s.AccountHolder = *raw.AccountHolder
	}
	if raw.Institution != nil {
		s.Institution = *raw.Institution
	}
	s.PeriodStart = requireDate(verr, "period_start", raw.PeriodStart)
	s.PeriodEnd = requireDate(verr, "period_end", raw.PeriodEnd)
	s.OpeningBalance = requireAmount(verr, "opening_balance", raw.OpeningBalance)
	s.ClosingBalance = requireAmount(verr, "closing_balance", raw.ClosingBalance)

	if raw.Transactions == nil {
		verr.add("transactions", "required field is missing")
	} else {
		s.Transactions = make([]Transaction, 0, len(*raw.Transactions))
		for i, rt := range *raw.Transactions {
			prefix := fmt.Sprintf("transactions[%d]", i)
			t := Transaction{
				Date:   requireDate(verr, prefix+".date", rt.Date),
				Amount: requireAmount(verr, prefix+".amount", rt.Amount),
			}
			if rt.Description == nil {
				verr.add(prefix+".description", "required field is missing")
			} else {
				t.Description = *rt.Description
			}
			if rt.Currency != nil {
				t.Currency = strings.ToUpper(strings.TrimSpace(*rt.Currency))
			}
			if rt.Category != nil {
				t.Category = *rt.Category
			}
			s.Transactions = append(s.Transactions, t)
		}
	}

	if len(verr.Errors) > 0 {
		return nil, verr
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func requireDate(verr *ValidationError, field string, v *string) civil.Date {
	if v == nil {
		verr.add(field, "required field is missing")
		return civil.Date{}
	}
	d, err := civil.ParseDate(strings.TrimSpace(*v))
	if err != nil {
		verr.add(field, "invalid date %q, want YYYY-MM-DD", *v)
		return civil.Date{}
	}
	return d
}

func requireAmount(verr *ValidationError, field string, v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		verr.add(field, "required field is missing")
		return decimal.Zero
	}
	return *v
}
