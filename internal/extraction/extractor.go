// Package extraction turns raw statement documents into domain statements.
//
// Providers are interchangeable; callers depend only on the Extractor interface and the
// domain.Statement it returns.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iQube-Protocol/moneypenny/internal/config"
	"github.com/iQube-Protocol/moneypenny/internal/domain"
)

// ErrExtractionUnavailable is returned when a provider cannot produce a statement,
// whether because it is unreachable, misconfigured or returned unusable output.
var ErrExtractionUnavailable = errors.New("extraction unavailable")

// Hint carries caller knowledge about the document that a provider may use.
type Hint struct {
	// Monthly asks for a calendar-month statement MonthOffset months before the current one.
	// When false the statement covers the trailing 30 days.
	Monthly     bool
	MonthOffset int

	// MIMEType of the raw document; providers default to application/pdf.
	MIMEType string
}

// Extractor converts raw document bytes into a validated statement.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, raw []byte, hint Hint) (*domain.Statement, error)
}

// New builds the provider named in cfg.
func New(ctx context.Context, cfg config.Extraction) (Extractor, error) {
	switch strings.ToLower(cfg.Provider) {
	case config.ProviderMock, "":
		return NewMockExtractor(cfg.Seed), nil
	case config.ProviderGemini:
		g, err := NewGeminiExtractor(ctx, cfg.Model)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("extraction.New: unknown provider %q", cfg.Provider)
	}
}

func unavailable(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrExtractionUnavailable, provider, err)
}
