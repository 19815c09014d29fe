package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iQube-Protocol/moneypenny/internal/domain"
	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// ContentGenerator is the slice of the genai client the extractor needs.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor sends the document to Gemini and maps its JSON answer onto a statement.
type GeminiExtractor struct {
	models ContentGenerator
	model  string
}

// NewGeminiExtractor creates a genai client from the environment (GOOGLE_API_KEY or
// Vertex settings). Client construction failures surface as ErrExtractionUnavailable.
func NewGeminiExtractor(ctx context.Context, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, unavailable("gemini", fmt.Errorf("create genai client: %w", err))
	}
	return NewGeminiExtractorWithGenerator(client.Models, model), nil
}

// NewGeminiExtractorWithGenerator wires an existing generator, used by tests.
func NewGeminiExtractorWithGenerator(models ContentGenerator, model string) *GeminiExtractor {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiExtractor{models: models, model: model}
}

func (g *GeminiExtractor) Name() string { return "gemini" }

func (g *GeminiExtractor) Extract(ctx context.Context, raw []byte, hint Hint) (*domain.Statement, error) {
	mimeType := hint.MIMEType
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: statementPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     raw,
					},
				},
			},
		},
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, unavailable(g.Name(), fmt.Errorf("generate content: %w", err))
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, unavailable(g.Name(), fmt.Errorf("empty response from model"))
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &parsed); err != nil {
		return nil, unavailable(g.Name(), fmt.Errorf("unmarshal JSON: %w", err))
	}

	stmt, err := statementFromModelOutput(parsed)
	if err != nil {
		return nil, unavailable(g.Name(), err)
	}
	return stmt, nil
}

// cleanModelJSON strips Markdown fences and any prose around the top-level JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
