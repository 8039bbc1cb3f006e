package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"flipscout/internal/fallback"
)

// DefaultModels is the prioritized list of Gemini models to try. Models are
// attempted in order and the first one that answers wins; entries later in
// the list are cheaper but less capable.
var DefaultModels = []string{"gemini-1.5-pro", "gemini-1.5-flash"}

// MaxSuggestions caps how many alternative queries a retry may use.
const MaxSuggestions = 3

var detectPrompt = strings.TrimSpace(dedent.Dedent(`
	Analyze the image. Identify all media items (books, video games, DVDs, CDs, blu-rays, etc.).

	Respond with ONLY a valid JSON array. Every object must have a 'query_text' field
	consisting of the exact title plus platform/author, suitable as a marketplace search query.

	Example:
	[
	  {"query_text": "Harry Potter und der Stein der Weisen Buch"},
	  {"query_text": "PlayStation 5 FIFA 23"},
	  {"query_text": "Matrix DVD"}
	]

	IMPORTANT: Respond with ONLY the JSON array, no explanations or markdown.`))

var suggestPromptTemplate = strings.TrimSpace(dedent.Dedent(`
	The marketplace search query %q for an item in this image returned no results.

	Look at the image again and propose up to %d alternative search queries that plausibly
	describe the same physical item: different wording, shorter title, alternate edition name.
	Do not repeat the failed query.

	Respond with ONLY a valid JSON array of objects with a 'query_text' field, no markdown.`))

// GeminiAnalyzer detects items and suggests alternative queries using
// Google's Gemini API.
type GeminiAnalyzer struct {
	client *genai.Client
	models []string

	// generateFn runs a prompt against one model. Swappable in tests.
	generateFn func(ctx context.Context, model, prompt string, imageData []byte, mimeType string) (string, error)
}

// NewGeminiAnalyzer creates an analyzer using the given API key and
// prioritized model list. An empty model list uses DefaultModels.
func NewGeminiAnalyzer(ctx context.Context, apiKey string, models []string) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if len(models) == 0 {
		models = DefaultModels
	}
	g := &GeminiAnalyzer{client: client, models: models}
	g.generateFn = g.callModel
	return g, nil
}

// AnalyzeImage implements the Analyzer interface.
func (g *GeminiAnalyzer) AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) ([]DetectedItem, error) {
	text, err := g.generate(ctx, detectPrompt, imageData, mimeType)
	if err != nil {
		return nil, err
	}
	return parseDetectedItems(text), nil
}

// SuggestQueries implements the QuerySuggester interface.
func (g *GeminiAnalyzer) SuggestQueries(ctx context.Context, imageData []byte, mimeType string, failedQuery string) ([]string, error) {
	prompt := fmt.Sprintf(suggestPromptTemplate, failedQuery, MaxSuggestions)
	text, err := g.generate(ctx, prompt, imageData, mimeType)
	if err != nil {
		return nil, err
	}

	queries := []string{}
	for _, item := range parseDetectedItems(text) {
		query := strings.TrimSpace(item.QueryText)
		if query == "" {
			continue
		}
		queries = append(queries, query)
		if len(queries) == MaxSuggestions {
			break
		}
	}
	return queries, nil
}

// generate runs the prompt against the prioritized model list. A model
// error moves on to the next model; the call fails only when every model
// declined.
func (g *GeminiAnalyzer) generate(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error) {
	attempts := make([]fallback.Attempt[string], len(g.models))
	for i, model := range g.models {
		attempts[i] = func(ctx context.Context) (string, bool, error) {
			text, err := g.generateFn(ctx, model, prompt, imageData, mimeType)
			if err != nil {
				log.Warn().Err(err).Str("model", model).Msg("gemini model failed, trying next")
				return "", false, nil
			}
			return text, true, nil
		}
	}

	text, ok, err := fallback.First(ctx, attempts...)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no response from any of the configured models: %s", strings.Join(g.models, ", "))
	}

	log.Debug().Str("response", text).Msg("gemini vision response")
	return text, nil
}

// callModel performs one GenerateContent call against a single model.
func (g *GeminiAnalyzer) callModel(ctx context.Context, model, prompt string, imageData []byte, mimeType string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		{InlineData: &genai.Blob{Data: imageData, MIMEType: mimeType}},
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", err
	}
	// Content is nil for safety-blocked candidates.
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response candidates from model %s", model)
	}

	return result.Text(), nil
}

// parseDetectedItems extracts the detected item array from a model
// response. Markdown code fences around the payload are tolerated. A
// response that is not valid JSON or not an array counts as nothing
// detected, never as a fatal error.
func parseDetectedItems(text string) []DetectedItem {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var items []DetectedItem
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		log.Warn().Err(err).Str("response", text).Msg("failed to parse vision response as item array")
		return nil
	}

	return items
}
