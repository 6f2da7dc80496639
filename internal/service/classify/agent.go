// Package classify turns free text into a structured, confidence-scored
// classification result via a single bounded LLM call, plus a narrower
// action-extraction call used to enrich project and task records.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/pkg/log"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultTemperature = 0.1
	defaultMaxTokens   = 1500
)

type Agent struct {
	llm     core.Completer
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Agent)

func WithTimeout(d time.Duration) Option {
	return func(a *Agent) { a.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

func NewAgent(llm core.Completer, opts ...Option) *Agent {
	a := &Agent{
		llm:     llm,
		timeout: defaultTimeout,
		now:     time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Classify runs one bounded, cancellable LLM call and normalizes the
// JSON result. Failure kinds: timeout, api, invalid_response, internal.
func (a *Agent) Classify(ctx context.Context, input core.ClassificationInput) (*core.ClassificationResult, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, core.NewValidation("classification input text is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := buildClassificationPrompt(input, a.now())

	raw, err := a.llm.Complete(ctx, core.CompletionRequest{
		System:      classificationSystem,
		Prompt:      prompt,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return nil, mapCompletionError("classification", err)
	}

	result, err := parseClassification(raw)
	if err != nil {
		return nil, err
	}

	log.FromCtx(ctx).Debug().
		Str("category", string(result.Category)).
		Float64("confidence", result.Confidence).
		Str("slug", result.Slug).
		Msg("classified input")

	return result, nil
}

// mapCompletionError converts transport failures into the typed kinds
// control flow dispatches on.
func mapCompletionError(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewTimeout(operation)
	}
	if core.IsKind(err, core.KindTimeout) || core.IsKind(err, core.KindAPI) {
		return err
	}
	return core.NewAPIError(operation, err)
}

// rawClassification mirrors the model's documented output schema. Field
// payloads stay raw until the category is known.
type rawClassification struct {
	Category       *string         `json:"category"`
	Confidence     *float64        `json:"confidence"`
	Name           *string         `json:"name"`
	Slug           *string         `json:"slug"`
	Fields         json.RawMessage `json:"fields"`
	RelatedEntries []any           `json:"relatedEntries"`
	Reasoning      any             `json:"reasoning"`
	BodyContent    any             `json:"bodyContent"`
}

func parseClassification(raw string) (*core.ClassificationResult, error) {
	jsonStr := extractJSONObject(raw)
	if jsonStr == "" {
		return nil, core.NewInvalidResponse("no JSON object found in response", raw)
	}

	var rc rawClassification
	if err := json.Unmarshal([]byte(jsonStr), &rc); err != nil {
		return nil, core.NewInvalidResponse("response is not valid JSON: "+err.Error(), raw)
	}

	if rc.Category == nil || rc.Confidence == nil || rc.Name == nil || rc.Slug == nil || len(rc.Fields) == 0 {
		return nil, core.NewInvalidResponse("response missing category/confidence/name/slug/fields", raw)
	}

	category := normalizeCategory(*rc.Category)
	if !core.IsClassifiable(category) {
		return nil, core.NewInvalidResponse("category outside the allowed set: "+*rc.Category, raw)
	}

	var fieldMap map[string]any
	if err := json.Unmarshal(rc.Fields, &fieldMap); err != nil {
		return nil, core.NewInvalidResponse("fields is not a JSON object", raw)
	}

	return &core.ClassificationResult{
		Category:       category,
		Confidence:     clampConfidence(*rc.Confidence),
		Name:           strings.TrimSpace(*rc.Name),
		Slug:           normalizeResultSlug(*rc.Slug, *rc.Name),
		Fields:         normalizeFields(category, fieldMap),
		RelatedEntries: stringSlice(rc.RelatedEntries),
		Reasoning:      optionalString(rc.Reasoning),
		BodyContent:    optionalString(rc.BodyContent),
	}, nil
}

// extractJSONObject scans for the outermost {...} so wrapper prose or
// code fences around the JSON do not break parsing.
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(content[start:], "}")
	if end == -1 {
		return ""
	}
	return content[start : start+end+1]
}
