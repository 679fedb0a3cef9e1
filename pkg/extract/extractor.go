package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atlas-grag/atlas/internal/util"
	"github.com/atlas-grag/atlas/pkg/ai"
	"github.com/atlas-grag/atlas/pkg/logger"
)

// Triple is a subject-predicate-object fact unit extracted from text,
// the atomic unit merged into the knowledge graph.
type Triple struct {
	Subject     string         `json:"subject"`
	SubjectType string         `json:"subject_type"`
	Predicate   string         `json:"predicate"`
	Object      string         `json:"object"`
	ObjectType  string         `json:"object_type"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// ExtractionResult holds the triples extracted from one unit of source text.
// Err is set when the model response could not be parsed; the triples slice
// is empty in that case.
type ExtractionResult struct {
	Triples    []Triple
	SourceText string
	Err        error
}

// Extractor turns raw text into typed triples using a schema-constrained
// prompt against the AI client.
type Extractor struct {
	ai        ai.GraphAIClient
	normalize bool
	maxTries  int
	timeout   time.Duration
}

// NewExtractorParams contains configuration for creating an Extractor.
type NewExtractorParams struct {
	AI        ai.GraphAIClient
	Normalize bool
	MaxTries  int
	Timeout   time.Duration
}

// NewExtractor creates an Extractor with the given AI client.
// MaxTries defaults to 1 and Timeout to 2 minutes when unset.
func NewExtractor(params NewExtractorParams) *Extractor {
	maxTries := params.MaxTries
	if maxTries <= 0 {
		maxTries = 1
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Extractor{
		ai:        params.AI,
		normalize: params.Normalize,
		maxTries:  maxTries,
		timeout:   timeout,
	}
}

type triplePayload struct {
	Triples []Triple `json:"triples"`
}

// Extract runs the extraction prompt over the given text and parses the
// response into triples. A malformed response yields a result with empty
// triples and a populated Err; the error never propagates as a panic or
// a returned error.
func (e *Extractor) Extract(ctx context.Context, text string) ExtractionResult {
	result := ExtractionResult{SourceText: text}

	rCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	prompt := fmt.Sprintf(ai.ExtractPrompt, text)

	response, err := util.RetryWithContext(rCtx, e.maxTries, func(ctx context.Context) (string, error) {
		return e.ai.GenerateCompletion(ctx, prompt, ai.WithTemperature(0.0))
	})
	if err != nil {
		result.Err = fmt.Errorf("generation failed: %w", err)
		return result
	}

	triples, err := e.parseResponse(response)
	if err != nil {
		result.Err = err
		return result
	}

	result.Triples = triples
	logger.Debug("Extracted triples from text", "count", len(triples))
	return result
}

func (e *Extractor) parseResponse(response string) ([]Triple, error) {
	jsonStr := ai.FirstJSONObject(response)
	if jsonStr == "" {
		snippet := response
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, fmt.Errorf("no JSON object found in response: %s", snippet)
	}

	var payload triplePayload
	if err := ai.UnmarshalFlexible(jsonStr, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	triples := make([]Triple, 0, len(payload.Triples))
	for _, item := range payload.Triples {
		if item.SubjectType == "" {
			item.SubjectType = "Entity"
		}
		if item.ObjectType == "" {
			item.ObjectType = "Entity"
		}
		if item.Predicate == "" {
			item.Predicate = "RELATED_TO"
		}

		if e.normalize {
			item.Subject = NormalizeEntityName(item.Subject)
			item.Object = NormalizeEntityName(item.Object)
			item.Predicate = strings.ReplaceAll(strings.ToUpper(item.Predicate), " ", "_")
		}

		if item.Subject == "" || item.Object == "" {
			continue
		}
		triples = append(triples, item)
	}

	return triples, nil
}
