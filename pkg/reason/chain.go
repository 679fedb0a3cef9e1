package reason

import (
	"context"
	"fmt"
	"strings"

	"github.com/atlas-grag/atlas/pkg/ai"
	"github.com/atlas-grag/atlas/pkg/logger"
)

const defaultTemperature = 0.1

// RetrievalContext provides the precomputed fusion context for answer
// synthesis. The chain only reads it, never re-derives it.
type RetrievalContext interface {
	CombinedContext() string
}

// ReasoningResponse is the parsed output of one answer synthesis call.
// Entities and Reasoning are empty when the model skipped the structured
// sections; RawResponse always carries the unparsed completion.
type ReasoningResponse struct {
	Answer      string   `json:"answer"`
	Entities    []string `json:"entities"`
	Reasoning   string   `json:"reasoning"`
	RawResponse string   `json:"raw_response"`
}

// ReasoningChain formats retrieval context and question into a prompt,
// invokes the AI client and parses the structured completion.
type ReasoningChain struct {
	ai          ai.GraphAIClient
	temperature float64
}

// NewReasoningChainParams contains configuration for creating a
// ReasoningChain. Temperature defaults to 0.1.
type NewReasoningChainParams struct {
	AI          ai.GraphAIClient
	Temperature float64
}

// NewReasoningChain creates a ReasoningChain.
func NewReasoningChain(params NewReasoningChainParams) *ReasoningChain {
	temperature := params.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	return &ReasoningChain{
		ai:          params.AI,
		temperature: temperature,
	}
}

// Reason synthesizes an answer to the question from the retrieval
// context. With chain-of-thought enabled the completion is parsed into
// entities, reasoning trace and answer; malformed structure degrades to
// returning the raw text as the answer, never to an error. A generation
// failure is returned to the caller.
func (c *ReasoningChain) Reason(
	ctx context.Context,
	result RetrievalContext,
	question string,
	useChainOfThought bool,
) (*ReasoningResponse, error) {
	retrievalContext := result.CombinedContext()
	if retrievalContext == "" {
		retrievalContext = "No relevant context was retrieved."
	}

	template := ai.SimpleAnswerPrompt
	if useChainOfThought {
		template = ai.ReasoningPrompt
	}
	prompt := fmt.Sprintf(template, retrievalContext, question)

	response, err := c.ai.GenerateCompletion(ctx, prompt, ai.WithTemperature(c.temperature))
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	if !useChainOfThought {
		return &ReasoningResponse{
			Answer:      strings.TrimSpace(response),
			RawResponse: response,
		}, nil
	}
	return parseChainOfThought(response), nil
}

// parseChainOfThought splits a completion into its tagged sections. The
// answer falls back to the text after the reasoning block, then to the
// whole response, so a sloppy completion still yields something usable.
func parseChainOfThought(response string) *ReasoningResponse {
	parsed := &ReasoningResponse{RawResponse: response}

	parsed.Entities = splitEntities(taggedSection(response, "entities"))
	parsed.Reasoning = taggedSection(response, "reasoning")

	answer := taggedSection(response, "answer")
	if answer == "" {
		if _, after, ok := strings.Cut(response, "</reasoning>"); ok {
			answer = strings.TrimSpace(after)
		}
	}
	if answer == "" {
		logger.Debug("Completion missing structured sections, using raw text as answer")
		answer = strings.TrimSpace(response)
	}
	parsed.Answer = answer
	return parsed
}

// taggedSection returns the trimmed text between <tag> and </tag>, or
// "" when either delimiter is missing.
func taggedSection(s string, tag string) string {
	_, after, ok := strings.Cut(s, "<"+tag+">")
	if !ok {
		return ""
	}
	body, _, ok := strings.Cut(after, "</"+tag+">")
	if !ok {
		return ""
	}
	return strings.TrimSpace(body)
}

// splitEntities parses an entities section written as a comma-separated
// or line-separated list, tolerating bullet markers.
func splitEntities(section string) []string {
	if section == "" {
		return nil
	}
	var entities []string
	for _, item := range strings.FieldsFunc(section, func(r rune) bool {
		return r == '\n' || r == ','
	}) {
		item = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(item), "-"))
		if item != "" {
			entities = append(entities, item)
		}
	}
	return entities
}
