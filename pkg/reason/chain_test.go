package reason

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/atlas-grag/atlas/pkg/ai"
)

type fakeAIClient struct {
	response string
	err      error
	prompt   string
	opts     []ai.GenerateOption
}

func (f *fakeAIClient) GenerateCompletion(_ context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	f.prompt = prompt
	f.opts = opts
	return f.response, f.err
}

func (f *fakeAIClient) GenerateCompletionWithFormat(context.Context, string, string, string, any, ...ai.GenerateOption) error {
	return errors.New("not implemented")
}

func (f *fakeAIClient) GenerateEmbedding(context.Context, []byte) ([]float32, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAIClient) IsHealthy(context.Context) bool { return true }

func (f *fakeAIClient) ResetMetrics() {}

func (f *fakeAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

type staticContext string

func (s staticContext) CombinedContext() string { return string(s) }

func TestReason_ParsesStructuredCompletion(t *testing.T) {
	client := &fakeAIClient{response: `<entities>
techflow, flowchips
</entities>
<reasoning>
TechFlow manufactures FlowChips, so TechFlow is the producer.
</reasoning>
<answer>
TechFlow produces FlowChips.
</answer>`}

	chain := NewReasoningChain(NewReasoningChainParams{AI: client})
	response, err := chain.Reason(context.Background(),
		staticContext("techflow -[MANUFACTURES]-> flowchips"),
		"Who makes FlowChips?", true)
	if err != nil {
		t.Fatal(err)
	}

	if response.Answer != "TechFlow produces FlowChips." {
		t.Errorf("unexpected answer %q", response.Answer)
	}
	if len(response.Entities) != 2 || response.Entities[0] != "techflow" || response.Entities[1] != "flowchips" {
		t.Errorf("unexpected entities %v", response.Entities)
	}
	if !strings.Contains(response.Reasoning, "TechFlow manufactures FlowChips") {
		t.Errorf("unexpected reasoning %q", response.Reasoning)
	}
	if response.RawResponse != client.response {
		t.Error("expected raw response preserved")
	}
	if !strings.Contains(client.prompt, "techflow -[MANUFACTURES]-> flowchips") {
		t.Error("expected retrieval context in prompt")
	}
	if !strings.Contains(client.prompt, "Who makes FlowChips?") {
		t.Error("expected question in prompt")
	}
}

func TestReason_MissingAnswerTagFallsBackToTextAfterReasoning(t *testing.T) {
	client := &fakeAIClient{response: `<reasoning>
The graph shows a direct MANUFACTURES edge.
</reasoning>
TechFlow produces FlowChips.`}

	chain := NewReasoningChain(NewReasoningChainParams{AI: client})
	response, err := chain.Reason(context.Background(), staticContext("ctx"), "q", true)
	if err != nil {
		t.Fatal(err)
	}

	if response.Answer != "TechFlow produces FlowChips." {
		t.Errorf("unexpected answer %q", response.Answer)
	}
	if len(response.Entities) != 0 {
		t.Errorf("expected no entities, got %v", response.Entities)
	}
}

func TestReason_NoDelimitersUsesWholeResponse(t *testing.T) {
	client := &fakeAIClient{response: "TechFlow produces FlowChips in its Singapore plant."}

	chain := NewReasoningChain(NewReasoningChainParams{AI: client})
	response, err := chain.Reason(context.Background(), staticContext("ctx"), "q", true)
	if err != nil {
		t.Fatal(err)
	}

	if response.Answer != client.response {
		t.Errorf("expected whole response as answer, got %q", response.Answer)
	}
	if len(response.Entities) != 0 || response.Reasoning != "" {
		t.Errorf("expected empty sections, got %+v", response)
	}
	if response.RawResponse != client.response {
		t.Error("expected raw response preserved")
	}
}

func TestReason_SimpleAnswerSkipsParsing(t *testing.T) {
	client := &fakeAIClient{response: "  TechFlow produces FlowChips.  "}

	chain := NewReasoningChain(NewReasoningChainParams{AI: client})
	response, err := chain.Reason(context.Background(), staticContext("ctx"), "q", false)
	if err != nil {
		t.Fatal(err)
	}

	if response.Answer != "TechFlow produces FlowChips." {
		t.Errorf("unexpected answer %q", response.Answer)
	}
	if strings.Contains(client.prompt, "<answer>") {
		t.Error("expected simple prompt without chain-of-thought sections")
	}
}

func TestReason_GenerationFailureIsReturned(t *testing.T) {
	client := &fakeAIClient{err: errors.New("model timed out")}

	chain := NewReasoningChain(NewReasoningChainParams{AI: client})
	if _, err := chain.Reason(context.Background(), staticContext("ctx"), "q", true); err == nil {
		t.Fatal("expected error from generation failure")
	}
}

func TestReason_EmptyContextGetsPlaceholder(t *testing.T) {
	client := &fakeAIClient{response: "I don't have enough information."}

	chain := NewReasoningChain(NewReasoningChainParams{AI: client})
	if _, err := chain.Reason(context.Background(), staticContext(""), "q", false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(client.prompt, "No relevant context was retrieved.") {
		t.Error("expected placeholder context in prompt")
	}
}

func TestSplitEntities(t *testing.T) {
	tests := []struct {
		name    string
		section string
		want    []string
	}{
		{"comma separated", "techflow, flowchips, singapore", []string{"techflow", "flowchips", "singapore"}},
		{"line separated", "techflow\nflowchips", []string{"techflow", "flowchips"}},
		{"bulleted", "- techflow\n- flowchips", []string{"techflow", "flowchips"}},
		{"empty", "", nil},
		{"blank items", "techflow,,  ,flowchips", []string{"techflow", "flowchips"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitEntities(tt.section)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}
