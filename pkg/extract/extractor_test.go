package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/atlas-grag/atlas/pkg/ai"
)

type fakeAIClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeAIClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	return errors.New("not implemented")
}

func (f *fakeAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return make([]float32, 4), nil
}

func (f *fakeAIClient) IsHealthy(ctx context.Context) bool { return true }
func (f *fakeAIClient) ResetMetrics()                      {}
func (f *fakeAIClient) GetMetrics() ai.ModelMetrics        { return ai.ModelMetrics{} }

func newTestExtractor(client ai.GraphAIClient) *Extractor {
	return NewExtractor(NewExtractorParams{AI: client, Normalize: true})
}

func TestExtract_ParsesTriples(t *testing.T) {
	client := &fakeAIClient{response: `{
		"triples": [
			{
				"subject": "TechFlow Inc.",
				"subject_type": "Company",
				"predicate": "MANUFACTURES",
				"object": "FlowChips",
				"object_type": "Product"
			},
			{
				"subject": "TechFlow Inc.",
				"subject_type": "Company",
				"predicate": "OPERATES_AT",
				"object": "Singapore",
				"object_type": "Location"
			}
		]
	}`}

	result := newTestExtractor(client).Extract(context.Background(), "TechFlow Inc. manufactures FlowChips in Singapore.")
	if result.Err != nil {
		t.Fatalf("Extract() error = %v", result.Err)
	}
	if len(result.Triples) != 2 {
		t.Fatalf("Extract() returned %d triples, want 2", len(result.Triples))
	}

	first := result.Triples[0]
	if first.Subject != "techflow" || first.SubjectType != "Company" {
		t.Errorf("subject = %q (%s), want techflow (Company)", first.Subject, first.SubjectType)
	}
	if first.Predicate != "MANUFACTURES" || first.Object != "flowchips" || first.ObjectType != "Product" {
		t.Errorf("unexpected first triple: %+v", first)
	}

	second := result.Triples[1]
	if second.Predicate != "OPERATES_AT" || second.Object != "singapore" || second.ObjectType != "Location" {
		t.Errorf("unexpected second triple: %+v", second)
	}
}

func TestExtract_ResponseWrappedInProse(t *testing.T) {
	client := &fakeAIClient{response: "Sure, here is the extracted knowledge:\n" +
		`{"triples": [{"subject": "Acme", "predicate": "DEPENDS_ON", "object": "TechFlow"}]}` +
		"\nLet me know if you need anything else."}

	result := newTestExtractor(client).Extract(context.Background(), "Acme depends on TechFlow.")
	if result.Err != nil {
		t.Fatalf("Extract() error = %v", result.Err)
	}
	if len(result.Triples) != 1 {
		t.Fatalf("Extract() returned %d triples, want 1", len(result.Triples))
	}
}

func TestExtract_DefaultsForMissingFields(t *testing.T) {
	client := &fakeAIClient{response: `{"triples": [{"subject": "Acme", "object": "TechFlow"}]}`}

	result := newTestExtractor(client).Extract(context.Background(), "some text")
	if result.Err != nil {
		t.Fatalf("Extract() error = %v", result.Err)
	}
	if len(result.Triples) != 1 {
		t.Fatalf("Extract() returned %d triples, want 1", len(result.Triples))
	}
	triple := result.Triples[0]
	if triple.SubjectType != "Entity" || triple.ObjectType != "Entity" {
		t.Errorf("types = %q/%q, want Entity/Entity", triple.SubjectType, triple.ObjectType)
	}
	if triple.Predicate != "RELATED_TO" {
		t.Errorf("predicate = %q, want RELATED_TO", triple.Predicate)
	}
}

func TestExtract_PredicateUpperSnakeCased(t *testing.T) {
	client := &fakeAIClient{response: `{"triples": [{"subject": "Acme", "predicate": "ships via", "object": "Port of Rotterdam"}]}`}

	result := newTestExtractor(client).Extract(context.Background(), "some text")
	if result.Err != nil {
		t.Fatalf("Extract() error = %v", result.Err)
	}
	if got := result.Triples[0].Predicate; got != "SHIPS_VIA" {
		t.Errorf("predicate = %q, want SHIPS_VIA", got)
	}
}

func TestExtract_DropsTriplesWithEmptyEndpoints(t *testing.T) {
	client := &fakeAIClient{response: `{
		"triples": [
			{"subject": "Acme", "predicate": "MANUFACTURES", "object": "Widgets"},
			{"subject": "Acme", "predicate": "DEPENDS_ON", "object": "   "},
			{"subject": "", "predicate": "AFFECTS", "object": "Singapore"}
		]
	}`}

	result := newTestExtractor(client).Extract(context.Background(), "some text")
	if result.Err != nil {
		t.Fatalf("Extract() error = %v", result.Err)
	}
	if len(result.Triples) != 1 {
		t.Fatalf("Extract() returned %d triples, want 1 (empty endpoints dropped)", len(result.Triples))
	}
	if result.Triples[0].Object != "widgets" {
		t.Errorf("surviving triple object = %q, want widgets", result.Triples[0].Object)
	}
}

func TestExtract_NoJSONInResponse(t *testing.T) {
	client := &fakeAIClient{response: "I could not find any entities in the text."}

	result := newTestExtractor(client).Extract(context.Background(), "some text")
	if result.Err == nil {
		t.Fatal("Extract() Err = nil, want parse error")
	}
	if len(result.Triples) != 0 {
		t.Errorf("Extract() returned %d triples, want 0", len(result.Triples))
	}
	if result.SourceText != "some text" {
		t.Errorf("SourceText = %q, want original input", result.SourceText)
	}
}

func TestExtract_GenerationFailure(t *testing.T) {
	client := &fakeAIClient{err: errors.New("model unavailable")}

	result := newTestExtractor(client).Extract(context.Background(), "some text")
	if result.Err == nil {
		t.Fatal("Extract() Err = nil, want generation error")
	}
	if len(result.Triples) != 0 {
		t.Errorf("Extract() returned %d triples, want 0", len(result.Triples))
	}
}

func TestExtract_RetriesOnFailure(t *testing.T) {
	client := &fakeAIClient{err: errors.New("transient")}
	extractor := NewExtractor(NewExtractorParams{AI: client, Normalize: true, MaxTries: 3})

	result := extractor.Extract(context.Background(), "some text")
	if result.Err == nil {
		t.Fatal("Extract() Err = nil, want error after retries")
	}
	if client.calls != 3 {
		t.Errorf("GenerateCompletion called %d times, want 3", client.calls)
	}
}
