package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/atlas-grag/atlas/pkg/extract"
	"github.com/atlas-grag/atlas/pkg/graph"
	"github.com/atlas-grag/atlas/pkg/vector"
)

type fakeGraphStore struct {
	mu           sync.Mutex
	mergedNodes  []string
	mergedRels   []string
	failNodeName string
	failRelType  string
}

func (f *fakeGraphStore) MergeNode(
	_ context.Context,
	label string,
	matchProps map[string]any,
	_ map[string]any,
	_ map[string]any,
) (*graph.Node, error) {
	name, _ := matchProps["name"].(string)
	if f.failNodeName != "" && name == f.failNodeName {
		return nil, errors.New("node merge rejected")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mergedNodes = append(f.mergedNodes, name)
	return &graph.Node{Label: label, Name: name, Props: matchProps}, nil
}

func (f *fakeGraphStore) MergeRelationship(
	_ context.Context,
	_ string,
	fromProps map[string]any,
	_ string,
	toProps map[string]any,
	relType string,
	_ map[string]any,
) error {
	if f.failRelType != "" && relType == f.failRelType {
		return errors.New("relationship merge rejected")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mergedRels = append(f.mergedRels, fmt.Sprintf("%v-[%s]->%v", fromProps["name"], relType, toProps["name"]))
	return nil
}

func (f *fakeGraphStore) FindNeighbors(context.Context, string, map[string]any, int) ([]graph.Neighbor, error) {
	return nil, nil
}

func (f *fakeGraphStore) FindPaths(context.Context, string, map[string]any, string, map[string]any, int) ([]graph.Path, error) {
	return nil, nil
}

func (f *fakeGraphStore) IsHealthy(context.Context) bool { return true }

func (f *fakeGraphStore) Close(context.Context) error { return nil }

type upsertCall struct {
	collection string
	id         string
	text       string
	metadata   map[string]any
}

type fakeVectorStore struct {
	mu        sync.Mutex
	upserts   []upsertCall
	upsertErr error
}

func (f *fakeVectorStore) Upsert(_ context.Context, collection, id, text string, metadata map[string]any) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, upsertCall{collection, id, text, metadata})
	return nil
}

func (f *fakeVectorStore) QuerySimilar(context.Context, string, string, int) ([]vector.Hit, error) {
	return nil, nil
}

func (f *fakeVectorStore) Count(context.Context, string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts), nil
}

func (f *fakeVectorStore) IsHealthy(context.Context) bool { return true }

type fakeExtractor struct {
	triples []extract.Triple
	err     error
}

func (f *fakeExtractor) Extract(_ context.Context, text string) extract.ExtractionResult {
	return extract.ExtractionResult{Triples: f.triples, SourceText: text, Err: f.err}
}

func newTestPipeline(g *fakeGraphStore, v *fakeVectorStore, e *fakeExtractor) *Pipeline {
	return NewPipeline(NewPipelineParams{
		Graph:     g,
		Vector:    v,
		Extractor: e,
	})
}

func TestDocumentID(t *testing.T) {
	first := DocumentID("TechFlow manufactures FlowChips.")
	second := DocumentID("TechFlow manufactures FlowChips.")
	if first != second {
		t.Errorf("expected stable id, got %q and %q", first, second)
	}
	if !strings.HasPrefix(first, "doc_") {
		t.Errorf("expected doc_ prefix, got %q", first)
	}
	if len(first) != len("doc_")+12 {
		t.Errorf("expected 12 hash characters, got %q", first)
	}
	if DocumentID("different text") == first {
		t.Error("expected different texts to produce different ids")
	}
}

func TestIngestText(t *testing.T) {
	g := &fakeGraphStore{}
	v := &fakeVectorStore{}
	e := &fakeExtractor{triples: []extract.Triple{
		{Subject: "techflow", SubjectType: "Company", Predicate: "MANUFACTURES", Object: "flowchips", ObjectType: "Product"},
		{Subject: "flowchips", SubjectType: "Product", Predicate: "STORED_IN", Object: "singapore", ObjectType: "Location"},
	}}

	result := newTestPipeline(g, v, e).IngestText(context.Background(), "some text", map[string]any{"file": "a.txt"})

	if !result.Success {
		t.Fatal("expected success")
	}
	if result.NodesCreated != 4 {
		t.Errorf("expected 4 node merges, got %d", result.NodesCreated)
	}
	if result.RelationshipsCreated != 2 {
		t.Errorf("expected 2 relationship merges, got %d", result.RelationshipsCreated)
	}
	if result.DocumentsAdded != 1 {
		t.Errorf("expected 1 document, got %d", result.DocumentsAdded)
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no errors, got %v", result.Errors)
	}

	if len(v.upserts) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(v.upserts))
	}
	call := v.upserts[0]
	if call.id != DocumentID("some text") {
		t.Errorf("expected content-derived id, got %q", call.id)
	}
	if call.metadata["source"] != "ingestion" {
		t.Errorf("expected source metadata, got %v", call.metadata)
	}
	if call.metadata["file"] != "a.txt" {
		t.Errorf("expected caller metadata preserved, got %v", call.metadata)
	}
}

func TestIngestText_RepeatedIngestionReusesDocumentID(t *testing.T) {
	g := &fakeGraphStore{}
	v := &fakeVectorStore{}
	e := &fakeExtractor{triples: []extract.Triple{
		{Subject: "techflow", SubjectType: "Company", Predicate: "MANUFACTURES", Object: "flowchips", ObjectType: "Product"},
	}}
	p := newTestPipeline(g, v, e)

	first := p.IngestText(context.Background(), "some text", nil)
	second := p.IngestText(context.Background(), "some text", nil)

	if !first.Success || !second.Success {
		t.Fatal("expected both ingestions to succeed")
	}
	if len(v.upserts) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(v.upserts))
	}
	if v.upserts[0].id != v.upserts[1].id {
		t.Errorf("expected identical text to upsert under the same id, got %q and %q", v.upserts[0].id, v.upserts[1].id)
	}
}

func TestIngestText_NodeFailureIsIsolated(t *testing.T) {
	g := &fakeGraphStore{failNodeName: "singapore"}
	v := &fakeVectorStore{}
	e := &fakeExtractor{triples: []extract.Triple{
		{Subject: "techflow", SubjectType: "Company", Predicate: "MANUFACTURES", Object: "flowchips", ObjectType: "Product"},
		{Subject: "flowchips", SubjectType: "Product", Predicate: "STORED_IN", Object: "singapore", ObjectType: "Location"},
	}}

	result := newTestPipeline(g, v, e).IngestText(context.Background(), "some text", nil)

	if !result.Success {
		t.Fatal("a failed node merge must not fail the whole ingestion")
	}
	if result.NodesCreated != 3 {
		t.Errorf("expected 3 node merges, got %d", result.NodesCreated)
	}
	if result.RelationshipsCreated != 2 {
		t.Errorf("expected both relationships merged, got %d", result.RelationshipsCreated)
	}
	if result.DocumentsAdded != 1 {
		t.Errorf("expected document still stored, got %d", result.DocumentsAdded)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 recorded error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "singapore") {
		t.Errorf("expected error to name the failed node, got %q", result.Errors[0])
	}
}

func TestIngestText_ExtractionFailureStillStoresDocument(t *testing.T) {
	g := &fakeGraphStore{}
	v := &fakeVectorStore{}
	e := &fakeExtractor{err: errors.New("no JSON object found in response")}

	result := newTestPipeline(g, v, e).IngestText(context.Background(), "some text", nil)

	if !result.Success {
		t.Fatal("expected success")
	}
	if result.NodesCreated != 0 || result.RelationshipsCreated != 0 {
		t.Errorf("expected no graph writes, got %+v", result)
	}
	if result.DocumentsAdded != 1 {
		t.Errorf("expected document stored despite extraction failure, got %d", result.DocumentsAdded)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected extraction error recorded, got %v", result.Errors)
	}
}

func TestIngestText_VectorFailureRecorded(t *testing.T) {
	g := &fakeGraphStore{}
	v := &fakeVectorStore{upsertErr: errors.New("connection refused")}
	e := &fakeExtractor{triples: []extract.Triple{
		{Subject: "techflow", SubjectType: "Company", Predicate: "MANUFACTURES", Object: "flowchips", ObjectType: "Product"},
	}}

	result := newTestPipeline(g, v, e).IngestText(context.Background(), "some text", nil)

	if result.DocumentsAdded != 0 {
		t.Errorf("expected no document counted, got %d", result.DocumentsAdded)
	}
	if result.NodesCreated != 2 || result.RelationshipsCreated != 1 {
		t.Errorf("expected graph writes unaffected, got %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected upsert error recorded, got %v", result.Errors)
	}
}

func TestIngestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.txt")
	content := "TechFlow manufactures FlowChips.\n\n  \nFlowChips are stored in Singapore.\nGlobalTrans ships via the Port of Rotterdam.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	g := &fakeGraphStore{}
	v := &fakeVectorStore{}
	e := &fakeExtractor{triples: []extract.Triple{
		{Subject: "techflow", SubjectType: "Company", Predicate: "MANUFACTURES", Object: "flowchips", ObjectType: "Product"},
	}}

	result := newTestPipeline(g, v, e).IngestFile(context.Background(), path, 2)

	if !result.Success {
		t.Fatalf("expected success, errors: %v", result.Errors)
	}
	if result.DocumentsAdded != 3 {
		t.Errorf("expected 3 documents for 3 non-blank lines, got %d", result.DocumentsAdded)
	}
	if result.NodesCreated != 6 || result.RelationshipsCreated != 3 {
		t.Errorf("expected aggregated graph counters, got %+v", result)
	}

	lineNumbers := make([]int, 0, len(v.upserts))
	for _, call := range v.upserts {
		if call.metadata["file"] != path {
			t.Errorf("expected file metadata %q, got %v", path, call.metadata)
		}
		lineNumbers = append(lineNumbers, call.metadata["line_number"].(int))
	}
	sort.Ints(lineNumbers)
	for i, n := range lineNumbers {
		if n != i+1 {
			t.Fatalf("expected line numbers 1..3 over non-blank lines, got %v", lineNumbers)
		}
	}
}

func TestIngestFile_UnreadableFileIsFatal(t *testing.T) {
	g := &fakeGraphStore{}
	v := &fakeVectorStore{}
	e := &fakeExtractor{}

	result := newTestPipeline(g, v, e).IngestFile(context.Background(), "/nonexistent/facts.txt", 0)

	if result.Success {
		t.Fatal("expected failure for unreadable file")
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", result.Errors)
	}
	if result.DocumentsAdded != 0 {
		t.Errorf("expected no documents, got %d", result.DocumentsAdded)
	}
}

type fakeObjectStore struct {
	bucket  string
	key     string
	content []byte
	err     error
}

func (f *fakeObjectStore) GetFile(_ context.Context, bucket, key string) ([]byte, error) {
	f.bucket = bucket
	f.key = key
	return f.content, f.err
}

func TestIngestFile_S3Path(t *testing.T) {
	g := &fakeGraphStore{}
	v := &fakeVectorStore{}
	e := &fakeExtractor{}
	objects := &fakeObjectStore{content: []byte("TechFlow manufactures FlowChips.\n")}

	p := NewPipeline(NewPipelineParams{
		Graph:     g,
		Vector:    v,
		Extractor: e,
		Objects:   objects,
	})

	result := p.IngestFile(context.Background(), "s3://supply-data/feeds/facts.txt", 0)

	if !result.Success {
		t.Fatalf("expected success, errors: %v", result.Errors)
	}
	if objects.bucket != "supply-data" || objects.key != "feeds/facts.txt" {
		t.Errorf("expected bucket/key split, got %q %q", objects.bucket, objects.key)
	}
	if result.DocumentsAdded != 1 {
		t.Errorf("expected 1 document, got %d", result.DocumentsAdded)
	}
}

func TestIngestFile_S3PathWithoutObjectStore(t *testing.T) {
	result := newTestPipeline(&fakeGraphStore{}, &fakeVectorStore{}, &fakeExtractor{}).
		IngestFile(context.Background(), "s3://bucket/key", 0)

	if result.Success {
		t.Fatal("expected failure when no object storage is configured")
	}
}
