package ingest

// IngestionResult aggregates counters and errors for one ingestion
// operation. Success is false only when a non-recoverable step failed,
// such as an unreadable source file; individual extraction or merge
// errors are accumulated in Errors without aborting the operation.
type IngestionResult struct {
	Success              bool     `json:"success"`
	NodesCreated         int      `json:"nodes_created"`
	RelationshipsCreated int      `json:"relationships_created"`
	DocumentsAdded       int      `json:"documents_added"`
	Errors               []string `json:"errors,omitempty"`
}

func newIngestionResult() IngestionResult {
	return IngestionResult{Success: true}
}

// merge folds another result's counters and errors into this one.
// Counters are commutative sums, so batch completion order does not
// matter.
func (r *IngestionResult) merge(other IngestionResult) {
	r.NodesCreated += other.NodesCreated
	r.RelationshipsCreated += other.RelationshipsCreated
	r.DocumentsAdded += other.DocumentsAdded
	r.Errors = append(r.Errors, other.Errors...)
}
