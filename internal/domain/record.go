// Package domain holds the core types shared between layers: indexed chunk
// records, conversation turns, and the contracts for external model providers.
package domain

// KeyPrefix namespaces all keys written by this service.
const KeyPrefix = "ragdex:"

// Parent is a large context chunk served to the generative model.
// Its ID is a deterministic hash of (source, page, parent index), so
// re-ingesting the same page overwrites in place instead of duplicating.
type Parent struct {
	ID       string
	TenantID string
	Source   string
	Page     int
	Content  string
}

// Child is a small precise-match chunk carrying the embedding vector.
// ParentID is a lookup-only back-reference to the parent it was cut from.
type Child struct {
	ID       string
	TenantID string
	ParentID string
	Content  string
	Vector   []float32
}

// IndexUnit is the full output of one page-processing job. It must be
// persisted all-or-nothing: a child without its parent (or the reverse)
// is a correctness violation.
type IndexUnit struct {
	Parents  []Parent
	Children []Child
}

// Empty reports whether the unit has nothing to persist.
func (u IndexUnit) Empty() bool {
	return len(u.Parents) == 0 && len(u.Children) == 0
}

// ChildHit is a child record returned by nearest-neighbor search,
// with its cosine distance to the query vector.
type ChildHit struct {
	ID       string
	ParentID string
	Content  string
	Distance float64
}

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single conversation turn within a session.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IngestionJob describes one page-processing unit. Page is zero-based.
type IngestionJob struct {
	Bucket   string
	FilePath string
	Page     int
	TenantID string
}

// Query is a natural-language question scoped to a tenant and session.
type Query struct {
	Text      string
	TenantID  string
	SessionID string
}

// Answer is the response to a Query: the generated text plus the exact
// context string that was handed to the model.
type Answer struct {
	Text        string
	ContextUsed string
}
