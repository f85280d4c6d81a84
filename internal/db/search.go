package db

// TagFilter restricts a search to records whose TAG field equals Value.
// Filters are applied inside the FT.SEARCH query, before KNN ranking.
type TagFilter struct {
	Field string
	Value string
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filters      []TagFilter
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single record hit. Distance is the raw cosine distance
// reported by the index (smaller is closer).
type SearchEntry struct {
	Key      string
	Distance float64
	Fields   map[string]string
}
