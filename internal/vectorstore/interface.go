package vectorstore

//go:generate mockgen -source=interface.go -destination=mocks/mock_index.go -package=mocks

import "context"

// Record is a vector with its payload, keyed by a UUID point id.
type Record struct {
	ID     string
	Vector []float32
	Fields map[string]any
}

// Hit is a single search result.
type Hit struct {
	ID     string
	Score  float32
	Fields map[string]any
}

// Index is the vector index contract. A namespace isolates one user's
// vectors from every other user's; implementations decide how.
type Index interface {
	// EnsureNamespace makes the namespace usable, creating backing storage if
	// needed, and validates its vector size.
	EnsureNamespace(ctx context.Context, namespace string) error

	// Upsert inserts or replaces records in the namespace.
	Upsert(ctx context.Context, namespace string, records []Record) error

	// Search returns the topK nearest records in the namespace.
	Search(ctx context.Context, namespace string, vector []float32, topK int) ([]Hit, error)

	// Count returns the number of records in the namespace, or an error if it
	// cannot be determined.
	Count(ctx context.Context, namespace string) (int, error)
}
