package domain

import "context"

// Document is a single source file loaded into the system. Immutable once
// loaded; discarded after chunking.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a bounded-length piece of a document, the unit of embedding and
// retrieval. SourceOffset is the starting rune index within the parent
// document content.
type Chunk struct {
	SourceID     string
	Text         string
	SourceOffset int
}

// SearchResult pairs a stored chunk with its per-query similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Message roles. Mirrors the chat-completions wire roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a conversation. Immutable once created.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Embedder converts text into fixed-dimension numeric vectors. A configured
// instance always produces vectors of the same length.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	Dimension() int
}

// ChatModel produces the next assistant reply for an ordered message list.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// VectorStore holds embedded chunks and supports nearest-neighbour search.
//
// Rebuild embeds every chunk and replaces the stored set wholesale. The new
// set is built aside and published atomically: a concurrent Search observes
// either the complete previous set or the complete new one, never a mix. A
// failed Rebuild leaves the previous set intact.
//
// Search returns up to k results ordered by descending cosine similarity,
// ties broken by insertion order. An empty store yields an empty slice, not
// an error; a store that was never built yields ErrIndexUnavailable.
type VectorStore interface {
	Rebuild(ctx context.Context, chunks []Chunk, embedder Embedder) error
	Search(vector []float64, k int) ([]SearchResult, error)
}
