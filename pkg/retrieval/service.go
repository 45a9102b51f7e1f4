package retrieval

import (
	"context"
	"fmt"

	"paperinsight-be/pkg/embedding"
	"paperinsight-be/pkg/vectorstore"
)

// Options narrows a retrieval query. Nil PaperID/UserID leaves that field
// unrestricted; set pointers are hard filters applied inside the vector
// query.
type Options struct {
	Limit          int
	ScoreThreshold float64
	PaperID        *int64
	UserID         *int64
}

// Service answers natural-language queries against the chunk index:
// embed the query, then run a filtered similarity search. It owns no state
// beyond its two collaborators.
type Service struct {
	embedder embedding.Provider
	store    *vectorstore.Store
}

func NewService(embedder embedding.Provider, store *vectorstore.Store) *Service {
	return &Service{embedder: embedder, store: store}
}

// Retrieve returns the most relevant chunks for the query text, most
// similar first.
func (s *Service) Retrieve(ctx context.Context, query string, opts Options) ([]vectorstore.Chunk, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	chunks, err := s.store.Search(ctx, vec, vectorstore.SearchOptions{
		Limit:          opts.Limit,
		ScoreThreshold: opts.ScoreThreshold,
		PaperID:        opts.PaperID,
		UserID:         opts.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	return chunks, nil
}
