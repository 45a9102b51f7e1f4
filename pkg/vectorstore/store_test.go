package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Table: "paper_chunks", Dimensions: 1024}, false},
		{"missing table", Config{Dimensions: 1024}, true},
		{"zero dimensions", Config{Table: "paper_chunks"}, true},
		{"negative dimensions", Config{Table: "paper_chunks", Dimensions: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCandidateLimit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{5, 50},
		{10, 50},
		{25, 50},
		{26, 52},
		{100, 200},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, candidateLimit(tt.limit), "limit=%d", tt.limit)
	}
}

func TestValidateChunksRejectsWholeBatch(t *testing.T) {
	s := &Store{cfg: Config{Table: "paper_chunks", Dimensions: 3}}

	good := Chunk{ID: "a", Embedding: []float32{1, 2, 3}}
	short := Chunk{ID: "b", Embedding: []float32{1, 2}}
	long := Chunk{ID: "c", Embedding: []float32{1, 2, 3, 4}}
	var nilEmb Chunk

	require.NoError(t, s.validateChunks([]Chunk{good, good}))

	for _, bad := range []Chunk{short, long, nilEmb} {
		err := s.validateChunks([]Chunk{good, bad})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	}
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	s := &Store{cfg: Config{Table: "paper_chunks", Dimensions: 3}, closed: true}
	ctx := context.Background()

	err := s.Add(ctx, []Chunk{{ID: "a", Embedding: []float32{1, 2, 3}}})
	assert.ErrorIs(t, err, ErrStoreClosed)

	_, err = s.Search(ctx, []float32{1, 2, 3}, SearchOptions{Limit: 5})
	assert.ErrorIs(t, err, ErrStoreClosed)

	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrStoreClosed)

	_, err = s.Delete(ctx, "a")
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := &Store{cfg: Config{Table: "paper_chunks", Dimensions: 3}}
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, s.closed)
}

func TestSearchValidatesQueryDimensions(t *testing.T) {
	s := &Store{cfg: Config{Table: "paper_chunks", Dimensions: 1024}}
	_, err := s.Search(context.Background(), []float32{1, 2, 3}, SearchOptions{})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestChunkRowRoundTrip(t *testing.T) {
	in := Chunk{
		ID:        "p42_0",
		DocID:     "42",
		ChunkID:   "0",
		Content:   "transformer attention heads",
		Embedding: []float32{0.1, 0.2, 0.3},
		PaperID:   42,
		UserID:    7,
	}
	out := toChunk(toRow(in))
	assert.Equal(t, in, out)
}

func TestStoreErrorUnwraps(t *testing.T) {
	inner := errors.New("connection refused")
	err := storeErr("search", inner)
	assert.ErrorIs(t, err, inner)
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "search", se.Op)
}
