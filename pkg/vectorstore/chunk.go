package vectorstore

import "github.com/pgvector/pgvector-go"

// Chunk is one indexed fragment of a document. ChunkID carries the position
// of the fragment within DocID; ordering is maintained by the caller.
// Score is populated only on search results (cosine similarity, higher is
// closer).
type Chunk struct {
	ID        string
	DocID     string
	ChunkID   string
	Content   string
	Embedding []float32
	PaperID   int64
	UserID    int64
	Score     float64
}

type chunkRow struct {
	ID        string          `gorm:"column:id;primaryKey"`
	DocID     string          `gorm:"column:doc_id"`
	ChunkID   string          `gorm:"column:chunk_id"`
	Content   string          `gorm:"column:content"`
	Embedding pgvector.Vector `gorm:"column:embedding"`
	PaperID   int64           `gorm:"column:paper_id"`
	UserID    int64           `gorm:"column:user_id"`
}

type scoredChunkRow struct {
	chunkRow   `gorm:"embedded"`
	Similarity float64 `gorm:"column:similarity"`
}

func toRow(c Chunk) chunkRow {
	return chunkRow{
		ID:        c.ID,
		DocID:     c.DocID,
		ChunkID:   c.ChunkID,
		Content:   c.Content,
		Embedding: pgvector.NewVector(c.Embedding),
		PaperID:   c.PaperID,
		UserID:    c.UserID,
	}
}

func toChunk(r chunkRow) Chunk {
	return Chunk{
		ID:        r.ID,
		DocID:     r.DocID,
		ChunkID:   r.ChunkID,
		Content:   r.Content,
		Embedding: r.Embedding.Slice(),
		PaperID:   r.PaperID,
		UserID:    r.UserID,
	}
}
