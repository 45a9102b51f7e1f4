package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const minCandidates = 50

// Config configures a Store.
type Config struct {
	// Table is the backing table name, e.g. "paper_chunks".
	Table string
	// Dimensions is the embedding width every chunk must match.
	Dimensions int
}

func (c Config) validate() error {
	if c.Table == "" {
		return errors.New("vectorstore: table name is required")
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("vectorstore: dimensions must be positive, got %d", c.Dimensions)
	}
	return nil
}

// SearchOptions narrows a similarity search. Nil PaperID/UserID means no
// restriction on that field; a set pointer is a hard filter applied inside
// the query, never a post-hoc re-rank.
type SearchOptions struct {
	Limit          int
	ScoreThreshold float64
	PaperID        *int64
	UserID         *int64
}

// Store persists embedded document chunks in Postgres and answers cosine
// similarity queries via pgvector. A single Store is safe for concurrent use
// and is meant to live for the whole process.
type Store struct {
	db     *gorm.DB
	cfg    Config
	ownsDB bool

	mu     sync.RWMutex
	closed bool
}

// New builds a Store on an existing gorm connection and ensures the backing
// table, vector extension and indexes exist. Setup is idempotent; a setup
// failure is returned immediately and the store is unusable.
func New(db *gorm.DB, cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	s := &Store{db: db, cfg: cfg}
	if err := s.ensureIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

// Open is like New but owns the connection: Close releases it, and a setup
// failure releases it immediately.
func Open(db *gorm.DB, cfg Config) (*Store, error) {
	s, err := New(db, cfg)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

func (s *Store) ensureIndex() error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id text PRIMARY KEY,
			doc_id text NOT NULL,
			chunk_id text NOT NULL DEFAULT '',
			content text NOT NULL,
			embedding vector(%d) NOT NULL,
			paper_id bigint NOT NULL DEFAULT 0,
			user_id bigint NOT NULL DEFAULT 0
		)`, s.cfg.Table, s.cfg.Dimensions),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)",
			s.cfg.Table, s.cfg.Table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_tenant_idx ON %s (paper_id, user_id)",
			s.cfg.Table, s.cfg.Table),
	}
	for _, stmt := range stmts {
		if err := s.db.Exec(stmt).Error; err != nil {
			return storeErr("ensure index", err)
		}
	}
	return nil
}

// Dimensions reports the embedding width the store accepts.
func (s *Store) Dimensions() int {
	return s.cfg.Dimensions
}

func (s *Store) guard() (release func(), err error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrStoreClosed
	}
	return s.mu.RUnlock, nil
}

func (s *Store) validateChunks(chunks []Chunk) error {
	for i, c := range chunks {
		if got := len(c.Embedding); got != s.cfg.Dimensions {
			return fmt.Errorf("%w: chunk %d (id=%q) has %d dimensions, want %d",
				ErrDimensionMismatch, i, c.ID, got, s.cfg.Dimensions)
		}
	}
	return nil
}

// Add upserts a batch of chunks. Every chunk is validated before any write;
// a single bad embedding rejects the whole batch untouched. Rows are written
// individually so a mid-batch failure can leave earlier rows persisted; the
// failures are aggregated and returned, with no rollback of the rows that
// made it in. Re-adding an existing id overwrites it.
func (s *Store) Add(ctx context.Context, chunks []Chunk) error {
	release, err := s.guard()
	if err != nil {
		return err
	}
	defer release()

	if len(chunks) == 0 {
		return nil
	}
	if err := s.validateChunks(chunks); err != nil {
		return err
	}

	var failed []error
	for _, c := range chunks {
		row := toRow(c)
		err := s.db.WithContext(ctx).
			Table(s.cfg.Table).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).
			Create(&row).Error
		if err != nil {
			failed = append(failed, fmt.Errorf("chunk id=%q: %w", c.ID, err))
		}
	}
	if len(failed) > 0 {
		return storeErr("add", errors.Join(failed...))
	}
	return nil
}

// Search returns up to opts.Limit chunks most similar to the query vector,
// most similar first. It over-fetches max(limit*2, 50) candidates, drops
// those strictly below the score threshold, then truncates.
func (s *Store) Search(ctx context.Context, query []float32, opts SearchOptions) ([]Chunk, error) {
	release, err := s.guard()
	if err != nil {
		return nil, err
	}
	defer release()

	if got := len(query); got != s.cfg.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d",
			ErrDimensionMismatch, got, s.cfg.Dimensions)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	qv := pgvector.NewVector(query)
	tx := s.db.WithContext(ctx).
		Table(s.cfg.Table).
		Select("*, 1 - (embedding <=> ?) AS similarity", qv)
	if opts.PaperID != nil {
		tx = tx.Where("paper_id = ?", *opts.PaperID)
	}
	if opts.UserID != nil {
		tx = tx.Where("user_id = ?", *opts.UserID)
	}

	var rows []scoredChunkRow
	err = tx.Order("similarity DESC").
		Limit(candidateLimit(limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr("search", err)
	}

	results := make([]Chunk, 0, limit)
	for _, r := range rows {
		if r.Similarity < opts.ScoreThreshold {
			continue
		}
		c := toChunk(r.chunkRow)
		c.Score = r.Similarity
		results = append(results, c)
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

func candidateLimit(limit int) int {
	if c := limit * 2; c > minCandidates {
		return c
	}
	return minCandidates
}

// Get fetches a chunk by id. A missing id returns (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Chunk, error) {
	release, err := s.guard()
	if err != nil {
		return nil, err
	}
	defer release()

	var row chunkRow
	err = s.db.WithContext(ctx).
		Table(s.cfg.Table).
		Where("id = ?", id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeErr("get", err)
	}
	c := toChunk(row)
	return &c, nil
}

// Delete removes a chunk by id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	release, err := s.guard()
	if err != nil {
		return false, err
	}
	defer release()

	res := s.db.WithContext(ctx).
		Table(s.cfg.Table).
		Where("id = ?", id).
		Delete(&chunkRow{})
	if res.Error != nil {
		return false, storeErr("delete", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteByDoc removes every chunk belonging to a document and returns the
// number removed.
func (s *Store) DeleteByDoc(ctx context.Context, docID string) (int64, error) {
	release, err := s.guard()
	if err != nil {
		return 0, err
	}
	defer release()

	res := s.db.WithContext(ctx).
		Table(s.cfg.Table).
		Where("doc_id = ?", docID).
		Delete(&chunkRow{})
	if res.Error != nil {
		return 0, storeErr("delete by doc", res.Error)
	}
	return res.RowsAffected, nil
}

// Close marks the store closed and, when the store owns the connection,
// releases it. Close is idempotent; in-flight operations finish before the
// connection goes away.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.ownsDB {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return storeErr("close", err)
	}
	if err := sqlDB.Close(); err != nil {
		return storeErr("close", err)
	}
	return nil
}
