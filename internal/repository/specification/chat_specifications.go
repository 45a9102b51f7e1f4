package specification

import "gorm.io/gorm"

// ByUserID scopes a query to one user. Every session and notification read
// path applies it so ownership is enforced at the query layer.
type ByUserID struct {
	UserID int64
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// ByPaperID scopes a query to one paper.
type ByPaperID struct {
	PaperID int64
}

func (s ByPaperID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("paper_id = ?", s.PaperID)
}

// ByDedupKey filters notifications by their idempotency key.
type ByDedupKey struct {
	Key string
}

func (s ByDedupKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("dedup_key = ?", s.Key)
}

// UnreadOnly filters notifications that have not been read.
type UnreadOnly struct{}

func (s UnreadOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_read = false")
}
