package service

import (
	"context"

	"paperinsight-be/internal/entity"
	"paperinsight-be/internal/repository/contract"
	"paperinsight-be/internal/repository/specification"
	"paperinsight-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Shared test doubles for the service layer. Each stub implements only the
// behavior the tests exercise; unimplemented calls return zero values.

type uowFactoryStub struct {
	uow *uowStub
}

func (f *uowFactoryStub) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type uowStub struct {
	sessions      contract.ChatSessionRepository
	insights      contract.PaperInsightRepository
	notifications contract.NotificationRepository
}

func (u *uowStub) Begin(ctx context.Context) error { return nil }
func (u *uowStub) Commit() error                   { return nil }
func (u *uowStub) Rollback() error                 { return nil }

func (u *uowStub) ChatSessionRepository() contract.ChatSessionRepository {
	return u.sessions
}

func (u *uowStub) PaperInsightRepository() contract.PaperInsightRepository {
	return u.insights
}

func (u *uowStub) NotificationRepository() contract.NotificationRepository {
	return u.notifications
}

type fixedEmbedder struct{}

func (e *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (e *fixedEmbedder) Dimensions() int { return 3 }

// sessionRepoStub serves FindOne by applying ByID and ByUserID filters
// against an in-memory session list, the way the real repository composes
// specifications into a query.
type sessionRepoStub struct {
	rows    []*entity.ChatSession
	updated []*entity.ChatSession
	deleted []uuid.UUID
}

func (r *sessionRepoStub) Create(ctx context.Context, session *entity.ChatSession) error {
	r.rows = append(r.rows, session)
	return nil
}

func (r *sessionRepoStub) Update(ctx context.Context, session *entity.ChatSession) error {
	r.updated = append(r.updated, session)
	return nil
}

func (r *sessionRepoStub) Delete(ctx context.Context, id uuid.UUID) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *sessionRepoStub) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	for _, row := range r.rows {
		if sessionMatches(row, specs) {
			return row, nil
		}
	}
	return nil, nil
}

func (r *sessionRepoStub) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	var out []*entity.ChatSession
	for _, row := range r.rows {
		if sessionMatches(row, specs) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *sessionRepoStub) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	rows, _ := r.FindAll(ctx, specs...)
	return int64(len(rows)), nil
}

func sessionMatches(row *entity.ChatSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if row.Id != s.ID {
				return false
			}
		case specification.ByUserID:
			if row.UserId != s.UserID {
				return false
			}
		}
	}
	return true
}
