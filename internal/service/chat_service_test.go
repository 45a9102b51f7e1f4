package service

import (
	"context"
	"testing"
	"time"

	"paperinsight-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionFixture(ownerId int64) (*chatService, *sessionRepoStub, uuid.UUID) {
	sessionId := uuid.New()
	repo := &sessionRepoStub{rows: []*entity.ChatSession{{
		Id:        sessionId,
		PaperId:   11,
		UserId:    ownerId,
		Title:     "Attention is all you need",
		CreatedAt: time.Now(),
	}}}
	svc := &chatService{
		uowFactory: &uowFactoryStub{uow: &uowStub{sessions: repo}},
	}
	return svc, repo, sessionId
}

func TestOwnedSession(t *testing.T) {
	t.Run("owner gets the session", func(t *testing.T) {
		svc, _, sessionId := newSessionFixture(7)

		session, err := svc.ownedSession(context.Background(), 7, sessionId)

		require.NoError(t, err)
		assert.Equal(t, sessionId, session.Id)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		svc, _, _ := newSessionFixture(7)

		_, err := svc.ownedSession(context.Background(), 7, uuid.New())

		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("another user's session is forbidden", func(t *testing.T) {
		svc, _, sessionId := newSessionFixture(7)

		_, err := svc.ownedSession(context.Background(), 99, sessionId)

		assert.ErrorIs(t, err, ErrSessionForbidden)
	})
}

func TestDeleteSessionEnforcesOwnership(t *testing.T) {
	svc, repo, sessionId := newSessionFixture(7)

	err := svc.DeleteSession(context.Background(), 99, sessionId)
	assert.ErrorIs(t, err, ErrSessionForbidden)
	assert.Empty(t, repo.deleted)

	err = svc.DeleteSession(context.Background(), 7, sessionId)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{sessionId}, repo.deleted)
}
