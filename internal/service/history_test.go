package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codefixer/internal/apperror"
	"github.com/sakif/codefixer/internal/model"
)

func seedCompletion(t *testing.T, repo *fakeCompletionRepo, owner, question string) *model.Completion {
	t.Helper()
	c := &model.Completion{Question: question, CodeAnswer: "answer", Language: "go", Kind: "fix", UserID: owner}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestHistoryList_OwnRecordsNewestFirst(t *testing.T) {
	repo := newFakeCompletionRepo()
	svc := NewHistoryService(repo, discardLogger())

	first := seedCompletion(t, repo, "alice", "first")
	seedCompletion(t, repo, "bob", "bob's")
	second := seedCompletion(t, repo, "alice", "second")

	items, err := svc.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}

func TestHistoryList_EmptyIsNonNil(t *testing.T) {
	svc := NewHistoryService(newFakeCompletionRepo(), discardLogger())

	items, err := svc.List(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestHistoryList_RequiresOwner(t *testing.T) {
	svc := NewHistoryService(newFakeCompletionRepo(), discardLogger())

	_, err := svc.List(context.Background(), " ")
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
}

func TestHistoryDelete(t *testing.T) {
	repo := newFakeCompletionRepo()
	svc := NewHistoryService(repo, discardLogger())
	c := seedCompletion(t, repo, "alice", "q")

	require.NoError(t, svc.Delete(context.Background(), c.ID, "alice"))
	assert.Equal(t, 0, repo.count())
}

func TestHistoryDelete_NotFoundCases(t *testing.T) {
	repo := newFakeCompletionRepo()
	svc := NewHistoryService(repo, discardLogger())
	c := seedCompletion(t, repo, "alice", "q")

	tests := []struct {
		name  string
		id    int64
		owner string
	}{
		{"other owner", c.ID, "bob"},
		{"missing id", c.ID + 100, "alice"},
		{"zero id", 0, "alice"},
		{"negative id", -1, "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Delete(context.Background(), tt.id, tt.owner)
			assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
		})
	}
	assert.Equal(t, 1, repo.count(), "store must be unchanged")
}

func TestHistoryGet_OtherOwnerIsNotFound(t *testing.T) {
	repo := newFakeCompletionRepo()
	svc := NewHistoryService(repo, discardLogger())
	c := seedCompletion(t, repo, "alice", "q")

	got, err := svc.Get(context.Background(), c.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "q", got.Question)

	_, err = svc.Get(context.Background(), c.ID, "bob")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
