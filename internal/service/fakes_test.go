package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/codefixer/internal/apperror"
	"github.com/sakif/codefixer/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCompleter records every prompt and returns a canned answer or error.
type fakeCompleter struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// fakeCompletionRepo is an in-memory CompletionRepository.
type fakeCompletionRepo struct {
	mu        sync.Mutex
	records   map[int64]model.Completion
	nextID    int64
	createErr error
}

func newFakeCompletionRepo() *fakeCompletionRepo {
	return &fakeCompletionRepo{records: make(map[int64]model.Completion)}
}

func (f *fakeCompletionRepo) Create(ctx context.Context, c *model.Completion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	f.records[c.ID] = *c
	return nil
}

func (f *fakeCompletionRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Completion
	for _, c := range f.records {
		if c.UserID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeCompletionRepo) GetByIDForOwner(ctx context.Context, id int64, ownerID string) (*model.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.records[id]
	if !ok || c.UserID != ownerID {
		return nil, apperror.NotFound("completion", id)
	}
	return &c, nil
}

func (f *fakeCompletionRepo) DeleteForOwner(ctx context.Context, id int64, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.records[id]
	if !ok || c.UserID != ownerID {
		return apperror.NotFound("completion", id)
	}
	delete(f.records, id)
	return nil
}

func (f *fakeCompletionRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	byID   map[string]*model.User
	nextID int
	getErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*model.User)}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	for _, u := range f.byID {
		if u.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.byID[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	for _, u := range f.byID {
		if u.GitHubID != nil && *u.GitHubID == *user.GitHubID {
			u.Email = user.Email
			*user = *u
			return nil
		}
	}
	return f.CreateUser(ctx, user)
}
