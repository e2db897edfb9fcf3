package repository

import (
	"context"

	"github.com/sakif/codefixer/internal/model"
)

// CompletionRepository is the history store. Every read and delete is
// scoped to an owner; a record owned by someone else is reported as not
// found.
type CompletionRepository interface {
	Create(ctx context.Context, c *model.Completion) error
	ListByOwner(ctx context.Context, ownerID string) ([]model.Completion, error)
	GetByIDForOwner(ctx context.Context, id int64, ownerID string) (*model.Completion, error)
	DeleteForOwner(ctx context.Context, id int64, ownerID string) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpsertGitHubUser(ctx context.Context, user *model.User) error
}
