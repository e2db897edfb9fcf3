package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/codefixer/internal/apperror"
	"github.com/sakif/codefixer/internal/model"
	"github.com/sakif/codefixer/internal/repository"
)

// HistoryService reads and deletes a user's saved completions.
//
// Every method takes the owner explicitly. A record that exists but belongs
// to someone else is reported as apperror.ErrNotFound, the same as a
// missing one.
type HistoryService struct {
	repo   repository.CompletionRepository
	logger *slog.Logger
}

// NewHistoryService creates a HistoryService.
func NewHistoryService(repo repository.CompletionRepository, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		repo:   repo,
		logger: logger,
	}
}

// List returns the owner's completions, newest first. The slice is never nil.
func (s *HistoryService) List(ctx context.Context, ownerID string) ([]model.Completion, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, apperror.Forbidden("an owner is required to list history")
	}

	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service/history: listing for %s: %w", ownerID, err)
	}
	if items == nil {
		items = []model.Completion{}
	}
	return items, nil
}

// Get returns one of the owner's completions.
func (s *HistoryService) Get(ctx context.Context, id int64, ownerID string) (*model.Completion, error) {
	if id <= 0 {
		return nil, apperror.NotFound("completion", id)
	}
	c, err := s.repo.GetByIDForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes one of the owner's completions.
func (s *HistoryService) Delete(ctx context.Context, id int64, ownerID string) error {
	if id <= 0 {
		return apperror.NotFound("completion", id)
	}
	if err := s.repo.DeleteForOwner(ctx, id, ownerID); err != nil {
		return err
	}

	s.logger.Info("completion deleted",
		slog.Int64("id", id),
		slog.String("userID", ownerID),
	)
	return nil
}
