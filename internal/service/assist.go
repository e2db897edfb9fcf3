// Package service contains the business logic of the application.
//
// Handlers parse HTTP input and render output; services validate, call the
// inference provider and the repositories, and return apperror values that
// the handlers translate into messages and status codes. Services never see
// an *http.Request.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/codefixer/internal/apperror"
	"github.com/sakif/codefixer/internal/inference"
	"github.com/sakif/codefixer/internal/language"
	"github.com/sakif/codefixer/internal/metrics"
	"github.com/sakif/codefixer/internal/model"
	"github.com/sakif/codefixer/internal/prompt"
	"github.com/sakif/codefixer/internal/repository"
)

// MsgSelectLanguage is shown when the language is missing, the placeholder,
// or not a registry tag.
const MsgSelectLanguage = "Please select a programming language"

// Input is one fix or suggest submission.
type Input struct {
	Code string
	Lang string
}

// Result is the outcome of a successful submission.
//
// Saved is false for anonymous requests and when persisting the record
// failed; the answer is shown either way.
type Result struct {
	Answer string
	Saved  bool
	Record *model.Completion
}

// AssistService runs the fix and suggest flows.
type AssistService struct {
	completer inference.Completer
	history   repository.CompletionRepository
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewAssistService creates an AssistService. m may be nil.
func NewAssistService(
	completer inference.Completer,
	history repository.CompletionRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AssistService {
	return &AssistService{
		completer: completer,
		history:   history,
		metrics:   m,
		logger:    logger,
	}
}

// Submit validates in, sends the prompt for kind to the provider and, when
// ownerID is non-empty, records the result in the owner's history.
//
// Errors:
//   - apperror.ErrValidation (field "lang") when the language is not valid;
//     the provider is not called.
//   - apperror.ErrUpstream when the provider call fails; nothing is saved.
//
// Code is passed through verbatim, including an empty string.
func (s *AssistService) Submit(ctx context.Context, kind prompt.Kind, ownerID string, in Input) (*Result, error) {
	tmpl, err := kind.Template()
	if err != nil {
		return nil, fmt.Errorf("service/assist: %w", err)
	}

	if !language.IsValid(in.Lang) {
		s.metrics.CompletionOutcome(string(kind), metrics.OutcomeInvalid)
		return nil, apperror.ValidationFailed("lang", MsgSelectLanguage)
	}

	start := time.Now()
	answer, err := s.completer.Complete(ctx, prompt.Build(tmpl, in.Lang, in.Code))
	s.metrics.ObserveInference(string(kind), time.Since(start))
	if err != nil {
		s.metrics.CompletionOutcome(string(kind), metrics.OutcomeError)
		s.logger.Warn("inference failed",
			slog.String("kind", string(kind)),
			slog.String("lang", in.Lang),
			slog.String("error", err.Error()),
		)
		return nil, asUpstream(err)
	}
	s.metrics.CompletionOutcome(string(kind), metrics.OutcomeOK)

	res := &Result{Answer: answer}
	if ownerID == "" {
		return res, nil
	}

	rec := &model.Completion{
		Question:   in.Code,
		CodeAnswer: answer,
		Language:   in.Lang,
		Kind:       string(kind),
		UserID:     ownerID,
	}
	if err := s.history.Create(ctx, rec); err != nil {
		// The answer is still returned; the record is lost.
		s.metrics.SaveFailed()
		s.logger.Error("saving completion failed",
			slog.String("userID", ownerID),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return res, nil
	}

	s.logger.Info("completion saved",
		slog.Int64("id", rec.ID),
		slog.String("userID", ownerID),
		slog.String("kind", string(kind)),
	)
	res.Saved = true
	res.Record = rec
	return res, nil
}

// asUpstream keeps an existing upstream AppError and wraps anything else.
func asUpstream(err error) error {
	if errors.Is(err, apperror.ErrUpstream) {
		return err
	}
	return apperror.Upstream("inference", err)
}
