package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codefixer/internal/apperror"
	"github.com/sakif/codefixer/internal/language"
	"github.com/sakif/codefixer/internal/prompt"
)

func newTestAssistService(c *fakeCompleter, repo *fakeCompletionRepo) *AssistService {
	return NewAssistService(c, repo, nil, discardLogger())
}

func TestSubmit_AnonymousIsNotPersisted(t *testing.T) {
	c := &fakeCompleter{answer: "Looks correct."}
	repo := newFakeCompletionRepo()
	svc := newTestAssistService(c, repo)

	res, err := svc.Submit(context.Background(), prompt.KindFix, "", Input{Code: "def f(): pass", Lang: "python"})
	require.NoError(t, err)

	assert.Equal(t, "Looks correct.", res.Answer)
	assert.False(t, res.Saved)
	assert.Nil(t, res.Record)
	assert.Equal(t, 0, repo.count())
	assert.Equal(t, []string{"Fix this python code: def f(): pass"}, c.prompts)
}

func TestSubmit_AuthenticatedCreatesExactlyOneRecord(t *testing.T) {
	c := &fakeCompleter{answer: "Looks correct."}
	repo := newFakeCompletionRepo()
	svc := newTestAssistService(c, repo)

	res, err := svc.Submit(context.Background(), prompt.KindFix, "alice", Input{Code: "def f(): pass", Lang: "python"})
	require.NoError(t, err)
	require.True(t, res.Saved)

	items, _ := repo.ListByOwner(context.Background(), "alice")
	require.Len(t, items, 1)
	assert.Equal(t, "alice", items[0].UserID)
	assert.Equal(t, "python", items[0].Language)
	assert.Equal(t, "def f(): pass", items[0].Question)
	assert.Equal(t, "Looks correct.", items[0].CodeAnswer)
	assert.Equal(t, "fix", items[0].Kind)
	assert.Equal(t, res.Record.ID, items[0].ID)
}

func TestSubmit_SuggestUsesSuggestTemplate(t *testing.T) {
	c := &fakeCompleter{answer: "Use a list comprehension."}
	svc := newTestAssistService(c, newFakeCompletionRepo())

	_, err := svc.Submit(context.Background(), prompt.KindSuggest, "", Input{Code: "x = 1", Lang: "python"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Provide suggestions for improving this python code: x = 1"}, c.prompts)
}

func TestSubmit_InvalidLanguageNeverCallsProvider(t *testing.T) {
	for _, lang := range []string{"", language.Placeholder, "cobol", "Python", " python"} {
		t.Run(lang, func(t *testing.T) {
			c := &fakeCompleter{answer: "unused"}
			repo := newFakeCompletionRepo()
			svc := newTestAssistService(c, repo)

			for _, kind := range []prompt.Kind{prompt.KindFix, prompt.KindSuggest} {
				_, err := svc.Submit(context.Background(), kind, "alice", Input{Code: "print(1)", Lang: lang})

				require.Error(t, err)
				assert.True(t, errors.Is(err, apperror.ErrValidation))
				var appErr *apperror.AppError
				require.True(t, errors.As(err, &appErr))
				assert.Equal(t, "lang", appErr.Field)
				assert.Equal(t, MsgSelectLanguage, appErr.Message)
			}
			assert.Empty(t, c.prompts)
			assert.Equal(t, 0, repo.count())
		})
	}
}

func TestSubmit_ProviderFailureSavesNothing(t *testing.T) {
	c := &fakeCompleter{err: context.DeadlineExceeded}
	repo := newFakeCompletionRepo()
	svc := newTestAssistService(c, repo)

	_, err := svc.Submit(context.Background(), prompt.KindFix, "alice", Input{Code: "x", Lang: "go"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUpstream))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "deadline exceeded")
	assert.Equal(t, 0, repo.count())
}

func TestSubmit_UpstreamErrorPassesThrough(t *testing.T) {
	upstream := apperror.Upstream("inference", errors.New("401 invalid api key"))
	svc := newTestAssistService(&fakeCompleter{err: upstream}, newFakeCompletionRepo())

	_, err := svc.Submit(context.Background(), prompt.KindFix, "", Input{Code: "x", Lang: "go"})
	assert.Same(t, upstream, err)
}

func TestSubmit_SaveFailureStillReturnsAnswer(t *testing.T) {
	repo := newFakeCompletionRepo()
	repo.createErr = errors.New("database is locked")
	svc := newTestAssistService(&fakeCompleter{answer: "ok"}, repo)

	res, err := svc.Submit(context.Background(), prompt.KindFix, "alice", Input{Code: "x", Lang: "go"})

	require.NoError(t, err)
	assert.Equal(t, "ok", res.Answer)
	assert.False(t, res.Saved)
	assert.Nil(t, res.Record)
}

func TestSubmit_UnknownKind(t *testing.T) {
	c := &fakeCompleter{answer: "x"}
	svc := newTestAssistService(c, newFakeCompletionRepo())

	_, err := svc.Submit(context.Background(), prompt.Kind("translate"), "", Input{Code: "x", Lang: "go"})
	assert.Error(t, err)
	assert.Empty(t, c.prompts)
}
