package service

import (
	"context"
	"errors"
	"html"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/model"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func visibleText(doc string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(doc, ""))
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool     { return &b }

// fieldErrors pulls the per-field messages out of a validation error.
func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	require.ErrorIs(t, err, apperror.ErrValidation)
	return appErr.Fields
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate_Defaults(t *testing.T) {
	svc, repo, _ := newTestService(t)
	owner := repo.addUser(t, "alice")

	snippet, err := svc.Create(context.Background(), SnippetInput{Code: "print(1)", OwnerID: owner.ID})
	require.NoError(t, err)

	assert.NotZero(t, snippet.ID)
	assert.Equal(t, "python", snippet.Language)
	assert.Equal(t, "friendly", snippet.Style)
	assert.False(t, snippet.LineNumbers)
	assert.Equal(t, "", snippet.Title)
	assert.Equal(t, owner.ID, snippet.OwnerID)

	assert.True(t, strings.HasPrefix(snippet.Highlighted, "<!DOCTYPE html>"))
	assert.Contains(t, visibleText(snippet.Highlighted), "print(1)")
}

func TestCreate_StoresRenderedMarkup(t *testing.T) {
	svc, repo, renderer := newTestService(t)
	owner := repo.addUser(t, "alice")

	created, err := svc.Create(context.Background(), SnippetInput{
		Title:       "Hello",
		Code:        "package main",
		LineNumbers: true,
		Language:    "go",
		Style:       "monokai",
		OwnerID:     owner.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, renderer.renders)

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Highlighted, stored.Highlighted)
	assert.Contains(t, stored.Highlighted, "<title>Hello</title>")
	assert.Contains(t, stored.Highlighted, "<table")
}

func TestCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		input      SnippetInput
		wantFields []string
	}{
		{
			name:       "missing code and owner",
			input:      SnippetInput{},
			wantFields: []string{"code", "owner"},
		},
		{
			name:       "blank code",
			input:      SnippetInput{Code: "   \n", OwnerID: 1},
			wantFields: []string{"code"},
		},
		{
			name:       "unknown language",
			input:      SnippetInput{Code: "x", Language: "klingon", OwnerID: 1},
			wantFields: []string{"language"},
		},
		{
			name:       "unknown style",
			input:      SnippetInput{Code: "x", Style: "plaid", OwnerID: 1},
			wantFields: []string{"style"},
		},
		{
			name:       "title too long",
			input:      SnippetInput{Code: "x", Title: strings.Repeat("t", MaxTitleLength+1), OwnerID: 1},
			wantFields: []string{"title"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, renderer := newTestService(t)
			repo.addUser(t, "alice") // id 1

			_, err := svc.Create(context.Background(), tt.input)

			fields := fieldErrors(t, err)
			for _, f := range tt.wantFields {
				assert.Contains(t, fields, f)
			}
			assert.Len(t, fields, len(tt.wantFields))
			assert.Zero(t, repo.writes, "no record may be created")
			assert.Zero(t, renderer.renders)
		})
	}
}

func TestCreate_UnknownLanguageMessage(t *testing.T) {
	svc, repo, _ := newTestService(t)
	owner := repo.addUser(t, "alice")

	_, err := svc.Create(context.Background(), SnippetInput{Code: "x", Language: "klingon", OwnerID: owner.ID})

	fields := fieldErrors(t, err)
	assert.Equal(t, []string{`"klingon" is not a valid choice.`}, fields["language"])
}

func TestCreate_UnknownOwner(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Create(context.Background(), SnippetInput{Code: "x", OwnerID: 42})

	fields := fieldErrors(t, err)
	assert.Equal(t, []string{`Invalid pk "42" - object does not exist.`}, fields["owner"])
	assert.Zero(t, repo.writes)
}

func TestCreate_RenderErrorIsValidation(t *testing.T) {
	svc, repo, renderer := newTestService(t)
	owner := repo.addUser(t, "alice")
	renderer.failing = errBoom

	_, err := svc.Create(context.Background(), SnippetInput{Code: "x", OwnerID: owner.ID})

	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Zero(t, repo.writes)
}

func TestCreate_RepositoryFailure(t *testing.T) {
	svc, repo, _ := newTestService(t)
	owner := repo.addUser(t, "alice")
	repo.failOn = errBoom

	_, err := svc.Create(context.Background(), SnippetInput{Code: "x", OwnerID: owner.ID})

	require.Error(t, err)
	assert.False(t, errors.Is(err, apperror.ErrValidation))
}

// =========================================================================
// GET / LIST TESTS
// =========================================================================

func TestGet_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), 99)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestList(t *testing.T) {
	svc, repo, _ := newTestService(t)
	owner := repo.addUser(t, "alice")

	empty, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, empty)

	a, _ := svc.Create(context.Background(), SnippetInput{Code: "a", OwnerID: owner.ID})
	b, _ := svc.Create(context.Background(), SnippetInput{Code: "b", OwnerID: owner.ID})

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)
	assert.Equal(t, b.ID, all[1].ID)
}

func TestList_RepositoryFailure(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.failOn = errBoom

	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, errBoom)
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func createSnippet(t *testing.T, svc *SnippetService, repo *mockRepo) *model.Snippet {
	t.Helper()
	owner := repo.addUser(t, "owner")
	s, err := svc.Create(context.Background(), SnippetInput{Code: "print(1)", OwnerID: owner.ID})
	require.NoError(t, err)
	return s
}

func TestUpdate_TitleOnly(t *testing.T) {
	svc, repo, _ := newTestService(t)
	original := createSnippet(t, svc, repo)

	updated, err := svc.Update(context.Background(), original.ID, SnippetPatch{Title: strPtr("Renamed")})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, original.Code, updated.Code)
	assert.Equal(t, original.Language, updated.Language)
	assert.Equal(t, original.Style, updated.Style)
	assert.Equal(t, original.LineNumbers, updated.LineNumbers)
	assert.Equal(t, original.OwnerID, updated.OwnerID)
	assert.Equal(t, original.Created, updated.Created)

	assert.NotEqual(t, original.Highlighted, updated.Highlighted)
	assert.Contains(t, updated.Highlighted, "<title>Renamed</title>")
}

func TestUpdate_EachGoverningFieldRecomputes(t *testing.T) {
	patches := map[string]SnippetPatch{
		"title":             {Title: strPtr("new title")},
		"code":              {Code: strPtr("print(2)")},
		"show_line_numbers": {LineNumbers: boolPtr(true)},
		"language":          {Language: strPtr("text")},
		"style":             {Style: strPtr("monokai")},
	}

	for name, patch := range patches {
		t.Run(name, func(t *testing.T) {
			svc, repo, renderer := newTestService(t)
			original := createSnippet(t, svc, repo)
			rendersBefore := renderer.renders

			updated, err := svc.Update(context.Background(), original.ID, patch)
			require.NoError(t, err)

			assert.Equal(t, rendersBefore+1, renderer.renders)
			assert.NotEqual(t, original.Highlighted, updated.Highlighted)

			stored, err := repo.GetByID(context.Background(), original.ID)
			require.NoError(t, err)
			assert.Equal(t, updated.Highlighted, stored.Highlighted, "stored markup must not be stale")
		})
	}
}

func TestUpdate_CodeIsReflectedInMarkup(t *testing.T) {
	svc, repo, _ := newTestService(t)
	original := createSnippet(t, svc, repo)

	updated, err := svc.Update(context.Background(), original.ID, SnippetPatch{Code: strPtr("answer = 42")})
	require.NoError(t, err)

	assert.Contains(t, visibleText(updated.Highlighted), "answer = 42")
	assert.NotContains(t, visibleText(updated.Highlighted), "print(1)")
}

func TestUpdate_NoChangesDoesNotRecompute(t *testing.T) {
	svc, repo, renderer := newTestService(t)
	original := createSnippet(t, svc, repo)
	rendersBefore, writesBefore := renderer.renders, repo.writes

	// Empty patch and a patch repeating current values are both no-ops.
	for _, patch := range []SnippetPatch{
		{},
		{Code: strPtr(original.Code), Language: strPtr(original.Language)},
	} {
		got, err := svc.Update(context.Background(), original.ID, patch)
		require.NoError(t, err)
		assert.Equal(t, original.Highlighted, got.Highlighted)
	}

	assert.Equal(t, rendersBefore, renderer.renders)
	assert.Equal(t, writesBefore, repo.writes)
}

func TestUpdate_InvalidValues(t *testing.T) {
	svc, repo, _ := newTestService(t)
	original := createSnippet(t, svc, repo)

	_, err := svc.Update(context.Background(), original.ID, SnippetPatch{
		Language: strPtr("klingon"),
		Style:    strPtr(""),
		Code:     strPtr(""),
	})

	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "language")
	assert.Contains(t, fields, "style")
	assert.Contains(t, fields, "code")

	stored, _ := repo.GetByID(context.Background(), original.ID)
	assert.Equal(t, *original, *stored)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), 404, SnippetPatch{Title: strPtr("x")})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDelete(t *testing.T) {
	svc, repo, _ := newTestService(t)
	created := createSnippet(t, svc, repo)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	_, err := svc.Get(context.Background(), created.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestDelete_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Delete(context.Background(), 404)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
