// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, derives, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, not concrete databases, so tests can
// inject in-memory fakes. They return apperror values and never know about
// HTTP status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/highlight"
	"github.com/sakif/snippets/internal/model"
	"github.com/sakif/snippets/internal/repository"
)

// MaxTitleLength bounds Snippet.Title.
const MaxTitleLength = 100

// Highlighter renders code to HTML and knows which languages and styles it
// can render. *highlight.Renderer is the production implementation.
type Highlighter interface {
	Render(code, language, style string, opts highlight.Options) (string, error)
	HasLanguage(name string) bool
	HasStyle(name string) bool
}

// SnippetInput carries the caller-settable fields of a new snippet.
// Blank Language and Style fall back to model.DefaultLanguage and
// model.DefaultStyle.
type SnippetInput struct {
	Title       string `json:"title" validate:"max=100"`
	Code        string `json:"code" validate:"required,notblank"`
	LineNumbers bool   `json:"show_line_numbers"`
	Language    string `json:"language" validate:"language"`
	Style       string `json:"style" validate:"style"`
	OwnerID     int64  `json:"owner" validate:"required"`
}

// SnippetPatch carries a partial update. nil means "leave unchanged".
// There is deliberately no owner field: ownership never changes.
type SnippetPatch struct {
	Title       *string `json:"title" validate:"omitnil,max=100"`
	Code        *string `json:"code" validate:"omitnil,notblank"`
	LineNumbers *bool   `json:"show_line_numbers"`
	Language    *string `json:"language" validate:"omitnil,language"`
	Style       *string `json:"style" validate:"omitnil,style"`
}

// SnippetService implements the snippet store: validation, the derived
// Highlighted field, and persistence through the repository.
type SnippetService struct {
	repo     repository.SnippetRepository
	users    repository.UserRepository
	renderer Highlighter
	validate *validator.Validate
	logger   *slog.Logger
}

// NewSnippetService wires a SnippetService. The caller decides which
// repositories and renderer to use (SQLite + chroma in production, fakes in
// tests).
func NewSnippetService(
	repo repository.SnippetRepository,
	users repository.UserRepository,
	renderer Highlighter,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		repo:     repo,
		users:    users,
		renderer: renderer,
		validate: newValidator(renderer),
		logger:   logger,
	}
}

// Create validates input, renders the snippet and stores it.
//
// Order of checks: field validation (all fields at once), then that the owner
// exists, then rendering. Nothing is written unless all of them pass.
func (s *SnippetService) Create(ctx context.Context, input SnippetInput) (*model.Snippet, error) {
	if input.Language == "" {
		input.Language = model.DefaultLanguage
	}
	if input.Style == "" {
		input.Style = model.DefaultStyle
	}

	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUserByID(ctx, input.OwnerID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("owner",
				fmt.Sprintf(`Invalid pk "%d" - object does not exist.`, input.OwnerID))
		}
		return nil, fmt.Errorf("looking up owner: %w", err)
	}

	snippet := &model.Snippet{
		Title:       input.Title,
		Code:        input.Code,
		LineNumbers: input.LineNumbers,
		Language:    input.Language,
		Style:       input.Style,
		OwnerID:     input.OwnerID,
	}

	if err := s.rehighlight(snippet); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		if !errors.Is(err, apperror.ErrValidation) {
			s.logger.Error("failed to create snippet",
				slog.Int64("owner", snippet.OwnerID),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.Int64("id", snippet.ID),
		slog.Int64("owner", snippet.OwnerID),
		slog.String("language", snippet.Language),
	)

	return snippet, nil
}

// Get retrieves a snippet by its ID.
// Returns apperror.ErrNotFound if the snippet doesn't exist.
func (s *SnippetService) Get(ctx context.Context, id int64) (*model.Snippet, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every snippet, oldest first.
func (s *SnippetService) List(ctx context.Context) ([]model.Snippet, error) {
	snippets, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}

// Update applies the present fields of patch to snippet id.
//
// Highlighted is recomputed exactly when one of the fields it is derived from
// (title, code, show_line_numbers, language, style) ends up with a new value. A patch
// that changes nothing is not written at all.
func (s *SnippetService) Update(ctx context.Context, id int64, patch SnippetPatch) (*model.Snippet, error) {
	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := validateStruct(s.validate, patch); err != nil {
		return nil, err
	}

	changed := false
	if patch.Title != nil && *patch.Title != snippet.Title {
		snippet.Title = *patch.Title
		changed = true
	}
	if patch.Code != nil && *patch.Code != snippet.Code {
		snippet.Code = *patch.Code
		changed = true
	}
	if patch.LineNumbers != nil && *patch.LineNumbers != snippet.LineNumbers {
		snippet.LineNumbers = *patch.LineNumbers
		changed = true
	}
	if patch.Language != nil && *patch.Language != snippet.Language {
		snippet.Language = *patch.Language
		changed = true
	}
	if patch.Style != nil && *patch.Style != snippet.Style {
		snippet.Style = *patch.Style
		changed = true
	}

	if !changed {
		s.logger.Debug("snippet update is a no-op", slog.Int64("id", id))
		return snippet, nil
	}

	if err := s.rehighlight(snippet); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, snippet); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to update snippet",
				slog.Int64("id", id),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated", slog.Int64("id", snippet.ID))

	return snippet, nil
}

// Delete removes a snippet by its ID.
// Returns apperror.ErrNotFound if the snippet doesn't exist.
func (s *SnippetService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.Int64("id", id))
	return nil
}

// rehighlight recomputes snippet.Highlighted from its governing fields. Every
// write path calls it right before persisting.
func (s *SnippetService) rehighlight(snippet *model.Snippet) error {
	html, err := s.renderer.Render(snippet.Code, snippet.Language, snippet.Style, highlight.Options{
		Title:       snippet.Title,
		LineNumbers: snippet.LineNumbers,
	})
	if err != nil {
		field := "code"
		switch {
		case errors.Is(err, highlight.ErrUnknownLanguage):
			field = "language"
		case errors.Is(err, highlight.ErrUnknownStyle):
			field = "style"
		}
		return apperror.ValidationFailed(field, err.Error())
	}

	snippet.Highlighted = html
	return nil
}
