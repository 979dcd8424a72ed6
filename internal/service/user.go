package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/model"
	"github.com/sakif/snippets/internal/repository"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown username or
// a wrong password. The two cases are indistinguishable on purpose.
var ErrInvalidCredentials = errors.New("invalid username or password")

// PasswordHasher hashes and verifies passwords. *auth.PasswordService is the
// production implementation.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) error
}

// UserDetail is a user together with the IDs of the snippets they own.
type UserDetail struct {
	User       model.User
	SnippetIDs []int64
}

// UserInput carries the fields needed to register a user.
type UserInput struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UserService exposes users read-only to the API and lets the admin CLI
// register users and check their passwords.
type UserService struct {
	repo      repository.UserRepository
	passwords PasswordHasher
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewUserService(repo repository.UserRepository, passwords PasswordHasher, logger *slog.Logger) *UserService {
	return &UserService{
		repo:      repo,
		passwords: passwords,
		validate:  newValidator(noHighlighter{}),
		logger:    logger,
	}
}

// List returns every user with their snippet IDs.
func (s *UserService) List(ctx context.Context) ([]UserDetail, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}

	details := make([]UserDetail, 0, len(users))
	for _, u := range users {
		ids, err := s.repo.SnippetIDsByOwner(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("listing snippets of user %d: %w", u.ID, err)
		}
		details = append(details, UserDetail{User: u, SnippetIDs: ids})
	}

	return details, nil
}

// Get returns one user with their snippet IDs.
// Returns apperror.ErrNotFound if the user doesn't exist.
func (s *UserService) Get(ctx context.Context, id int64) (*UserDetail, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ids, err := s.repo.SnippetIDsByOwner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing snippets of user %d: %w", id, err)
	}

	return &UserDetail{User: *u, SnippetIDs: ids}, nil
}

// Register validates input, hashes the password and stores a new user.
// A taken username is apperror.ErrConflict.
func (s *UserService) Register(ctx context.Context, input UserInput) (*model.User, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{Username: input.Username, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Authenticate checks a username/password pair and returns the user.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.passwords.Verify(u.PasswordHash, password); err != nil {
		s.logger.Warn("failed password check", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// noHighlighter backs the validator for structs that have no language or
// style fields.
type noHighlighter struct{}

func (noHighlighter) HasLanguage(string) bool { return false }
func (noHighlighter) HasStyle(string) bool    { return false }
