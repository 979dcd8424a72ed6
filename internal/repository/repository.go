// Package repository declares the persistence contracts used by the service
// layer. Implementations live in sub-packages (see repository/sqlite).
package repository

import (
	"context"

	"github.com/sakif/snippets/internal/model"
)

// SnippetRepository stores snippets. Every method is a single statement, so a
// write either fully applies or not at all.
type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id int64) (*model.Snippet, error)
	// List returns every snippet ordered by creation time, oldest first.
	List(ctx context.Context) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id int64) error
}

// UserRepository stores the accounts snippets are attributed to.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// SnippetIDsByOwner returns the ids of the user's snippets, oldest first.
	SnippetIDsByOwner(ctx context.Context, ownerID int64) ([]int64, error)
}
