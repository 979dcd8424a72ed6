package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/highlight"
	"github.com/sakif/snippets/internal/model"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
//
// In-memory fakes of repository.SnippetRepository and repository.UserRepository.
// They store copies, never the caller's pointers, so a test cannot change
// "stored" state by accident.

type mockRepo struct {
	mu       sync.Mutex
	snippets map[int64]model.Snippet
	users    map[int64]model.User
	nextID   int64
	clock    time.Time

	writes int   // Create + Update calls that reached storage
	failOn error // when set, every call returns it
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		snippets: make(map[int64]model.Snippet),
		users:    make(map[int64]model.User),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *mockRepo) Create(_ context.Context, snippet *model.Snippet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return m.failOn
	}
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	snippet.ID = m.nextID
	snippet.Created = m.clock
	m.snippets[snippet.ID] = *snippet
	m.writes++
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*model.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return nil, m.failOn
	}
	s, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	return &s, nil
}

func (m *mockRepo) List(_ context.Context) ([]model.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return nil, m.failOn
	}
	out := make([]model.Snippet, 0, len(m.snippets))
	for _, s := range m.snippets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRepo) Update(_ context.Context, snippet *model.Snippet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return m.failOn
	}
	stored, ok := m.snippets[snippet.ID]
	if !ok {
		return apperror.NotFound("snippet", snippet.ID)
	}
	stored.Title = snippet.Title
	stored.Code = snippet.Code
	stored.LineNumbers = snippet.LineNumbers
	stored.Language = snippet.Language
	stored.Style = snippet.Style
	stored.Highlighted = snippet.Highlighted
	m.snippets[snippet.ID] = stored
	m.writes++
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(m.snippets, id)
	return nil
}

func (m *mockRepo) CreateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = *user
	return nil
}

func (m *mockRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return nil, m.failOn
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (m *mockRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (m *mockRepo) ListUsers(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return nil, m.failOn
	}
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRepo) SnippetIDsByOwner(_ context.Context, ownerID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0)
	for id, s := range m.snippets {
		if s.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// addUser seeds a user straight into the fake.
func (m *mockRepo) addUser(t *testing.T, username string) model.User {
	t.Helper()
	u := model.User{Username: username}
	if err := m.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return u
}

// =========================================================================
// COUNTING RENDERER
// =========================================================================

// countingRenderer wraps the real chroma renderer and counts Render calls so
// tests can assert exactly when Highlighted is recomputed.
type countingRenderer struct {
	*highlight.Renderer
	renders int
	failing error
}

func (c *countingRenderer) Render(code, language, style string, opts highlight.Options) (string, error) {
	c.renders++
	if c.failing != nil {
		return "", c.failing
	}
	return c.Renderer.Render(code, language, style, opts)
}

var errBoom = errors.New("boom")

// sharedRenderer is built once: snapshotting chroma's registries is not free.
var sharedRenderer = highlight.New()

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestService creates a SnippetService over the fakes.
func newTestService(t *testing.T) (*SnippetService, *mockRepo, *countingRenderer) {
	t.Helper()
	repo := newMockRepo()
	renderer := &countingRenderer{Renderer: sharedRenderer}
	svc := NewSnippetService(repo, repo, renderer, quietLogger())
	return svc, repo, renderer
}
