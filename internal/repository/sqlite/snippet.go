package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/model"
	"github.com/sakif/snippets/internal/repository"
)

// Compile-time check that *DB implements repository.SnippetRepository.
var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, created, title, code, linenos, language, style, owner_id, highlighted`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row scanner, s *model.Snippet) error {
	return row.Scan(
		&s.ID,
		&s.Created,
		&s.Title,
		&s.Code,
		&s.LineNumbers,
		&s.Language,
		&s.Style,
		&s.OwnerID,
		&s.Highlighted,
	)
}

// Create inserts a new snippet. The database assigns the ID; Created is set
// here. Both are written back into snippet so the caller sees the stored record.
//
// The ? placeholders are filled in order by the arguments after the SQL string;
// the driver escapes them, so user input never becomes SQL.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.Created = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (created, title, code, linenos, language, style, owner_id, highlighted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.Created,
		snippet.Title,
		snippet.Code,
		snippet.LineNumbers,
		snippet.Language,
		snippet.Style,
		snippet.OwnerID,
		snippet.Highlighted,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.ValidationFailed("owner",
				fmt.Sprintf(`Invalid pk "%d" - object does not exist.`, snippet.OwnerID))
		}
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading snippet id: %w", err)
	}
	snippet.ID = id

	return nil
}

// GetByID retrieves a single snippet by its ID.
// sql.ErrNoRows is translated into apperror.NotFound so the handler can 404.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.Snippet, error) {
	var snippet model.Snippet

	err := scanSnippet(db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 WHERE id = ?`,
		id,
	), &snippet)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %d: %w", id, err)
	}

	return &snippet, nil
}

// List returns every snippet, oldest first. The id is the tiebreaker for
// snippets created within the same clock tick, which keeps the order equal to
// insertion order and stable across calls.
func (db *DB) List(ctx context.Context) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 ORDER BY created ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	// CRITICAL: always close rows when done!
	defer rows.Close()

	snippets := make([]model.Snippet, 0)
	for rows.Next() {
		var s model.Snippet
		if err := scanSnippet(rows, &s); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// Update writes the mutable columns of an existing snippet.
//
// id, created and owner_id are never touched. RowsAffected() == 0 means the
// WHERE clause matched nothing, i.e. the snippet does not exist.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, code = ?, linenos = ?, language = ?, style = ?, highlighted = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Code,
		snippet.LineNumbers,
		snippet.Language,
		snippet.Style,
		snippet.Highlighted,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %d: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	return nil
}

// Delete removes a snippet by its ID. Same RowsAffected pattern as Update.
func (db *DB) Delete(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}
