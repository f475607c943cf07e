package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/notes/internal/domain"
	"github.com/vedran77/notes/internal/repository"
)

const noteColumns = "id, title, content, owner_id, shared_with, created_at, updated_at"

type NoteRepo struct {
	pool *pgxpool.Pool
}

func NewNoteRepo(pool *pgxpool.Pool) *NoteRepo {
	return &NoteRepo{pool: pool}
}

// scopeClause renders the access predicate using placeholder $n.
func scopeClause(scope repository.NoteScope, n int) (string, any, error) {
	if err := scope.Validate(); err != nil {
		return "", nil, err
	}
	if scope.OwnerID != uuid.Nil {
		return fmt.Sprintf("owner_id = $%d", n), scope.OwnerID, nil
	}
	return fmt.Sprintf("$%d = ANY(shared_with) AND owner_id <> $%d", n, n), scope.ViewerID, nil
}

func (r *NoteRepo) Create(ctx context.Context, n *domain.Note) error {
	query := `
		INSERT INTO notes (id, title, content, owner_id, shared_with, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	sharedWith := n.SharedWith
	if sharedWith == nil {
		sharedWith = []uuid.UUID{}
	}
	_, err := r.pool.Exec(ctx, query,
		n.ID, n.Title, n.Content, n.OwnerID, sharedWith, n.CreatedAt, n.UpdatedAt,
	)
	return err
}

func (r *NoteRepo) Get(ctx context.Context, scope repository.NoteScope, id uuid.UUID) (*domain.Note, error) {
	where, arg, err := scopeClause(scope, 2)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 AND ` + where
	return scanNoteRow(r.pool.QueryRow(ctx, query, id, arg))
}

func (r *NoteRepo) List(ctx context.Context, scope repository.NoteScope) ([]domain.Note, error) {
	where, arg, err := scopeClause(scope, 1)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + noteColumns + ` FROM notes WHERE ` + where + ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []domain.Note{}
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.OwnerID, &n.SharedWith, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *NoteRepo) Update(ctx context.Context, scope repository.NoteScope, id uuid.UUID, title, content string, at time.Time) (*domain.Note, error) {
	where, arg, err := scopeClause(scope, 5)
	if err != nil {
		return nil, err
	}
	query := `UPDATE notes SET title = $1, content = $2, updated_at = $3
		WHERE id = $4 AND ` + where + `
		RETURNING ` + noteColumns
	return scanNoteRow(r.pool.QueryRow(ctx, query, title, content, at, id, arg))
}

func (r *NoteRepo) Delete(ctx context.Context, scope repository.NoteScope, id uuid.UUID) (*domain.Note, error) {
	where, arg, err := scopeClause(scope, 2)
	if err != nil {
		return nil, err
	}
	query := `DELETE FROM notes WHERE id = $1 AND ` + where + ` RETURNING ` + noteColumns
	return scanNoteRow(r.pool.QueryRow(ctx, query, id, arg))
}

func (r *NoteRepo) AddViewer(ctx context.Context, scope repository.NoteScope, id, viewerID uuid.UUID, at time.Time) (*domain.Note, error) {
	where, arg, err := scopeClause(scope, 4)
	if err != nil {
		return nil, err
	}
	// The NOT ANY guard makes the append a single conditional write.
	query := `UPDATE notes SET shared_with = array_append(shared_with, $1::uuid), updated_at = $2
		WHERE id = $3 AND ` + where + ` AND NOT ($1::uuid = ANY(shared_with))
		RETURNING ` + noteColumns
	note, err := scanNoteRow(r.pool.QueryRow(ctx, query, viewerID, at, id, arg))
	if err != nil || note != nil {
		return note, err
	}

	// Nothing updated: either the note is out of scope or the viewer is present.
	existsWhere, _, _ := scopeClause(scope, 2)
	var exists bool
	existsQuery := `SELECT EXISTS (SELECT 1 FROM notes WHERE id = $1 AND ` + existsWhere + `)`
	if err := r.pool.QueryRow(ctx, existsQuery, id, arg).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, repository.ErrAlreadyShared
	}
	return nil, nil
}

func (r *NoteRepo) Search(ctx context.Context, scope repository.NoteScope, query string) ([]domain.SearchResult, error) {
	where, arg, err := scopeClause(scope, 2)
	if err != nil {
		return nil, err
	}
	sql := `SELECT ` + noteColumns + `, ts_rank(search_vector, q) AS score
		FROM notes, websearch_to_tsquery('english', $1) AS q
		WHERE ` + where + ` AND search_vector @@ q
		ORDER BY score DESC, updated_at DESC`

	rows, err := r.pool.Query(ctx, sql, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.SearchResult{}
	for rows.Next() {
		var res domain.SearchResult
		var score float32
		if err := rows.Scan(
			&res.ID, &res.Title, &res.Content, &res.OwnerID, &res.SharedWith,
			&res.CreatedAt, &res.UpdatedAt, &score,
		); err != nil {
			return nil, err
		}
		res.Score = float64(score)
		results = append(results, res)
	}
	return results, rows.Err()
}

func scanNoteRow(row pgx.Row) (*domain.Note, error) {
	var n domain.Note
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.OwnerID, &n.SharedWith, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}
