package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/notes/internal/domain"
)

var (
	// ErrConflict is returned when a write would violate a uniqueness constraint.
	ErrConflict = errors.New("unique constraint violated")
	// ErrAlreadyShared is returned by AddViewer when the viewer is already listed.
	ErrAlreadyShared = errors.New("note already shared with user")
	// ErrUnscoped is returned when a note query carries no access predicate.
	ErrUnscoped = errors.New("note query has no access scope")
)

// NoteScope is the access predicate applied to every note query. Exactly one
// of OwnerID and ViewerID must be set.
type NoteScope struct {
	// OwnerID matches notes whose owner is OwnerID.
	OwnerID uuid.UUID
	// ViewerID matches notes listing ViewerID in shared_with and owned by
	// someone else.
	ViewerID uuid.UUID
}

func (s NoteScope) Validate() error {
	hasOwner := s.OwnerID != uuid.Nil
	hasViewer := s.ViewerID != uuid.Nil
	if hasOwner == hasViewer {
		return ErrUnscoped
	}
	return nil
}

// Matches evaluates the scope against a loaded note. Stores that cannot push
// the predicate into a query use it while scanning.
func (s NoteScope) Matches(n *domain.Note) bool {
	if s.OwnerID != uuid.Nil {
		return n.OwnerID == s.OwnerID
	}
	return n.OwnerID != s.ViewerID && n.IsSharedWith(s.ViewerID)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// NoteRepository methods return (nil, nil) when no note matches the scope.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	Get(ctx context.Context, scope NoteScope, id uuid.UUID) (*domain.Note, error)
	List(ctx context.Context, scope NoteScope) ([]domain.Note, error)
	Update(ctx context.Context, scope NoteScope, id uuid.UUID, title, content string, at time.Time) (*domain.Note, error)
	Delete(ctx context.Context, scope NoteScope, id uuid.UUID) (*domain.Note, error)
	// AddViewer appends viewerID to shared_with only if it is absent, in a
	// single atomic step.
	AddViewer(ctx context.Context, scope NoteScope, id, viewerID uuid.UUID, at time.Time) (*domain.Note, error)
	// Search returns matches ordered by descending relevance.
	Search(ctx context.Context, scope NoteScope, query string) ([]domain.SearchResult, error)
}
