package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/notes/internal/domain"
	"github.com/vedran77/notes/internal/repository"
)

type NoteRepo struct {
	mu    sync.RWMutex
	notes map[uuid.UUID]*domain.Note
}

func NewNoteRepo() *NoteRepo {
	return &NoteRepo{notes: make(map[uuid.UUID]*domain.Note)}
}

func (r *NoteRepo) Create(ctx context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[note.ID] = note.Clone()
	return nil
}

// lookup must be called with r.mu held.
func (r *NoteRepo) lookup(scope repository.NoteScope, id uuid.UUID) (*domain.Note, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	n, ok := r.notes[id]
	if !ok || !scope.Matches(n) {
		return nil, nil
	}
	return n, nil
}

func (r *NoteRepo) Get(ctx context.Context, scope repository.NoteScope, id uuid.UUID) (*domain.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, err := r.lookup(scope, id)
	if n == nil || err != nil {
		return nil, err
	}
	return n.Clone(), nil
}

func (r *NoteRepo) List(ctx context.Context, scope repository.NoteScope) ([]domain.Note, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	notes := []domain.Note{}
	for _, n := range r.notes {
		if scope.Matches(n) {
			notes = append(notes, *n.Clone())
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes, nil
}

func (r *NoteRepo) Update(ctx context.Context, scope repository.NoteScope, id uuid.UUID, title, content string, at time.Time) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.lookup(scope, id)
	if n == nil || err != nil {
		return nil, err
	}
	n.Title = title
	n.Content = content
	n.UpdatedAt = at
	return n.Clone(), nil
}

func (r *NoteRepo) Delete(ctx context.Context, scope repository.NoteScope, id uuid.UUID) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.lookup(scope, id)
	if n == nil || err != nil {
		return nil, err
	}
	delete(r.notes, id)
	return n.Clone(), nil
}

func (r *NoteRepo) AddViewer(ctx context.Context, scope repository.NoteScope, id, viewerID uuid.UUID, at time.Time) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.lookup(scope, id)
	if n == nil || err != nil {
		return nil, err
	}
	if n.IsSharedWith(viewerID) {
		return nil, repository.ErrAlreadyShared
	}
	n.SharedWith = append(n.SharedWith, viewerID)
	n.UpdatedAt = at
	return n.Clone(), nil
}

func (r *NoteRepo) Search(ctx context.Context, scope repository.NoteScope, query string) ([]domain.SearchResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	terms := uniqueTerms(query)
	results := []domain.SearchResult{}
	if len(terms) == 0 {
		return results, nil
	}

	r.mu.RLock()
	for _, n := range r.notes {
		if !scope.Matches(n) {
			continue
		}
		if score := rank(terms, n.Title, n.Content); score > 0 {
			results = append(results, domain.SearchResult{Note: *n.Clone(), Score: score})
		}
	}
	r.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].UpdatedAt.After(results[j].UpdatedAt)
	})
	return results, nil
}
