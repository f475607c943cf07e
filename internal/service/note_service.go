package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/notes/internal/domain"
	"github.com/vedran77/notes/internal/repository"
)

var (
	ErrNoteNotFound        = errors.New("note not found")
	ErrShareTargetNotFound = errors.New("user to share with not found")
	ErrAlreadyShared       = errors.New("note already shared with this user")
)

// Notifier pushes real-time events to connected clients.
type Notifier interface {
	NotifyNoteShared(viewerID uuid.UUID, note *domain.Note)
}

type NoteService struct {
	noteRepo repository.NoteRepository
	userRepo repository.UserRepository
	notifier Notifier
	now      func() time.Time
}

func NewNoteService(noteRepo repository.NoteRepository, userRepo repository.UserRepository) *NoteService {
	return &NoteService{
		noteRepo: noteRepo,
		userRepo: userRepo,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *NoteService) SetNotifier(n Notifier) {
	s.notifier = n
}

type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type ShareInput struct {
	SharedUsername string `json:"sharedUsername"`
}

// List returns the requester's own notes and, separately, the notes others
// have shared with them. A note never lands in both.
func (s *NoteService) List(ctx context.Context, userID uuid.UUID) (*domain.NoteList, error) {
	owned, err := s.noteRepo.List(ctx, ownerScope(userID))
	if err != nil {
		return nil, fmt.Errorf("listing owned notes: %w", err)
	}
	shared, err := s.noteRepo.List(ctx, viewerScope(userID))
	if err != nil {
		return nil, fmt.Errorf("listing shared notes: %w", err)
	}
	return &domain.NoteList{Owned: owned, Shared: shared}, nil
}

// Get only resolves notes the requester owns. Viewers of a shared note see
// it through List.
func (s *NoteService) Get(ctx context.Context, userID, noteID uuid.UUID) (*domain.Note, error) {
	note, err := s.noteRepo.Get(ctx, ownerScope(userID), noteID)
	if err != nil {
		return nil, fmt.Errorf("getting note: %w", err)
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

func (s *NoteService) Create(ctx context.Context, userID uuid.UUID, input NoteInput) (*domain.Note, error) {
	now := s.now()
	note := &domain.Note{
		ID:         uuid.New(),
		Title:      input.Title,
		Content:    input.Content,
		OwnerID:    userID,
		SharedWith: []uuid.UUID{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}
	return note, nil
}

func (s *NoteService) Update(ctx context.Context, userID, noteID uuid.UUID, input NoteInput) (*domain.Note, error) {
	note, err := s.noteRepo.Update(ctx, ownerScope(userID), noteID, input.Title, input.Content, s.now())
	if err != nil {
		return nil, fmt.Errorf("updating note: %w", err)
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

// Delete removes an owned note and returns its last state.
func (s *NoteService) Delete(ctx context.Context, userID, noteID uuid.UUID) (*domain.Note, error) {
	note, err := s.noteRepo.Delete(ctx, ownerScope(userID), noteID)
	if err != nil {
		return nil, fmt.Errorf("deleting note: %w", err)
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

func (s *NoteService) Share(ctx context.Context, userID, noteID uuid.UUID, input ShareInput) (*domain.Note, error) {
	note, err := s.noteRepo.Get(ctx, ownerScope(userID), noteID)
	if err != nil {
		return nil, fmt.Errorf("getting note: %w", err)
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}

	target, err := s.userRepo.GetByUsername(ctx, input.SharedUsername)
	if err != nil {
		return nil, fmt.Errorf("looking up share target: %w", err)
	}
	if target == nil {
		return nil, ErrShareTargetNotFound
	}

	shared, err := s.noteRepo.AddViewer(ctx, ownerScope(userID), noteID, target.ID, s.now())
	switch {
	case errors.Is(err, repository.ErrAlreadyShared):
		return nil, ErrAlreadyShared
	case err != nil:
		return nil, fmt.Errorf("sharing note: %w", err)
	case shared == nil:
		// deleted between the lookup and the append
		return nil, ErrNoteNotFound
	}

	if s.notifier != nil {
		s.notifier.NotifyNoteShared(target.ID, shared)
	}
	return shared, nil
}

// Search ranks the requester's own notes against query, best match first.
func (s *NoteService) Search(ctx context.Context, userID uuid.UUID, query string) ([]domain.SearchResult, error) {
	results, err := s.noteRepo.Search(ctx, ownerScope(userID), query)
	if err != nil {
		return nil, fmt.Errorf("searching notes: %w", err)
	}
	return results, nil
}
