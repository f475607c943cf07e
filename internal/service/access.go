package service

import (
	"github.com/google/uuid"
	"github.com/vedran77/notes/internal/repository"
)

// ownerScope limits a query to notes owned by userID. Get, update, delete,
// share and search all run under it.
func ownerScope(userID uuid.UUID) repository.NoteScope {
	return repository.NoteScope{OwnerID: userID}
}

// viewerScope limits a query to notes shared with userID by somebody else.
func viewerScope(userID uuid.UUID) repository.NoteScope {
	return repository.NoteScope{ViewerID: userID}
}
