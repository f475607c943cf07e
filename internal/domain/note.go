package domain

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

type Note struct {
	ID         uuid.UUID   `json:"id"`
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	OwnerID    uuid.UUID   `json:"owner"`
	SharedWith []uuid.UUID `json:"sharedWith"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// IsSharedWith reports whether userID is listed as a viewer of the note.
func (n *Note) IsSharedWith(userID uuid.UUID) bool {
	return slices.Contains(n.SharedWith, userID)
}

// Clone returns a copy whose SharedWith slice does not alias n's.
func (n *Note) Clone() *Note {
	c := *n
	c.SharedWith = slices.Clone(n.SharedWith)
	if c.SharedWith == nil {
		c.SharedWith = []uuid.UUID{}
	}
	return &c
}

type noteJSON Note

func (n Note) toJSON() noteJSON {
	p := noteJSON(n)
	if p.SharedWith == nil {
		p.SharedWith = []uuid.UUID{}
	}
	return p
}

// MarshalJSON keeps sharedWith an array even when nobody has been added yet.
func (n Note) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toJSON())
}

// NoteList groups the notes a user can see by how they can see them.
type NoteList struct {
	Owned  []Note `json:"owned"`
	Shared []Note `json:"shared"`
}

// SearchResult is a note matched by a full-text query with its relevance.
type SearchResult struct {
	Note
	Score float64 `json:"score"`
}

func (r SearchResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		noteJSON
		Score float64 `json:"score"`
	}{r.Note.toJSON(), r.Score})
}
