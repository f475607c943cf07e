package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/vedran77/notes/internal/domain"
	"github.com/vedran77/notes/internal/service"
	"github.com/vedran77/notes/internal/transport/http/middleware"
	"github.com/vedran77/notes/pkg/validator"
)

type NoteHandler struct {
	noteService *service.NoteService
	logger      zerolog.Logger
}

func NewNoteHandler(noteService *service.NoteService, logger zerolog.Logger) *NoteHandler {
	return &NoteHandler{noteService: noteService, logger: logger}
}

type noteResponse struct {
	Message string       `json:"message"`
	Note    *domain.Note `json:"note"`
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	list, err := h.noteService.List(r.Context(), userID)
	if err != nil {
		writeInternal(w, h.logger, "list notes", err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	noteID, ok := pathID(w, r)
	if !ok {
		return
	}

	note, err := h.noteService.Get(r.Context(), userID, noteID)
	if err != nil {
		h.handleError(w, "get note", err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.NoteInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if errs := validator.ValidateNote(input.Title, input.Content); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	note, err := h.noteService.Create(r.Context(), userID, input)
	if err != nil {
		writeInternal(w, h.logger, "create note", err)
		return
	}

	writeJSON(w, http.StatusCreated, noteResponse{Message: "Note created successfully", Note: note})
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	noteID, ok := pathID(w, r)
	if !ok {
		return
	}

	var input service.NoteInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if errs := validator.ValidateNote(input.Title, input.Content); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	note, err := h.noteService.Update(r.Context(), userID, noteID, input)
	if err != nil {
		h.handleError(w, "update note", err)
		return
	}

	writeJSON(w, http.StatusOK, noteResponse{Message: "Note updated successfully", Note: note})
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	noteID, ok := pathID(w, r)
	if !ok {
		return
	}

	note, err := h.noteService.Delete(r.Context(), userID, noteID)
	if err != nil {
		h.handleError(w, "delete note", err)
		return
	}

	writeJSON(w, http.StatusOK, noteResponse{Message: "Note deleted successfully", Note: note})
}

func (h *NoteHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	noteID, ok := pathID(w, r)
	if !ok {
		return
	}

	var input service.ShareInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if errs := validator.ValidateShare(input.SharedUsername); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	if _, err := h.noteService.Share(r.Context(), userID, noteID, input); err != nil {
		h.handleError(w, "share note", err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Note shared successfully"})
}

func (h *NoteHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	query := r.URL.Query().Get("q")

	if errs := validator.ValidateSearch(query); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	results, err := h.noteService.Search(r.Context(), userID, query)
	if err != nil {
		writeInternal(w, h.logger, "search notes", err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func (h *NoteHandler) handleError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNoteNotFound):
		writeError(w, http.StatusNotFound, "NOTE_NOT_FOUND", "Note not found")
	case errors.Is(err, service.ErrShareTargetNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User to share with not found")
	case errors.Is(err, service.ErrAlreadyShared):
		writeError(w, http.StatusBadRequest, "ALREADY_SHARED", "Note already shared with this user")
	default:
		writeInternal(w, h.logger, op, err)
	}
}
