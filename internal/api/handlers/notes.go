package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/notevault/notevault/internal/api/middleware"
	"github.com/notevault/notevault/internal/models"
	"github.com/notevault/notevault/internal/store"
	"github.com/notevault/notevault/internal/utils"
)

const internalErrMsg = "Internal server error occurred"

type NotesHandler struct {
	notes store.NoteStore
	users store.UserStore
}

func NewNotesHandler(notes store.NoteStore, users store.UserStore) *NotesHandler {
	return &NotesHandler{notes: notes, users: users}
}

// actorID resolves the authenticated identity to its id. A gate-passed but
// unresolved identity yields uuid.Nil, which no ownership predicate matches.
func actorID(r *http.Request) uuid.UUID {
	if u := middleware.ActorFrom(r.Context()); u != nil {
		return u.ID
	}
	return uuid.Nil
}

// GET /api/notes
// List godoc
// @Summary List the actor's notes
// @Description Returns notes the actor created and notes shared with the actor, as two disjoint sets.
// @Tags Notes
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Router /api/notes [get]
func (h *NotesHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)

	owned, err := h.notes.NotesByAuthor(r.Context(), actor)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, internalErrMsg)
		return
	}
	shared, err := h.notes.NotesSharedWith(r.Context(), actor)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, internalErrMsg)
		return
	}

	utils.JSONResponse(w, http.StatusOK, map[string]any{
		"created":       emptyIfNil(owned),
		"sharedWithYou": emptyIfNil(shared),
	})
}

// GET /api/notes/search?q=
// Search godoc
// @Summary Search notes by text
// @Description Runs a ranked text-index query over the actor's visible notes.
// @Tags Notes
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/notes/search [get]
func (h *NotesHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		utils.JSONError(w, http.StatusBadRequest, "Query Parameter 'q' is required.")
		return
	}

	results, err := h.notes.SearchNotes(r.Context(), query, actorID(r))
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, internalErrMsg)
		return
	}

	utils.JSONResponse(w, http.StatusOK, map[string]any{
		"results": emptyIfNil(results),
	})
}

// GET /api/notes/{id}
// Get godoc
// @Summary Get a note by id
// @Description Returns the note if the actor authored it or was shared it. Anything else is 404.
// @Tags Notes
// @Produce json
// @Param id path string true "Note id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/notes/{id} [get]
func (h *NotesHandler) Get(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.VisibleNote(r.Context(), r.PathValue("id"), actorID(r))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "Note not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, internalErrMsg)
		return
	}

	utils.JSONResponse(w, http.StatusOK, map[string]any{"note": note})
}

// POST /api/notes
// Create godoc
// @Summary Create a note
// @Tags Notes
// @Accept json
// @Produce json
// @Success 201 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Router /api/notes [post]
func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	author := middleware.ActorFrom(r.Context())
	if author == nil {
		// Valid token, vanished user: there is no author to attach.
		utils.JSONError(w, http.StatusInternalServerError, internalErrMsg)
		return
	}

	note := models.Note{
		Title:    input.Title,
		Content:  input.Content,
		AuthorID: author.ID,
	}
	if err := h.notes.CreateNote(r.Context(), &note); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, internalErrMsg)
		return
	}

	utils.JSONResponse(w, http.StatusCreated, map[string]any{
		"message": "Note created successfully",
		"note":    note,
	})
}

// PUT /api/notes/{id}
// Update godoc
// @Summary Update a note
// @Description Only the author may update. Empty or omitted fields keep their prior value.
// @Tags Notes
// @Accept json
// @Produce json
// @Param id path string true "Note id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/notes/{id} [put]
func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	note, err := h.notes.OwnedNote(r.Context(), r.PathValue("id"), actorID(r))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "Note not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, internalErrMsg)
		return
	}

	// Empty string means "not provided"; the prior value is kept.
	if patch.Title != "" {
		note.Title = patch.Title
	}
	if patch.Content != "" {
		note.Content = patch.Content
	}

	if err := h.notes.SaveNote(r.Context(), note); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, internalErrMsg)
		return
	}

	utils.JSONResponse(w, http.StatusOK, map[string]any{
		"message": "Note updated successfully",
		"note":    note,
	})
}

// DELETE /api/notes/{id}
// Delete godoc
// @Summary Delete a note
// @Description Only the author may delete; a non-author sees the same 404 as a missing note.
// @Tags Notes
// @Produce json
// @Param id path string true "Note id"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/notes/{id} [delete]
func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.notes.DeleteOwnedNote(r.Context(), r.PathValue("id"), actorID(r))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "Note not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, internalErrMsg)
		return
	}

	utils.JSONMessage(w, http.StatusOK, "Note deleted successfully")
}

// POST /api/notes/{id}/share
// Share godoc
// @Summary Share a note with another user
// @Description Grants the target user read access. Idempotence: re-sharing with the same user is a 400.
// @Tags Notes
// @Accept json
// @Produce json
// @Param id path string true "Note id"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/notes/{id}/share [post]
func (h *NotesHandler) Share(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	note, err := h.notes.OwnedNote(r.Context(), r.PathValue("id"), actorID(r))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "Note not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, internalErrMsg)
		return
	}

	target, err := h.users.UserByID(r.Context(), input.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "User to share with not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, internalErrMsg)
		return
	}

	if target.ID == note.AuthorID {
		utils.JSONError(w, http.StatusBadRequest, "Cannot share a note with its author")
		return
	}

	if err := h.notes.ShareNote(r.Context(), note.ID, target.ID); err != nil {
		if errors.Is(err, store.ErrAlreadyShared) {
			utils.JSONError(w, http.StatusBadRequest, "Note is already shared with this user")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, internalErrMsg)
		return
	}

	utils.JSONMessage(w, http.StatusOK, "Note shared successfully")
}

func emptyIfNil(notes []models.Note) []models.Note {
	if notes == nil {
		return []models.Note{}
	}
	return notes
}
