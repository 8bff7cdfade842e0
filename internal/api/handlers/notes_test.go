package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/notevault/notevault/internal/api/middleware"
	"github.com/notevault/notevault/internal/models"
	"github.com/notevault/notevault/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noteBody struct {
	ID         uuid.UUID   `json:"id"`
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	AuthorID   uuid.UUID   `json:"author"`
	SearchText string      `json:"searchText"`
	SharedWith []uuid.UUID `json:"sharedWith"`
}

type env struct {
	st    *storetest.MemStore
	alice *models.User
	bob   *models.User
	mux   *http.ServeMux
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := storetest.New()

	alice := &models.User{Username: "alice", Password: "hashed"}
	require.NoError(t, st.CreateUser(context.Background(), alice))
	bob := &models.User{Username: "bob", Password: "hashed"}
	require.NoError(t, st.CreateUser(context.Background(), bob))

	h := NewNotesHandler(st, st)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/notes", h.List)
	mux.HandleFunc("POST /api/notes", h.Create)
	mux.HandleFunc("GET /api/notes/search", h.Search)
	mux.HandleFunc("GET /api/notes/{id}", h.Get)
	mux.HandleFunc("PUT /api/notes/{id}", h.Update)
	mux.HandleFunc("DELETE /api/notes/{id}", h.Delete)
	mux.HandleFunc("POST /api/notes/{id}/share", h.Share)

	return &env{st: st, alice: alice, bob: bob, mux: mux}
}

// do performs a request with the given actor already attached, the way the
// auth gate would attach it. actor may be nil to simulate a valid token for
// a vanished user.
func (e *env) do(t *testing.T, actor *models.User, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(middleware.WithActor(req.Context(), actor))
	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, req)
	return rr
}

func (e *env) createNote(t *testing.T, actor *models.User, title, content string) noteBody {
	t.Helper()
	rr := e.do(t, actor, http.MethodPost, "/api/notes", map[string]string{
		"title":   title,
		"content": content,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var resp struct {
		Note noteBody `json:"note"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Note
}

func TestCreateNote(t *testing.T) {
	e := newEnv(t)

	note := e.createNote(t, e.alice, "Test Note 1", "First test note")

	assert.Equal(t, "Test Note 1", note.Title)
	assert.Equal(t, "First test note", note.Content)
	assert.Equal(t, e.alice.ID, note.AuthorID)
	assert.Equal(t, "Test Note 1 First test note", note.SearchText)
	assert.Empty(t, note.SharedWith)
}

func TestCreateWithUnresolvedActor(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, nil, http.MethodPost, "/api/notes", map[string]string{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestGetVisibility(t *testing.T) {
	e := newEnv(t)
	note := e.createNote(t, e.alice, "Secret", "only mine")

	rr := e.do(t, e.alice, http.MethodGet, "/api/notes/"+note.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Not shared yet: bob sees the same 404 as for a missing note.
	rr = e.do(t, e.bob, http.MethodGet, "/api/notes/"+note.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(t, e.alice, http.MethodGet, "/api/notes/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// A structurally invalid id is a store failure, not a clean 404.
	rr = e.do(t, e.alice, http.MethodGet, "/api/notes/not-a-uuid", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = e.do(t, nil, http.MethodGet, "/api/notes/"+note.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateOnlyProvidedFields(t *testing.T) {
	e := newEnv(t)
	note := e.createNote(t, e.alice, "Test Note 1", "First test note")

	rr := e.do(t, e.alice, http.MethodPut, "/api/notes/"+note.ID.String(), map[string]string{
		"title": "Updated Title",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Note noteBody `json:"note"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Updated Title", resp.Note.Title)
	assert.Equal(t, "First test note", resp.Note.Content)
	assert.Equal(t, "Updated Title First test note", resp.Note.SearchText)
}

func TestUpdateEmptyStringKeepsPriorValue(t *testing.T) {
	e := newEnv(t)
	note := e.createNote(t, e.alice, "Keep Me", "and me")

	rr := e.do(t, e.alice, http.MethodPut, "/api/notes/"+note.ID.String(), map[string]string{
		"title":   "",
		"content": "new content",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Note noteBody `json:"note"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Keep Me", resp.Note.Title)
	assert.Equal(t, "new content", resp.Note.Content)
}

func TestUpdateByNonAuthor(t *testing.T) {
	e := newEnv(t)
	note := e.createNote(t, e.alice, "Mine", "alone")

	rr := e.do(t, e.bob, http.MethodPut, "/api/notes/"+note.ID.String(), map[string]string{
		"title": "hijack",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Being shared the note grants read, not write.
	shareNote(t, e, note.ID, e.bob.ID)
	rr = e.do(t, e.bob, http.MethodPut, "/api/notes/"+note.ID.String(), map[string]string{
		"title": "hijack",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteNote(t *testing.T) {
	e := newEnv(t)
	note := e.createNote(t, e.alice, "Doomed", "soon gone")

	rr := e.do(t, e.bob, http.MethodDelete, "/api/notes/"+note.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(t, e.alice, http.MethodDelete, "/api/notes/"+note.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, e.alice, http.MethodGet, "/api/notes/"+note.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func shareNote(t *testing.T, e *env, noteID, targetID uuid.UUID) {
	t.Helper()
	rr := e.do(t, e.alice, http.MethodPost, "/api/notes/"+noteID.String()+"/share", map[string]string{
		"id": targetID.String(),
	})
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestShare(t *testing.T) {
	e := newEnv(t)
	note := e.createNote(t, e.alice, "Shared", "with bob")

	shareNote(t, e, note.ID, e.bob.ID)

	// Bob can now read the note, content unchanged.
	rr := e.do(t, e.bob, http.MethodGet, "/api/notes/"+note.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Note noteBody `json:"note"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "with bob", resp.Note.Content)
	assert.Equal(t, []uuid.UUID{e.bob.ID}, resp.Note.SharedWith)

	// Re-sharing with the same user fails; the set does not grow.
	rr = e.do(t, e.alice, http.MethodPost, "/api/notes/"+note.ID.String()+"/share", map[string]string{
		"id": e.bob.ID.String(),
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, e.alice, http.MethodGet, "/api/notes/"+note.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Note.SharedWith, 1)
}

func TestShareFailureModes(t *testing.T) {
	e := newEnv(t)
	note := e.createNote(t, e.alice, "Shared", "with bob")

	// Non-author sharing is indistinguishable from a missing note.
	rr := e.do(t, e.bob, http.MethodPost, "/api/notes/"+note.ID.String()+"/share", map[string]string{
		"id": e.bob.ID.String(),
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(t, e.alice, http.MethodPost, "/api/notes/"+note.ID.String()+"/share", map[string]string{
		"id": uuid.NewString(),
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(t, e.alice, http.MethodPost, "/api/notes/"+note.ID.String()+"/share", map[string]string{
		"id": "not-a-uuid",
	})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = e.do(t, e.alice, http.MethodPost, "/api/notes/"+note.ID.String()+"/share", map[string]string{
		"id": e.alice.ID.String(),
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestList(t *testing.T) {
	e := newEnv(t)

	mine := e.createNote(t, e.alice, "Mine", "one")
	theirs := e.createNote(t, e.bob, "Theirs", "two")

	rr := e.do(t, e.bob, http.MethodPost, "/api/notes/"+theirs.ID.String()+"/share", map[string]string{
		"id": e.alice.ID.String(),
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, e.alice, http.MethodGet, "/api/notes", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Created       []noteBody `json:"created"`
		SharedWithYou []noteBody `json:"sharedWithYou"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Created, 1)
	require.Len(t, resp.SharedWithYou, 1)
	assert.Equal(t, mine.ID, resp.Created[0].ID)
	assert.Equal(t, theirs.ID, resp.SharedWithYou[0].ID)
}

func TestListWithUnresolvedActor(t *testing.T) {
	e := newEnv(t)
	e.createNote(t, e.alice, "Mine", "one")

	rr := e.do(t, nil, http.MethodGet, "/api/notes", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Created       []noteBody `json:"created"`
		SharedWithYou []noteBody `json:"sharedWithYou"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Empty(t, resp.Created)
	assert.Empty(t, resp.SharedWithYou)
}

func TestSearch(t *testing.T) {
	e := newEnv(t)
	note := e.createNote(t, e.alice, "Test Note 1", "First test note")
	e.createNote(t, e.bob, "Bob note", "first draft")

	rr := e.do(t, e.alice, http.MethodGet, "/api/notes/search?q=first", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Results []noteBody `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	// Bob's matching note stays invisible: search is scoped to the actor.
	require.Len(t, resp.Results, 1)
	assert.Equal(t, note.ID, resp.Results[0].ID)
}

func TestSearchNoMatchIsSuccess(t *testing.T) {
	e := newEnv(t)
	e.createNote(t, e.alice, "Test Note 1", "First test note")

	rr := e.do(t, e.alice, http.MethodGet, "/api/notes/search?q=random-query", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Results []noteBody `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestSearchMissingQuery(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, e.alice, http.MethodGet, "/api/notes/search", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Query Parameter 'q' is required.", resp.Error)
}

func TestSearchIncludesSharedNotes(t *testing.T) {
	e := newEnv(t)
	note := e.createNote(t, e.alice, "Roadmap", "quarterly planning")
	shareNote(t, e, note.ID, e.bob.ID)

	rr := e.do(t, e.bob, http.MethodGet, "/api/notes/search?q=quarterly", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Results []noteBody `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, note.ID, resp.Results[0].ID)
}

func TestStoreFailureSurfacesAsInternalError(t *testing.T) {
	e := newEnv(t)
	e.st.FailNext = errors.New("connection reset")

	rr := e.do(t, e.alice, http.MethodGet, "/api/notes", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
