package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/notevault/notevault/internal/models"
)

var (
	// ErrNotFound covers both "does not exist" and "not visible to the
	// caller" — the two are intentionally indistinguishable.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyShared is returned when a share grant already exists.
	ErrAlreadyShared = errors.New("note already shared with this user")
)

// UserStore resolves and persists user records.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	// UserByID takes the raw identifier string; a structurally invalid id
	// surfaces as a store error, not ErrNotFound.
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// NoteStore persists notes and enforces ownership as query predicates, so a
// note that exists but is not owned by (or visible to) the actor behaves
// exactly like a note that does not exist.
type NoteStore interface {
	CreateNote(ctx context.Context, note *models.Note) error
	NotesByAuthor(ctx context.Context, author uuid.UUID) ([]models.Note, error)
	NotesSharedWith(ctx context.Context, user uuid.UUID) ([]models.Note, error)
	// VisibleNote resolves a note the actor authored or was shared.
	VisibleNote(ctx context.Context, id string, actor uuid.UUID) (*models.Note, error)
	// OwnedNote resolves a note only if the actor is its author.
	OwnedNote(ctx context.Context, id string, actor uuid.UUID) (*models.Note, error)
	SaveNote(ctx context.Context, note *models.Note) error
	DeleteOwnedNote(ctx context.Context, id string, actor uuid.UUID) error
	// ShareNote appends the grant if absent, atomically. Returns
	// ErrAlreadyShared when the grant was already present.
	ShareNote(ctx context.Context, noteID, userID uuid.UUID) error
	// SearchNotes runs a ranked text-index query over searchText, scoped to
	// notes visible to the actor.
	SearchNotes(ctx context.Context, query string, actor uuid.UUID) ([]models.Note, error)
}

// Store is the full persistence surface handed to the API layer.
type Store interface {
	UserStore
	NoteStore
}
