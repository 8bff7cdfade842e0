// Package storetest provides an in-memory store.Store used by handler and
// middleware tests. It mirrors the Postgres implementation's observable
// behavior, including the structurally-invalid-id failure mode.
package storetest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/notevault/notevault/internal/models"
	"github.com/notevault/notevault/internal/store"
)

// ErrInvalidID stands in for the driver error Postgres raises on a value
// that does not parse as a uuid. It is deliberately not store.ErrNotFound.
var ErrInvalidID = errors.New("storetest: malformed identifier")

type MemStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]models.User
	notes  map[uuid.UUID]models.Note
	shares map[uuid.UUID][]uuid.UUID

	// FailNext, when set, makes the next store call return the given error.
	// Lets tests exercise the internal-error paths.
	FailNext error
}

var _ store.Store = (*MemStore)(nil)

func New() *MemStore {
	return &MemStore{
		users:  make(map[uuid.UUID]models.User),
		notes:  make(map[uuid.UUID]models.Note),
		shares: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *MemStore) failure() error {
	if err := m.FailNext; err != nil {
		m.FailNext = nil
		return err
	}
	return nil
}

func (m *MemStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return err
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = *user
	return nil
}

func (m *MemStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemStore) UserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	u, ok := m.users[uid]
	if !ok {
		return nil, store.ErrNotFound
	}
	user := u
	return &user, nil
}

func (m *MemStore) CreateNote(ctx context.Context, note *models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return err
	}
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	note.RecomputeSearchText()
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt
	note.SharedWith = []uuid.UUID{}
	m.notes[note.ID] = *note
	return nil
}

func (m *MemStore) NotesByAuthor(ctx context.Context, author uuid.UUID) ([]models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return nil, err
	}
	var out []models.Note
	for _, n := range m.notes {
		if n.AuthorID == author {
			out = append(out, m.withShares(n))
		}
	}
	sortByCreation(out)
	return out, nil
}

func (m *MemStore) NotesSharedWith(ctx context.Context, user uuid.UUID) ([]models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return nil, err
	}
	var out []models.Note
	for id, n := range m.notes {
		if contains(m.shares[id], user) {
			out = append(out, m.withShares(n))
		}
	}
	sortByCreation(out)
	return out, nil
}

func (m *MemStore) VisibleNote(ctx context.Context, id string, actor uuid.UUID) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return nil, err
	}
	nid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	n, ok := m.notes[nid]
	if !ok || (n.AuthorID != actor && !contains(m.shares[nid], actor)) {
		return nil, store.ErrNotFound
	}
	note := m.withShares(n)
	return &note, nil
}

func (m *MemStore) OwnedNote(ctx context.Context, id string, actor uuid.UUID) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return nil, err
	}
	nid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	n, ok := m.notes[nid]
	if !ok || n.AuthorID != actor {
		return nil, store.ErrNotFound
	}
	note := m.withShares(n)
	return &note, nil
}

func (m *MemStore) SaveNote(ctx context.Context, note *models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return err
	}
	note.RecomputeSearchText()
	note.UpdatedAt = time.Now()
	m.notes[note.ID] = *note
	return nil
}

func (m *MemStore) DeleteOwnedNote(ctx context.Context, id string, actor uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return err
	}
	nid, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidID
	}
	n, ok := m.notes[nid]
	if !ok || n.AuthorID != actor {
		return store.ErrNotFound
	}
	delete(m.notes, nid)
	delete(m.shares, nid)
	return nil
}

func (m *MemStore) ShareNote(ctx context.Context, noteID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return err
	}
	if contains(m.shares[noteID], userID) {
		return store.ErrAlreadyShared
	}
	m.shares[noteID] = append(m.shares[noteID], userID)
	return nil
}

func (m *MemStore) SearchNotes(ctx context.Context, query string, actor uuid.UUID) ([]models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return nil, err
	}
	terms := strings.Fields(strings.ToLower(query))
	var out []models.Note
	for id, n := range m.notes {
		if n.AuthorID != actor && !contains(m.shares[id], actor) {
			continue
		}
		haystack := strings.ToLower(n.SearchText)
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				out = append(out, m.withShares(n))
				break
			}
		}
	}
	sortByCreation(out)
	return out, nil
}

func (m *MemStore) withShares(n models.Note) models.Note {
	shared := m.shares[n.ID]
	n.SharedWith = append([]uuid.UUID{}, shared...)
	return n
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func sortByCreation(notes []models.Note) {
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.Before(notes[j].CreatedAt)
	})
}
