package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/notevault/notevault/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// visibleExpr matches notes the actor authored or was granted access to.
const visibleExpr = "author_id = ? OR EXISTS (SELECT 1 FROM note_shares WHERE note_shares.note_id = notes.id AND note_shares.user_id = ?)"

// textMatchExpr is the text-index predicate over the derived search text.
const textMatchExpr = "to_tsvector('english', search_text) @@ plainto_tsquery('english', ?)"

// GormStore implements Store on top of Postgres via gorm.
type GormStore struct {
	db *gorm.DB
}

// Open connects to Postgres, runs migrations and ensures the full-text index
// over search_text exists.
func Open(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Note{},
		&models.NoteShare{},
	); err != nil {
		return nil, err
	}

	err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_notes_search_text
		ON notes USING gin (to_tsvector('english', search_text))`).Error
	if err != nil {
		return nil, err
	}

	return &GormStore{db: db}, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *GormStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

func (s *GormStore) UserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

func (s *GormStore) CreateNote(ctx context.Context, note *models.Note) error {
	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return err
	}
	note.SyncSharedWith()
	return nil
}

func (s *GormStore) NotesByAuthor(ctx context.Context, author uuid.UUID) ([]models.Note, error) {
	var notes []models.Note
	err := s.db.WithContext(ctx).
		Preload("Shares").
		Where("author_id = ?", author).
		Order("created_at").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	syncAll(notes)
	return notes, nil
}

func (s *GormStore) NotesSharedWith(ctx context.Context, user uuid.UUID) ([]models.Note, error) {
	var notes []models.Note
	err := s.db.WithContext(ctx).
		Preload("Shares").
		Joins("JOIN note_shares ns ON ns.note_id = notes.id").
		Where("ns.user_id = ?", user).
		Order("notes.created_at").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	syncAll(notes)
	return notes, nil
}

func (s *GormStore) VisibleNote(ctx context.Context, id string, actor uuid.UUID) (*models.Note, error) {
	var note models.Note
	err := s.db.WithContext(ctx).
		Preload("Shares").
		Where("notes.id = ?", id).
		Where(visibleExpr, actor, actor).
		First(&note).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	note.SyncSharedWith()
	return &note, nil
}

func (s *GormStore) OwnedNote(ctx context.Context, id string, actor uuid.UUID) (*models.Note, error) {
	var note models.Note
	err := s.db.WithContext(ctx).
		Preload("Shares").
		Where("notes.id = ? AND author_id = ?", id, actor).
		First(&note).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	note.SyncSharedWith()
	return &note, nil
}

func (s *GormStore) SaveNote(ctx context.Context, note *models.Note) error {
	err := s.db.WithContext(ctx).
		Omit("Shares").
		Save(note).Error
	if err != nil {
		return err
	}
	note.SyncSharedWith()
	return nil
}

func (s *GormStore) DeleteOwnedNote(ctx context.Context, id string, actor uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", id, actor).
		Delete(&models.Note{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ShareNote(ctx context.Context, noteID, userID uuid.UUID) error {
	// Append-if-absent in a single statement; the composite primary key on
	// note_shares turns a duplicate grant into a no-op conflict.
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.NoteShare{NoteID: noteID, UserID: userID})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyShared
	}
	return nil
}

func (s *GormStore) SearchNotes(ctx context.Context, query string, actor uuid.UUID) ([]models.Note, error) {
	var notes []models.Note
	err := s.db.WithContext(ctx).
		Preload("Shares").
		Where(textMatchExpr, query).
		Where(visibleExpr, actor, actor).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:  "ts_rank(to_tsvector('english', search_text), plainto_tsquery('english', ?)) DESC",
			Vars: []interface{}{query},
		}}).
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	syncAll(notes)
	return notes, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func syncAll(notes []models.Note) {
	for i := range notes {
		notes[i].SyncSharedWith()
	}
}
