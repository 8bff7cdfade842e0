package models

import (
	"time"

	"github.com/google/uuid"
)

// NoteShare grants one user read access to one note. The composite primary
// key makes a duplicate grant a conflict at the store layer, which keeps the
// share append idempotent under concurrent requests.
type NoteShare struct {
	NoteID    uuid.UUID `json:"noteId" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}
