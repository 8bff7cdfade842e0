package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Note struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorID   uuid.UUID `json:"author" gorm:"type:uuid;index;not null"`
	SearchText string    `json:"searchText"`
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	Shares     []NoteShare `json:"-" gorm:"foreignKey:NoteID;constraint:OnDelete:CASCADE"`
	SharedWith []uuid.UUID `json:"sharedWith" gorm:"-"`
}

// RecomputeSearchText derives the indexed text from the current title and
// content. It must run before every persist so the index is never stale.
func (n *Note) RecomputeSearchText() {
	n.SearchText = n.Title + " " + n.Content
}

func (n *Note) BeforeSave(tx *gorm.DB) error {
	n.RecomputeSearchText()
	return nil
}

// SyncSharedWith flattens the preloaded share rows into the serialized
// shared-with set.
func (n *Note) SyncSharedWith() {
	n.SharedWith = make([]uuid.UUID, 0, len(n.Shares))
	for _, s := range n.Shares {
		n.SharedWith = append(n.SharedWith, s.UserID)
	}
}
