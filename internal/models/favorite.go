package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Favorite links a user to a recipe they favorited. At most one row exists
// per (user, recipe) pair.
type Favorite struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_favorites_user_recipe" json:"user_id"`
	RecipeID  string    `gorm:"size:36;not null;uniqueIndex:idx_favorites_user_recipe;index" json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Favorite) TableName() string {
	return "favorites"
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
