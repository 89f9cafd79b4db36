package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Difficulty is the preparation difficulty of a recipe, stored by its display value.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Fácil"
	DifficultyMedium Difficulty = "Médio"
	DifficultyHard   Difficulty = "Difícil"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// GormDBDataType stores the array as jsonb on Postgres and as text elsewhere
func (JSONBStringArray) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("%w: unsupported array column type %T", ErrMalformedRow, value)
	}

	var out []string
	if err := json.Unmarshal(bytes, &out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	if out == nil {
		out = []string{}
	}
	*a = out
	return nil
}

// RecipeOwner is the owner projection embedded in recipe reads.
type RecipeOwner struct {
	UserID    string  `gorm:"column:user_id" json:"-"`
	Name      string  `gorm:"column:name" json:"name"`
	AvatarURL *string `gorm:"column:avatar_url" json:"avatar_url"`
}

func (RecipeOwner) TableName() string {
	return "profiles"
}

// Recipe is a persisted recipe row.
type Recipe struct {
	ID           string           `gorm:"primaryKey;size:36" json:"id"`
	Title        string           `gorm:"not null" json:"title"`
	Description  string           `gorm:"type:text;not null" json:"description"`
	Ingredients  JSONBStringArray `gorm:"not null;default:'[]'" json:"ingredients"`
	Instructions JSONBStringArray `gorm:"not null;default:'[]'" json:"instructions"`
	ImageURL     *string          `gorm:"column:image_url" json:"image_url,omitempty"`
	UserID       string           `gorm:"size:36;not null;index" json:"user_id"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	PrepTime     int              `gorm:"not null;default:0" json:"prep_time"`
	CookTime     int              `gorm:"not null;default:0" json:"cook_time"`
	Servings     int              `gorm:"not null;default:1" json:"servings"`
	Difficulty   Difficulty       `gorm:"size:16;not null" json:"difficulty"`
	Category     string           `gorm:"not null" json:"category"`

	Owner *RecipeOwner `gorm:"foreignKey:UserID;references:UserID" json:"profiles,omitempty"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// BeforeCreate assigns an identifier when the caller did not.
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Validate checks a fetched row against the recipe schema.
func (r *Recipe) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: recipe without id", ErrMalformedRow)
	case r.UserID == "":
		return fmt.Errorf("%w: recipe %s without owner", ErrMalformedRow, r.ID)
	case !r.Difficulty.Valid():
		return fmt.Errorf("%w: recipe %s has unknown difficulty %q", ErrMalformedRow, r.ID, r.Difficulty)
	case r.PrepTime < 0 || r.CookTime < 0:
		return fmt.Errorf("%w: recipe %s has negative times", ErrMalformedRow, r.ID)
	case r.Servings < 1:
		return fmt.Errorf("%w: recipe %s has %d servings", ErrMalformedRow, r.ID, r.Servings)
	case r.Ingredients == nil || r.Instructions == nil:
		return fmt.Errorf("%w: recipe %s has null ingredients or instructions", ErrMalformedRow, r.ID)
	}
	return nil
}

// RecipeDraft carries the user-supplied fields of a new recipe.
type RecipeDraft struct {
	Title        string
	Description  string
	Ingredients  []string
	Instructions []string
	ImageURL     *string
	UserID       string
	PrepTime     int
	CookTime     int
	Servings     int
	Difficulty   Difficulty
	Category     string
}

// Recipe converts the draft into an unsaved row.
func (d RecipeDraft) Recipe() *Recipe {
	ingredients := JSONBStringArray(d.Ingredients)
	if ingredients == nil {
		ingredients = JSONBStringArray{}
	}
	instructions := JSONBStringArray(d.Instructions)
	if instructions == nil {
		instructions = JSONBStringArray{}
	}
	return &Recipe{
		Title:        d.Title,
		Description:  d.Description,
		Ingredients:  ingredients,
		Instructions: instructions,
		ImageURL:     d.ImageURL,
		UserID:       d.UserID,
		PrepTime:     d.PrepTime,
		CookTime:     d.CookTime,
		Servings:     d.Servings,
		Difficulty:   d.Difficulty,
		Category:     d.Category,
	}
}

// RecipeUpdate is a partial update; nil fields are left untouched.
type RecipeUpdate struct {
	Title        *string
	Description  *string
	Ingredients  []string
	Instructions []string
	ImageURL     *string
	PrepTime     *int
	CookTime     *int
	Servings     *int
	Difficulty   *Difficulty
	Category     *string
}

// Columns returns the column assignments for the set fields.
func (u RecipeUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Title != nil {
		cols["title"] = *u.Title
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.Ingredients != nil {
		cols["ingredients"] = JSONBStringArray(u.Ingredients)
	}
	if u.Instructions != nil {
		cols["instructions"] = JSONBStringArray(u.Instructions)
	}
	if u.ImageURL != nil {
		if *u.ImageURL == "" {
			cols["image_url"] = nil
		} else {
			cols["image_url"] = *u.ImageURL
		}
	}
	if u.PrepTime != nil {
		cols["prep_time"] = *u.PrepTime
	}
	if u.CookTime != nil {
		cols["cook_time"] = *u.CookTime
	}
	if u.Servings != nil {
		cols["servings"] = *u.Servings
	}
	if u.Difficulty != nil {
		cols["difficulty"] = *u.Difficulty
	}
	if u.Category != nil {
		cols["category"] = *u.Category
	}
	return cols
}
