package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserType distinguishes ordinary users from administrators.
type UserType string

const (
	UserTypeOrdinary UserType = "comum"
	UserTypeAdmin    UserType = "admin"
)

// Valid reports whether t is a known user type.
func (t UserType) Valid() bool {
	return t == UserTypeOrdinary || t == UserTypeAdmin
}

// Profile is the public profile attached one-to-one to an auth identity.
type Profile struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null" json:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Bio       *string   `gorm:"type:text" json:"bio,omitempty"`
	UserType  UserType  `gorm:"size:16;not null;default:'comum'" json:"user_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// BeforeCreate assigns an identifier when the caller did not.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Validate checks a fetched row against the profile schema.
func (p *Profile) Validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: profile without id", ErrMalformedRow)
	case p.UserID == "":
		return fmt.Errorf("%w: profile %s without user", ErrMalformedRow, p.ID)
	case !p.UserType.Valid():
		return fmt.Errorf("%w: profile %s has unknown user type %q", ErrMalformedRow, p.ID, p.UserType)
	}
	return nil
}

// ProfileUpdate is a partial profile update. Email mirrors the auth identity
// and cannot be changed here.
type ProfileUpdate struct {
	Name      *string   `json:"name,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	UserType  *UserType `json:"user_type,omitempty"`
}

// Columns returns the column assignments for the set fields.
func (u ProfileUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.AvatarURL != nil {
		cols["avatar_url"] = *u.AvatarURL
	}
	if u.Bio != nil {
		cols["bio"] = *u.Bio
	}
	if u.UserType != nil {
		cols["user_type"] = *u.UserType
	}
	return cols
}
