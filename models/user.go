package models

import (
	"strings"
	"time"
)

type User struct {
	UserID      int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	UserFname   string     `gorm:"column:user_fname" json:"user_fname"`
	UserLname   string     `gorm:"column:user_lname" json:"user_lname"`
	Email       string     `gorm:"column:email;unique" json:"email"`
	Password    string     `gorm:"column:password" json:"-"`
	RoleID      int        `gorm:"column:role_id" json:"role_id"`
	ORCID       *string    `gorm:"column:orcid" json:"orcid,omitempty"`
	Affiliation *string    `gorm:"column:affiliation" json:"affiliation,omitempty"`
	Specialty   *string    `gorm:"column:specialty" json:"specialty,omitempty"`
	Prefix      *string    `gorm:"column:prefix" json:"prefix,omitempty"`
	CreateAt    *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt    *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt    *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

type Role struct {
	RoleID   int        `gorm:"primaryKey;column:role_id" json:"role_id"`
	Role     string     `gorm:"column:role" json:"role"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// Role IDs as seeded. 1 = author, 2 = college fellow, 3 = editorial admin.
const (
	RoleAuthor = 1
	RoleFellow = 2
	RoleAdmin  = 3
)

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (Role) TableName() string {
	return "roles"
}

// DisplayName builds "Prefix First Last" skipping empty parts.
func (u *User) DisplayName() string {
	parts := make([]string, 0, 3)
	if u.Prefix != nil && strings.TrimSpace(*u.Prefix) != "" {
		parts = append(parts, strings.TrimSpace(*u.Prefix))
	}
	if f := strings.TrimSpace(u.UserFname); f != "" {
		parts = append(parts, f)
	}
	if l := strings.TrimSpace(u.UserLname); l != "" {
		parts = append(parts, l)
	}
	return strings.Join(parts, " ")
}

func (u *User) IsFellow() bool {
	return u.RoleID == RoleFellow || u.RoleID == RoleAdmin
}
