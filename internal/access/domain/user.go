package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User is an account together with its role document
type User struct {
	ID          string         `json:"id" gorm:"type:uuid;primaryKey"`
	Email       string         `json:"email" gorm:"uniqueIndex;not null"`
	Password    string         `json:"-" gorm:"not null"` // Never expose password in JSON
	Role        string         `json:"role" gorm:"not null;index"`
	Permissions pq.StringArray `json:"permissions" gorm:"type:text[]"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns the user ID when the caller did not
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// RoleValue builds the user's role. A stored permission list makes it a
// PermissionedRole; an empty one a SimpleRole.
func (u *User) RoleValue() Role {
	if len(u.Permissions) == 0 {
		return SimpleRole{Name: u.Role}
	}
	perms := make([]Permission, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		perms = append(perms, Permission(p))
	}
	return PermissionedRole{Name: u.Role, Permissions: perms}
}

// PermissionStrings converts permissions for storage
func PermissionStrings(perms []Permission) pq.StringArray {
	out := make(pq.StringArray, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}

// UserRepository defines the contract for user data access
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByRole(ctx context.Context, role string) ([]User, error)
	DeleteByEmail(ctx context.Context, email string) (*User, error)
}

// RoleSource fetches an actor's role document
type RoleSource interface {
	RoleOf(ctx context.Context, actorID string) (Role, error)
}
