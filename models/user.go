package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/kitchen_backend/utils"
)

// User is the customer principal. Rows are owned by the identity provider;
// this service only reads them.
type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"size:150;not null;unique" json:"username"`
	Name      string    `gorm:"size:100" json:"name"`
	Email     *string   `gorm:"size:254" json:"email"`
	IsStaff   bool      `gorm:"not null;default:false" json:"is_staff"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u User) String() string {
	return u.Username
}

func GetUser(ctx context.Context, id int) (*User, error) {
	return GetResource[User](ctx, id)
}

// GetCurrentUser returns the signed-in customer, or nil for guests.
func GetCurrentUser(ctx context.Context) (*User, error) {
	id := utils.CustomerIdFromContext(ctx)
	if id == nil {
		return nil, nil
	}
	return GetUser(ctx, *id)
}
