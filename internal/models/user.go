package models

import "time"

type User struct {
	ID          string    `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	DisplayName string    `json:"displayName" db:"display_name"`
	AvatarURL   *string   `json:"avatarUrl" db:"avatar_url"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

type CreateUserRequest struct {
	Username    string  `json:"username" binding:"required,min=3,max=50,usernamefmt"`
	DisplayName string  `json:"displayName" binding:"required,min=1,max=100"`
	AvatarURL   *string `json:"avatarUrl" binding:"omitempty,avatarhost"`
	IsActive    *bool   `json:"isActive"`
}

type UpdateUserRequest struct {
	Username    *string `json:"username" binding:"omitempty,min=3,max=50,usernamefmt"`
	DisplayName *string `json:"displayName" binding:"omitempty,min=1,max=100"`
	AvatarURL   *string `json:"avatarUrl" binding:"omitempty,avatarhost"`
	IsActive    *bool   `json:"isActive"`
}

// UserFilter holds the optional criteria a user listing can be narrowed by.
// Fields left nil are not applied.
type UserFilter struct {
	Search   *string
	IsActive *bool
}

type UserUpdate struct {
	Username    *string
	DisplayName *string
	AvatarURL   *string
	IsActive    *bool
}
