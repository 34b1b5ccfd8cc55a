package models

import "time"

// User represents a registered student freelancer
type User struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	PasswordHash      string    `json:"-"` // Not serialized
	ProfilePicture    *string   `json:"profile_picture"`
	Skills            *string   `json:"skills"`
	Bio               *string   `json:"bio"`
	HourlyRate        *float64  `json:"hourly_rate"`
	IsVerified        bool      `json:"is_verified"`
	VerificationToken *string   `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UserResponse is the public projection of a User. ProfilePicture holds the
// externally servable URL rather than the stored filename.
type UserResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	ProfilePicture *string   `json:"profile_picture"`
	Skills         *string   `json:"skills"`
	Bio            *string   `json:"bio"`
	HourlyRate     *float64  `json:"hourly_rate"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Pagination describes one page of a user listing.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalUsers  int64 `json:"total_users"`
	Limit       int   `json:"limit"`
}

// UserListResponse bundles a page of users with its pagination metadata.
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination Pagination     `json:"pagination"`
}
