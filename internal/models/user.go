package models

import "time"

// UserStatus is the lifecycle state of an account in the users database.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// Role names seeded in the users database.
const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "TEACHER"
	RoleStudent = "STUDENT"
)

// Role is a row of the roles table.
type Role struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// User represents an account stored in the users database. This is the
// authoritative copy; the profiles database only holds a mirrored reference.
type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Phone        string     `db:"phone" json:"phone,omitempty"`
	Age          *int       `db:"age" json:"age,omitempty"`
	Status       UserStatus `db:"status" json:"status"`
	RoleID       string     `db:"role_id" json:"role_id"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserDetail joins the user with its role name.
type UserDetail struct {
	User
	RoleName string `db:"role_name" json:"role_name"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     string
	Status   UserStatus
	Search   string
	Page     int
	PageSize int
}

// LoginRequest is the credentials payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token plus the authenticated user.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        *UserDetail `json:"user"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
