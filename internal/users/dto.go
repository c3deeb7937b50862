package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	"github.com/marcoalvarez/boostgrid-backend/pkg/pagination"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID       `json:"id"`
	Email       string          `json:"email"`
	Username    string          `json:"username"`
	Role        enums.UserRole  `json:"role"`
	Banned      bool            `json:"banned"`
	Balance     decimal.Decimal `json:"balance"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	Username     string
	PasswordHash string
	Role         enums.UserRole
}

// UpdateProfileRequest carries the self-service profile fields a user may
// change. Email and role are fixed after signup.
type UpdateProfileRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
}

// UserFilters narrows the admin user listing.
type UserFilters struct {
	Role   *enums.UserRole
	Banned *bool
	// Query matches username or email, case-insensitively.
	Query string
}

// UserListQuery bundles filters with cursor pagination inputs.
type UserListQuery struct {
	Filters    UserFilters
	Pagination pagination.Params
}

// UserList is one page of users plus the cursor for the next page.
type UserList struct {
	Users      []UserDTO `json:"users"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		Role:        u.Role,
		Banned:      u.Banned,
		Balance:     u.Balance,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.UserRoleUser
	}

	return &models.User{
		Email:        c.Email,
		Username:     c.Username,
		PasswordHash: c.PasswordHash,
		Role:         role,
	}
}
