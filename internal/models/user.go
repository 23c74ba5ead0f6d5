// internal/models/user.go
package models

import "time"

const (
	RoleUser    = "user"
	RoleCreator = "creator"
)

// ValidRole reports whether role is one of the two account roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleCreator
}

type User struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Role                string     `json:"role"`
	Image               *string    `json:"image"`
	EmailVerified       bool       `json:"emailVerified"`
	ResetTokenHash      *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// UserProfile is the public shape of a user returned by the API.
type UserProfile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Image         *string   `json:"image"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		Image:         u.Image,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=user creator"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetRequest struct {
	Email      string `json:"email" validate:"required,email"`
	RedirectTo string `json:"redirectTo"`
}

type ResetPassword struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// UpdateProfileRequest is the body of PUT /user/profile. At most one image
// source is applied; imageFile wins over image.
type UpdateProfileRequest struct {
	Name      OptionalString `json:"name"`
	Image     OptionalString `json:"image"`
	ImageFile OptionalString `json:"imageFile"`
}

// ProfileUpdate holds the validated changes to persist. A nil Name leaves the
// name unchanged; the image column is only written when ImageSet is true.
type ProfileUpdate struct {
	Name      *string `validate:"omitnil,min=1"`
	ImageFile *string `validate:"omitnil,startswith=data:image/,imagesize"`
	ImageURL  *string
	ImageSet  bool
}

// NewImage returns the image value to store, nil meaning NULL.
func (p ProfileUpdate) NewImage() *string {
	if p.ImageFile != nil {
		return p.ImageFile
	}
	return p.ImageURL
}

type SwitchRoleRequest struct {
	Role OptionalString `json:"role"`
}

type RoleChangeResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    UserProfile `json:"user"`
}
