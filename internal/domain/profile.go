package domain

import "time"

const (
	UserTypeFarmer   = "farmer"
	UserTypeAgent    = "agent"
	UserTypeSupplier = "supplier"
	UserTypeAdmin    = "admin"
)

// Profile es la identidad visible de un usuario dentro del marketplace.
type Profile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	FullName    string    `json:"full_name"`
	UserType    string    `json:"user_type"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Location    string    `json:"location,omitempty"`
	IsVerified  bool      `json:"is_verified"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidUserType indica si el rol pertenece al vocabulario soportado.
func ValidUserType(t string) bool {
	switch t {
	case UserTypeFarmer, UserTypeAgent, UserTypeSupplier, UserTypeAdmin:
		return true
	}
	return false
}
