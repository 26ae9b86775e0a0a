package types

import "time"

// Roles recognised by the system. A user holds exactly one.
const (
	RoleGuest                = "guest"
	RoleStudent              = "student"
	RoleMarketingCoordinator = "marketing_coordinator"
	RoleMarketingManager     = "marketing_manager"
	RoleAdmin                = "admin"
)

// Account statuses. Inactive accounts are rejected at authentication.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User represents an account in the system.
// It contains identity, role, and login audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"id" db:"id"`

	// Email is the user's email address; unique across the system.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Role is one of the role constants above.
	Role string `json:"role" db:"role"`

	// FacultyID links the user to a faculty. Empty for cross-faculty
	// roles such as marketing_manager and admin.
	FacultyID string `json:"faculty_id,omitempty" db:"faculty_id"`

	// FacultyName is the joined faculty name where a listing includes it.
	FacultyName string `json:"faculty_name,omitempty" db:"faculty_name"`

	// Status is active or inactive.
	Status string `json:"status" db:"status"`

	// LastLogin is the timestamp of the most recent successful login.
	LastLogin *time.Time `json:"last_login,omitempty" db:"last_login"`

	// TotalLogins counts successful logins over the account's lifetime.
	TotalLogins int `json:"total_logins" db:"total_logins"`

	// Browser is the browser tag reported at the last login
	// (chrome, firefox, safari, brave, opera, other).
	Browser string `json:"browser,omitempty" db:"browser"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// Never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BrowserUsage is one row of the admin browser-usage report.
type BrowserUsage struct {
	Browser string `json:"browser"`
	Count   int    `json:"count"`
}
