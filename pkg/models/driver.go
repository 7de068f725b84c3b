package models

import (
	"fmt"
	"time"
)

// Driver is a user account extended with a license number.
type Driver struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	PasswordHash  string     `json:"-"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	LicenseNumber string     `json:"license_number"`
	IsStaff       bool       `json:"is_staff"`
	IsSuperuser   bool       `json:"is_superuser"`
	IsActive      bool       `json:"is_active"`
	DateJoined    time.Time  `json:"date_joined"`
	LastLogin     *time.Time `json:"last_login"`

	// SessionVersion is bumped on logout; tokens carrying an older value are refused.
	SessionVersion int `json:"-"`

	Cars []*Car `json:"cars,omitempty"`
}

func (d Driver) String() string {
	return fmt.Sprintf("%s (%s %s)", d.Username, d.FirstName, d.LastName)
}

// Identity is the principal a session for d is issued to.
func (d Driver) Identity() Identity {
	return Identity{DriverID: d.ID, Username: d.Username, IsStaff: d.IsStaff, Version: d.SessionVersion}
}

// Identity is the authenticated principal of a request.
type Identity struct {
	DriverID int64
	Username string
	IsStaff  bool
	Version  int
}
