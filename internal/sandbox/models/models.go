// ABOUTME: Sandbox request bodies and stored records
// ABOUTME: Responses reuse the client's wire types so both sides share one contract

package models

import (
	"time"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/session"
)

// Wire types served by the sandbox.
type (
	User        = client.User
	Patient     = client.Patient
	Record      = client.Record
	Appointment = client.Appointment
	PersonRef   = client.PersonRef
)

// Request bodies validated on the way in.
type (
	LoginRequest          = client.Credentials
	ChangePasswordRequest = client.PasswordChange
	CreateUserRequest     = client.NewUser
	UpdateUserRequest     = client.UserUpdate
	CreatePatientRequest  = client.NewPatient
	UpdatePatientRequest  = client.PatientUpdate
	CreateRecordRequest   = client.NewRecord
	CreateApptRequest     = client.NewAppointment
	UpdateApptRequest     = client.AppointmentUpdate
)

// RoleRequest is the body of PATCH /users/:id/role.
type RoleRequest struct {
	Role session.Role `json:"role" validate:"required,oneof=admin doctor reception"`
}

// StatusRequest is the body of PATCH /users/:id/status.
type StatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// ApptStatusRequest is the body of PATCH /appointments/:id/status.
type ApptStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled confirmed completed cancelled no-show"`
}

// AuthResponse is returned by login and refresh.
type AuthResponse = client.AuthResponse

// Account is a stored staff user with its password hash.
type Account struct {
	User
	PasswordHash []byte
}

// Identity is the session view of an account.
func (a *Account) Identity() session.Identity {
	return session.Identity{
		ID:                 a.ID,
		Email:              a.Email,
		Role:               a.Role,
		MustChangePassword: a.MustChangePassword,
	}
}

// RefreshSession is the server side of a refresh cookie.
type RefreshSession struct {
	UserID    string
	CreatedAt time.Time
}

// Page is the list envelope.
type Page[T any] struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Items  []T `json:"items"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    any    `json:"message"`
	Error      string `json:"error"`
}

// RefreshCookieName is the httpOnly cookie carrying the refresh token.
const RefreshCookieName = "clinic_refresh"
