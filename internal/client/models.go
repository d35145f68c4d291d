// ABOUTME: Request and response types for the clinic backend API
// ABOUTME: Users, patients, medical records, appointments and paged list envelopes

package client

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/markalston/clinic-console/internal/session"
)

// AuthResponse is returned by login and refresh.
type AuthResponse struct {
	AccessToken string           `json:"access_token"`
	User        session.Identity `json:"user"`
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PasswordChange is the change-password request body.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,nefield=CurrentPassword"`
}

// User is a staff account.
type User struct {
	ID                 string       `json:"id" yaml:"id"`
	Email              string       `json:"email" yaml:"email"`
	FirstName          string       `json:"firstName" yaml:"firstName"`
	LastName           string       `json:"lastName" yaml:"lastName"`
	Role               session.Role `json:"role" yaml:"role"`
	IsActive           bool         `json:"isActive" yaml:"isActive"`
	MustChangePassword bool         `json:"mustChangePassword" yaml:"mustChangePassword"`
	CreatedAt          time.Time    `json:"createdAt,omitzero" yaml:"createdAt,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return joinName(u.FirstName, u.LastName)
}

// NewUser is the create-user request body.
type NewUser struct {
	Email             string       `json:"email" validate:"required,email"`
	FirstName         string       `json:"firstName" validate:"required"`
	LastName          string       `json:"lastName" validate:"required"`
	Role              session.Role `json:"role" validate:"required,oneof=admin doctor reception"`
	TemporaryPassword string       `json:"temporaryPassword" validate:"required,min=8"`
}

// UserUpdate is the partial update body for a user.
type UserUpdate struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

// Gender values accepted for patients.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderChild  = "child"
)

// Patient is a clinic patient.
type Patient struct {
	ID        string    `json:"id" yaml:"id"`
	Email     string    `json:"email,omitempty" yaml:"email,omitempty"`
	FirstName string    `json:"firstName" yaml:"firstName"`
	LastName  string    `json:"lastName" yaml:"lastName"`
	Gender    string    `json:"gender,omitempty" yaml:"gender,omitempty"`
	Phone     string    `json:"phone,omitempty" yaml:"phone,omitempty"`
	Notes     string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero" yaml:"createdAt,omitempty"`
}

// FullName joins first and last name.
func (p Patient) FullName() string {
	return joinName(p.FirstName, p.LastName)
}

// NewPatient is the create-patient request body.
type NewPatient struct {
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Gender    string `json:"gender,omitempty" validate:"omitempty,oneof=male female child"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Notes     string `json:"notes,omitempty"`
}

// PatientUpdate is the partial update body for a patient.
type PatientUpdate struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Gender    *string `json:"gender,omitempty" validate:"omitempty,oneof=male female child"`
	Phone     *string `json:"phone,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// Record types accepted for medical records.
const (
	RecordDiagnosis = "diagnosis"
	RecordTreatment = "treatment"
	RecordNote      = "note"
)

// Record is a medical record attached to a patient.
type Record struct {
	ID           string    `json:"id" yaml:"id"`
	PatientID    string    `json:"patientId" yaml:"patientId"`
	DoctorID     string    `json:"doctorId,omitempty" yaml:"doctorId,omitempty"`
	Type         string    `json:"type" yaml:"type"`
	Description  string    `json:"description,omitempty" yaml:"description,omitempty"`
	Prescription string    `json:"prescription,omitempty" yaml:"prescription,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitzero" yaml:"createdAt,omitempty"`
}

// NewRecord is the create-record request body.
type NewRecord struct {
	Type         string `json:"type" validate:"required,oneof=diagnosis treatment note"`
	Description  string `json:"description,omitempty"`
	Prescription string `json:"prescription,omitempty"`
}

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

// AppointmentStatuses lists every status in workflow order.
var AppointmentStatuses = []string{StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow}

// Appointment sort orders.
const (
	SortStartAsc    = "startAsc"
	SortStartDesc   = "startDesc"
	SortCreatedDesc = "createdDesc"
)

// DefaultPageSize is the page size used when none is given.
const DefaultPageSize = 10

// PersonRef is the embedded summary of a patient or doctor on an appointment.
type PersonRef struct {
	ID        string `json:"id" yaml:"id"`
	FirstName string `json:"firstName" yaml:"firstName"`
	LastName  string `json:"lastName" yaml:"lastName"`
}

// Appointment is a scheduled visit.
type Appointment struct {
	ID        string     `json:"id" yaml:"id"`
	PatientID string     `json:"patientId" yaml:"patientId"`
	DoctorID  string     `json:"doctorId" yaml:"doctorId"`
	StartAt   time.Time  `json:"startAt" yaml:"startAt"`
	EndAt     time.Time  `json:"endAt" yaml:"endAt"`
	Status    string     `json:"status" yaml:"status"`
	Reason    string     `json:"reason,omitempty" yaml:"reason,omitempty"`
	CreatedBy string     `json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt,omitzero" yaml:"createdAt,omitempty"`
	Patient   *PersonRef `json:"patient,omitempty" yaml:"patient,omitempty"`
	Doctor    *PersonRef `json:"doctor,omitempty" yaml:"doctor,omitempty"`
}

// NewAppointment is the create-appointment request body.
type NewAppointment struct {
	PatientID string    `json:"patientId" validate:"required"`
	DoctorID  string    `json:"doctorId" validate:"required"`
	StartAt   time.Time `json:"startAt" validate:"required"`
	EndAt     time.Time `json:"endAt" validate:"required,gtfield=StartAt"`
	Status    string    `json:"status,omitempty" validate:"omitempty,oneof=scheduled confirmed completed cancelled no-show"`
	Reason    string    `json:"reason,omitempty"`
}

// AppointmentUpdate is the partial update body for an appointment.
type AppointmentUpdate struct {
	StartAt *time.Time `json:"startAt,omitempty"`
	EndAt   *time.Time `json:"endAt,omitempty"`
	Reason  *string    `json:"reason,omitempty"`
}

// AppointmentQuery filters the appointment list.
type AppointmentQuery struct {
	Offset    int
	Limit     int
	Sort      string `validate:"omitempty,oneof=startAsc startDesc createdDesc"`
	DoctorID  string
	PatientID string
	Status    string `validate:"omitempty,oneof=scheduled confirmed completed cancelled no-show"`
}

// Page is a paged list. The backend answers either with an envelope
// or with a bare JSON array; both decode into a Page.
type Page[T any] struct {
	Total  int `json:"total" yaml:"total"`
	Offset int `json:"offset" yaml:"offset"`
	Limit  int `json:"limit" yaml:"limit"`
	Items  []T `json:"items" yaml:"items"`
}

// UnmarshalJSON accepts both list shapes.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*p = Page[T]{Items: items, Total: len(items), Limit: len(items)}
		return nil
	}

	var env pageEnvelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return err
	}
	*p = Page[T](env)
	if p.Total == 0 && len(p.Items) > 0 {
		p.Total = p.Offset + len(p.Items)
	}
	return nil
}

// pageEnvelope has Page's fields without its UnmarshalJSON method.
type pageEnvelope[T any] struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Items  []T `json:"items"`
}

// HasNext reports whether another page follows this one.
func (p Page[T]) HasNext() bool {
	return p.Offset+len(p.Items) < p.Total
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
