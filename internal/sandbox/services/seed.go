// ABOUTME: Seed data for a fresh sandbox
// ABOUTME: Creates the administrator and an optional demo staff, patients and schedule

package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/sandbox/models"
	"github.com/markalston/clinic-console/internal/session"
)

// DemoPassword is the password of every demo account. Demo accounts must
// change it on first sign-in.
const DemoPassword = "clinic12345"

// SeedAdmin creates the administrator account unless the email is taken.
func SeedAdmin(s *Store, email, password string) (models.User, error) {
	u, err := s.CreateUser(models.CreateUserRequest{
		Email:             email,
		FirstName:         "Clinic",
		LastName:          "Administrator",
		Role:              session.RoleAdmin,
		TemporaryPassword: password,
	}, false)
	if errors.Is(err, ErrConflict) {
		return models.User{}, nil
	}
	return u, err
}

// SeedDemo adds a doctor, a receptionist, patients and a day of appointments.
func SeedDemo(s *Store, now time.Time) error {
	doctor, err := s.CreateUser(models.CreateUserRequest{
		Email: "doctor@clinic.local", FirstName: "Aziz", LastName: "Karimov",
		Role: session.RoleDoctor, TemporaryPassword: DemoPassword,
	}, true)
	if err != nil {
		return fmt.Errorf("seeding doctor: %w", err)
	}
	reception, err := s.CreateUser(models.CreateUserRequest{
		Email: "reception@clinic.local", FirstName: "Malika", LastName: "Yusupova",
		Role: session.RoleReception, TemporaryPassword: DemoPassword,
	}, true)
	if err != nil {
		return fmt.Errorf("seeding reception: %w", err)
	}

	patients := []models.CreatePatientRequest{
		{FirstName: "Dilshod", LastName: "Rahimov", Gender: client.GenderMale, Phone: "+998901112233"},
		{FirstName: "Nodira", LastName: "Saidova", Gender: client.GenderFemale, Email: "nodira@example.uz"},
		{FirstName: "Timur", LastName: "Aliyev", Gender: client.GenderChild, Notes: "Allergic to penicillin"},
	}
	day := now.Truncate(24 * time.Hour).Add(9 * time.Hour)
	for i, req := range patients {
		p := s.CreatePatient(req)
		start := day.Add(time.Duration(i) * time.Hour)
		if _, err := s.CreateAppointment(models.CreateApptRequest{
			PatientID: p.ID,
			DoctorID:  doctor.ID,
			StartAt:   start,
			EndAt:     start.Add(30 * time.Minute),
			Reason:    "Consultation",
		}, reception.ID); err != nil {
			return fmt.Errorf("seeding appointment: %w", err)
		}
		if i == 0 {
			if _, err := s.CreateRecord(p.ID, doctor.ID, models.CreateRecordRequest{
				Type:        client.RecordDiagnosis,
				Description: "Seasonal rhinitis",
			}); err != nil {
				return fmt.Errorf("seeding record: %w", err)
			}
		}
	}
	return nil
}
