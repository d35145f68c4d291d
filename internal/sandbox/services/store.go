// ABOUTME: In-memory clinic data store for the sandbox backend
// ABOUTME: Holds staff accounts, patients, medical records and appointments

package services

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/sandbox/models"
	"github.com/markalston/clinic-console/internal/session"
)

const maxPageSize = 100

// Store keeps all sandbox data in memory. Every method returns copies.
type Store struct {
	mu           sync.RWMutex
	users        map[string]*models.Account
	emails       map[string]string
	patients     map[string]*models.Patient
	records      map[string][]models.Record
	appointments map[string]*models.Appointment

	bcryptCost int
	now        func() time.Time
}

type StoreOption func(*Store)

// WithBcryptCost overrides the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) StoreOption {
	return func(s *Store) { s.bcryptCost = cost }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		users:        make(map[string]*models.Account),
		emails:       make(map[string]string),
		patients:     make(map[string]*models.Patient),
		records:      make(map[string][]models.Record),
		appointments: make(map[string]*models.Appointment),
		bcryptCost:   bcrypt.DefaultCost,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) hash(password string) ([]byte, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password is too long", ErrInvalid)
		}
		return nil, err
	}
	return h, nil
}

// --- Users ---

// CreateUser adds a staff account. mustChange marks the password as temporary.
func (s *Store) CreateUser(req models.CreateUserRequest, mustChange bool) (models.User, error) {
	hash, err := s.hash(req.TemporaryPassword)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(req.Email)
	if _, taken := s.emails[email]; taken {
		return models.User{}, fmt.Errorf("%w: email %s is already registered", ErrConflict, email)
	}

	acct := &models.Account{
		User: models.User{
			ID:                 uuid.NewString(),
			Email:              email,
			FirstName:          strings.TrimSpace(req.FirstName),
			LastName:           strings.TrimSpace(req.LastName),
			Role:               req.Role,
			IsActive:           true,
			MustChangePassword: mustChange,
			CreatedAt:          s.now(),
		},
		PasswordHash: hash,
	}
	s.users[acct.ID] = acct
	s.emails[email] = acct.ID
	return acct.User, nil
}

// Authenticate checks an email and password pair.
func (s *Store) Authenticate(email, password string) (models.Account, error) {
	s.mu.RLock()
	id, ok := s.emails[normalizeEmail(email)]
	var acct models.Account
	if ok {
		acct = *s.users[id]
	}
	s.mu.RUnlock()

	if !ok {
		return models.Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
		return models.Account{}, ErrInvalidCredentials
	}
	if !acct.IsActive {
		return models.Account{}, ErrInactive
	}
	return acct, nil
}

// Account returns the account with id.
func (s *Store) Account(id string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.users[id]
	if !ok {
		return models.Account{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return *acct, nil
}

// ListUsers filters by a search term over name and email, and by role.
func (s *Store) ListUsers(q string, role session.Role, offset, limit int) models.Page[models.User] {
	q = NormalizeQuery(q)

	s.mu.RLock()
	items := make([]models.User, 0, len(s.users))
	for _, acct := range s.users {
		if role != "" && acct.Role != role {
			continue
		}
		if q != "" && !matches(q, acct.Email, acct.FirstName, acct.LastName) {
			continue
		}
		items = append(items, acct.User)
	}
	s.mu.RUnlock()

	slices.SortFunc(items, func(a, b models.User) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.Email, b.Email))
	})
	return paginate(items, offset, limit)
}

// ActiveDoctors lists doctor accounts that can take appointments, by name.
func (s *Store) ActiveDoctors() []models.User {
	s.mu.RLock()
	out := []models.User{}
	for _, acct := range s.users {
		if acct.Role == session.RoleDoctor && acct.IsActive {
			out = append(out, acct.User)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b models.User) int {
		return cmp.Or(cmp.Compare(a.LastName, b.LastName), cmp.Compare(a.FirstName, b.FirstName), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// UpdateUser applies a partial update.
func (s *Store) UpdateUser(id string, req models.UpdateUserRequest) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if owner, taken := s.emails[email]; taken && owner != id {
			return models.User{}, fmt.Errorf("%w: email %s is already registered", ErrConflict, email)
		}
		delete(s.emails, acct.Email)
		acct.Email = email
		s.emails[email] = id
	}
	if req.FirstName != nil {
		acct.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		acct.LastName = strings.TrimSpace(*req.LastName)
	}
	return acct.User, nil
}

// SetRole changes a user's role.
func (s *Store) SetRole(id string, role session.Role) (models.User, error) {
	if !role.Valid() {
		return models.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalid, role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	acct.Role = role
	return acct.User, nil
}

// SetActive activates or deactivates a user.
func (s *Store) SetActive(id string, active bool) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	acct.IsActive = active
	return acct.User, nil
}

// DeleteUser removes a user.
func (s *Store) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	delete(s.emails, acct.Email)
	delete(s.users, id)
	return nil
}

// ChangePassword replaces a password after checking the current one and
// clears the must-change flag.
func (s *Store) ChangePassword(id, current, next string) (models.Account, error) {
	acct, err := s.Account(id)
	if err != nil {
		return models.Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(current)); err != nil {
		return models.Account{}, fmt.Errorf("%w: current password is incorrect", ErrInvalid)
	}
	hash, err := s.hash(next)
	if err != nil {
		return models.Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[id]
	if !ok {
		return models.Account{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	stored.PasswordHash = hash
	stored.MustChangePassword = false
	return *stored, nil
}

// --- Patients ---

// ListPatients filters by a search term over name, email and phone.
func (s *Store) ListPatients(q string, offset, limit int) models.Page[models.Patient] {
	q = NormalizeQuery(q)

	s.mu.RLock()
	items := make([]models.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		if q != "" && !matches(q, p.FirstName, p.LastName, p.Email, p.Phone) {
			continue
		}
		items = append(items, *p)
	}
	s.mu.RUnlock()

	slices.SortFunc(items, func(a, b models.Patient) int {
		return cmp.Or(cmp.Compare(a.LastName, b.LastName), cmp.Compare(a.FirstName, b.FirstName), cmp.Compare(a.ID, b.ID))
	})
	return paginate(items, offset, limit)
}

// Patient returns the patient with id.
func (s *Store) Patient(id string) (models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[id]
	if !ok {
		return models.Patient{}, fmt.Errorf("%w: patient %s", ErrNotFound, id)
	}
	return *p, nil
}

// CreatePatient registers a patient.
func (s *Store) CreatePatient(req models.CreatePatientRequest) models.Patient {
	p := &models.Patient{
		ID:        uuid.NewString(),
		Email:     normalizeEmail(req.Email),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Gender:    req.Gender,
		Phone:     strings.TrimSpace(req.Phone),
		Notes:     req.Notes,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p.CreatedAt = s.now()
	s.patients[p.ID] = p
	return *p
}

// UpdatePatient applies a partial update.
func (s *Store) UpdatePatient(id string, req models.UpdatePatientRequest) (models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	if !ok {
		return models.Patient{}, fmt.Errorf("%w: patient %s", ErrNotFound, id)
	}
	if req.Email != nil {
		p.Email = normalizeEmail(*req.Email)
	}
	if req.FirstName != nil {
		p.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		p.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.Phone != nil {
		p.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Notes != nil {
		p.Notes = *req.Notes
	}
	return *p, nil
}

// DeletePatient removes a patient with their records and appointments.
func (s *Store) DeletePatient(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[id]; !ok {
		return fmt.Errorf("%w: patient %s", ErrNotFound, id)
	}
	delete(s.patients, id)
	delete(s.records, id)
	for aid, a := range s.appointments {
		if a.PatientID == id {
			delete(s.appointments, aid)
		}
	}
	return nil
}

// --- Records ---

// Records lists a patient's records, newest first.
func (s *Store) Records(patientID string) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.patients[patientID]; !ok {
		return nil, fmt.Errorf("%w: patient %s", ErrNotFound, patientID)
	}
	out := slices.Clone(s.records[patientID])
	if out == nil {
		out = []models.Record{}
	}
	slices.SortStableFunc(out, func(a, b models.Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// CreateRecord attaches a record written by doctorID.
func (s *Store) CreateRecord(patientID, doctorID string, req models.CreateRecordRequest) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[patientID]; !ok {
		return models.Record{}, fmt.Errorf("%w: patient %s", ErrNotFound, patientID)
	}
	rec := models.Record{
		ID:           uuid.NewString(),
		PatientID:    patientID,
		DoctorID:     doctorID,
		Type:         req.Type,
		Description:  req.Description,
		Prescription: req.Prescription,
		CreatedAt:    s.now(),
	}
	s.records[patientID] = append(s.records[patientID], rec)
	return rec, nil
}

// --- Appointments ---

// ListAppointments filters, sorts and pages appointments.
func (s *Store) ListAppointments(q client.AppointmentQuery) models.Page[models.Appointment] {
	s.mu.RLock()
	items := make([]models.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		if q.DoctorID != "" && a.DoctorID != q.DoctorID {
			continue
		}
		if q.PatientID != "" && a.PatientID != q.PatientID {
			continue
		}
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		items = append(items, s.withRefs(*a))
	}
	s.mu.RUnlock()

	slices.SortFunc(items, appointmentOrder(q.Sort))

	limit := q.Limit
	if limit <= 0 {
		limit = client.DefaultPageSize
	}
	return paginate(items, q.Offset, min(limit, maxPageSize))
}

func appointmentOrder(sort string) func(a, b models.Appointment) int {
	switch sort {
	case client.SortStartDesc:
		return func(a, b models.Appointment) int {
			return cmp.Or(b.StartAt.Compare(a.StartAt), cmp.Compare(a.ID, b.ID))
		}
	case client.SortCreatedDesc:
		return func(a, b models.Appointment) int {
			return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
		}
	default:
		return func(a, b models.Appointment) int {
			return cmp.Or(a.StartAt.Compare(b.StartAt), cmp.Compare(a.ID, b.ID))
		}
	}
}

// Appointment returns the appointment with id.
func (s *Store) Appointment(id string) (models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return models.Appointment{}, fmt.Errorf("%w: appointment %s", ErrNotFound, id)
	}
	return s.withRefs(*a), nil
}

// CreateAppointment books a visit. The patient must exist and the doctor
// must be an active doctor account.
func (s *Store) CreateAppointment(req models.CreateApptRequest, createdBy string) (models.Appointment, error) {
	if !req.EndAt.After(req.StartAt) {
		return models.Appointment{}, fmt.Errorf("%w: endAt must be after startAt", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[req.PatientID]; !ok {
		return models.Appointment{}, fmt.Errorf("%w: patientId does not reference a patient", ErrInvalid)
	}
	doc, ok := s.users[req.DoctorID]
	if !ok || doc.Role != session.RoleDoctor || !doc.IsActive {
		return models.Appointment{}, fmt.Errorf("%w: doctorId must reference an active doctor", ErrInvalid)
	}

	status := req.Status
	if status == "" {
		status = client.StatusScheduled
	}
	a := &models.Appointment{
		ID:        uuid.NewString(),
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		StartAt:   req.StartAt.UTC(),
		EndAt:     req.EndAt.UTC(),
		Status:    status,
		Reason:    req.Reason,
		CreatedBy: createdBy,
		CreatedAt: s.now(),
	}
	s.appointments[a.ID] = a
	return s.withRefs(*a), nil
}

// UpdateAppointment reschedules a visit or changes its reason.
func (s *Store) UpdateAppointment(id string, req models.UpdateApptRequest) (models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return models.Appointment{}, fmt.Errorf("%w: appointment %s", ErrNotFound, id)
	}

	start, end := a.StartAt, a.EndAt
	if req.StartAt != nil {
		start = req.StartAt.UTC()
	}
	if req.EndAt != nil {
		end = req.EndAt.UTC()
	}
	if !end.After(start) {
		return models.Appointment{}, fmt.Errorf("%w: endAt must be after startAt", ErrInvalid)
	}
	a.StartAt, a.EndAt = start, end
	if req.Reason != nil {
		a.Reason = *req.Reason
	}
	return s.withRefs(*a), nil
}

// SetAppointmentStatus moves an appointment to status.
func (s *Store) SetAppointmentStatus(id, status string) (models.Appointment, error) {
	if !slices.Contains(client.AppointmentStatuses, status) {
		return models.Appointment{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return models.Appointment{}, fmt.Errorf("%w: appointment %s", ErrNotFound, id)
	}
	a.Status = status
	return s.withRefs(*a), nil
}

// DeleteAppointment removes an appointment.
func (s *Store) DeleteAppointment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[id]; !ok {
		return fmt.Errorf("%w: appointment %s", ErrNotFound, id)
	}
	delete(s.appointments, id)
	return nil
}

// withRefs fills the patient and doctor summaries. Callers hold s.mu.
func (s *Store) withRefs(a models.Appointment) models.Appointment {
	if p, ok := s.patients[a.PatientID]; ok {
		a.Patient = &models.PersonRef{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName}
	}
	if d, ok := s.users[a.DoctorID]; ok {
		a.Doctor = &models.PersonRef{ID: d.ID, FirstName: d.FirstName, LastName: d.LastName}
	}
	return a
}

func matches(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, offset, limit int) models.Page[T] {
	total := len(items)
	offset = min(max(offset, 0), total)
	end := total
	if limit > 0 {
		end = min(offset+limit, total)
	} else {
		limit = total
	}
	return models.Page[T]{Total: total, Offset: offset, Limit: limit, Items: items[offset:end]}
}
