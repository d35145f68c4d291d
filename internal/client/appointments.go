// ABOUTME: Appointment endpoints of the clinic backend
// ABOUTME: Paged listing with filters and sorting, booking, rescheduling and status changes

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/markalston/clinic-console/internal/validation"
)

// ListAppointments calls GET /appointments.
func (c *Client) ListAppointments(ctx context.Context, q AppointmentQuery) (*Page[Appointment], error) {
	if err := validation.Struct(q); err != nil {
		return nil, err
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}

	query := url.Values{}
	query.Set("offset", strconv.Itoa(max(q.Offset, 0)))
	query.Set("limit", strconv.Itoa(q.Limit))
	if q.Sort != "" {
		query.Set("sort", q.Sort)
	}
	if q.DoctorID != "" {
		query.Set("doctorId", q.DoctorID)
	}
	if q.PatientID != "" {
		query.Set("patientId", q.PatientID)
	}
	if q.Status != "" {
		query.Set("status", q.Status)
	}

	var page Page[Appointment]
	if err := c.do(ctx, request{method: http.MethodGet, path: "/appointments", query: query}, &page); err != nil {
		return nil, err
	}
	if page.Limit == 0 {
		page.Limit = q.Limit
	}
	return &page, nil
}

// GetAppointment calls GET /appointments/:id.
func (c *Client) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	var a Appointment
	if err := c.do(ctx, request{method: http.MethodGet, path: "/appointments/" + url.PathEscape(id)}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAppointment calls POST /appointments. New appointments default to scheduled.
func (c *Client) CreateAppointment(ctx context.Context, a NewAppointment) (*Appointment, error) {
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if err := validation.Struct(a); err != nil {
		return nil, err
	}
	var created Appointment
	if err := c.do(ctx, request{method: http.MethodPost, path: "/appointments", body: a}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateAppointment calls PATCH /appointments/:id.
func (c *Client) UpdateAppointment(ctx context.Context, id string, u AppointmentUpdate) (*Appointment, error) {
	if u.StartAt != nil && u.EndAt != nil && !u.EndAt.After(*u.StartAt) {
		return nil, fmt.Errorf("%w: endAt must be after startAt", validation.ErrInvalid)
	}
	var updated Appointment
	if err := c.do(ctx, request{method: http.MethodPatch, path: "/appointments/" + url.PathEscape(id), body: u}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateAppointmentStatus calls PATCH /appointments/:id/status.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, id, status string) (*Appointment, error) {
	if err := validation.Var(status, "oneof=scheduled confirmed completed cancelled no-show"); err != nil {
		return nil, err
	}
	body := map[string]string{"status": status}
	var updated Appointment
	if err := c.do(ctx, request{method: http.MethodPatch, path: "/appointments/" + url.PathEscape(id) + "/status", body: body}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAppointment calls DELETE /appointments/:id.
func (c *Client) DeleteAppointment(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/appointments/" + url.PathEscape(id)}, nil)
}
