// ABOUTME: Patient and medical record endpoints of the clinic backend
// ABOUTME: Search, profile, create, update, delete and record history

package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/markalston/clinic-console/internal/validation"
)

// ListPatients calls GET /patients with an optional search string.
func (c *Client) ListPatients(ctx context.Context, q string) ([]Patient, error) {
	query := url.Values{}
	if q != "" {
		query.Set("q", q)
	}
	var page Page[Patient]
	if err := c.do(ctx, request{method: http.MethodGet, path: "/patients", query: query}, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// GetPatient calls GET /patients/:id.
func (c *Client) GetPatient(ctx context.Context, id string) (*Patient, error) {
	var p Patient
	if err := c.do(ctx, request{method: http.MethodGet, path: "/patients/" + url.PathEscape(id)}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePatient calls POST /patients.
func (c *Client) CreatePatient(ctx context.Context, p NewPatient) (*Patient, error) {
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	var created Patient
	if err := c.do(ctx, request{method: http.MethodPost, path: "/patients", body: p}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdatePatient calls PATCH /patients/:id.
func (c *Client) UpdatePatient(ctx context.Context, id string, p PatientUpdate) (*Patient, error) {
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	var updated Patient
	if err := c.do(ctx, request{method: http.MethodPatch, path: "/patients/" + url.PathEscape(id), body: p}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePatient calls DELETE /patients/:id.
func (c *Client) DeletePatient(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/patients/" + url.PathEscape(id)}, nil)
}

// ListRecords calls GET /patients/:id/records.
func (c *Client) ListRecords(ctx context.Context, patientID string) ([]Record, error) {
	var page Page[Record]
	if err := c.do(ctx, request{method: http.MethodGet, path: "/patients/" + url.PathEscape(patientID) + "/records"}, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// CreateRecord calls POST /patients/:id/records.
func (c *Client) CreateRecord(ctx context.Context, patientID string, r NewRecord) (*Record, error) {
	if err := validation.Struct(r); err != nil {
		return nil, err
	}
	var created Record
	if err := c.do(ctx, request{method: http.MethodPost, path: "/patients/" + url.PathEscape(patientID) + "/records", body: r}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
