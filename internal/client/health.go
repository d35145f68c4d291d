// ABOUTME: Backend health probe
// ABOUTME: Public endpoint used by `clinic health` to check connectivity

package client

import (
	"context"
	"net/http"
)

// Health is the body of GET /health.
type Health struct {
	Status       string `json:"status" yaml:"status"`
	Uptime       string `json:"uptime" yaml:"uptime"`
	Users        int    `json:"users" yaml:"users"`
	Patients     int    `json:"patients" yaml:"patients"`
	Appointments int    `json:"appointments" yaml:"appointments"`
}

// Health calls GET /health. It needs no session.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, request{method: http.MethodGet, path: "/health", public: true}, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
