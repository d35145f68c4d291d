// ABOUTME: Tests for struct validation messages
// ABOUTME: Checks JSON field naming and the flattened message format

package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type window struct {
	StartAt time.Time `json:"startAt" validate:"required"`
	EndAt   time.Time `json:"endAt" validate:"required,gtfield=StartAt"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(loginForm{Email: "a@clinic.uz", Password: "longenough"}))
}

func TestStruct_FlattensMessages(t *testing.T) {
	err := Struct(loginForm{Email: "not-an-email", Password: "short"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Equal(t, "email must be a valid email; password must be at least 8 characters", Message(err))
}

func TestStruct_Required(t *testing.T) {
	err := Struct(loginForm{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email is required")
	assert.Contains(t, err.Error(), "password is required")
}

func TestStruct_EndMustFollowStart(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	err := Struct(window{StartAt: start, EndAt: start})
	require.Error(t, err)
	assert.Equal(t, "endAt must be after startAt", Message(err))

	assert.NoError(t, Struct(window{StartAt: start, EndAt: start.Add(30 * time.Minute)}))
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("doctor", "oneof=admin doctor reception"))
	err := Var("nurse", "oneof=admin doctor reception")
	assert.True(t, errors.Is(err, ErrInvalid))
}
