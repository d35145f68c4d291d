// ABOUTME: Tests for the patient and medical record commands
// ABOUTME: Front desk registers and removes patients; doctors add records

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/tui/tuitest"
)

func firstPatient(t *testing.T, b *tuitest.Backend) client.Patient {
	t.Helper()
	patients, err := b.Admin(t).ListPatients(context.Background(), "")
	require.NoError(t, err)
	require.NotEmpty(t, patients)
	return patients[0]
}

func TestPatientsListSearch(t *testing.T) {
	useBackend(t)
	signIn(t, tuitest.AdminEmail, tuitest.AdminPassword)

	var buf bytes.Buffer
	require.Equal(t, exitOK, runPatientsList(context.Background(), &buf, "saidova"))
	assert.Contains(t, buf.String(), "Nodira Saidova")
	assert.NotContains(t, buf.String(), "Rahimov")
}

func TestPatientsShowYAML(t *testing.T) {
	b := useBackend(t)
	signIn(t, tuitest.AdminEmail, tuitest.AdminPassword)
	p := firstPatient(t, b)
	withOutput(t, "yaml")

	var buf bytes.Buffer
	require.Equal(t, exitOK, runPatientsShow(context.Background(), &buf, p.ID))

	var got client.Patient
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.LastName, got.LastName)
}

func TestPatientsShowText(t *testing.T) {
	b := useBackend(t)
	signIn(t, tuitest.AdminEmail, tuitest.AdminPassword)
	p := firstPatient(t, b)

	var buf bytes.Buffer
	require.Equal(t, exitOK, runPatientsShow(context.Background(), &buf, p.ID))
	assert.Contains(t, buf.String(), p.FullName())
}

func TestPatientsShowUnknown(t *testing.T) {
	useBackend(t)
	signIn(t, tuitest.AdminEmail, tuitest.AdminPassword)

	var buf bytes.Buffer
	assert.Equal(t, exitFailed, runPatientsShow(context.Background(), &buf, "missing"))
}

func TestPatientsCreateAndDelete(t *testing.T) {
	useBackend(t)
	ctx := context.Background()
	signIn(t, tuitest.AdminEmail, tuitest.AdminPassword)
	withOutput(t, "json")

	var buf bytes.Buffer
	code := runPatientsCreate(ctx, &buf, client.NewPatient{FirstName: "Kamola", LastName: "Ergasheva", Gender: client.GenderFemale})
	require.Equal(t, exitOK, code, buf.String())

	var p client.Patient
	require.NoError(t, json.Unmarshal(buf.Bytes(), &p))
	require.NotEmpty(t, p.ID)

	buf.Reset()
	require.Equal(t, exitOK, runPatientsDelete(ctx, &buf, p.ID))

	buf.Reset()
	assert.Equal(t, exitFailed, runPatientsShow(ctx, &buf, p.ID))
}

func TestPatientsCreateValidates(t *testing.T) {
	useBackend(t)
	signIn(t, tuitest.AdminEmail, tuitest.AdminPassword)

	var buf bytes.Buffer
	code := runPatientsCreate(context.Background(), &buf, client.NewPatient{FirstName: "Kamola", LastName: "Ergasheva", Gender: "other"})
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, buf.String(), "Error:")
}

func TestDoctorAddsRecord(t *testing.T) {
	b := useBackend(t)
	ctx := context.Background()
	p := firstPatient(t, b)
	signIn(t, tuitest.DoctorEmail, tuitest.DemoPassword)
	changePassword(t, tuitest.DemoPassword, "doctor-2026")

	var buf bytes.Buffer
	code := runPatientsAddRecord(ctx, &buf, p.ID, client.NewRecord{Type: client.RecordDiagnosis, Description: "Acute bronchitis"})
	require.Equal(t, exitOK, code, buf.String())

	buf.Reset()
	require.Equal(t, exitOK, runPatientsRecords(ctx, &buf, p.ID))
	assert.Contains(t, buf.String(), "Acute bronchitis")
	assert.Contains(t, buf.String(), "Diagnosis")
}

func TestAdminCannotAddRecord(t *testing.T) {
	b := useBackend(t)
	p := firstPatient(t, b)
	signIn(t, tuitest.AdminEmail, tuitest.AdminPassword)

	var buf bytes.Buffer
	code := runPatientsAddRecord(context.Background(), &buf, p.ID, client.NewRecord{Type: client.RecordNote})
	assert.Equal(t, exitForbidden, code)
}
