// ABOUTME: Patient commands: list, show, create, delete and medical records
// ABOUTME: Doctors add records; the front desk registers and removes patients

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/session"
)

var doctorOnly = []session.Role{session.RoleDoctor}

var (
	patientsSearch string
	newPatient     client.NewPatient
	newRecord      client.NewRecord
)

var patientsCmd = &cobra.Command{
	Use:   "patients",
	Short: "Browse and register patients",
}

var patientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List patients",
	Args:  cobra.NoArgs,
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runPatientsList(ctx, os.Stdout, patientsSearch)
	}),
}

var patientsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one patient",
	Args:  cobra.ExactArgs(1),
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runPatientsShow(ctx, os.Stdout, args[0])
	}),
}

var patientsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a patient",
	Args:  cobra.NoArgs,
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runPatientsCreate(ctx, os.Stdout, newPatient)
	}),
}

var patientsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a patient with their records and appointments",
	Args:  cobra.ExactArgs(1),
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runPatientsDelete(ctx, os.Stdout, args[0])
	}),
}

var patientsRecordsCmd = &cobra.Command{
	Use:   "records <id>",
	Short: "List a patient's medical records",
	Args:  cobra.ExactArgs(1),
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runPatientsRecords(ctx, os.Stdout, args[0])
	}),
}

var patientsAddRecordCmd = &cobra.Command{
	Use:   "add-record <id>",
	Short: "Add a medical record (doctors only)",
	Args:  cobra.ExactArgs(1),
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runPatientsAddRecord(ctx, os.Stdout, args[0], newRecord)
	}),
}

func init() {
	rootCmd.AddCommand(patientsCmd)
	patientsCmd.AddCommand(patientsListCmd, patientsShowCmd, patientsCreateCmd, patientsDeleteCmd, patientsRecordsCmd, patientsAddRecordCmd)

	patientsListCmd.Flags().StringVarP(&patientsSearch, "search", "q", "", "Match name, phone or email")

	f := patientsCreateCmd.Flags()
	f.StringVar(&newPatient.FirstName, "first-name", "", "First name")
	f.StringVar(&newPatient.LastName, "last-name", "", "Last name")
	f.StringVar(&newPatient.Gender, "gender", "", "male, female or child")
	f.StringVar(&newPatient.Phone, "phone", "", "Phone number")
	f.StringVar(&newPatient.Email, "email", "", "Email address")
	f.StringVar(&newPatient.Notes, "notes", "", "Free-form notes")
	_ = patientsCreateCmd.MarkFlagRequired("first-name")
	_ = patientsCreateCmd.MarkFlagRequired("last-name")

	f = patientsAddRecordCmd.Flags()
	f.StringVar(&newRecord.Type, "type", client.RecordNote, "diagnosis, treatment or note")
	f.StringVar(&newRecord.Description, "description", "", "Record text")
	f.StringVar(&newRecord.Prescription, "prescription", "", "Prescription, if any")
}

func runPatientsList(ctx context.Context, w io.Writer, q string) int {
	return protected(ctx, w, session.AllRoles, func(c *console) int {
		list, err := c.client.ListPatients(ctx, q)
		if err != nil {
			return fail(w, err)
		}
		if err := render(w, list, func() string { return patientsTable(list) }); err != nil {
			return fail(w, err)
		}
		return exitOK
	})
}

func patientsTable(list []client.Patient) string {
	if len(list) == 0 {
		return i18n.T("patients.empty")
	}
	t := newTable("ID", i18n.T("patients.col_name"), i18n.T("patients.col_gender"), i18n.T("patients.col_phone"), i18n.T("patients.col_email"))
	for _, p := range list {
		t.Row(p.ID, p.FullName(), genderName(p.Gender), orDash(p.Phone), orDash(p.Email))
	}
	return t.Render()
}

func genderName(g string) string {
	if g == "" {
		return i18n.T("gender.unspecified")
	}
	return i18n.T("gender." + g)
}

func runPatientsShow(ctx context.Context, w io.Writer, id string) int {
	return protected(ctx, w, session.AllRoles, func(c *console) int {
		p, err := c.client.GetPatient(ctx, id)
		if err != nil {
			return fail(w, err)
		}
		if err := render(w, p, func() string { return patientDetails(p) }); err != nil {
			return fail(w, err)
		}
		return exitOK
	})
}

func patientDetails(p *client.Patient) string {
	rows := [][2]string{
		{"ID", p.ID},
		{i18n.T("patients.col_name"), p.FullName()},
		{i18n.T("patients.gender"), genderName(p.Gender)},
		{i18n.T("patients.phone"), orDash(p.Phone)},
		{i18n.T("patients.email"), orDash(p.Email)},
		{i18n.T("patients.notes"), orDash(p.Notes)},
		{i18n.T("cli.registered"), formatTime(p.CreatedAt)},
	}
	var sb strings.Builder
	for i, r := range rows {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%-14s %s", r[0]+":", r[1])
	}
	return sb.String()
}

func runPatientsCreate(ctx context.Context, w io.Writer, np client.NewPatient) int {
	return protected(ctx, w, frontDesk, func(c *console) int {
		p, err := c.client.CreatePatient(ctx, np)
		if err != nil {
			return fail(w, err)
		}
		err = render(w, p, func() string {
			return i18n.T("patients.created", map[string]any{"Name": p.FullName()}) + "\n" + p.ID
		})
		if err != nil {
			return fail(w, err)
		}
		return exitOK
	})
}

func runPatientsDelete(ctx context.Context, w io.Writer, id string) int {
	return protected(ctx, w, frontDesk, func(c *console) int {
		if err := c.client.DeletePatient(ctx, id); err != nil {
			return fail(w, err)
		}
		fmt.Fprintln(w, i18n.T("cli.deleted", map[string]any{"ID": id}))
		return exitOK
	})
}

func runPatientsRecords(ctx context.Context, w io.Writer, id string) int {
	return protected(ctx, w, session.AllRoles, func(c *console) int {
		records, err := c.client.ListRecords(ctx, id)
		if err != nil {
			return fail(w, err)
		}
		if err := render(w, records, func() string { return recordsTable(records) }); err != nil {
			return fail(w, err)
		}
		return exitOK
	})
}

func recordsTable(records []client.Record) string {
	if len(records) == 0 {
		return i18n.T("records.empty")
	}
	t := newTable(i18n.T("records.col_date"), i18n.T("records.col_type"), i18n.T("records.col_description"), i18n.T("records.col_prescription"))
	for _, r := range records {
		t.Row(formatTime(r.CreatedAt), i18n.T("records."+r.Type), orDash(r.Description), orDash(r.Prescription))
	}
	return t.Render()
}

func runPatientsAddRecord(ctx context.Context, w io.Writer, id string, nr client.NewRecord) int {
	return protected(ctx, w, doctorOnly, func(c *console) int {
		r, err := c.client.CreateRecord(ctx, id, nr)
		if err != nil {
			return fail(w, err)
		}
		if err := render(w, r, func() string { return i18n.T("cli.record_added", map[string]any{"ID": r.ID}) }); err != nil {
			return fail(w, err)
		}
		return exitOK
	})
}
