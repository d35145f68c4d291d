// ABOUTME: Appointment commands: list, create, status and delete
// ABOUTME: Doctors see their own schedule; the front desk books and cancels visits

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/session"
)

var (
	apptQuery    client.AppointmentQuery
	apptPage     int
	apptStart    string
	apptDuration time.Duration
	newAppt      client.NewAppointment
)

var appointmentsCmd = &cobra.Command{
	Use:     "appointments",
	Aliases: []string{"appts"},
	Short:   "Browse and book appointments",
}

var appointmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List appointments one page at a time",
	Args:  cobra.NoArgs,
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		q := apptQuery
		q.Offset = max(0, apptPage-1) * q.Limit
		return runAppointmentsList(ctx, os.Stdout, q)
	}),
}

var appointmentsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Book an appointment",
	Args:  cobra.NoArgs,
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runAppointmentsCreate(ctx, os.Stdout, newAppt, apptStart, apptDuration)
	}),
}

var appointmentsStatusCmd = &cobra.Command{
	Use:   "status <id> <scheduled|confirmed|completed|cancelled|no-show>",
	Short: "Move an appointment to another status",
	Args:  cobra.ExactArgs(2),
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runAppointmentsStatus(ctx, os.Stdout, args[0], args[1])
	}),
}

var appointmentsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an appointment",
	Args:  cobra.ExactArgs(1),
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runAppointmentsDelete(ctx, os.Stdout, args[0])
	}),
}

func init() {
	rootCmd.AddCommand(appointmentsCmd)
	appointmentsCmd.AddCommand(appointmentsListCmd, appointmentsCreateCmd, appointmentsStatusCmd, appointmentsDeleteCmd)

	f := appointmentsListCmd.Flags()
	f.StringVar(&apptQuery.Status, "status", "", "Only this status")
	f.StringVar(&apptQuery.DoctorID, "doctor", "", "Only this doctor's appointments")
	f.StringVar(&apptQuery.PatientID, "patient", "", "Only this patient's appointments")
	f.StringVar(&apptQuery.Sort, "sort", client.SortStartAsc, "startAsc, startDesc or createdDesc")
	f.IntVar(&apptQuery.Limit, "limit", client.DefaultPageSize, "Appointments per page")
	f.IntVar(&apptPage, "page", 1, "Page number, starting at 1")

	f = appointmentsCreateCmd.Flags()
	f.StringVar(&newAppt.PatientID, "patient", "", "Patient ID")
	f.StringVar(&newAppt.DoctorID, "doctor", "", "Doctor's user ID")
	f.StringVar(&apptStart, "start", "", "Local start time, "+cliTimeLayout)
	f.DurationVar(&apptDuration, "duration", 30*time.Minute, "Length of the visit")
	f.StringVar(&newAppt.Reason, "reason", "", "Reason for the visit")
	for _, name := range []string{"patient", "doctor", "start"} {
		_ = appointmentsCreateCmd.MarkFlagRequired(name)
	}
}

func runAppointmentsList(ctx context.Context, w io.Writer, q client.AppointmentQuery) int {
	return protected(ctx, w, session.AllRoles, func(c *console) int {
		page, err := c.client.ListAppointments(ctx, q)
		if err != nil {
			return fail(w, err)
		}
		if err := render(w, page, func() string { return appointmentsTable(page) }); err != nil {
			return fail(w, err)
		}
		return exitOK
	})
}

func appointmentsTable(page *client.Page[client.Appointment]) string {
	if len(page.Items) == 0 {
		return i18n.T("appointments.empty")
	}
	t := newTable("ID", i18n.T("appointments.col_time"), i18n.T("appointments.col_patient"),
		i18n.T("appointments.col_doctor"), i18n.T("appointments.col_status"), i18n.T("appointments.col_reason"))
	for _, a := range page.Items {
		t.Row(a.ID, formatTime(a.StartAt), personName(a.Patient, a.PatientID), personName(a.Doctor, a.DoctorID),
			statusName(a.Status), orDash(a.Reason))
	}

	limit := max(page.Limit, 1)
	pages := max(1, (page.Total+limit-1)/limit)
	footer := i18n.T("appointments.page", map[string]any{"Page": page.Offset/limit + 1, "Pages": pages, "Total": page.Total})
	return t.Render() + "\n" + footer
}

func personName(p *client.PersonRef, fallback string) string {
	if p == nil {
		return fallback
	}
	return client.Patient{FirstName: p.FirstName, LastName: p.LastName}.FullName()
}

func statusName(s string) string {
	if s == client.StatusNoShow {
		return i18n.T("status.no_show")
	}
	return i18n.T("status." + s)
}

func runAppointmentsCreate(ctx context.Context, w io.Writer, na client.NewAppointment, start string, d time.Duration) int {
	at, err := time.ParseInLocation(cliTimeLayout, start, time.Local)
	if err != nil {
		fmt.Fprintln(w, "Error: "+i18n.T("form.datetime", map[string]any{"Layout": cliTimeLayout}))
		return exitFailed
	}
	na.StartAt = at
	na.EndAt = at.Add(d)

	return protected(ctx, w, frontDesk, func(c *console) int {
		a, err := c.client.CreateAppointment(ctx, na)
		if err != nil {
			return fail(w, err)
		}
		err = render(w, a, func() string {
			return i18n.T("appointments.booked", map[string]any{"Time": formatTime(a.StartAt)}) + "\n" + a.ID
		})
		if err != nil {
			return fail(w, err)
		}
		return exitOK
	})
}

func runAppointmentsStatus(ctx context.Context, w io.Writer, id, status string) int {
	return protected(ctx, w, session.AllRoles, func(c *console) int {
		a, err := c.client.UpdateAppointmentStatus(ctx, id, status)
		if err != nil {
			return fail(w, err)
		}
		err = render(w, a, func() string {
			return i18n.T("appointments.status_changed", map[string]any{"Status": statusName(a.Status)})
		})
		if err != nil {
			return fail(w, err)
		}
		return exitOK
	})
}

func runAppointmentsDelete(ctx context.Context, w io.Writer, id string) int {
	return protected(ctx, w, frontDesk, func(c *console) int {
		if err := c.client.DeleteAppointment(ctx, id); err != nil {
			return fail(w, err)
		}
		fmt.Fprintln(w, i18n.T("cli.deleted", map[string]any{"ID": id}))
		return exitOK
	})
}
