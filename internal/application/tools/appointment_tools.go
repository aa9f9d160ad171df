package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zatekoja/careline/internal/domain/entities"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

const (
	ScheduleAppointmentTool = "schedule_appointment"
	CancelAppointmentTool   = "cancel_appointment"
)

// Scheduler books and cancels appointments
type Scheduler interface {
	Schedule(ctx context.Context, req entities.BookingRequest) (*entities.Appointment, error)
	Cancel(ctx context.Context, id int64, phone string) (*entities.CancellationResult, error)
}

var timeLayouts = []string{entities.TimeLayout, "15:04:05", "3:04PM", "3:04 PM", "3PM", "3 PM"}

// ScheduleTool books the first available provider for a date and time
type ScheduleTool struct {
	scheduler Scheduler
}

// NewScheduleTool creates the schedule_appointment tool
func NewScheduleTool(scheduler Scheduler) *ScheduleTool {
	return &ScheduleTool{scheduler: scheduler}
}

// Definition returns the MCP tool definition
func (t *ScheduleTool) Definition() mcp.Tool {
	return mcp.NewTool(ScheduleAppointmentTool,
		mcp.WithDescription("Schedule an in-home appointment with the first available provider at the given date and time."),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Appointment date formatted as YYYY-MM-DD"),
		),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Appointment start time in 24-hour HH:MM format, e.g. 14:30"),
		),
		mcp.WithString("phone_number",
			mcp.Description("Phone number formatted as XXX-XXX-XXXX; defaults to the caller's number"),
		),
	)
}

// Invoke books the appointment
func (t *ScheduleTool) Invoke(ctx context.Context, args map[string]interface{}) Result {
	phone, err := resolvePhone(ctx, args)
	if err != nil {
		return FromError(err)
	}

	date, err := time.Parse(entities.DateLayout, stringArg(args, "date"))
	if err != nil {
		return Fail(apperrors.ErrorTypeValidation, "date must be formatted as YYYY-MM-DD")
	}
	at, err := parseTimeOfDay(stringArg(args, "time"))
	if err != nil {
		return FromError(err)
	}

	appt, err := t.scheduler.Schedule(ctx, entities.BookingRequest{
		MemberPhone: phone,
		Date:        date,
		Time:        at,
	})
	if err != nil {
		return FromError(err)
	}
	return Ok(fmt.Sprintf("Appointment scheduled successfully. Appointment ID: %d", appt.ID))
}

func parseTimeOfDay(raw string) (time.Time, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewValidationError("time must be formatted as HH:MM")
}

// CancelTool cancels one of the caller's scheduled appointments
type CancelTool struct {
	scheduler Scheduler
}

// NewCancelTool creates the cancel_appointment tool
func NewCancelTool(scheduler Scheduler) *CancelTool {
	return &CancelTool{scheduler: scheduler}
}

// Definition returns the MCP tool definition
func (t *CancelTool) Definition() mcp.Tool {
	return mcp.NewTool(CancelAppointmentTool,
		mcp.WithDescription("Cancel one of the caller's scheduled appointments and free the provider's time."),
		mcp.WithNumber("appointment_id",
			mcp.Required(),
			mcp.Description("Numeric appointment id from the member's appointment list"),
		),
		mcp.WithString("phone_number",
			mcp.Description("Phone number formatted as XXX-XXX-XXXX; defaults to the caller's number"),
		),
	)
}

// Invoke cancels the appointment. A cancellation whose provider slot could
// not be restored still succeeds, with a warning appended.
func (t *CancelTool) Invoke(ctx context.Context, args map[string]interface{}) Result {
	id, err := int64Arg(args, "appointment_id")
	if err != nil {
		return FromError(err)
	}
	phone, err := resolvePhone(ctx, args)
	if err != nil {
		return FromError(err)
	}

	res, err := t.scheduler.Cancel(ctx, id, phone)
	if err != nil {
		return FromError(err)
	}

	text := fmt.Sprintf("Appointment %d has been cancelled successfully.", res.AppointmentID)
	if !res.SlotRestored {
		text += " Warning: the provider's availability could not be restored."
	}
	return Ok(text)
}
