package scheduling

import "github.com/clinic/clinic/pkg/jsonnum"

// Shift is one working window of a doctor. DayStamp is the day bucket of
// ShiftStart.
type Shift struct {
	ID         int64 `json:"id"`
	DoctorID   int64 `json:"doctor_id"`
	DayStamp   int64 `json:"day_stamp"`
	ShiftStart int64 `json:"shift_start"`
	ShiftEnd   int64 `json:"shift_end"`
}

// Appointment rows are created by the Scheduler only and never deleted;
// cancellation flips IsCanceled.
type Appointment struct {
	ID         int64 `json:"id"`
	DayStamp   int64 `json:"day_stamp"`
	DoctorID   int64 `json:"doctor_id"`
	LocationID int64 `json:"location_id"`
	ApmntTime  int64 `json:"apmnt_time"`
	IsCanceled bool  `json:"is_canceled"`
}

// AppointmentView is an appointment joined with its doctor and location.
type AppointmentView struct {
	ID         int64  `json:"id"`
	DayStamp   int64  `json:"day_stamp"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	LocationID int64  `json:"location_id"`
	Address    string `json:"address"`
	ApmntTime  int64  `json:"apmnt_time"`
	IsCanceled bool   `json:"is_canceled"`
}

// ShiftView is a shift joined with its doctor's name.
type ShiftView struct {
	ID         int64  `json:"id"`
	DayStamp   int64  `json:"day_stamp"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	ShiftStart int64  `json:"shift_start"`
	ShiftEnd   int64  `json:"shift_end"`
}

const (
	EntryShift       = "shift"
	EntryAppointment = "appointment"
)

// ScheduleEntry is one row of a weekly schedule: either a shift or an
// appointment, told apart by Kind.
type ScheduleEntry struct {
	Kind          string `json:"kind"`
	DayStamp      int64  `json:"day_stamp"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	ShiftStart    *int64 `json:"shift_start,omitempty"`
	ShiftEnd      *int64 `json:"shift_end,omitempty"`
	AppointmentID *int64 `json:"appointment_id,omitempty"`
	Address       string `json:"address,omitempty"`
	ApmntTime     *int64 `json:"apmnt_time,omitempty"`
}

// at is the moment the entry sorts by.
func (e ScheduleEntry) at() int64 {
	if e.ShiftStart != nil {
		return *e.ShiftStart
	}
	if e.ApmntTime != nil {
		return *e.ApmntTime
	}
	return e.DayStamp
}

// BookingRequest is the body of a booking call.
type BookingRequest struct {
	DoctorID   jsonnum.Int `json:"doctor_id"`
	LocationID jsonnum.Int `json:"location_id"`
	ApmntTime  jsonnum.Int `json:"apmnt_time"`
}

// BookingResult reports what the Scheduler decided. Appointment is set only
// when Decision is Commit.
type BookingResult struct {
	Decision    Decision
	Reason      string
	Appointment *Appointment
}

func (r *BookingResult) Committed() bool { return r.Decision == Commit }

type HoursInput struct {
	DoctorID   jsonnum.Int `json:"doctor_id"`
	ShiftStart jsonnum.Int `json:"shift_start"`
	ShiftEnd   jsonnum.Int `json:"shift_end"`
}

type CancelInput struct {
	AppointmentID jsonnum.Int `json:"appointment_id"`
}
