package scheduling

import (
	"context"
	"sort"

	"github.com/clinic/clinic/internal/domain/practice"
	"github.com/clinic/clinic/pkg/apperr"
)

// DoctorFinder resolves a doctor or returns a NotFound error.
type DoctorFinder interface {
	GetByID(ctx context.Context, id int64) (*practice.Doctor, error)
}

type Service struct {
	hours     HoursRepository
	appts     AppointmentRepository
	doctors   DoctorFinder
	cal       *Calendar
	scheduler *Scheduler
}

func NewService(hours HoursRepository, appts AppointmentRepository, doctors DoctorFinder,
	cal *Calendar, scheduler *Scheduler) *Service {
	return &Service{hours: hours, appts: appts, doctors: doctors, cal: cal, scheduler: scheduler}
}

// Book delegates to the Scheduler.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	return s.scheduler.Book(ctx, req)
}

// -- Hours --

// SetHours records a shift. Its day bucket is taken from shift_start.
func (s *Service) SetHours(ctx context.Context, in HoursInput) (*Shift, error) {
	switch {
	case !in.DoctorID.Set:
		return nil, apperr.MissingField("doctor_id")
	case !in.ShiftStart.Set:
		return nil, apperr.MissingField("shift_start")
	case !in.ShiftEnd.Set:
		return nil, apperr.MissingField("shift_end")
	}
	if in.ShiftEnd.Value <= in.ShiftStart.Value {
		return nil, apperr.Invalid("shift_end", "shift_end must be after shift_start")
	}
	day, err := s.cal.DayBucket(in.ShiftStart.Value)
	if err != nil {
		return nil, err
	}
	if _, err := s.cal.DayBucket(in.ShiftEnd.Value); err != nil {
		return nil, err
	}

	sh := &Shift{
		DoctorID:   in.DoctorID.Value,
		DayStamp:   day,
		ShiftStart: in.ShiftStart.Value,
		ShiftEnd:   in.ShiftEnd.Value,
	}
	if err := s.hours.Create(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *Service) ListHours(ctx context.Context, doctorID int64) ([]Shift, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.hours.ListByDoctor(ctx, doctorID)
}

// -- Appointments --

// CancelAppointment flags an appointment canceled, freeing its slot.
// Canceling twice is not an error.
func (s *Service) CancelAppointment(ctx context.Context, in CancelInput) (*Appointment, error) {
	if !in.AppointmentID.Set {
		return nil, apperr.MissingField("appointment_id")
	}
	return s.appts.Cancel(ctx, in.AppointmentID.Value)
}

func (s *Service) ListDoctorAppointments(ctx context.Context, doctorID int64) ([]AppointmentView, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.appts.ListViewsByDoctor(ctx, doctorID)
}

// WeeklySchedule merges the doctor's shifts and non-canceled appointments of
// the seven days starting today, ordered by time.
func (s *Service) WeeklySchedule(ctx context.Context, doctorID int64) ([]ScheduleEntry, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}

	from := s.cal.Today()
	to := s.cal.AddDays(from, 6)

	shifts, err := s.hours.ListViewsInRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	appts, err := s.appts.ListViewsInRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, err
	}

	entries := make([]ScheduleEntry, 0, len(shifts)+len(appts))
	for _, sh := range shifts {
		sh := sh
		entries = append(entries, ScheduleEntry{
			Kind:       EntryShift,
			DayStamp:   sh.DayStamp,
			FirstName:  sh.FirstName,
			LastName:   sh.LastName,
			ShiftStart: &sh.ShiftStart,
			ShiftEnd:   &sh.ShiftEnd,
		})
	}
	for _, a := range appts {
		a := a
		entries = append(entries, ScheduleEntry{
			Kind:          EntryAppointment,
			DayStamp:      a.DayStamp,
			FirstName:     a.FirstName,
			LastName:      a.LastName,
			AppointmentID: &a.ID,
			Address:       a.Address,
			ApmntTime:     &a.ApmntTime,
		})
	}

	// Shifts sort before appointments at the same instant.
	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := entries[i].at(), entries[j].at()
		if ti != tj {
			return ti < tj
		}
		return entries[i].Kind == EntryShift && entries[j].Kind != EntryShift
	})
	return entries, nil
}
