package scheduling

import "context"

// HoursRepository stores doctor shifts. Range bounds are inclusive day
// buckets.
type HoursRepository interface {
	Create(ctx context.Context, s *Shift) error
	ListByDoctor(ctx context.Context, doctorID int64) ([]Shift, error)
	ListInRange(ctx context.Context, doctorID, dayStart, dayEnd int64) ([]Shift, error)
	ListViewsInRange(ctx context.Context, doctorID, dayStart, dayEnd int64) ([]ShiftView, error)
}

type AppointmentRepository interface {
	// LockDoctor serializes booking transactions of one doctor. It must run
	// inside the transaction it guards.
	LockDoctor(ctx context.Context, doctorID int64) error
	Insert(ctx context.Context, a *Appointment) error
	// InWindow returns the doctor's non-canceled appointments with
	// start <= apmnt_time <= end.
	InWindow(ctx context.Context, doctorID, start, end int64) ([]Appointment, error)
	Cancel(ctx context.Context, id int64) (*Appointment, error)
	ListViewsByDoctor(ctx context.Context, doctorID int64) ([]AppointmentView, error)
	// ListViewsInRange returns non-canceled appointments by inclusive day bucket.
	ListViewsInRange(ctx context.Context, doctorID, dayStart, dayEnd int64) ([]AppointmentView, error)
}
