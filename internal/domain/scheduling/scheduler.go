package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/lock"
	"github.com/clinic/clinic/pkg/apperr"
)

var errNoTx = errors.New("booking must run inside a transaction")

// TxRunner runs fn in one database transaction carried by ctx.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Scheduler commits or rejects booking requests. Requests for one doctor are
// serialized twice: by the Locker before the transaction starts and by a
// database lock taken inside it.
type Scheduler struct {
	hours   HoursRepository
	appts   AppointmentRepository
	doctors DoctorFinder
	cal     *Calendar
	locker lock.Locker
	inTx   TxRunner
	logger zerolog.Logger
}

func NewScheduler(hours HoursRepository, appts AppointmentRepository, doctors DoctorFinder,
	cal *Calendar, locker lock.Locker, inTx TxRunner, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		hours:   hours,
		appts:   appts,
		doctors: doctors,
		cal:     cal,
		locker:  locker,
		inTx:    inTx,
		logger:  logger,
	}
}

func lockKey(doctorID int64) string {
	return fmt.Sprintf("booking:doctor:%d", doctorID)
}

// Book validates req, checks the doctor's shifts and existing appointments
// against the state before this request and inserts at most one appointment.
// A rejection is a normal result, not an error.
func (s *Scheduler) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	switch {
	case !req.DoctorID.Set:
		return nil, apperr.MissingField("doctor_id")
	case !req.LocationID.Set:
		return nil, apperr.MissingField("location_id")
	case !req.ApmntTime.Set:
		return nil, apperr.MissingField("apmnt_time")
	}
	doctorID, locationID, at := req.DoctorID.Value, req.LocationID.Value, req.ApmntTime.Value

	bucket, err := s.cal.DayBucket(at)
	if err != nil {
		return nil, err
	}
	// A doctor deleted after this point is caught by the foreign key on insert.
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		if apperr.KindOf(err) == apperr.KindUnknown {
			err = apperr.Store("find doctor", err)
		}
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lockKey(doctorID))
	if err != nil {
		return nil, apperr.Store("acquire booking lock", err)
	}
	defer unlock()

	var result *BookingResult
	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.appts.LockDoctor(ctx, doctorID); err != nil {
			return err
		}

		start, end := ConflictWindow(at)
		existing, err := s.appts.InWindow(ctx, doctorID, start, end)
		if err != nil {
			return err
		}
		// The previous day is included so a shift that started before
		// midnight still counts.
		shifts, err := s.hours.ListInRange(ctx, doctorID, s.cal.AddDays(bucket, -1), s.cal.AddDays(bucket, 1))
		if err != nil {
			return err
		}

		conflict := HasConflict(doctorID, at, existing)
		avail := IsDoctorAvailable(doctorID, at, shifts)
		decision := Decide(conflict, avail.Available)
		result = &BookingResult{Decision: decision, Reason: decision.reason(avail)}

		if decision != Commit {
			return nil
		}
		appt := &Appointment{
			DayStamp:   bucket,
			DoctorID:   doctorID,
			LocationID: locationID,
			ApmntTime:  at,
		}
		if err := s.appts.Insert(ctx, appt); err != nil {
			return err
		}
		result.Appointment = appt
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnknown {
			err = apperr.Store("book appointment", err)
		}
		if apperr.Is(err, apperr.KindStoreFailure) {
			s.logger.Error().Err(err).Int64("doctor_id", doctorID).Int64("apmnt_time", at).Msg("booking failed")
		}
		return nil, err
	}

	evt := s.logger.Debug().
		Int64("doctor_id", doctorID).
		Int64("location_id", locationID).
		Int64("apmnt_time", at).
		Str("decision", result.Decision.String())
	if result.Appointment != nil {
		evt = evt.Int64("appointment_id", result.Appointment.ID)
	}
	evt.Msg("booking decided")

	return result, nil
}
