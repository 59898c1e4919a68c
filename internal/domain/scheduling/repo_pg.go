package scheduling

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/pkg/apperr"
)

func fkNotFound(err error) error {
	switch db.ConstraintName(err) {
	case "appointments_location_id_fkey":
		return apperr.NotFound("Location")
	default:
		return apperr.NotFound("Doctor")
	}
}

// =========== Hours Repository ===========

type hoursRepoPG struct{ pool db.Querier }

func NewHoursRepoPG(pool db.Querier) HoursRepository { return &hoursRepoPG{pool: pool} }

func (r *hoursRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const shiftCols = `id, doctor_id, day_stamp, shift_start, shift_end`

func scanShifts(rows pgx.Rows) ([]Shift, error) {
	defer rows.Close()
	items := []Shift{}
	for rows.Next() {
		var s Shift
		if err := rows.Scan(&s.ID, &s.DoctorID, &s.DayStamp, &s.ShiftStart, &s.ShiftEnd); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *hoursRepoPG) Create(ctx context.Context, s *Shift) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctor_hours (doctor_id, day_stamp, shift_start, shift_end)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		s.DoctorID, s.DayStamp, s.ShiftStart, s.ShiftEnd).Scan(&s.ID)
	if err != nil {
		switch db.PgCode(err) {
		case db.CodeForeignKeyViolation:
			return apperr.NotFound("Doctor")
		case db.CodeCheckViolation:
			return apperr.Invalid("shift_end", "shift_end must be after shift_start")
		}
		return apperr.Store("insert doctor hours", err)
	}
	return nil
}

func (r *hoursRepoPG) ListByDoctor(ctx context.Context, doctorID int64) ([]Shift, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+shiftCols+` FROM doctor_hours WHERE doctor_id = $1 ORDER BY shift_start, id`, doctorID)
	if err != nil {
		return nil, apperr.Store("list doctor hours", err)
	}
	items, err := scanShifts(rows)
	if err != nil {
		return nil, apperr.Store("scan doctor hours", err)
	}
	return items, nil
}

func (r *hoursRepoPG) ListInRange(ctx context.Context, doctorID, dayStart, dayEnd int64) ([]Shift, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+shiftCols+` FROM doctor_hours
		WHERE doctor_id = $1 AND day_stamp BETWEEN $2 AND $3
		ORDER BY shift_start, id`, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, apperr.Store("query shifts in range", err)
	}
	items, err := scanShifts(rows)
	if err != nil {
		return nil, apperr.Store("scan shifts in range", err)
	}
	return items, nil
}

func (r *hoursRepoPG) ListViewsInRange(ctx context.Context, doctorID, dayStart, dayEnd int64) ([]ShiftView, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT dh.id, dh.day_stamp, d.first_name, d.last_name, dh.shift_start, dh.shift_end
		FROM doctor_hours dh
		INNER JOIN doctors d ON dh.doctor_id = d.id
		WHERE dh.doctor_id = $1 AND dh.day_stamp BETWEEN $2 AND $3
		ORDER BY dh.shift_start, dh.id`, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, apperr.Store("query weekly hours", err)
	}
	defer rows.Close()
	items := []ShiftView{}
	for rows.Next() {
		var v ShiftView
		if err := rows.Scan(&v.ID, &v.DayStamp, &v.FirstName, &v.LastName, &v.ShiftStart, &v.ShiftEnd); err != nil {
			return nil, apperr.Store("scan weekly hours", err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("query weekly hours", err)
	}
	return items, nil
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool db.Querier }

func NewAppointmentRepoPG(pool db.Querier) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const apptCols = `id, day_stamp, doctor_id, location_id, apmnt_time, is_canceled`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.DayStamp, &a.DoctorID, &a.LocationID, &a.ApmntTime, &a.IsCanceled)
	return &a, err
}

func (r *appointmentRepoPG) LockDoctor(ctx context.Context, doctorID int64) error {
	tx := db.TxFromContext(ctx)
	if tx == nil {
		return apperr.Store("lock doctor", errNoTx)
	}
	if err := db.AdvisoryXactLock(ctx, tx, doctorID); err != nil {
		return apperr.Store("lock doctor", err)
	}
	return nil
}

func (r *appointmentRepoPG) Insert(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (day_stamp, doctor_id, location_id, apmnt_time, is_canceled)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		a.DayStamp, a.DoctorID, a.LocationID, a.ApmntTime, a.IsCanceled).Scan(&a.ID)
	if err != nil {
		if db.PgCode(err) == db.CodeForeignKeyViolation {
			return fkNotFound(err)
		}
		return apperr.Store("insert appointment", err)
	}
	return nil
}

func (r *appointmentRepoPG) InWindow(ctx context.Context, doctorID, start, end int64) ([]Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE doctor_id = $1 AND apmnt_time BETWEEN $2 AND $3 AND NOT is_canceled`,
		doctorID, start, end)
	if err != nil {
		return nil, apperr.Store("query appointments in window", err)
	}
	defer rows.Close()
	items := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, apperr.Store("scan appointment", err)
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("query appointments in window", err)
	}
	return items, nil
}

func (r *appointmentRepoPG) Cancel(ctx context.Context, id int64) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments SET is_canceled = TRUE WHERE id = $1
		RETURNING `+apptCols, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound("Appointment")
		}
		return nil, apperr.Store("cancel appointment", err)
	}
	return a, nil
}

const apptViewSelect = `
		SELECT a.id, a.day_stamp, d.first_name, d.last_name, a.location_id, l.address,
			a.apmnt_time, a.is_canceled
		FROM appointments a
		INNER JOIN locations l ON a.location_id = l.id
		INNER JOIN doctors d ON a.doctor_id = d.id`

func (r *appointmentRepoPG) queryViews(ctx context.Context, op, sql string, args ...interface{}) ([]AppointmentView, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	defer rows.Close()
	items := []AppointmentView{}
	for rows.Next() {
		var v AppointmentView
		if err := rows.Scan(&v.ID, &v.DayStamp, &v.FirstName, &v.LastName, &v.LocationID,
			&v.Address, &v.ApmntTime, &v.IsCanceled); err != nil {
			return nil, apperr.Store(op, err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(op, err)
	}
	return items, nil
}

func (r *appointmentRepoPG) ListViewsByDoctor(ctx context.Context, doctorID int64) ([]AppointmentView, error) {
	return r.queryViews(ctx, "list doctor appointments",
		apptViewSelect+` WHERE a.doctor_id = $1 ORDER BY a.apmnt_time, a.id`, doctorID)
}

func (r *appointmentRepoPG) ListViewsInRange(ctx context.Context, doctorID, dayStart, dayEnd int64) ([]AppointmentView, error) {
	return r.queryViews(ctx, "query weekly appointments",
		apptViewSelect+` WHERE a.doctor_id = $1 AND a.day_stamp BETWEEN $2 AND $3 AND NOT a.is_canceled
		ORDER BY a.apmnt_time, a.id`, doctorID, dayStart, dayEnd)
}
