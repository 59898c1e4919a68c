package practice

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/pkg/apperr"
)

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool db.Querier }

func NewDoctorRepoPG(pool db.Querier) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const doctorCols = `id, first_name, last_name`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.FirstName, &d.LastName)
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO doctors (first_name, last_name) VALUES ($1, $2) RETURNING id`,
		d.FirstName, d.LastName).Scan(&d.ID)
	if err != nil {
		return apperr.Store("insert doctor", err)
	}
	return nil
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id int64) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound("Doctor")
		}
		return nil, apperr.Store("get doctor", err)
	}
	return d, nil
}

func (r *doctorRepoPG) List(ctx context.Context) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+doctorCols+` FROM doctors ORDER BY id`)
	if err != nil {
		return nil, apperr.Store("list doctors", err)
	}
	defer rows.Close()
	items := []*Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, apperr.Store("scan doctor", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("list doctors", err)
	}
	return items, nil
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE doctors SET first_name = $2, last_name = $3 WHERE id = $1`,
		d.ID, d.FirstName, d.LastName)
	if err != nil {
		return apperr.Store("update doctor", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Doctor")
	}
	return nil
}

func (r *doctorRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		if db.PgCode(err) == db.CodeForeignKeyViolation {
			return apperr.Conflict("Doctor has appointments and cannot be deleted")
		}
		return apperr.Store("delete doctor", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Doctor")
	}
	return nil
}

// =========== Location Repository ===========

type locationRepoPG struct{ pool db.Querier }

func NewLocationRepoPG(pool db.Querier) LocationRepository { return &locationRepoPG{pool: pool} }

func (r *locationRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

func scanLocation(row pgx.Row) (*Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.Address)
	return &l, err
}

func (r *locationRepoPG) Create(ctx context.Context, l *Location) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO locations (address) VALUES ($1) RETURNING id`, l.Address).Scan(&l.ID)
	if err != nil {
		return apperr.Store("insert location", err)
	}
	return nil
}

func (r *locationRepoPG) GetByID(ctx context.Context, id int64) (*Location, error) {
	l, err := scanLocation(r.conn(ctx).QueryRow(ctx, `SELECT id, address FROM locations WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound("Location")
		}
		return nil, apperr.Store("get location", err)
	}
	return l, nil
}

func (r *locationRepoPG) List(ctx context.Context) ([]*Location, error) {
	return queryLocations(ctx, r.conn(ctx), "list locations", `SELECT id, address FROM locations ORDER BY id`)
}

func queryLocations(ctx context.Context, q db.Querier, op, sql string, args ...interface{}) ([]*Location, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	defer rows.Close()
	items := []*Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, apperr.Store("scan location", err)
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(op, err)
	}
	return items, nil
}

// =========== Assignment Repository ===========

type assignmentRepoPG struct{ pool db.Querier }

func NewAssignmentRepoPG(pool db.Querier) AssignmentRepository { return &assignmentRepoPG{pool: pool} }

func (r *assignmentRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

func (r *assignmentRepoPG) Assign(ctx context.Context, a *DoctorLocation) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO doctor_locations (doctor_id, location_id) VALUES ($1, $2) RETURNING id`,
		a.DoctorID, a.LocationID).Scan(&a.ID)
	if err != nil {
		if db.PgCode(err) == db.CodeForeignKeyViolation {
			if db.ConstraintName(err) == "doctor_locations_location_id_fkey" {
				return apperr.NotFound("Location")
			}
			return apperr.NotFound("Doctor")
		}
		return apperr.Store("assign location", err)
	}
	return nil
}

func (r *assignmentRepoPG) ListLocationsForDoctor(ctx context.Context, doctorID int64) ([]*Location, error) {
	return queryLocations(ctx, r.conn(ctx), "list doctor locations", `
		SELECT l.id, l.address
		FROM doctor_locations dl
		INNER JOIN locations l ON dl.location_id = l.id
		WHERE dl.doctor_id = $1
		ORDER BY dl.id`, doctorID)
}
