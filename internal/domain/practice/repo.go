package practice

import "context"

// Repositories return *apperr.Error values: NotFound for missing rows,
// Conflict for rows still referenced, StoreFailure for everything else.

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id int64) (*Doctor, error)
	List(ctx context.Context) ([]*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id int64) error
}

type LocationRepository interface {
	Create(ctx context.Context, l *Location) error
	GetByID(ctx context.Context, id int64) (*Location, error)
	List(ctx context.Context) ([]*Location, error)
}

type AssignmentRepository interface {
	Assign(ctx context.Context, a *DoctorLocation) error
	ListLocationsForDoctor(ctx context.Context, doctorID int64) ([]*Location, error)
}
