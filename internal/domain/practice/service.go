package practice

import (
	"context"
	"strings"

	"github.com/clinic/clinic/pkg/apperr"
)

type Service struct {
	doctors     DoctorRepository
	locations   LocationRepository
	assignments AssignmentRepository
}

func NewService(doc DoctorRepository, loc LocationRepository, asg AssignmentRepository) *Service {
	return &Service{doctors: doc, locations: loc, assignments: asg}
}

// required returns the trimmed value of a mandatory text field.
func required(field string, v *string) (string, error) {
	if v == nil {
		return "", apperr.MissingField(field)
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return "", apperr.MissingField(field)
	}
	return s, nil
}

// -- Doctor --

func (s *Service) CreateDoctor(ctx context.Context, in DoctorInput) (*Doctor, error) {
	first, err := required("first_name", in.FirstName)
	if err != nil {
		return nil, err
	}
	last, err := required("last_name", in.LastName)
	if err != nil {
		return nil, err
	}
	d := &Doctor{FirstName: first, LastName: last}
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context) ([]*Doctor, error) {
	return s.doctors.List(ctx)
}

// UpdateDoctor replaces both names and returns the stored row.
func (s *Service) UpdateDoctor(ctx context.Context, in DoctorInput) (*Doctor, error) {
	if !in.DoctorID.Set {
		return nil, apperr.MissingField("doctor_id")
	}
	first, err := required("first_name", in.FirstName)
	if err != nil {
		return nil, err
	}
	last, err := required("last_name", in.LastName)
	if err != nil {
		return nil, err
	}
	d := &Doctor{ID: in.DoctorID.Value, FirstName: first, LastName: last}
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDoctor removes a doctor along with their hours and location
// assignments. Doctors with appointments are refused with a Conflict.
func (s *Service) DeleteDoctor(ctx context.Context, id int64) error {
	return s.doctors.Delete(ctx, id)
}

// -- Location --

func (s *Service) CreateLocation(ctx context.Context, in LocationInput) (*Location, error) {
	addr, err := required("address", in.Address)
	if err != nil {
		return nil, err
	}
	l := &Location{Address: addr}
	if err := s.locations.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) GetLocation(ctx context.Context, id int64) (*Location, error) {
	return s.locations.GetByID(ctx, id)
}

func (s *Service) ListLocations(ctx context.Context) ([]*Location, error) {
	return s.locations.List(ctx)
}

// -- Assignment --

func (s *Service) AssignLocation(ctx context.Context, in AssignmentInput) (*DoctorLocation, error) {
	if !in.DoctorID.Set {
		return nil, apperr.MissingField("doctor_id")
	}
	if !in.LocationID.Set {
		return nil, apperr.MissingField("location_id")
	}
	if _, err := s.doctors.GetByID(ctx, in.DoctorID.Value); err != nil {
		return nil, err
	}
	if _, err := s.locations.GetByID(ctx, in.LocationID.Value); err != nil {
		return nil, err
	}
	a := &DoctorLocation{DoctorID: in.DoctorID.Value, LocationID: in.LocationID.Value}
	if err := s.assignments.Assign(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListDoctorLocations(ctx context.Context, doctorID int64) ([]*Location, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.assignments.ListLocationsForDoctor(ctx, doctorID)
}
