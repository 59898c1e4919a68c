package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clinic/clinic/internal/domain/practice"
	"github.com/clinic/clinic/internal/platform/lock"
	"github.com/clinic/clinic/pkg/apperr"
	"github.com/rs/zerolog"
)

// -- In-memory repositories --

type memDoctors struct {
	doctors map[int64]*practice.Doctor
}

func (m *memDoctors) GetByID(_ context.Context, id int64) (*practice.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, apperr.NotFound("Doctor")
	}
	return d, nil
}

type memHours struct {
	mu      sync.Mutex
	shifts  []Shift
	doctors *memDoctors
}

func (m *memHours) Create(_ context.Context, s *Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.doctors.doctors[s.DoctorID]; !ok {
		return apperr.NotFound("Doctor")
	}
	s.ID = int64(len(m.shifts))
	m.shifts = append(m.shifts, *s)
	return nil
}

func (m *memHours) ListByDoctor(_ context.Context, doctorID int64) ([]Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []Shift{}
	for _, s := range m.shifts {
		if s.DoctorID == doctorID {
			items = append(items, s)
		}
	}
	return items, nil
}

func (m *memHours) ListInRange(_ context.Context, doctorID, dayStart, dayEnd int64) ([]Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []Shift{}
	for _, s := range m.shifts {
		if s.DoctorID == doctorID && s.DayStamp >= dayStart && s.DayStamp <= dayEnd {
			items = append(items, s)
		}
	}
	return items, nil
}

func (m *memHours) ListViewsInRange(ctx context.Context, doctorID, dayStart, dayEnd int64) ([]ShiftView, error) {
	shifts, _ := m.ListInRange(ctx, doctorID, dayStart, dayEnd)
	d := m.doctors.doctors[doctorID]
	items := []ShiftView{}
	for _, s := range shifts {
		items = append(items, ShiftView{
			ID: s.ID, DayStamp: s.DayStamp, FirstName: d.FirstName, LastName: d.LastName,
			ShiftStart: s.ShiftStart, ShiftEnd: s.ShiftEnd,
		})
	}
	return items, nil
}

type memAppointments struct {
	mu        sync.Mutex
	appts     []Appointment
	addresses map[int64]string
	doctors   *memDoctors
	// failInsert makes Insert fail with a storage error.
	failInsert bool
}

func (m *memAppointments) LockDoctor(context.Context, int64) error { return nil }

func (m *memAppointments) Insert(_ context.Context, a *Appointment) error {
	if m.failInsert {
		return apperr.Store("insert appointment", context.DeadlineExceeded)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.addresses[a.LocationID]; !ok {
		return apperr.NotFound("Location")
	}
	a.ID = int64(len(m.appts))
	m.appts = append(m.appts, *a)
	return nil
}

func (m *memAppointments) InWindow(_ context.Context, doctorID, start, end int64) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []Appointment{}
	for _, a := range m.appts {
		if a.DoctorID == doctorID && !a.IsCanceled && a.ApmntTime >= start && a.ApmntTime <= end {
			items = append(items, a)
		}
	}
	return items, nil
}

func (m *memAppointments) Cancel(_ context.Context, id int64) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || id >= int64(len(m.appts)) {
		return nil, apperr.NotFound("Appointment")
	}
	m.appts[id].IsCanceled = true
	a := m.appts[id]
	return &a, nil
}

func (m *memAppointments) views(filter func(Appointment) bool) []AppointmentView {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []AppointmentView{}
	for _, a := range m.appts {
		if !filter(a) {
			continue
		}
		d := m.doctors.doctors[a.DoctorID]
		items = append(items, AppointmentView{
			ID: a.ID, DayStamp: a.DayStamp, FirstName: d.FirstName, LastName: d.LastName,
			LocationID: a.LocationID, Address: m.addresses[a.LocationID],
			ApmntTime: a.ApmntTime, IsCanceled: a.IsCanceled,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ApmntTime < items[j].ApmntTime })
	return items
}

func (m *memAppointments) ListViewsByDoctor(_ context.Context, doctorID int64) ([]AppointmentView, error) {
	return m.views(func(a Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (m *memAppointments) ListViewsInRange(_ context.Context, doctorID, dayStart, dayEnd int64) ([]AppointmentView, error) {
	return m.views(func(a Appointment) bool {
		return a.DoctorID == doctorID && !a.IsCanceled && a.DayStamp >= dayStart && a.DayStamp <= dayEnd
	}), nil
}

// -- Fixture --

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type fixture struct {
	svc     *Service
	cal     *Calendar
	doctors *memDoctors
	hours   *memHours
	appts   *memAppointments
}

// newFixture seeds doctor 0 and location 0, mirroring the clinic's sample data.
func newFixture() *fixture {
	doctors := &memDoctors{doctors: map[int64]*practice.Doctor{
		0: {ID: 0, FirstName: "Testy", LastName: "McTestFace"},
		1: {ID: 1, FirstName: "Elmer", LastName: "Hartman"},
	}}
	hours := &memHours{doctors: doctors}
	appts := &memAppointments{doctors: doctors, addresses: map[int64]string{0: "1 Main St"}}
	cal := NewCalendar(time.UTC)
	sched := NewScheduler(hours, appts, doctors, cal, lock.NewKeyedMutex(), passthroughTx, zerolog.Nop())
	return &fixture{
		svc:     NewService(hours, appts, doctors, cal, sched),
		cal:     cal,
		doctors: doctors,
		hours:   hours,
		appts:   appts,
	}
}
