package scheduling

// Reasons attached to a rejected booking.
const (
	ReasonConflict               = "conflict"
	ReasonNoShift                = "no_shift"
	ReasonOffShift               = "off_shift"
	ReasonConflictAndUnavailable = "conflict_and_unavailable"
)

// Availability is the outcome of checking a requested time against shifts.
type Availability struct {
	Available bool
	// Reason is ReasonNoShift when no shift starts at or before the requested
	// time and ReasonOffShift when every such shift has already ended.
	Reason string
}

// IsDoctorAvailable reports whether requested falls inside one of the
// doctor's shifts. A shift covers [shift_start, shift_end): a request at
// exactly shift_end is outside. Shifts of other doctors are ignored and the
// order of shifts does not matter.
func IsDoctorAvailable(doctorID, requested int64, shifts []Shift) Availability {
	started := false
	for _, s := range shifts {
		if s.DoctorID != doctorID || s.ShiftStart > requested {
			continue
		}
		started = true
		if requested < s.ShiftEnd {
			return Availability{Available: true}
		}
	}
	if !started {
		return Availability{Reason: ReasonNoShift}
	}
	return Availability{Reason: ReasonOffShift}
}
