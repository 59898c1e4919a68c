package scheduling

// ConflictBuffer is how close, in seconds, two appointments of one doctor may
// be. Appointments exactly ConflictBuffer apart still conflict; 900 apart do not.
const ConflictBuffer int64 = 899

// ConflictWindow returns the inclusive bounds searched for conflicts.
func ConflictWindow(requested int64) (start, end int64) {
	return requested - ConflictBuffer, requested + ConflictBuffer
}

// HasConflict reports whether any non-canceled appointment of the doctor lies
// within ConflictBuffer seconds of requested.
func HasConflict(doctorID, requested int64, existing []Appointment) bool {
	start, end := ConflictWindow(requested)
	for _, a := range existing {
		if a.DoctorID != doctorID || a.IsCanceled {
			continue
		}
		if a.ApmntTime >= start && a.ApmntTime <= end {
			return true
		}
	}
	return false
}
