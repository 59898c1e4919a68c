package scheduling

// Decision is the outcome of a booking attempt.
type Decision int

const (
	Commit Decision = iota
	RejectConflict
	RejectUnavailable
	RejectConflictAndUnavailable
)

func (d Decision) String() string {
	switch d {
	case Commit:
		return "commit"
	case RejectConflict:
		return "reject_conflict"
	case RejectUnavailable:
		return "reject_unavailable"
	case RejectConflictAndUnavailable:
		return "reject_conflict_and_unavailable"
	}
	return "unknown"
}

// Decide maps every combination of the two checks to exactly one outcome.
// Only a conflict-free request from an available doctor commits.
func Decide(conflict, available bool) Decision {
	switch {
	case !conflict && available:
		return Commit
	case conflict && available:
		return RejectConflict
	case !conflict && !available:
		return RejectUnavailable
	default:
		return RejectConflictAndUnavailable
	}
}

// reason is the client-facing rejection reason for d.
func (d Decision) reason(avail Availability) string {
	switch d {
	case RejectConflict:
		return ReasonConflict
	case RejectUnavailable:
		return avail.Reason
	case RejectConflictAndUnavailable:
		return ReasonConflictAndUnavailable
	}
	return ""
}
