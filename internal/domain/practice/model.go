package practice

import "github.com/clinic/clinic/pkg/jsonnum"

type Doctor struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Location struct {
	ID      int64  `json:"id"`
	Address string `json:"address"`
}

// DoctorLocation records that a doctor practices at a location.
type DoctorLocation struct {
	ID         int64 `json:"id"`
	DoctorID   int64 `json:"doctor_id"`
	LocationID int64 `json:"location_id"`
}

// DoctorInput is the body of create and update calls. Pointers tell an
// absent field apart from an empty one.
type DoctorInput struct {
	DoctorID  jsonnum.Int `json:"doctor_id"`
	FirstName *string     `json:"first_name"`
	LastName  *string     `json:"last_name"`
}

type LocationInput struct {
	Address *string `json:"address"`
}

type AssignmentInput struct {
	DoctorID   jsonnum.Int `json:"doctor_id"`
	LocationID jsonnum.Int `json:"location_id"`
}
