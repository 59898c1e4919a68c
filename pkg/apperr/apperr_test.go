package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindMissingField, http.StatusBadRequest},
		{KindInvalid, http.StatusBadRequest},
		{KindInvalidTimestamp, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindStoreFailure, http.StatusInternalServerError},
		{KindUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.kind); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("create doctor: %w", MissingField("first_name"))
	if KindOf(err) != KindMissingField {
		t.Errorf("expected missing_field, got %s", KindOf(err))
	}
	if !Is(err, KindMissingField) {
		t.Error("expected Is to match wrapped kind")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("expected unknown kind for plain error")
	}
}

func TestStore_UnwrapsCause(t *testing.T) {
	cause := errors.New(`relation "doctors" does not exist`)
	err := Store("list doctors", cause)
	if !errors.Is(err, cause) {
		t.Error("expected store error to unwrap to its cause")
	}
}

func TestPublicMessage_HidesInternals(t *testing.T) {
	cause := errors.New(`duplicate key value violates unique constraint "doctors_pkey"`)
	if got := PublicMessage(Store("insert doctor", cause)); got != "internal error" {
		t.Errorf("store failure leaked: %q", got)
	}
	if got := PublicMessage(errors.New("raw")); got != "internal error" {
		t.Errorf("unknown error leaked: %q", got)
	}
	if got := PublicMessage(MissingField("doctor_id")); got != "Missing required field" {
		t.Errorf("unexpected missing field message: %q", got)
	}
	if got := PublicMessage(NotFound("doctor")); got != "doctor not found" {
		t.Errorf("unexpected not found message: %q", got)
	}
}
