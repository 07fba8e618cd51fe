package common

import (
	"errors"
	"net/http"
)

// Guard violations surface as typed errors so handlers map them to HTTP
// statuses without matching on message text.
var (
	ErrNotFound             = errors.New("record not found")
	ErrRoomRequired         = errors.New("IPD admission requires a room")
	ErrRoomUnavailable      = errors.New("room is not available")
	ErrRoomOccupied         = errors.New("room is currently occupied")
	ErrAlreadyDischarged    = errors.New("patient has already been discharged")
	ErrNotAdmitted          = errors.New("admission is not active")
	ErrBillLocked           = errors.New("bill is locked")
	ErrNotDischarged        = errors.New("bill can only be locked after discharge")
	ErrInvalidAdmissionType = errors.New("invalid admission type")
)

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBillLocked):
		return http.StatusForbidden
	case errors.Is(err, ErrRoomUnavailable), errors.Is(err, ErrRoomOccupied):
		return http.StatusConflict
	case errors.Is(err, ErrRoomRequired), errors.Is(err, ErrInvalidAdmissionType),
		errors.Is(err, ErrAlreadyDischarged), errors.Is(err, ErrNotAdmitted),
		errors.Is(err, ErrNotDischarged):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
