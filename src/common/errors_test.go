package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(ErrBillLocked))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrRoomUnavailable))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrRoomOccupied))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrAlreadyDischarged))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrNotDischarged))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestHTTPStatusWrapped(t *testing.T) {
	wrapped := fmt.Errorf("discharging: %w", ErrAlreadyDischarged)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(wrapped))
}
