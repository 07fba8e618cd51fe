package utils

import (
	"hms/src/common"
	"hms/src/models"
	"hms/src/types"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestFormatAdmissionNumber(t *testing.T) {
	assert.Equal(t, "IPD-2026-00001", FormatAdmissionNumber(types.ADMISSION_IPD, 2026, 1))
	assert.Equal(t, "OPD-2026-00042", FormatAdmissionNumber(types.ADMISSION_OPD, 2026, 42))
	assert.Equal(t, "IPD-2027-12345", FormatAdmissionNumber(types.ADMISSION_IPD, 2027, 12345))
}

func TestNextAdmissionSequence(t *testing.T) {
	assert.Equal(t, 1, NextAdmissionSequence(""))
	assert.Equal(t, 1, NextAdmissionSequence("garbage"))
	assert.Equal(t, 1, NextAdmissionSequence("IPD-2026-xx"))
	assert.Equal(t, 2, NextAdmissionSequence("IPD-2026-00001"))
	assert.Equal(t, 100, NextAdmissionSequence("OPD-2026-00099"))
}

func TestCanDischarge(t *testing.T) {
	assert.Nil(t, CanDischarge(&models.Admission{Status: types.ADMISSION_ADMITTED}))
	assert.Nil(t, CanDischarge(&models.Admission{Status: types.ADMISSION_TRANSFERRED}))
	assert.ErrorIs(t, CanDischarge(&models.Admission{Status: types.ADMISSION_DISCHARGED}), common.ErrAlreadyDischarged)
	assert.ErrorIs(t, CanDischarge(&models.Admission{Status: types.ADMISSION_CANCELLED}), common.ErrNotAdmitted)
	assert.ErrorIs(t, CanDischarge(&models.Admission{Status: types.ADMISSION_ADMITTED, BillLocked: true}), common.ErrBillLocked)
}

func TestCanTransfer(t *testing.T) {
	ipd := &models.Admission{AdmissionType: types.ADMISSION_IPD, Status: types.ADMISSION_ADMITTED}
	assert.Nil(t, CanTransfer(ipd))

	// a transferred patient can be moved again
	ipd.Status = types.ADMISSION_TRANSFERRED
	assert.Nil(t, CanTransfer(ipd))

	opd := &models.Admission{AdmissionType: types.ADMISSION_OPD, Status: types.ADMISSION_ADMITTED}
	assert.ErrorIs(t, CanTransfer(opd), common.ErrInvalidAdmissionType)

	discharged := &models.Admission{AdmissionType: types.ADMISSION_IPD, Status: types.ADMISSION_DISCHARGED}
	assert.ErrorIs(t, CanTransfer(discharged), common.ErrNotAdmitted)
}

func TestCanCancel(t *testing.T) {
	assert.Nil(t, CanCancel(&models.Admission{Status: types.ADMISSION_ADMITTED}))
	assert.ErrorIs(t, CanCancel(&models.Admission{Status: types.ADMISSION_DISCHARGED}), common.ErrAlreadyDischarged)
	assert.ErrorIs(t, CanCancel(&models.Admission{Status: types.ADMISSION_CANCELLED}), common.ErrNotAdmitted)
}

func TestCanMutateLedger(t *testing.T) {
	assert.Nil(t, CanMutateLedger(&models.Admission{}))
	assert.ErrorIs(t, CanMutateLedger(&models.Admission{BillLocked: true}), common.ErrBillLocked)
}

func TestOccupyRoomOnlyWhenAvailable(t *testing.T) {
	gdb, mock := newMockDB(t)

	// room was grabbed between the availability read and the update
	mock.ExpectExec(`UPDATE "rooms"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, occupyRoom(gdb, 7, 15), common.ErrRoomUnavailable)

	mock.ExpectExec(`UPDATE "rooms"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.Nil(t, occupyRoom(gdb, 7, 15))
	assert.Nil(t, mock.ExpectationsWereMet())
}
