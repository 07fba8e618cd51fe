package utils

import (
	"hms/src/common"
	"hms/src/config"
	"hms/src/db"
	"hms/src/models"
	"hms/src/types"
	"log"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestComputeLineTotal(t *testing.T) {
	assert.Equal(t, 900.0, ComputeLineTotal(2, 500, 100))
	assert.Equal(t, 250.0, ComputeLineTotal(5, 50, 0))
}

func TestComputeBillTotals(t *testing.T) {
	// 900 charged, 10% discount, 5% GST, 50 other charges
	totals := ComputeBillTotals(900, 10, 5, 50, 0, 0)
	assert.Equal(t, 90.0, totals.DiscountAmount)
	assert.Equal(t, 40.5, totals.GSTAmount)
	assert.Equal(t, 900.5, totals.GrossTotal)
	assert.Equal(t, 900.5, totals.BalanceDue)

	totals = ComputeBillTotals(900, 10, 5, 50, 500, 400.5)
	assert.Equal(t, 900.5, totals.GrossTotal)
	assert.Equal(t, 400.5, totals.NetPayable)
	assert.Equal(t, 0.0, totals.BalanceDue)

	totals = ComputeBillTotals(0, 0, 0, 0, 0, 0)
	assert.Equal(t, 0.0, totals.GrossTotal)
	assert.Equal(t, 0.0, totals.BalanceDue)
}

func TestDerivePaymentStatus(t *testing.T) {
	assert.Equal(t, types.PAYMENT_UNPAID, DerivePaymentStatus(1000, 0, 0, false))
	assert.Equal(t, types.PAYMENT_PARTIALLY_PAID, DerivePaymentStatus(600, 200, 200, false))
	assert.Equal(t, types.PAYMENT_PAID, DerivePaymentStatus(0, 500, 500, false))
	assert.Equal(t, types.PAYMENT_PAID, DerivePaymentStatus(-50, 500, 550, false))
	assert.Equal(t, types.PAYMENT_REFUND_PENDING, DerivePaymentStatus(0, 500, 450, true))
}

func TestChargeDays(t *testing.T) {
	from := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	to := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)

	days := ChargeDays(from, to)
	assert.Len(t, days, 3)
	assert.Equal(t, "2026-03-10", days[0].Format("2006-01-02"))
	assert.Equal(t, "2026-03-12", days[2].Format("2006-01-02"))

	sameDay := ChargeDays(from, from)
	assert.Len(t, sameDay, 1)

	assert.Empty(t, ChargeDays(to, from))
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqldb, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqldb,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

func TestGenerateRoomChargesSkipsChargedDays(t *testing.T) {
	gdb, mock := newMockDB(t)

	roomId := uint(7)
	admission := &models.Admission{
		ID:            42,
		AdmissionType: types.ADMISSION_IPD,
		RoomID:        &roomId,
		AdmissionDate: time.Now().AddDate(0, 0, -2),
	}

	mock.ExpectQuery(`SELECT (.+) FROM "rooms"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_number", "room_type_id", "status"}).
			AddRow(7, "201", 3, "occupied"))
	mock.ExpectQuery(`SELECT (.+) FROM "room_types"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "base_charge_per_day"}).
			AddRow(3, "General Ward", 1500.0))

	firstDay := time.Date(admission.AdmissionDate.Year(), admission.AdmissionDate.Month(), admission.AdmissionDate.Day(), 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT "charge_date" FROM "room_charges"`).
		WillReturnRows(sqlmock.NewRows([]string{"charge_date"}).AddRow(firstDay))

	// 3 occupied days, 1 already charged
	mock.ExpectQuery(`INSERT INTO "room_charges"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "room_charges"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

	created, err := GenerateRoomCharges(gdb, admission, time.Now())
	assert.Nil(t, err)
	assert.Equal(t, 2, created)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func expectBillRecalc(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "admissions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "clinic_id", "admission_type", "status", "bill_locked"}).
			AddRow(42, 1, "ipd", "discharged", false))
	mock.ExpectQuery(`SELECT (.+) FROM "admission_bills"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "admission_id", "subtotal", "discount_percent", "gst_percent", "other_charges", "advance_paid", "amount_paid", "is_locked"}).
			AddRow(1, 42, 0.0, 10.0, 5.0, 50.0, 0.0, 0.0, false))
	mock.ExpectQuery(`SELECT (.+) FROM "daily_services"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(900.0))
	mock.ExpectQuery(`SELECT (.+) FROM "medicine_consumables"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0.0))
	mock.ExpectQuery(`SELECT (.+) FROM "room_charges"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0.0))
	mock.ExpectQuery(`SELECT count(.+) FROM "admission_payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`UPDATE "admission_bills"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "bill_audits"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("8f14e45f-ceea-4b5a-9a2c-1c3d4e5f6a7b"))
	mock.ExpectCommit()
}

func TestCalculateBillIdempotent(t *testing.T) {
	gdb, mock := newMockDB(t)
	db.NewDB(gdb)

	expectBillRecalc(mock)
	first, err := CalculateBill(42, 1, 9)
	assert.Nil(t, err)

	// Same ledger, second run lands on the same numbers
	expectBillRecalc(mock)
	second, err := CalculateBill(42, 1, 9)
	assert.Nil(t, err)

	assert.Equal(t, 900.0, first.Subtotal)
	assert.Equal(t, 900.5, first.GrossTotal)
	assert.Equal(t, first.Subtotal, second.Subtotal)
	assert.Equal(t, first.DiscountAmount, second.DiscountAmount)
	assert.Equal(t, first.GSTAmount, second.GSTAmount)
	assert.Equal(t, first.GrossTotal, second.GrossTotal)
	assert.Equal(t, first.BalanceDue, second.BalanceDue)
	assert.Equal(t, first.PaymentStatus, second.PaymentStatus)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestLockBillRequiresDischarge(t *testing.T) {
	gdb, mock := newMockDB(t)
	db.NewDB(gdb)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "admissions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "clinic_id", "status", "bill_locked"}).
			AddRow(42, 1, "admitted", false))
	mock.ExpectRollback()

	err := LockBill(42, 1, 9)
	assert.ErrorIs(t, err, common.ErrNotDischarged)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestParsePaymentDate(t *testing.T) {
	parsed := parsePaymentDate("2026-03-15")
	assert.Equal(t, "2026-03-15", parsed.Format(config.DATE_FORMAT))

	assert.WithinDuration(t, time.Now(), parsePaymentDate(""), time.Minute)
	assert.WithinDuration(t, time.Now(), parsePaymentDate("15/03/2026"), time.Minute)
}

func TestGenerateRoomChargesSkipsOPD(t *testing.T) {
	gdb, mock := newMockDB(t)

	admission := &models.Admission{
		ID:            11,
		AdmissionType: types.ADMISSION_OPD,
		AdmissionDate: time.Now(),
	}
	created, err := GenerateRoomCharges(gdb, admission, time.Now())
	assert.Nil(t, err)
	assert.Equal(t, 0, created)
	assert.Nil(t, mock.ExpectationsWereMet())
}
