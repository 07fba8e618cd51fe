package utils

import (
	"errors"
	"fmt"
	"hms/src/common"
	"hms/src/config"
	"hms/src/db"
	"hms/src/models"
	"hms/src/types"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ComputeLineTotal is the single place a ledger line's total comes from.
// Client-supplied totals are never trusted.
func ComputeLineTotal(quantity, unitPrice, discount float64) float64 {
	return quantity*unitPrice - discount
}

type BillTotals struct {
	Subtotal        float64
	DiscountPercent float64
	DiscountAmount  float64
	GSTPercent      float64
	GSTAmount       float64
	OtherCharges    float64
	GrossTotal      float64
	NetPayable      float64
	BalanceDue      float64
}

// ComputeBillTotals derives every money field of a bill from its inputs:
//
//	gross_total = (subtotal - discount_amount) * (1 + gst/100) + other_charges
//	net_payable = gross_total - advance_paid
//	balance_due = gross_total - advance_paid - amount_paid
func ComputeBillTotals(subtotal, discountPercent, gstPercent, otherCharges, advancePaid, amountPaid float64) BillTotals {
	discountAmount := subtotal * discountPercent / 100
	afterDiscount := subtotal - discountAmount
	gstAmount := afterDiscount * gstPercent / 100
	grossTotal := afterDiscount + gstAmount + otherCharges
	return BillTotals{
		Subtotal:        subtotal,
		DiscountPercent: discountPercent,
		DiscountAmount:  discountAmount,
		GSTPercent:      gstPercent,
		GSTAmount:       gstAmount,
		OtherCharges:    otherCharges,
		GrossTotal:      grossTotal,
		NetPayable:      grossTotal - advancePaid,
		BalanceDue:      grossTotal - advancePaid - amountPaid,
	}
}

// DerivePaymentStatus maps the payment position onto the closed status set.
// Any refund on record forces refund_pending regardless of balance.
func DerivePaymentStatus(balanceDue, advancePaid, amountPaid float64, hasRefund bool) types.PaymentStatus {
	if hasRefund {
		return types.PAYMENT_REFUND_PENDING
	}
	received := advancePaid + amountPaid
	if received <= 0 {
		return types.PAYMENT_UNPAID
	}
	if balanceDue <= 0 {
		return types.PAYMENT_PAID
	}
	return types.PAYMENT_PARTIALLY_PAID
}

// ChargeDays enumerates the calendar days of a stay, inclusive on both ends,
// normalized to midnight UTC.
func ChargeDays(from, to time.Time) []time.Time {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	if end.Before(start) {
		return nil
	}
	days := []time.Time{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// GenerateRoomCharges inserts one charge row per uncharged day of room
// occupancy, priced at the room type's day rate. Safe to call repeatedly:
// days that already carry a charge row are skipped.
func GenerateRoomCharges(tx *gorm.DB, admission *models.Admission, until time.Time) (int, error) {
	if admission.AdmissionType != types.ADMISSION_IPD || admission.RoomID == nil {
		return 0, nil
	}
	var room models.Room
	if err := tx.
		Where(&models.Room{ID: *admission.RoomID}).
		Preload("RoomType").
		First(&room).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, common.ErrNotFound
		}
		return 0, err
	}
	rate := 0.0
	if room.RoomType != nil {
		rate = room.RoomType.BaseChargePerDay
	}

	if admission.DischargeDate != nil && admission.DischargeDate.Before(until) {
		until = *admission.DischargeDate
	}

	var existing []time.Time
	if err := tx.
		Model(&models.RoomCharge{}).
		Where(&models.RoomCharge{AdmissionID: admission.ID}).
		Where("is_charged = ?", true).
		Pluck("charge_date", &existing).
		Error; err != nil {
		return 0, err
	}
	charged := make(map[string]bool, len(existing))
	for _, d := range existing {
		charged[d.UTC().Format("2006-01-02")] = true
	}

	created := 0
	for _, day := range ChargeDays(admission.AdmissionDate, until) {
		if charged[day.Format("2006-01-02")] {
			continue
		}
		charge := models.RoomCharge{
			AdmissionID:  admission.ID,
			RoomID:       room.ID,
			ChargeDate:   day,
			ChargeAmount: rate,
			IsCharged:    true,
		}
		if err := tx.Create(&charge).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func sumLedger(tx *gorm.DB, model any, admissionId uint) (float64, error) {
	var total float64
	err := tx.
		Model(model).
		Where("admission_id = ? AND is_deleted = ?", admissionId, false).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&total).
		Error
	return total, err
}

// CalculateBill re-sums every ledger feed into the admission's bill row and
// recomputes the derived totals with the stored discount/GST/other charges.
// Idempotent for unchanged ledgers.
func CalculateBill(admissionId uint, clinicId uint, actorId uint) (*models.AdmissionBill, error) {
	var bill models.AdmissionBill
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		admission, err := getAdmission(tx, admissionId, clinicId)
		if err != nil {
			return err
		}
		if err := tx.
			Where(&models.AdmissionBill{AdmissionID: admission.ID}).
			FirstOrInit(&bill).
			Error; err != nil {
			return err
		}
		if bill.IsLocked {
			return common.ErrBillLocked
		}
		before := billSnapshot(&bill)

		services, err := sumLedger(tx, &models.DailyService{}, admission.ID)
		if err != nil {
			return err
		}
		medicines, err := sumLedger(tx, &models.MedicineConsumable{}, admission.ID)
		if err != nil {
			return err
		}
		var roomCharges float64
		if err := tx.
			Model(&models.RoomCharge{}).
			Where("admission_id = ? AND is_charged = ?", admission.ID, true).
			Select("COALESCE(SUM(charge_amount), 0)").
			Scan(&roomCharges).
			Error; err != nil {
			return err
		}

		subtotal := services + medicines + roomCharges
		totals := ComputeBillTotals(subtotal, bill.DiscountPercent, bill.GSTPercent, bill.OtherCharges, bill.AdvancePaid, bill.AmountPaid)
		applyTotals(&bill, totals)
		bill.AdmissionID = admission.ID
		bill.PaymentStatus = DerivePaymentStatus(bill.BalanceDue, bill.AdvancePaid, bill.AmountPaid, hasRefund(tx, admission.ID))

		if err := tx.Save(&bill).Error; err != nil {
			return err
		}
		return writeBillAudit(tx, admission.ID, "calculate", actorId, before, billSnapshot(&bill))
	})
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// UpdateBill recomputes the derived totals from the currently stored
// subtotal. Ledger changes require a CalculateBill call first.
func UpdateBill(admissionId uint, clinicId uint, params *types.UpdateBillRequestBody, actorId uint) (*models.AdmissionBill, error) {
	var bill models.AdmissionBill
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		admission, err := getAdmission(tx, admissionId, clinicId)
		if err != nil {
			return err
		}
		if err := tx.
			Where(&models.AdmissionBill{AdmissionID: admission.ID}).
			First(&bill).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrNotFound
			}
			return err
		}
		if bill.IsLocked {
			return common.ErrBillLocked
		}
		before := billSnapshot(&bill)

		if params.DiscountPercent != nil {
			bill.DiscountPercent = *params.DiscountPercent
		}
		if params.GSTPercent != nil {
			bill.GSTPercent = *params.GSTPercent
		}
		if params.OtherCharges != nil {
			bill.OtherCharges = *params.OtherCharges
		}
		if params.Notes != nil {
			bill.Notes = *params.Notes
		}

		totals := ComputeBillTotals(bill.Subtotal, bill.DiscountPercent, bill.GSTPercent, bill.OtherCharges, bill.AdvancePaid, bill.AmountPaid)
		applyTotals(&bill, totals)
		bill.PaymentStatus = DerivePaymentStatus(bill.BalanceDue, bill.AdvancePaid, bill.AmountPaid, hasRefund(tx, admission.ID))

		if err := tx.Save(&bill).Error; err != nil {
			return err
		}
		return writeBillAudit(tx, admission.ID, "update", actorId, before, billSnapshot(&bill))
	})
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// LockBill is the one-way gate: only reachable after discharge, never
// reversed. Sets both the bill flag and the admission's mirror flag.
func LockBill(admissionId uint, clinicId uint, actorId uint) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		admission, err := getAdmission(tx, admissionId, clinicId)
		if err != nil {
			return err
		}
		if admission.Status != types.ADMISSION_DISCHARGED {
			return common.ErrNotDischarged
		}
		var bill models.AdmissionBill
		if err := tx.
			Where(&models.AdmissionBill{AdmissionID: admission.ID}).
			First(&bill).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrNotFound
			}
			return err
		}
		if bill.IsLocked {
			return common.ErrBillLocked
		}
		before := billSnapshot(&bill)
		if err := tx.
			Model(&models.AdmissionBill{}).
			Where("id = ?", bill.ID).
			Update("is_locked", true).
			Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Admission{}).
			Where("id = ?", admission.ID).
			Update("bill_locked", true).
			Error; err != nil {
			return err
		}
		bill.IsLocked = true
		return writeBillAudit(tx, admission.ID, "lock", actorId, before, billSnapshot(&bill))
	})
}

// ApplyPayment appends a payment row and brings the bill's derived fields
// back in line with the full payment history. Payments are accepted even
// against a locked bill.
func ApplyPayment(admissionId uint, clinicId uint, params *types.AddPaymentRequestBody, userId uint) (*models.AdmissionPayment, *models.AdmissionBill, error) {
	var payment models.AdmissionPayment
	var bill models.AdmissionBill
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		admission, err := getAdmission(tx, admissionId, clinicId)
		if err != nil {
			return err
		}
		if err := tx.
			Where(&models.AdmissionBill{AdmissionID: admission.ID}).
			FirstOrInit(&bill).
			Error; err != nil {
			return err
		}
		before := billSnapshot(&bill)

		payment = models.AdmissionPayment{
			AdmissionID: admission.ID,
			PaymentDate: parsePaymentDate(params.PaymentDate),
			PaymentType: types.PaymentType(params.PaymentType),
			Amount:      params.Amount,
			Method:      params.Method,
			Reference:   params.Reference,
			ReceiptNo:   fmt.Sprintf("RCPT-%s", uuid.NewString()[:8]),
			ReceivedBy:  userId,
			Notes:       params.Notes,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		advance, err := sumPayments(tx, admission.ID, types.PAYMENT_ADVANCE)
		if err != nil {
			return err
		}
		partial, err := sumPayments(tx, admission.ID, types.PAYMENT_PARTIAL)
		if err != nil {
			return err
		}
		final, err := sumPayments(tx, admission.ID, types.PAYMENT_FINAL)
		if err != nil {
			return err
		}
		refund, err := sumPayments(tx, admission.ID, types.PAYMENT_REFUND)
		if err != nil {
			return err
		}

		bill.AdmissionID = admission.ID
		bill.AdvancePaid = advance
		bill.AmountPaid = partial + final - refund
		bill.BalanceDue = bill.GrossTotal - bill.AdvancePaid - bill.AmountPaid
		bill.PaymentStatus = DerivePaymentStatus(bill.BalanceDue, bill.AdvancePaid, bill.AmountPaid, refund > 0)

		if err := tx.Save(&bill).Error; err != nil {
			return err
		}
		return writeBillAudit(tx, admission.ID, "payment", userId, before, billSnapshot(&bill))
	})
	if err != nil {
		return nil, nil, err
	}
	return &payment, &bill, nil
}

// parsePaymentDate reads a day-granularity date, defaulting to now when the
// value is absent or malformed.
func parsePaymentDate(value string) time.Time {
	if value != "" {
		if pd, err := time.Parse(config.DATE_FORMAT, value); err == nil {
			return pd
		}
	}
	return time.Now()
}

func sumPayments(tx *gorm.DB, admissionId uint, paymentType types.PaymentType) (float64, error) {
	var total float64
	err := tx.
		Model(&models.AdmissionPayment{}).
		Where(&models.AdmissionPayment{AdmissionID: admissionId, PaymentType: paymentType}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).
		Error
	return total, err
}

func hasRefund(tx *gorm.DB, admissionId uint) bool {
	var count int64
	if err := tx.
		Model(&models.AdmissionPayment{}).
		Where(&models.AdmissionPayment{AdmissionID: admissionId, PaymentType: types.PAYMENT_REFUND}).
		Count(&count).
		Error; err != nil {
		log.Printf("Error counting refunds for Admission [%d]: %s\n", admissionId, err.Error())
		return false
	}
	return count > 0
}

func applyTotals(bill *models.AdmissionBill, totals BillTotals) {
	bill.Subtotal = totals.Subtotal
	bill.DiscountAmount = totals.DiscountAmount
	bill.GSTAmount = totals.GSTAmount
	bill.GrossTotal = totals.GrossTotal
	bill.BalanceDue = totals.BalanceDue
}

func billSnapshot(bill *models.AdmissionBill) *types.JSONB {
	return &types.JSONB{
		"subtotal":         bill.Subtotal,
		"discount_percent": bill.DiscountPercent,
		"discount_amount":  bill.DiscountAmount,
		"gst_percent":      bill.GSTPercent,
		"gst_amount":       bill.GSTAmount,
		"other_charges":    bill.OtherCharges,
		"gross_total":      bill.GrossTotal,
		"advance_paid":     bill.AdvancePaid,
		"amount_paid":      bill.AmountPaid,
		"balance_due":      bill.BalanceDue,
		"payment_status":   string(bill.PaymentStatus),
		"is_locked":        bill.IsLocked,
	}
}

func writeBillAudit(tx *gorm.DB, admissionId uint, action string, actorId uint, before, after *types.JSONB) error {
	audit := models.BillAudit{
		AdmissionID: admissionId,
		Action:      action,
		ActorID:     actorId,
		Before:      before,
		After:       after,
	}
	return tx.Create(&audit).Error
}
