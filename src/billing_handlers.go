package main

import (
	"errors"
	"fmt"
	"hms/src/common"
	"hms/src/db"
	"hms/src/lib"
	"hms/src/models"
	"hms/src/types"
	"hms/src/utils"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func billingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/admissions/bills/summary", func(ctx *gin.Context) {
			var filters types.BillSummaryQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			q := db.
				Model(&models.AdmissionBill{}).
				Joins("JOIN admissions ON admissions.id = admission_bills.admission_id").
				Where("admissions.clinic_id = ?", clinicId)
			if filters.Status != "" {
				q = q.Where("admission_bills.payment_status = ?", filters.Status)
			}
			if filters.DateFrom != "" {
				q = q.Where("admissions.admission_date >= ?", filters.DateFrom)
			}
			if filters.DateTo != "" {
				q = q.Where("admissions.admission_date <= ?", filters.DateTo)
			}
			var summary struct {
				Bills       int64   `json:"bills"`
				GrossTotal  float64 `json:"gross_total"`
				AdvancePaid float64 `json:"advance_paid"`
				AmountPaid  float64 `json:"amount_paid"`
				BalanceDue  float64 `json:"balance_due"`
			}
			if err := q.
				Select("COUNT(*) AS bills, COALESCE(SUM(gross_total), 0) AS gross_total, COALESCE(SUM(advance_paid), 0) AS advance_paid, COALESCE(SUM(amount_paid), 0) AS amount_paid, COALESCE(SUM(balance_due), 0) AS balance_due").
				Scan(&summary).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": summary})
		}).
		GET("/admissions/:id/bill", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			var bill models.AdmissionBill
			err := db.
				Model(&models.AdmissionBill{}).
				Joins("JOIN admissions ON admissions.id = admission_bills.admission_id").
				Where("admission_bills.admission_id = ? AND admissions.clinic_id = ?", params.ID, clinicId).
				First(&bill).
				Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": common.ErrNotFound.Error()})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bill})
		}).
		POST("/admissions/:id/bill", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			userId := ctx.GetUint("id")
			bill, err := utils.CalculateBill(params.ID, clinicId, userId)
			if err != nil {
				log.Printf("Could not calculate bill for Admission [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/admissions")
			ctx.JSON(http.StatusOK, gin.H{"data": bill})
		}).
		PUT("/admissions/:id/bill", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateBillRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			userId := ctx.GetUint("id")
			bill, err := utils.UpdateBill(params.ID, clinicId, &body, userId)
			if err != nil {
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/admissions")
			ctx.JSON(http.StatusOK, gin.H{"data": bill})
		}).
		POST("/admissions/:id/lock-bill", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			userId := ctx.GetUint("id")
			if err := utils.LockBill(params.ID, clinicId, userId); err != nil {
				log.Printf("Could not lock bill for Admission [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/admissions")
			ctx.Status(http.StatusNoContent)
		}).
		GET("/admissions/:id/bill/audit", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			var trail []models.BillAudit
			if err := db.
				Model(&models.BillAudit{}).
				Joins("JOIN admissions ON admissions.id = bill_audits.admission_id").
				Where("bill_audits.admission_id = ? AND admissions.clinic_id = ?", params.ID, clinicId).
				Order("bill_audits.created_at ASC").
				Find(&trail).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": trail, "count": len(trail)})
		}).
		GET("/admissions/:id/payments", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			var payments []models.AdmissionPayment
			if err := db.
				Model(&models.AdmissionPayment{}).
				Joins("JOIN admissions ON admissions.id = admission_payments.admission_id").
				Where("admission_payments.admission_id = ? AND admissions.clinic_id = ?", params.ID, clinicId).
				Order("admission_payments.payment_date ASC, admission_payments.id ASC").
				Find(&payments).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			var total float64
			for _, p := range payments {
				if p.PaymentType == types.PAYMENT_REFUND {
					total -= p.Amount
					continue
				}
				total += p.Amount
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payments, "count": len(payments), "total": total})
		}).
		POST("/admissions/:id/payments", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.AddPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			userId := ctx.GetUint("id")
			payment, bill, err := utils.ApplyPayment(params.ID, clinicId, &body, userId)
			if err != nil {
				log.Printf("Could not record payment for Admission [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/admissions")
			go sendPaymentReceipt(params.ID, payment)
			ctx.JSON(http.StatusCreated, gin.H{"data": gin.H{"payment": payment, "bill": bill}})
		})
	return g
}

// sendPaymentReceipt mails a receipt to the patient if an address is on
// record. Runs off the request path; a failed send only logs.
func sendPaymentReceipt(admissionId uint, payment *models.AdmissionPayment) {
	db := db.GetDb()
	var admission models.Admission
	if err := db.
		Model(&models.Admission{}).
		Where(&models.Admission{ID: admissionId}).
		Preload("Patient").
		Preload("Clinic").
		First(&admission).
		Error; err != nil {
		log.Printf("Could not load Admission [%d] for receipt: %s\n", admissionId, err.Error())
		return
	}
	if admission.Patient == nil || admission.Patient.Email == "" {
		return
	}
	from := os.Getenv("SMTP_FROM")
	fromName := "Billing"
	if admission.Clinic != nil {
		fromName = admission.Clinic.Name
		if admission.Clinic.BillingEmail != nil {
			from = *admission.Clinic.BillingEmail
		}
	}
	body := fmt.Sprintf(
		"Dear %s,\n\nWe have received your %s payment of %.2f against admission %s.\nReceipt number: %s\n\nThank you.",
		admission.Patient.Name,
		payment.PaymentType,
		payment.Amount,
		admission.AdmissionNumber,
		payment.ReceiptNo,
	)
	err := lib.SendMail(&lib.SendMailInput{
		From:     from,
		FromName: fromName,
		To:       []string{admission.Patient.Email},
		Subject:  fmt.Sprintf("Payment receipt %s", payment.ReceiptNo),
		Body:     body,
	})
	if err != nil {
		log.Printf("Could not send receipt %s: %s\n", payment.ReceiptNo, err.Error())
	}
}
