package main

import (
	"errors"
	"hms/src/common"
	"hms/src/config"
	"hms/src/db"
	"hms/src/lib"
	"hms/src/models"
	"hms/src/types"
	"hms/src/utils"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// guardedAdmission loads an admission scoped to the clinic and rejects the
// request if its bill is locked. Every ledger write goes through it.
func guardedAdmission(tx *gorm.DB, admissionId uint, clinicId uint) (*models.Admission, error) {
	var admission models.Admission
	if err := tx.
		Where(&models.Admission{ID: admissionId, ClinicID: clinicId}).
		First(&admission).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	if err := utils.CanMutateLedger(&admission); err != nil {
		return nil, err
	}
	return &admission, nil
}

func ipdHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/ipd/:admissionId/services", func(ctx *gin.Context) {
			var params types.AdmissionURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			var services []models.DailyService
			err := db.
				Model(&models.DailyService{}).
				Joins("JOIN admissions ON admissions.id = daily_services.admission_id").
				Where("daily_services.admission_id = ? AND admissions.clinic_id = ? AND daily_services.is_deleted = ?", params.AdmissionID, clinicId, false).
				Preload("Doctor").
				Order("daily_services.service_date ASC, daily_services.id ASC").
				Find(&services).
				Error
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			var subtotal float64
			byType := map[string]float64{}
			for _, s := range services {
				subtotal += s.TotalPrice
				byType[s.ServiceType] += s.TotalPrice
			}
			ctx.JSON(http.StatusOK, gin.H{
				"data":              services,
				"count":             len(services),
				"subtotal":          subtotal,
				"subtotals_by_type": byType,
			})
		}).
		POST("/ipd/:admissionId/services", func(ctx *gin.Context) {
			var params types.AdmissionURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.CreateDailyServiceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			serviceDate, err := time.Parse(config.DATE_FORMAT, body.ServiceDate)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			userId := ctx.GetUint("id")
			var service models.DailyService
			db := db.GetDb()
			err = db.Transaction(func(tx *gorm.DB) error {
				admission, err := guardedAdmission(tx, params.AdmissionID, clinicId)
				if err != nil {
					return err
				}
				service = models.DailyService{
					AdmissionID: admission.ID,
					ServiceDate: serviceDate,
					ServiceType: body.ServiceType,
					ServiceName: body.ServiceName,
					Quantity:    body.Quantity,
					UnitPrice:   body.UnitPrice,
					Discount:    body.Discount,
					TotalPrice:  utils.ComputeLineTotal(body.Quantity, body.UnitPrice, body.Discount),
					DoctorID:    body.DoctorID,
					Status:      types.SERVICE_COMPLETED,
					Notes:       body.Notes,
					CreatedBy:   userId,
				}
				return tx.Create(&service).Error
			})
			if err != nil {
				log.Printf("Could not add service for Admission [%d]: %s\n", params.AdmissionID, err.Error())
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/ipd", "/api/admissions")
			ctx.JSON(http.StatusCreated, gin.H{"data": service})
		}).
		PUT("/ipd/:admissionId/services/:lineId", func(ctx *gin.Context) {
			var params types.LedgerLineURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateDailyServiceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				if _, err := guardedAdmission(tx, params.AdmissionID, clinicId); err != nil {
					return err
				}
				var service models.DailyService
				if err := tx.
					Where("id = ? AND admission_id = ? AND is_deleted = ?", params.LineID, params.AdmissionID, false).
					First(&service).
					Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return common.ErrNotFound
					}
					return err
				}
				if body.ServiceType != nil {
					service.ServiceType = *body.ServiceType
				}
				if body.ServiceName != nil {
					service.ServiceName = *body.ServiceName
				}
				if body.Quantity != nil {
					service.Quantity = *body.Quantity
				}
				if body.UnitPrice != nil {
					service.UnitPrice = *body.UnitPrice
				}
				if body.Discount != nil {
					service.Discount = *body.Discount
				}
				if body.Notes != nil {
					service.Notes = *body.Notes
				}
				service.TotalPrice = utils.ComputeLineTotal(service.Quantity, service.UnitPrice, service.Discount)
				return tx.Save(&service).Error
			})
			if err != nil {
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/ipd", "/api/admissions")
			ctx.Status(http.StatusNoContent)
		}).
		DELETE("/ipd/:admissionId/services/:lineId", func(ctx *gin.Context) {
			var params types.LedgerLineURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.DeleteLedgerLineRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			userId := ctx.GetUint("id")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				if _, err := guardedAdmission(tx, params.AdmissionID, clinicId); err != nil {
					return err
				}
				now := time.Now()
				result := tx.
					Model(&models.DailyService{}).
					Where("id = ? AND admission_id = ? AND is_deleted = ?", params.LineID, params.AdmissionID, false).
					Updates(map[string]any{
						"is_deleted": true,
						"deleted_by": userId,
						"removed_at": now,
						"notes":      gorm.Expr("notes || ?", " [removed: "+body.Reason+"]"),
					})
				if result.Error != nil {
					return result.Error
				}
				if result.RowsAffected == 0 {
					return common.ErrNotFound
				}
				return nil
			})
			if err != nil {
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/ipd", "/api/admissions")
			ctx.Status(http.StatusNoContent)
		}).
		GET("/ipd/:admissionId/medicines", func(ctx *gin.Context) {
			var params types.AdmissionURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			var medicines []models.MedicineConsumable
			err := db.
				Model(&models.MedicineConsumable{}).
				Joins("JOIN admissions ON admissions.id = medicine_consumables.admission_id").
				Where("medicine_consumables.admission_id = ? AND admissions.clinic_id = ? AND medicine_consumables.is_deleted = ?", params.AdmissionID, clinicId, false).
				Order("medicine_consumables.entry_date ASC, medicine_consumables.id ASC").
				Find(&medicines).
				Error
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			var subtotal float64
			byType := map[string]float64{}
			for _, m := range medicines {
				subtotal += m.TotalPrice
				byType[m.ItemType] += m.TotalPrice
			}
			ctx.JSON(http.StatusOK, gin.H{
				"data":              medicines,
				"count":             len(medicines),
				"subtotal":          subtotal,
				"subtotals_by_type": byType,
			})
		}).
		POST("/ipd/:admissionId/medicines", func(ctx *gin.Context) {
			var params types.AdmissionURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.CreateMedicineRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			entryDate, err := time.Parse(config.DATE_FORMAT, body.EntryDate)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			userId := ctx.GetUint("id")
			var medicine models.MedicineConsumable
			db := db.GetDb()
			err = db.Transaction(func(tx *gorm.DB) error {
				admission, err := guardedAdmission(tx, params.AdmissionID, clinicId)
				if err != nil {
					return err
				}
				medicine = models.MedicineConsumable{
					AdmissionID:  admission.ID,
					EntryDate:    entryDate,
					ItemType:     body.ItemType,
					ItemName:     body.ItemName,
					Quantity:     body.Quantity,
					UnitPrice:    body.UnitPrice,
					TotalPrice:   utils.ComputeLineTotal(body.Quantity, body.UnitPrice, 0),
					PrescribedBy: body.PrescribedBy,
					Status:       types.MEDICINE_ADMINISTERED,
					Notes:        body.Notes,
					CreatedBy:    userId,
				}
				return tx.Create(&medicine).Error
			})
			if err != nil {
				log.Printf("Could not add medicine for Admission [%d]: %s\n", params.AdmissionID, err.Error())
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/ipd", "/api/admissions")
			ctx.JSON(http.StatusCreated, gin.H{"data": medicine})
		}).
		PUT("/ipd/:admissionId/medicines/:lineId", func(ctx *gin.Context) {
			var params types.LedgerLineURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateMedicineRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				if _, err := guardedAdmission(tx, params.AdmissionID, clinicId); err != nil {
					return err
				}
				var medicine models.MedicineConsumable
				if err := tx.
					Where("id = ? AND admission_id = ? AND is_deleted = ?", params.LineID, params.AdmissionID, false).
					First(&medicine).
					Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return common.ErrNotFound
					}
					return err
				}
				if body.ItemType != nil {
					medicine.ItemType = *body.ItemType
				}
				if body.ItemName != nil {
					medicine.ItemName = *body.ItemName
				}
				if body.Quantity != nil {
					medicine.Quantity = *body.Quantity
				}
				if body.UnitPrice != nil {
					medicine.UnitPrice = *body.UnitPrice
				}
				if body.Notes != nil {
					medicine.Notes = *body.Notes
				}
				medicine.TotalPrice = utils.ComputeLineTotal(medicine.Quantity, medicine.UnitPrice, 0)
				return tx.Save(&medicine).Error
			})
			if err != nil {
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/ipd", "/api/admissions")
			ctx.Status(http.StatusNoContent)
		}).
		DELETE("/ipd/:admissionId/medicines/:lineId", func(ctx *gin.Context) {
			var params types.LedgerLineURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.DeleteLedgerLineRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			userId := ctx.GetUint("id")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				if _, err := guardedAdmission(tx, params.AdmissionID, clinicId); err != nil {
					return err
				}
				now := time.Now()
				result := tx.
					Model(&models.MedicineConsumable{}).
					Where("id = ? AND admission_id = ? AND is_deleted = ?", params.LineID, params.AdmissionID, false).
					Updates(map[string]any{
						"is_deleted": true,
						"deleted_by": userId,
						"removed_at": now,
						"notes":      gorm.Expr("notes || ?", " [removed: "+body.Reason+"]"),
					})
				if result.Error != nil {
					return result.Error
				}
				if result.RowsAffected == 0 {
					return common.ErrNotFound
				}
				return nil
			})
			if err != nil {
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/ipd", "/api/admissions")
			ctx.Status(http.StatusNoContent)
		}).
		GET("/ipd/:admissionId/room-charges", func(ctx *gin.Context) {
			var params types.AdmissionURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			var charges []models.RoomCharge
			err := db.
				Model(&models.RoomCharge{}).
				Joins("JOIN admissions ON admissions.id = room_charges.admission_id").
				Where("room_charges.admission_id = ? AND admissions.clinic_id = ?", params.AdmissionID, clinicId).
				Preload("Room").
				Preload("Room.RoomType").
				Order("room_charges.charge_date ASC").
				Find(&charges).
				Error
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			var subtotal float64
			for _, c := range charges {
				if c.IsCharged {
					subtotal += c.ChargeAmount
				}
			}
			ctx.JSON(http.StatusOK, gin.H{"data": charges, "count": len(charges), "subtotal": subtotal})
		}).
		POST("/ipd/:admissionId/generate-room-charges", func(ctx *gin.Context) {
			var params types.AdmissionURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			var created int
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				admission, err := guardedAdmission(tx, params.AdmissionID, clinicId)
				if err != nil {
					return err
				}
				created, err = utils.GenerateRoomCharges(tx, admission, time.Now())
				return err
			})
			if err != nil {
				log.Printf("Could not generate room charges for Admission [%d]: %s\n", params.AdmissionID, err.Error())
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/ipd", "/api/admissions")
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"created": created}})
		})
	return g
}
