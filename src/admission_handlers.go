package main

import (
	"context"
	"encoding/json"
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

func admissionHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/admissions", func(ctx *gin.Context) {
			var filters types.AdmissionQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			q := db.
				Model(&models.Admission{}).
				Where(&models.Admission{ClinicID: clinicId}).
				Preload("Patient").
				Preload("Doctor").
				Preload("Room").
				Preload("Room.RoomType")
			if filters.Type != "" {
				q = q.Where("admission_type = ?", filters.Type)
			}
			if filters.Status != "" {
				q = q.Where("status = ?", filters.Status)
			}
			if filters.DoctorID > 0 {
				q = q.Where("doctor_id = ?", filters.DoctorID)
			}
			if filters.DateFrom != "" {
				q = q.Where("admission_date >= ?", filters.DateFrom)
			}
			if filters.DateTo != "" {
				q = q.Where("admission_date <= ?", filters.DateTo)
			}
			if filters.Search != "" {
				term := "%" + filters.Search + "%"
				q = q.
					Joins("JOIN patients ON patients.id = admissions.patient_id").
					Where("admissions.admission_number ILIKE ? OR patients.name ILIKE ? OR patients.uhid ILIKE ?", term, term, term)
			}
			var count int64
			if err := q.Count(&count).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			var admissions []models.Admission
			if err := q.
				Order("admission_date DESC, id DESC").
				Offset((filters.Page - 1) * filters.Limit).
				Limit(filters.Limit).
				Find(&admissions).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"data":  admissions,
				"count": count,
				"page":  filters.Page,
				"limit": filters.Limit,
			})
		}).
		GET("/admissions/ipd/census", func(ctx *gin.Context) {
			clinicId := ctx.GetUint("clinic")
			cacheKey := config.CensusCacheKey(clinicId)
			rd := lib.GetRedisClient()
			if rd != nil {
				if cached, err := rd.Get(context.Background(), cacheKey).Result(); err == nil {
					ctx.Data(http.StatusOK, "application/json", []byte(cached))
					return
				}
			}
			db := db.GetDb()
			var admissions []models.Admission
			if err := db.
				Model(&models.Admission{}).
				Where("clinic_id = ? AND admission_type = ? AND status IN ?", clinicId, types.ADMISSION_IPD, []types.AdmissionStatus{types.ADMISSION_ADMITTED, types.ADMISSION_TRANSFERRED}).
				Preload("Patient").
				Preload("Doctor").
				Preload("Room").
				Preload("Room.RoomType").
				Order("admission_date ASC").
				Find(&admissions).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			payload := gin.H{"data": admissions, "count": len(admissions)}
			if rd != nil {
				if raw, err := json.Marshal(payload); err == nil {
					if err := rd.Set(context.Background(), cacheKey, raw, 30*time.Second).Err(); err != nil {
						log.Printf("[redis] Error caching census: %s\n", err.Error())
					}
				}
			}
			ctx.JSON(http.StatusOK, payload)
		}).
		GET("/admissions/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			var admission models.Admission
			if err := db.
				Model(&models.Admission{}).
				Where(&models.Admission{ID: params.ID, ClinicID: clinicId}).
				Preload("Patient").
				Preload("Doctor").
				Preload("Room").
				Preload("Room.RoomType").
				Preload("Bill").
				First(&admission).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": common.ErrNotFound.Error()})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": admission})
		}).
		POST("/admissions", func(ctx *gin.Context) {
			var body types.CreateAdmissionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			userId := ctx.GetUint("id")
			id, number, err := utils.CreateAdmission(&body, clinicId, userId)
			if err != nil {
				log.Printf("Could not create Admission: %s\n", err.Error())
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/admissions", "/api/rooms")
			ctx.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": id, "admission_number": number}})
		}).
		PUT("/admissions/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateAdmissionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			if err := utils.UpdateAdmission(params.ID, clinicId, &body); err != nil {
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/admissions")
			ctx.Status(http.StatusNoContent)
		}).
		PATCH("/admissions/:id/discharge", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.DischargeRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			if err := utils.DischargePatient(params.ID, clinicId, &body); err != nil {
				log.Printf("Could not discharge Admission [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/admissions", "/api/rooms")
			ctx.Status(http.StatusNoContent)
		}).
		PATCH("/admissions/:id/transfer", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.TransferRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			if err := utils.TransferPatient(params.ID, clinicId, &body); err != nil {
				log.Printf("Could not transfer Admission [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/admissions", "/api/rooms")
			ctx.Status(http.StatusNoContent)
		}).
		DELETE("/admissions/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.CancelAdmissionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			if err := utils.CancelAdmission(params.ID, clinicId, body.Reason); err != nil {
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/admissions", "/api/rooms")
			ctx.Status(http.StatusNoContent)
		})
	return g
}
