package main

import (
	"errors"
	"hms/src/common"
	"hms/src/db"
	"hms/src/lib"
	"hms/src/models"
	"hms/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func roomHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/rooms", func(ctx *gin.Context) {
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			q := db.
				Model(&models.Room{}).
				Where(&models.Room{ClinicID: clinicId}).
				Preload("RoomType").
				Preload("CurrentPatient")
			if status := ctx.Query("status"); status != "" {
				q = q.Where("status = ?", status)
			}
			if ctx.Query("active") == "true" {
				q = q.Where("is_active = ?", true)
			}
			var rooms []models.Room
			if err := q.
				Order("room_number ASC").
				Find(&rooms).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": rooms, "count": len(rooms)})
		}).
		GET("/rooms/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			var room models.Room
			if err := db.
				Where(&models.Room{ID: params.ID, ClinicID: clinicId}).
				Preload("RoomType").
				Preload("CurrentPatient").
				First(&room).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": common.ErrNotFound.Error()})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": room})
		}).
		POST("/rooms", func(ctx *gin.Context) {
			var body types.CreateRoomRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			bedCount := body.BedCount
			if bedCount == 0 {
				bedCount = 1
			}
			room := models.Room{
				RoomNumber: body.RoomNumber,
				RoomTypeID: body.RoomTypeID,
				Floor:      body.Floor,
				Building:   body.Building,
				BedCount:   bedCount,
				Status:     types.ROOM_AVAILABLE,
				IsActive:   true,
				ClinicID:   clinicId,
			}
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var roomType models.RoomType
				if err := tx.
					Where(&models.RoomType{ID: body.RoomTypeID, ClinicID: clinicId}).
					First(&roomType).
					Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return common.ErrNotFound
					}
					return err
				}
				return tx.Create(&room).Error
			})
			if err != nil {
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/rooms")
			ctx.JSON(http.StatusCreated, gin.H{"data": room})
		}).
		PUT("/rooms/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateRoomRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			updates := map[string]any{}
			if body.RoomNumber != nil {
				updates["room_number"] = *body.RoomNumber
			}
			if body.RoomTypeID != nil {
				updates["room_type_id"] = *body.RoomTypeID
			}
			if body.Floor != nil {
				updates["floor"] = *body.Floor
			}
			if body.Building != nil {
				updates["building"] = *body.Building
			}
			if body.BedCount != nil {
				updates["bed_count"] = *body.BedCount
			}
			if len(updates) == 0 {
				ctx.Status(http.StatusNoContent)
				return
			}
			db := db.GetDb()
			result := db.
				Model(&models.Room{}).
				Where(&models.Room{ID: params.ID, ClinicID: clinicId}).
				Updates(updates)
			if result.Error != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": result.Error.Error()})
				return
			}
			if result.RowsAffected == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": common.ErrNotFound.Error()})
				return
			}
			go lib.InvalidateCache("/api/rooms")
			ctx.Status(http.StatusNoContent)
		}).
		PATCH("/rooms/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateRoomStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var room models.Room
				if err := tx.
					Where(&models.Room{ID: params.ID, ClinicID: clinicId}).
					First(&room).
					Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return common.ErrNotFound
					}
					return err
				}
				// An occupied room only changes status through the admission
				// lifecycle.
				if room.Status == types.ROOM_OCCUPIED {
					return common.ErrRoomOccupied
				}
				return tx.
					Model(&models.Room{}).
					Where("id = ?", room.ID).
					Update("status", types.RoomStatus(body.NewStatus)).
					Error
			})
			if err != nil {
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/rooms")
			ctx.Status(http.StatusNoContent)
		}).
		DELETE("/rooms/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var room models.Room
				if err := tx.
					Where(&models.Room{ID: params.ID, ClinicID: clinicId}).
					First(&room).
					Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return common.ErrNotFound
					}
					return err
				}
				if room.Status == types.ROOM_OCCUPIED {
					return common.ErrRoomOccupied
				}
				// Deactivation, not deletion. History keeps pointing at the row.
				return tx.
					Model(&models.Room{}).
					Where("id = ?", room.ID).
					Update("is_active", false).
					Error
			})
			if err != nil {
				ctx.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/rooms")
			ctx.Status(http.StatusNoContent)
		}).
		GET("/room-types", func(ctx *gin.Context) {
			clinicId := ctx.GetUint("clinic")
			db := db.GetDb()
			var roomTypes []models.RoomType
			if err := db.
				Where(&models.RoomType{ClinicID: clinicId}).
				Where("is_active = ?", true).
				Order("name ASC").
				Find(&roomTypes).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": roomTypes, "count": len(roomTypes)})
		}).
		POST("/room-types", func(ctx *gin.Context) {
			var body types.CreateRoomTypeRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			roomType := models.RoomType{
				Name:             body.Name,
				BaseChargePerDay: body.BaseChargePerDay,
				Description:      body.Description,
				ClinicID:         clinicId,
				IsActive:         true,
			}
			db := db.GetDb()
			if err := db.Create(&roomType).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			go lib.InvalidateCache("/api/room-types")
			ctx.JSON(http.StatusCreated, gin.H{"data": roomType})
		}).
		PUT("/room-types/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateRoomTypeRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			updates := map[string]any{}
			if body.Name != nil {
				updates["name"] = *body.Name
			}
			// Rate changes only affect charges generated from now on.
			if body.BaseChargePerDay != nil {
				updates["base_charge_per_day"] = *body.BaseChargePerDay
			}
			if body.Description != nil {
				updates["description"] = *body.Description
			}
			if len(updates) == 0 {
				ctx.Status(http.StatusNoContent)
				return
			}
			db := db.GetDb()
			result := db.
				Model(&models.RoomType{}).
				Where(&models.RoomType{ID: params.ID, ClinicID: clinicId}).
				Updates(updates)
			if result.Error != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": result.Error.Error()})
				return
			}
			if result.RowsAffected == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": common.ErrNotFound.Error()})
				return
			}
			go lib.InvalidateCache("/api/room-types")
			ctx.Status(http.StatusNoContent)
		})
	return g
}
