package main

import (
	"errors"
	"hms/src/common"
	"hms/src/db"
	"hms/src/models"
	"hms/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func clinicHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/clinics", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var user models.User
			if err := db.
				Where(&models.User{ID: userId}).
				Preload("Clinics").
				First(&user).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user.Clinics, "count": len(user.Clinics)})
		}).
		GET("/clinics/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var clinic models.Clinic
			if err := db.
				Where(&models.Clinic{ID: params.ID}).
				First(&clinic).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": common.ErrNotFound.Error()})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": clinic})
		}).
		POST("/clinics", func(ctx *gin.Context) {
			var body types.CreateClinicRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			clinic := models.Clinic{
				Name:         body.Name,
				About:        body.About,
				ContactEmail: body.ContactEmail,
				BillingEmail: body.BillingEmail,
				Phone:        body.Phone,
				Address:      body.Address,
				Slug:         slug.Make(body.Name),
				Status:       "active",
			}
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Create(&clinic).Error; err != nil {
					return err
				}
				var user models.User
				if err := tx.Where(&models.User{ID: userId}).First(&user).Error; err != nil {
					return err
				}
				if err := tx.Model(&user).Association("Clinics").Append(&clinic); err != nil {
					return err
				}
				return tx.
					Model(&models.User{}).
					Where("id = ?", userId).
					Update("active_clinic", clinic.ID).
					Error
			})
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": clinic})
		}).
		PUT("/clinics/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateClinicRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			clinicId := ctx.GetUint("clinic")
			if clinicId != params.ID {
				ctx.Status(http.StatusForbidden)
				return
			}
			updates := map[string]any{}
			if body.Name != nil {
				updates["name"] = *body.Name
				updates["slug"] = slug.Make(*body.Name)
			}
			if body.About != nil {
				updates["about"] = *body.About
			}
			if body.ContactEmail != nil {
				updates["contact_email"] = *body.ContactEmail
			}
			if body.BillingEmail != nil {
				updates["billing_email"] = *body.BillingEmail
			}
			if body.Phone != nil {
				updates["phone"] = *body.Phone
			}
			if body.Address != nil {
				updates["address"] = *body.Address
			}
			if len(updates) == 0 {
				ctx.Status(http.StatusNoContent)
				return
			}
			db := db.GetDb()
			result := db.
				Model(&models.Clinic{}).
				Where("id = ?", params.ID).
				Updates(updates)
			if result.Error != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": result.Error.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
