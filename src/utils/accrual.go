package utils

import (
	"hms/src/db"
	"hms/src/models"
	"hms/src/types"
	"log"
	"time"

	"gorm.io/gorm"
)

// AccrueRoomCharges walks every open IPD admission and brings its room
// charges up to today. Runs nightly from the scheduler; manual discharge
// and transfer paths fill any remaining gap themselves.
func AccrueRoomCharges() {
	db := db.GetDb()
	var admissions []models.Admission
	if err := db.
		Where("admission_type = ? AND status IN ?", types.ADMISSION_IPD, []types.AdmissionStatus{types.ADMISSION_ADMITTED, types.ADMISSION_TRANSFERRED}).
		Where("room_id IS NOT NULL").
		Find(&admissions).
		Error; err != nil {
		log.Printf("Error listing open admissions for accrual: %s\n", err.Error())
		return
	}
	now := time.Now()
	accrued := 0
	for _, admission := range admissions {
		err := db.Transaction(func(tx *gorm.DB) error {
			created, err := GenerateRoomCharges(tx, &admission, now)
			accrued += created
			return err
		})
		if err != nil {
			log.Printf("Error accruing room charges for Admission [%d]: %s\n", admission.ID, err.Error())
		}
	}
	log.Printf("Room charge accrual complete: %d admissions, %d new charges\n", len(admissions), accrued)
}
