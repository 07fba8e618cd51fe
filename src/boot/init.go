package boot

import (
	"hms/src/db"
	"hms/src/lib"
	"hms/src/models"
	"hms/src/utils"
	"log"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Clinic{},
		&models.Patient{},
		&models.RoomType{},
		&models.Room{},
		&models.Admission{},
		&models.DailyService{},
		&models.MedicineConsumable{},
		&models.RoomCharge{},
		&models.AdmissionBill{},
		&models.AdmissionPayment{},
		&models.BillAudit{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitScheduler starts the background scheduler with the nightly
// room-charge accrual run. 00:05 so charges for the new day exist before
// the morning shift pulls up any bill.
func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	id, err := lib.CreateDailyJob(0, 5, utils.AccrueRoomCharges)
	if err != nil {
		log.Printf("Error scheduling accrual job: %s\n", err.Error())
		return
	}
	log.Printf("Scheduled room charge accrual: %s\n", *id)
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
		return
	}
}
