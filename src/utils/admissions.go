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
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// FormatAdmissionNumber renders the human-readable identifier for an
// admission, e.g. IPD-2026-00042.
func FormatAdmissionNumber(admissionType types.AdmissionType, year int, seq int) string {
	return fmt.Sprintf("%s-%d-%05d", admissionType, year, seq)
}

// NextAdmissionSequence parses the sequence out of the last issued number
// for a (type, year) prefix and returns the next one. An empty or malformed
// last number starts the sequence at 1.
func NextAdmissionSequence(last string) int {
	parts := strings.Split(last, "-")
	if len(parts) != 3 {
		return 1
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil {
		return 1
	}
	return seq + 1
}

// nextAdmissionNumber reads the highest number issued for (type, year) and
// increments it. The read-then-insert window is racy under concurrent
// creates; the unique index on admission_number turns a collision into an
// insert error the client retries.
func nextAdmissionNumber(tx *gorm.DB, admissionType types.AdmissionType, year int) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", admissionType, year)
	var last string
	err := tx.
		Model(&models.Admission{}).
		Where("admission_number LIKE ?", prefix+"%").
		Order("admission_number DESC").
		Limit(1).
		Pluck("admission_number", &last).
		Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	return FormatAdmissionNumber(admissionType, year, NextAdmissionSequence(last)), nil
}

// CanMutateLedger rejects any write against an admission whose bill has been
// locked.
func CanMutateLedger(a *models.Admission) error {
	if a.BillLocked {
		return common.ErrBillLocked
	}
	return nil
}

func CanDischarge(a *models.Admission) error {
	if a.Status == types.ADMISSION_DISCHARGED {
		return common.ErrAlreadyDischarged
	}
	if a.Status == types.ADMISSION_CANCELLED {
		return common.ErrNotAdmitted
	}
	if a.BillLocked {
		return common.ErrBillLocked
	}
	return nil
}

// CanTransfer allows a move while the patient is in-house. A transferred
// admission stays effectively admitted, so repeat transfers are allowed.
func CanTransfer(a *models.Admission) error {
	if a.AdmissionType != types.ADMISSION_IPD {
		return common.ErrInvalidAdmissionType
	}
	if a.Status != types.ADMISSION_ADMITTED && a.Status != types.ADMISSION_TRANSFERRED {
		return common.ErrNotAdmitted
	}
	if a.BillLocked {
		return common.ErrBillLocked
	}
	return nil
}

func CanCancel(a *models.Admission) error {
	if a.Status == types.ADMISSION_DISCHARGED {
		return common.ErrAlreadyDischarged
	}
	if a.Status == types.ADMISSION_CANCELLED {
		return common.ErrNotAdmitted
	}
	if a.BillLocked {
		return common.ErrBillLocked
	}
	return nil
}

// occupyRoom flips a room to occupied only if it is still available at
// write time. Two transactions racing for the same room both pass the
// earlier status read; the predicate here makes exactly one of them win.
func occupyRoom(tx *gorm.DB, roomId uint, patientId uint) error {
	result := tx.
		Model(&models.Room{}).
		Where("id = ? AND status = ?", roomId, types.ROOM_AVAILABLE).
		Updates(map[string]any{
			"status":             types.ROOM_OCCUPIED,
			"current_patient_id": patientId,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrRoomUnavailable
	}
	return nil
}

// CreateAdmission inserts the admission and, for IPD, flips the target room
// to occupied inside the same transaction. Both writes commit or neither
// does.
func CreateAdmission(params *types.CreateAdmissionRequestBody, clinicId uint, userId uint) (uint, string, error) {
	admissionDate, err := time.Parse(config.TIME_PARSE_FORMAT, params.AdmissionDate)
	if err != nil {
		admissionDate, err = time.Parse(config.DATE_FORMAT, params.AdmissionDate)
		if err != nil {
			return 0, "", err
		}
	}
	admissionType := types.AdmissionType(params.AdmissionType)
	if admissionType != types.ADMISSION_IPD && admissionType != types.ADMISSION_OPD {
		return 0, "", common.ErrInvalidAdmissionType
	}
	if admissionType == types.ADMISSION_IPD && params.RoomID == nil {
		return 0, "", common.ErrRoomRequired
	}

	var admissionId uint
	var admissionNumber string
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var patient models.Patient
		if err := tx.Where(&models.Patient{ID: params.PatientID}).First(&patient).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrNotFound
			}
			return err
		}

		number, err := nextAdmissionNumber(tx, admissionType, admissionDate.Year())
		if err != nil {
			return err
		}

		admission := models.Admission{
			AdmissionNumber: number,
			PatientID:       params.PatientID,
			AdmissionType:   admissionType,
			DoctorID:        params.DoctorID,
			ClinicID:        clinicId,
			AppointmentID:   params.AppointmentID,
			AdmissionDate:   admissionDate,
			AdmissionTime:   params.AdmissionTime,
			BedNumber:       params.BedNumber,
			ChiefComplaint:  params.ChiefComplaint,
			Diagnosis:       params.Diagnosis,
			Status:          types.ADMISSION_ADMITTED,
			CreatedBy:       userId,
		}

		if admissionType == types.ADMISSION_IPD {
			var room models.Room
			if err := tx.
				Where(&models.Room{ID: *params.RoomID, ClinicID: clinicId}).
				Where("is_active = ?", true).
				First(&room).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return common.ErrNotFound
				}
				return err
			}
			if room.Status != types.ROOM_AVAILABLE {
				return common.ErrRoomUnavailable
			}
			admission.RoomID = params.RoomID
			if err := occupyRoom(tx, room.ID, params.PatientID); err != nil {
				return err
			}
		}

		if err := tx.Create(&admission).Error; err != nil {
			return err
		}
		admissionId = admission.ID
		admissionNumber = admission.AdmissionNumber
		return nil
	})
	if err != nil {
		return 0, "", err
	}
	return admissionId, admissionNumber, nil
}

// UpdateAdmission writes only the whitelisted clinical fields.
func UpdateAdmission(id uint, clinicId uint, params *types.UpdateAdmissionRequestBody) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		admission, err := getAdmission(tx, id, clinicId)
		if err != nil {
			return err
		}
		if err := CanMutateLedger(admission); err != nil {
			return err
		}
		updates := map[string]any{}
		if params.ChiefComplaint != nil {
			updates["chief_complaint"] = *params.ChiefComplaint
		}
		if params.Diagnosis != nil {
			updates["diagnosis"] = *params.Diagnosis
		}
		if params.TreatmentSummary != nil {
			updates["treatment_summary"] = *params.TreatmentSummary
		}
		if params.DischargeInstructions != nil {
			updates["discharge_instructions"] = *params.DischargeInstructions
		}
		if params.BedNumber != nil {
			updates["bed_number"] = *params.BedNumber
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.
			Model(&models.Admission{}).
			Where("id = ?", admission.ID).
			Updates(updates).
			Error
	})
}

// DischargePatient closes the stay and frees the room. Room charges through
// the discharge date are finalized first so nothing is lost when the room
// link goes away. The bill is left unlocked; locking is a separate action.
func DischargePatient(id uint, clinicId uint, params *types.DischargeRequestBody) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		admission, err := getAdmission(tx, id, clinicId)
		if err != nil {
			return err
		}
		if err := CanDischarge(admission); err != nil {
			return err
		}

		dischargeDate := time.Now()
		if params.DischargeDate != "" {
			if dd, err := time.Parse(config.DATE_FORMAT, params.DischargeDate); err == nil {
				dischargeDate = dd
			}
		}

		if admission.AdmissionType == types.ADMISSION_IPD && admission.RoomID != nil {
			if _, err := GenerateRoomCharges(tx, admission, dischargeDate); err != nil {
				return err
			}
			if err := tx.
				Model(&models.Room{}).
				Where("id = ?", *admission.RoomID).
				Updates(map[string]any{
					"status":             types.ROOM_AVAILABLE,
					"current_patient_id": nil,
				}).
				Error; err != nil {
				return err
			}
		}

		updates := map[string]any{
			"status":         types.ADMISSION_DISCHARGED,
			"discharge_date": dischargeDate,
		}
		if params.DischargeTime != "" {
			updates["discharge_time"] = params.DischargeTime
		}
		if params.TreatmentSummary != "" {
			updates["treatment_summary"] = params.TreatmentSummary
		}
		if params.DischargeInstructions != "" {
			updates["discharge_instructions"] = params.DischargeInstructions
		}
		return tx.
			Model(&models.Admission{}).
			Where("id = ?", admission.ID).
			Updates(updates).
			Error
	})
}

// TransferPatient moves an in-house IPD patient to another available room.
// Charges accrued in the old room are generated before the switch so they
// are priced at the old room's rate.
func TransferPatient(id uint, clinicId uint, params *types.TransferRequestBody) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		admission, err := getAdmission(tx, id, clinicId)
		if err != nil {
			return err
		}
		if err := CanTransfer(admission); err != nil {
			return err
		}

		var newRoom models.Room
		if err := tx.
			Where(&models.Room{ID: params.NewRoomID, ClinicID: clinicId}).
			Where("is_active = ?", true).
			First(&newRoom).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrNotFound
			}
			return err
		}
		if newRoom.Status != types.ROOM_AVAILABLE {
			return common.ErrRoomUnavailable
		}

		if admission.RoomID != nil {
			if _, err := GenerateRoomCharges(tx, admission, time.Now()); err != nil {
				return err
			}
			if err := tx.
				Model(&models.Room{}).
				Where("id = ?", *admission.RoomID).
				Updates(map[string]any{
					"status":             types.ROOM_AVAILABLE,
					"current_patient_id": nil,
				}).
				Error; err != nil {
				return err
			}
		}

		if err := occupyRoom(tx, newRoom.ID, admission.PatientID); err != nil {
			return err
		}

		updates := map[string]any{
			"room_id": newRoom.ID,
			"status":  types.ADMISSION_TRANSFERRED,
		}
		if params.BedNumber != nil {
			updates["bed_number"] = *params.BedNumber
		}
		return tx.
			Model(&models.Admission{}).
			Where("id = ?", admission.ID).
			Updates(updates).
			Error
	})
}

func CancelAdmission(id uint, clinicId uint, reason string) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		admission, err := getAdmission(tx, id, clinicId)
		if err != nil {
			return err
		}
		if err := CanCancel(admission); err != nil {
			return err
		}
		if admission.RoomID != nil {
			if err := tx.
				Model(&models.Room{}).
				Where("id = ?", *admission.RoomID).
				Updates(map[string]any{
					"status":             types.ROOM_AVAILABLE,
					"current_patient_id": nil,
				}).
				Error; err != nil {
				return err
			}
		}
		return tx.
			Model(&models.Admission{}).
			Where("id = ?", admission.ID).
			Updates(map[string]any{
				"status": types.ADMISSION_CANCELLED,
				"notes":  reason,
			}).
			Error
	})
}

func getAdmission(tx *gorm.DB, id uint, clinicId uint) (*models.Admission, error) {
	var admission models.Admission
	if err := tx.
		Where(&models.Admission{ID: id, ClinicID: clinicId}).
		First(&admission).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		log.Printf("Error retrieving Admission [%d]: %s\n", id, err.Error())
		return nil, err
	}
	return &admission, nil
}
