package models

import (
	"hms/src/types"
	"time"
)

type Admission struct {
	ID              uint                `gorm:"primarykey" json:"id"`
	AdmissionNumber string              `gorm:"uniqueIndex" json:"admission_number,omitempty"`
	PatientID       uint                `json:"patient_id,omitempty"`
	AdmissionType   types.AdmissionType `json:"admission_type,omitempty"`
	DoctorID        uint                `json:"doctor_id,omitempty"`
	ClinicID        uint                `json:"clinic_id,omitempty"`
	AppointmentID   *uint               `json:"appointment_id,omitempty"`
	AdmissionDate   time.Time           `json:"admission_date,omitempty"`
	AdmissionTime   string              `json:"admission_time,omitempty"`
	RoomID          *uint               `json:"room_id,omitempty"`
	BedNumber       *string             `json:"bed_number,omitempty"`
	ChiefComplaint  string              `json:"chief_complaint,omitempty"`
	Diagnosis       string              `json:"diagnosis,omitempty"`

	TreatmentSummary      string `json:"treatment_summary,omitempty"`
	DischargeInstructions string `json:"discharge_instructions,omitempty"`

	Status types.AdmissionStatus `gorm:"default:'admitted'" json:"status,omitempty"`
	// BillLocked flips false -> true exactly once, only after discharge.
	BillLocked    bool       `gorm:"default:false" json:"bill_locked"`
	DischargeDate *time.Time `json:"discharge_date,omitempty"`
	DischargeTime *string    `json:"discharge_time,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedBy     uint       `json:"created_by,omitempty"`

	Patient *Patient `gorm:"foreignKey:patient_id" json:"patient,omitempty"`
	Doctor  *User    `gorm:"foreignKey:doctor_id" json:"doctor,omitempty"`
	Room    *Room    `gorm:"foreignKey:room_id" json:"room,omitempty"`
	Clinic  *Clinic  `gorm:"foreignKey:clinic_id" json:"-"`

	Bill        *AdmissionBill       `gorm:"foreignKey:admission_id" json:"bill,omitempty"`
	Services    []DailyService       `gorm:"foreignKey:admission_id" json:"services,omitempty"`
	Medicines   []MedicineConsumable `gorm:"foreignKey:admission_id" json:"medicines,omitempty"`
	RoomCharges []RoomCharge         `gorm:"foreignKey:admission_id" json:"room_charges,omitempty"`
	Payments    []AdmissionPayment   `gorm:"foreignKey:admission_id" json:"payments,omitempty"`

	types.Timestamps
}
