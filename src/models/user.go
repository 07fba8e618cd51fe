package models

import (
	"hms/src/types"
)

type User struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Role         string `json:"role,omitempty"`
	UID          string `json:"uid,omitempty"`
	ActiveClinic uint   `json:"active_clinic,omitempty"`

	Clinics []Clinic `gorm:"many2many:clinic_members;" json:"clinics,omitempty"`

	types.Timestamps
}

type Patient struct {
	ID         uint    `gorm:"primarykey" json:"id"`
	UHID       string  `gorm:"uniqueIndex" json:"uhid,omitempty"`
	Name       string  `json:"name,omitempty"`
	Gender     string  `json:"gender,omitempty"`
	DOB        *string `json:"dob,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	Email      string  `json:"email,omitempty"`
	Address    string  `json:"address,omitempty"`
	BloodGroup string  `json:"blood_group,omitempty"`
	ClinicID   uint    `json:"clinic_id,omitempty"`

	Admissions []Admission `gorm:"foreignKey:patient_id" json:"admissions,omitempty"`

	types.Timestamps
}
