package models

import (
	"hms/src/types"
)

type RoomType struct {
	ID               uint    `gorm:"primarykey" json:"id"`
	Name             string  `gorm:"uniqueIndex:clinic_room_type" json:"name,omitempty"`
	BaseChargePerDay float64 `json:"base_charge_per_day"`
	Description      string  `json:"description,omitempty"`
	ClinicID         uint    `gorm:"uniqueIndex:clinic_room_type" json:"clinic_id,omitempty"`
	IsActive         bool    `gorm:"default:true" json:"is_active"`

	Rooms []Room `gorm:"foreignKey:room_type_id" json:"-"`

	types.Timestamps
}

type Room struct {
	ID         uint             `gorm:"primarykey" json:"id"`
	RoomNumber string           `gorm:"uniqueIndex:clinic_room_number" json:"room_number,omitempty"`
	RoomTypeID uint             `json:"room_type_id,omitempty"`
	Floor      string           `json:"floor,omitempty"`
	Building   string           `json:"building,omitempty"`
	BedCount   uint             `gorm:"default:1" json:"bed_count,omitempty"`
	Status     types.RoomStatus `gorm:"default:'available'" json:"status,omitempty"`
	IsActive   bool             `gorm:"default:true" json:"is_active"`
	ClinicID   uint             `gorm:"uniqueIndex:clinic_room_number" json:"clinic_id,omitempty"`

	// CurrentPatientID mirrors the single admission occupying the room.
	// Only the admission lifecycle transitions write it, inside the same
	// transaction as the admission row.
	CurrentPatientID *uint `json:"current_patient_id,omitempty"`

	RoomType       *RoomType `gorm:"foreignKey:room_type_id" json:"room_type,omitempty"`
	CurrentPatient *Patient  `gorm:"foreignKey:current_patient_id" json:"current_patient,omitempty"`

	types.Timestamps
}
