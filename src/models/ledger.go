package models

import (
	"hms/src/types"
	"time"
)

// DailyService is one costed line of care rendered during a stay. Lines are
// never hard-deleted; IsDeleted marks them out of billing while keeping the
// audit trail.
type DailyService struct {
	ID          uint                `gorm:"primarykey" json:"id"`
	AdmissionID uint                `gorm:"index" json:"admission_id,omitempty"`
	ServiceDate time.Time           `json:"service_date,omitempty"`
	ServiceType string              `json:"service_type,omitempty"`
	ServiceName string              `json:"service_name,omitempty"`
	Quantity    float64             `json:"quantity"`
	UnitPrice   float64             `json:"unit_price"`
	Discount    float64             `json:"discount"`
	TotalPrice  float64             `json:"total_price"`
	DoctorID    *uint               `json:"doctor_id,omitempty"`
	Status      types.ServiceStatus `gorm:"default:'completed'" json:"status,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	IsDeleted   bool                `gorm:"default:false;index" json:"is_deleted"`
	DeletedBy   *uint               `json:"deleted_by,omitempty"`
	RemovedAt   *time.Time          `json:"removed_at,omitempty"`
	CreatedBy   uint                `json:"created_by,omitempty"`

	Admission *Admission `gorm:"foreignKey:admission_id" json:"-"`
	Doctor    *User      `gorm:"foreignKey:doctor_id" json:"doctor,omitempty"`

	types.Timestamps
}

type MedicineConsumable struct {
	ID           uint                `gorm:"primarykey" json:"id"`
	AdmissionID  uint                `gorm:"index" json:"admission_id,omitempty"`
	EntryDate    time.Time           `json:"entry_date,omitempty"`
	ItemType     string              `json:"item_type,omitempty"`
	ItemName     string              `json:"item_name,omitempty"`
	Quantity     float64             `json:"quantity"`
	UnitPrice    float64             `json:"unit_price"`
	TotalPrice   float64             `json:"total_price"`
	PrescribedBy *uint               `json:"prescribed_by,omitempty"`
	Status       types.ServiceStatus `gorm:"default:'administered'" json:"status,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	IsDeleted    bool                `gorm:"default:false;index" json:"is_deleted"`
	DeletedBy    *uint               `json:"deleted_by,omitempty"`
	RemovedAt    *time.Time          `json:"removed_at,omitempty"`
	CreatedBy    uint                `json:"created_by,omitempty"`

	Admission *Admission `gorm:"foreignKey:admission_id" json:"-"`

	types.Timestamps
}

// RoomCharge rows are generated, never entered by hand: one row per
// admission per occupied day, priced from the room type's day rate.
type RoomCharge struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	AdmissionID  uint      `gorm:"uniqueIndex:admission_day" json:"admission_id,omitempty"`
	RoomID       uint      `json:"room_id,omitempty"`
	ChargeDate   time.Time `gorm:"uniqueIndex:admission_day" json:"charge_date,omitempty"`
	ChargeAmount float64   `json:"charge_amount"`
	IsCharged    bool      `gorm:"default:true" json:"is_charged"`

	Admission *Admission `gorm:"foreignKey:admission_id" json:"-"`
	Room      *Room      `gorm:"foreignKey:room_id" json:"room,omitempty"`

	types.Timestamps
}
