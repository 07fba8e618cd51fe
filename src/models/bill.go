package models

import (
	"hms/src/types"
	"time"

	"github.com/google/uuid"
)

type AdmissionBill struct {
	ID          uint `gorm:"primarykey" json:"id"`
	AdmissionID uint `gorm:"uniqueIndex" json:"admission_id,omitempty"`

	Subtotal        float64 `json:"subtotal"`
	DiscountPercent float64 `json:"discount_percent"`
	DiscountAmount  float64 `json:"discount_amount"`
	GSTPercent      float64 `json:"gst_percent"`
	GSTAmount       float64 `json:"gst_amount"`
	OtherCharges    float64 `json:"other_charges"`
	GrossTotal      float64 `json:"gross_total"`
	AdvancePaid     float64 `json:"advance_paid"`
	AmountPaid      float64 `json:"amount_paid"`
	BalanceDue      float64 `json:"balance_due"`

	PaymentStatus types.PaymentStatus `gorm:"default:'unpaid'" json:"payment_status,omitempty"`
	IsLocked      bool                `gorm:"default:false" json:"is_locked"`
	Notes         string              `json:"notes,omitempty"`

	Admission *Admission `gorm:"foreignKey:admission_id" json:"-"`

	types.Timestamps
}

type AdmissionPayment struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	AdmissionID uint              `gorm:"index" json:"admission_id,omitempty"`
	PaymentDate time.Time         `json:"payment_date,omitempty"`
	PaymentType types.PaymentType `json:"payment_type,omitempty"`
	Amount      float64           `json:"amount"`
	Method      string            `json:"method,omitempty"`
	Reference   string            `json:"reference,omitempty"`
	ReceiptNo   string            `json:"receipt_no,omitempty"`
	ReceivedBy  uint              `json:"received_by,omitempty"`
	Notes       string            `json:"notes,omitempty"`

	Admission *Admission `gorm:"foreignKey:admission_id" json:"-"`

	types.Timestamps
}

type BillAudit struct {
	ID          uuid.UUID    `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	AdmissionID uint         `gorm:"index" json:"admission_id,omitempty"`
	Action      string       `json:"action,omitempty"`
	ActorID     uint         `json:"actor_id,omitempty"`
	Before      *types.JSONB `gorm:"type:jsonb" json:"before,omitempty"`
	After       *types.JSONB `gorm:"type:jsonb" json:"after,omitempty"`

	types.Timestamps
}
