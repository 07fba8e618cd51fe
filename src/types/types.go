package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Metadata map[string]any

type AdmissionType string

const (
	ADMISSION_IPD AdmissionType = "IPD"
	ADMISSION_OPD AdmissionType = "OPD"
)

type AdmissionStatus string

const (
	ADMISSION_ADMITTED    AdmissionStatus = "admitted"
	ADMISSION_DISCHARGED  AdmissionStatus = "discharged"
	ADMISSION_TRANSFERRED AdmissionStatus = "transferred"
	ADMISSION_CANCELLED   AdmissionStatus = "cancelled"
)

type RoomStatus string

const (
	ROOM_AVAILABLE   RoomStatus = "available"
	ROOM_OCCUPIED    RoomStatus = "occupied"
	ROOM_MAINTENANCE RoomStatus = "maintenance"
	ROOM_RESERVED    RoomStatus = "reserved"
)

type PaymentType string

const (
	PAYMENT_ADVANCE PaymentType = "advance"
	PAYMENT_PARTIAL PaymentType = "partial"
	PAYMENT_FINAL   PaymentType = "final"
	PAYMENT_REFUND  PaymentType = "refund"
)

type PaymentStatus string

const (
	PAYMENT_UNPAID         PaymentStatus = "unpaid"
	PAYMENT_PARTIALLY_PAID PaymentStatus = "partial"
	PAYMENT_PAID           PaymentStatus = "paid"
	PAYMENT_REFUND_PENDING PaymentStatus = "refund_pending"
)

type ServiceStatus string

const (
	SERVICE_COMPLETED     ServiceStatus = "completed"
	MEDICINE_ADMINISTERED ServiceStatus = "administered"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type AdmissionURIParams struct {
	AdmissionID uint `uri:"admissionId" binding:"required"`
}

type LedgerLineURIParams struct {
	AdmissionID uint `uri:"admissionId" binding:"required"`
	LineID      uint `uri:"lineId" binding:"required"`
}

type CreateAdmissionRequestBody struct {
	PatientID      uint    `json:"patient_id" binding:"required"`
	AdmissionType  string  `json:"admission_type" binding:"required,oneof=IPD OPD"`
	DoctorID       uint    `json:"doctor_id" binding:"required"`
	AppointmentID  *uint   `json:"appointment_id,omitempty"`
	AdmissionDate  string  `json:"admission_date" binding:"required,admissiondate"`
	AdmissionTime  string  `json:"admission_time,omitempty"`
	RoomID         *uint   `json:"room_id,omitempty"`
	BedNumber      *string `json:"bed_number,omitempty"`
	ChiefComplaint string  `json:"chief_complaint,omitempty"`
	Diagnosis      string  `json:"diagnosis,omitempty"`
}

type UpdateAdmissionRequestBody struct {
	ChiefComplaint        *string `json:"chief_complaint,omitempty"`
	Diagnosis             *string `json:"diagnosis,omitempty"`
	TreatmentSummary      *string `json:"treatment_summary,omitempty"`
	DischargeInstructions *string `json:"discharge_instructions,omitempty"`
	BedNumber             *string `json:"bed_number,omitempty"`
}

type DischargeRequestBody struct {
	DischargeDate         string `json:"discharge_date,omitempty"`
	DischargeTime         string `json:"discharge_time,omitempty"`
	TreatmentSummary      string `json:"treatment_summary,omitempty"`
	DischargeInstructions string `json:"discharge_instructions,omitempty"`
}

type TransferRequestBody struct {
	NewRoomID uint    `json:"new_room_id" binding:"required"`
	BedNumber *string `json:"bed_number,omitempty"`
}

type CancelAdmissionRequestBody struct {
	Reason string `json:"reason" binding:"required"`
}

type AdmissionQueryFilters struct {
	Search   string `form:"search"`
	Type     string `form:"type" binding:"omitempty,oneof=IPD OPD"`
	Status   string `form:"status" binding:"omitempty,oneof=admitted discharged transferred cancelled"`
	DoctorID uint   `form:"doctor_id"`
	DateFrom string `form:"date_from" binding:"omitempty,admissiondate"`
	DateTo   string `form:"date_to" binding:"omitempty,admissiondate"`
	Page     int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit    int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
}

type CreateDailyServiceRequestBody struct {
	ServiceDate string  `json:"service_date" binding:"required,admissiondate"`
	ServiceType string  `json:"service_type" binding:"required"`
	ServiceName string  `json:"service_name" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" binding:"required,gte=0"`
	Discount    float64 `json:"discount" binding:"omitempty,gte=0"`
	DoctorID    *uint   `json:"doctor_id,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

type UpdateDailyServiceRequestBody struct {
	ServiceType *string  `json:"service_type,omitempty"`
	ServiceName *string  `json:"service_name,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty" binding:"omitempty,gt=0"`
	UnitPrice   *float64 `json:"unit_price,omitempty" binding:"omitempty,gte=0"`
	Discount    *float64 `json:"discount,omitempty" binding:"omitempty,gte=0"`
	Notes       *string  `json:"notes,omitempty"`
}

type CreateMedicineRequestBody struct {
	EntryDate    string  `json:"entry_date" binding:"required,admissiondate"`
	ItemType     string  `json:"item_type" binding:"required,oneof=medicine consumable"`
	ItemName     string  `json:"item_name" binding:"required"`
	Quantity     float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice    float64 `json:"unit_price" binding:"required,gte=0"`
	PrescribedBy *uint   `json:"prescribed_by,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

type UpdateMedicineRequestBody struct {
	ItemType  *string  `json:"item_type,omitempty" binding:"omitempty,oneof=medicine consumable"`
	ItemName  *string  `json:"item_name,omitempty"`
	Quantity  *float64 `json:"quantity,omitempty" binding:"omitempty,gt=0"`
	UnitPrice *float64 `json:"unit_price,omitempty" binding:"omitempty,gte=0"`
	Notes     *string  `json:"notes,omitempty"`
}

type DeleteLedgerLineRequestBody struct {
	Reason string `json:"reason" binding:"required"`
}

type UpdateBillRequestBody struct {
	DiscountPercent *float64 `json:"discount_percent,omitempty" binding:"omitempty,gte=0,lte=100"`
	GSTPercent      *float64 `json:"gst_percent,omitempty" binding:"omitempty,gte=0,lte=100"`
	OtherCharges    *float64 `json:"other_charges,omitempty" binding:"omitempty,gte=0"`
	Notes           *string  `json:"notes,omitempty"`
}

type AddPaymentRequestBody struct {
	PaymentType string  `json:"payment_type" binding:"required,oneof=advance partial final refund"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	PaymentDate string  `json:"payment_date,omitempty" binding:"omitempty,admissiondate"`
	Method      string  `json:"method,omitempty"`
	Reference   string  `json:"reference,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

type CreateRoomRequestBody struct {
	RoomNumber string `json:"room_number" binding:"required"`
	RoomTypeID uint   `json:"room_type_id" binding:"required"`
	Floor      string `json:"floor,omitempty"`
	Building   string `json:"building,omitempty"`
	BedCount   uint   `json:"bed_count,omitempty"`
}

type UpdateRoomRequestBody struct {
	RoomNumber *string `json:"room_number,omitempty"`
	RoomTypeID *uint   `json:"room_type_id,omitempty"`
	Floor      *string `json:"floor,omitempty"`
	Building   *string `json:"building,omitempty"`
	BedCount   *uint   `json:"bed_count,omitempty"`
}

type UpdateRoomStatusRequestBody struct {
	NewStatus string `json:"new_status" binding:"required,oneof=available maintenance reserved"`
}

type CreateRoomTypeRequestBody struct {
	Name             string  `json:"name" binding:"required"`
	BaseChargePerDay float64 `json:"base_charge_per_day" binding:"required,gte=0"`
	Description      string  `json:"description,omitempty"`
}

type UpdateRoomTypeRequestBody struct {
	Name             *string  `json:"name,omitempty"`
	BaseChargePerDay *float64 `json:"base_charge_per_day,omitempty" binding:"omitempty,gte=0"`
	Description      *string  `json:"description,omitempty"`
}

type CreateClinicRequestBody struct {
	Name         string  `json:"name" binding:"required"`
	About        string  `json:"about,omitempty"`
	ContactEmail string  `json:"contact_email" binding:"required,email"`
	BillingEmail *string `json:"billing_email,omitempty" binding:"omitempty,email"`
	Phone        string  `json:"phone,omitempty"`
	Address      string  `json:"address,omitempty"`
}

type UpdateClinicRequestBody struct {
	Name         *string `json:"name,omitempty"`
	About        *string `json:"about,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty" binding:"omitempty,email"`
	BillingEmail *string `json:"billing_email,omitempty" binding:"omitempty,email"`
	Phone        *string `json:"phone,omitempty"`
	Address      *string `json:"address,omitempty"`
}

type BillSummaryQueryFilters struct {
	DateFrom string `form:"date_from" binding:"omitempty,admissiondate"`
	DateTo   string `form:"date_to" binding:"omitempty,admissiondate"`
	Status   string `form:"payment_status" binding:"omitempty,oneof=unpaid partial paid refund_pending"`
}

type Claims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Clinic      uint     `json:"clinic"`
	jwt.RegisteredClaims
}
