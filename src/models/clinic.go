package models

import (
	"hms/src/types"
)

type Clinic struct {
	ID           uint    `gorm:"primarykey;uniqueIndex:slugid" json:"id"`
	Name         string  `json:"name,omitempty"`
	About        string  `json:"about,omitempty"`
	ContactEmail string  `json:"email,omitempty"`
	BillingEmail *string `json:"billing_email,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	Address      string  `json:"address,omitempty"`
	Slug         string  `gorm:"uniqueIndex:slugid" json:"slug"`
	Status       string  `gorm:"default:'active'" json:"status,omitempty"`

	Rooms []Room `gorm:"foreignKey:clinic_id" json:"-"`

	types.Timestamps
}
