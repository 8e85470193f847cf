package models

import (
	"time"
)

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceUnpaid    InvoiceStatus = "Unpaid"
	InvoicePaid      InvoiceStatus = "Paid"
	InvoiceOverdue   InvoiceStatus = "Overdue"
	InvoiceCancelled InvoiceStatus = "Cancelled"
)

// Invoice represents a billing entry for a patient
type Invoice struct {
	BaseModel
	PatientID     string        `gorm:"size:36;index;not null" json:"patientId"`
	PatientName   string        `gorm:"size:200" json:"patientName"`
	Description   string        `gorm:"size:255;default:'Medical Service'" json:"description"`
	Amount        float64       `json:"amount"`
	Status        InvoiceStatus `gorm:"size:20;default:'Unpaid'" json:"status"`
	PaymentMethod string        `gorm:"size:50;default:'None'" json:"paymentMethod"` // Credit Card, Insurance, Cash
	DueDate       time.Time     `json:"dueDate"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`

	// Relations
	Patient Patient `gorm:"foreignKey:PatientID" json:"-"`
}
