package models

import (
	"time"
)

// AppointmentStatus tracks the visit lifecycle.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "Scheduled"
	AppointmentCheckedIn AppointmentStatus = "Checked-In"
	AppointmentCompleted AppointmentStatus = "Completed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
)

// CanTransitionTo reports whether a visit may move to the given status.
// Completed and Cancelled are terminal.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case AppointmentScheduled:
		return next == AppointmentCheckedIn || next == AppointmentCancelled
	case AppointmentCheckedIn:
		return next == AppointmentCompleted || next == AppointmentCancelled
	default:
		return false
	}
}

// Appointment represents a scheduled visit with a provider. Patient and
// provider names are denormalized so schedule views avoid joins.
type Appointment struct {
	BaseModel
	PatientID       string            `gorm:"size:36;index" json:"patientId"`
	PatientName     string            `gorm:"size:200" json:"patientName"`
	ProviderID      string            `gorm:"size:36;index" json:"providerId"`
	ProviderName    string            `gorm:"size:200" json:"providerName"`
	AppointmentDate time.Time         `gorm:"index" json:"appointmentDate"`
	DurationMinutes int               `gorm:"default:30" json:"durationMinutes"`
	AppointmentType string            `gorm:"size:30;default:'Checkup'" json:"appointmentType"` // Checkup, Follow-up, Emergency
	Status          AppointmentStatus `gorm:"size:20;default:'Scheduled'" json:"status"`
	Reason          string            `gorm:"size:255" json:"reason,omitempty"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`

	// Relations (not always preloaded)
	Patient  Patient `gorm:"foreignKey:PatientID" json:"-"`
	Provider User    `gorm:"foreignKey:ProviderID" json:"-"`
}
