package models

import (
	"time"
)

// PatientStatus is the denormalized clinical status shown in list views.
type PatientStatus string

const (
	PatientStable   PatientStatus = "Stable"
	PatientCritical PatientStatus = "Critical"
	PatientRecover  PatientStatus = "Recovering"
)

// Patient represents a patient administrative record with a denormalized
// vitals snapshot. The snapshot fields (Condition, BloodPressure,
// HeartRate, DateOfBirth) are the inputs to the risk scorer.
type Patient struct {
	BaseModel
	FirstName   string     `gorm:"size:100;not null" json:"firstName"`
	LastName    string     `gorm:"size:100;not null" json:"lastName"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Gender      string     `gorm:"size:20" json:"gender"` // Male, Female, Other, Unknown
	Phone       string     `gorm:"size:50" json:"phone,omitempty"`
	Address     string     `gorm:"size:255" json:"address,omitempty"`

	// FHIR-like identifier
	MRN string `gorm:"size:50;index" json:"mrn,omitempty"` // Medical Record Number

	OrganizationID string `gorm:"size:36;index" json:"organizationId,omitempty"`

	// Clinical snapshot (denormalized for list view)
	Condition string        `gorm:"size:255;default:'Healthy Checkup'" json:"condition"`
	Status    PatientStatus `gorm:"size:20;default:'Stable'" json:"status"`
	LastVisit *time.Time    `json:"lastVisit,omitempty"`

	// Vitals snapshot
	BloodPressure string `gorm:"size:20;default:'120/80'" json:"bloodPressure"` // "systolic/diastolic"
	HeartRate     int    `gorm:"default:70" json:"heartRate"`
}
