package models

// Organization is a care-network partner: a provider facility, a payer
// or a supplier. Users and patients may be attached to one.
type Organization struct {
	BaseModel
	Name       string `gorm:"size:100;not null" json:"name"`
	Type       string `gorm:"size:30;default:'Provider'" json:"type"`       // Provider, Payer, Supplier
	Identifier string `gorm:"size:50" json:"identifier,omitempty"`          // NPI or similar

	// Relations (not always preloaded)
	Users    []User    `gorm:"foreignKey:OrganizationID" json:"-"`
	Patients []Patient `gorm:"foreignKey:OrganizationID" json:"-"`
}
