package models

import (
	"time"
)

// AuditLog is an append-only record of a security- or business-relevant
// action. Rows are only ever inserted, never updated or deleted.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Action    string    `gorm:"size:100;not null;index" json:"action"` // e.g. "Login", "RiskAnalysis"
	Details   string    `gorm:"type:text" json:"details"`              // JSON details or summary
	UserID    string    `gorm:"size:36" json:"userId,omitempty"`       // empty for pre-login actions
	IPAddress string    `gorm:"size:45" json:"ipAddress,omitempty"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}
