package models

import (
	"time"
)

// TrainingLog is an append-only record of one completed cloud training
// run. Written at most once per successful, well-formed train response.
type TrainingLog struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FileName      string    `gorm:"size:255" json:"fileName"`   // source label of the training input
	Excerpt       string    `gorm:"size:120" json:"excerpt"`    // first 100 chars of the input text
	Epochs        int       `json:"epochs"`
	FinalAccuracy float64   `json:"finalAccuracy"`
	FinalLoss     float64   `json:"finalLoss"`
	ModelPath     string    `gorm:"size:255" json:"modelPath"`  // model/session identifier
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
}
