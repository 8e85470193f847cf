package ai

import (
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"healthpulse-server/internal/models"
)

// TrainingRecorder persists training-history entries. It implements
// TrainingSink; like the audit recorder, appends never fail the caller.
type TrainingRecorder struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewTrainingRecorder creates a recorder over the given database handle.
func NewTrainingRecorder(db *gorm.DB, logger zerolog.Logger) *TrainingRecorder {
	return &TrainingRecorder{db: db, log: logger.With().Str("component", "training-log").Logger()}
}

// Append inserts one training entry. Persistence failures are logged
// and swallowed.
func (r *TrainingRecorder) Append(entry models.TrainingLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := r.db.Create(&entry).Error; err != nil {
		r.log.Error().Err(err).Str("source", entry.FileName).Msg("failed to append training entry")
	}
}

// ListAll returns the training history, newest first.
func (r *TrainingRecorder) ListAll() ([]models.TrainingLog, error) {
	var entries []models.TrainingLog
	if err := r.db.Order("created_at desc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
