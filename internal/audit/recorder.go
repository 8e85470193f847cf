// Package audit provides the append-only audit trail. Writes are pure
// inserts and never propagate failures: audit logging must not become a
// point of failure for the clinical workflows that call it.
package audit

import (
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"healthpulse-server/internal/models"
)

// Recorder appends audit entries and reads them back newest first.
type Recorder struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewRecorder creates an audit recorder over the given database handle.
func NewRecorder(db *gorm.DB, logger zerolog.Logger) *Recorder {
	return &Recorder{db: db, log: logger.With().Str("component", "audit").Logger()}
}

// Log appends one audit entry. Persistence failures are logged and
// swallowed so the triggering business operation is never affected.
// userID and ipAddress may be empty for pre-login actions.
func (r *Recorder) Log(action, details, userID, ipAddress string) {
	entry := models.AuditLog{
		Action:    action,
		Details:   details,
		UserID:    userID,
		IPAddress: ipAddress,
		Timestamp: time.Now().UTC(),
	}
	if err := r.db.Create(&entry).Error; err != nil {
		r.log.Error().Err(err).Str("action", action).Msg("failed to append audit entry")
	}
}

// ListAll returns every audit entry, newest first.
func (r *Recorder) ListAll() ([]models.AuditLog, error) {
	var entries []models.AuditLog
	if err := r.db.Order("timestamp desc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
