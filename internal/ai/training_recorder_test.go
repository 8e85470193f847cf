package ai

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"healthpulse-server/internal/models"
)

func newTrainingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.TrainingLog{}))
	return db
}

func TestTrainingRecorderAppendAndList(t *testing.T) {
	recorder := NewTrainingRecorder(newTrainingTestDB(t), zerolog.Nop())

	older := time.Now().UTC().Add(-time.Hour)
	recorder.Append(models.TrainingLog{
		FileName:      "cloud_training",
		Excerpt:       "older run",
		Epochs:        5,
		FinalAccuracy: 0.92,
		FinalLoss:     0.3,
		ModelPath:     "cloud/colab-session",
		CreatedAt:     older,
	})
	recorder.Append(models.TrainingLog{
		FileName: "cloud_training",
		Excerpt:  "newer run",
		Epochs:   10,
	})

	entries, err := recorder.ListAll()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "newer run", entries[0].Excerpt)
	assert.Equal(t, "older run", entries[1].Excerpt)
	assert.Equal(t, 0.92, entries[1].FinalAccuracy)

	// Append fills in the timestamp when the caller leaves it zero.
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestTrainingRecorderSwallowsPersistenceFailure(t *testing.T) {
	db := newTrainingTestDB(t)
	recorder := NewTrainingRecorder(db, zerolog.Nop())

	require.NoError(t, db.Migrator().DropTable(&models.TrainingLog{}))

	assert.NotPanics(t, func() {
		recorder.Append(models.TrainingLog{FileName: "cloud_training"})
	})
}
