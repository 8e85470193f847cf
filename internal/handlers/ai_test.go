package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"healthpulse-server/internal/ai"
	"healthpulse-server/internal/audit"
	"healthpulse-server/internal/config"
	"healthpulse-server/internal/handlers"
	"healthpulse-server/internal/models"
)

type aiTestEnv struct {
	router   *gin.Engine
	audit    *audit.Recorder
	training *ai.TrainingRecorder
}

func setupAITest(t *testing.T) aiTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.AuditLog{}, &models.TrainingLog{}))

	auditRecorder := audit.NewRecorder(db, zerolog.Nop())
	trainingRecorder := ai.NewTrainingRecorder(db, zerolog.Nop())
	analyzer := ai.NewAnalyzer(config.AIConfig{UseCloud: false}, trainingRecorder, zerolog.Nop())
	handler := handlers.NewAIHandler(analyzer, trainingRecorder, auditRecorder)

	router := gin.New()
	router.POST("/ai/analyze", handler.AnalyzeDocument)
	router.POST("/ai/predict-risk", handler.PredictRisk)
	router.POST("/ai/training-log", handler.LogTrainingResult)
	router.GET("/ai/training-history", handler.GetTrainingHistory)
	router.GET("/ai/audit-log", handler.GetAuditTrail)

	return aiTestEnv{router: router, audit: auditRecorder, training: trainingRecorder}
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPredictRiskEndpoint(t *testing.T) {
	env := setupAITest(t)

	w := postJSON(t, env.router, "/ai/predict-risk", map[string]interface{}{
		"birthYear":     time.Now().Year() - 70,
		"bloodPressure": "150/95",
		"heartRate":     105,
		"condition":     "Cardiac Arrhythmia",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data ai.RiskAssessment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 95, resp.Data.Score)
	assert.Equal(t, ai.RiskHigh, resp.Data.RiskLevel)
	assert.Equal(t, []string{"Age > 65", "Hypertension", "Abnormal HR", "Condition: Cardiac"}, resp.Data.Factors)

	// The prediction leaves an audit trail.
	entries, err := env.audit.ListAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "RiskAnalysis", entries[0].Action)
}

func TestAnalyzeEndpointLocalMode(t *testing.T) {
	env := setupAITest(t)

	w := postJSON(t, env.router, "/ai/analyze", map[string]string{"text": "routine lab report"})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data ai.AnalysisResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Moderate", resp.Data.RiskLevel)
	assert.Len(t, resp.Data.Precautions, 3)
}

func TestAnalyzeEndpointRejectsEmptyText(t *testing.T) {
	env := setupAITest(t)

	w := postJSON(t, env.router, "/ai/analyze", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrainingLogRoundTrip(t *testing.T) {
	env := setupAITest(t)

	w := postJSON(t, env.router, "/ai/training-log", map[string]interface{}{
		"fileName":      "manual_run",
		"epochs":        3,
		"finalAccuracy": 0.88,
		"finalLoss":     0.4,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/ai/training-history", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.TrainingLog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "manual_run", resp.Data[0].FileName)
	assert.Equal(t, 3, resp.Data[0].Epochs)
	assert.Equal(t, 0.88, resp.Data[0].FinalAccuracy)
}
