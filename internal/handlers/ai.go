package handlers

import (
	"fmt"

	"healthpulse-server/internal/ai"
	"healthpulse-server/internal/audit"
	"healthpulse-server/internal/middleware"
	"healthpulse-server/internal/models"
	"healthpulse-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// AIHandler exposes the clinical analysis bridge: document analysis,
// patient risk prediction and the training/audit history trails.
type AIHandler struct {
	Analyzer ai.Analyzer
	Training *ai.TrainingRecorder
	Audit    *audit.Recorder
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(analyzer ai.Analyzer, training *ai.TrainingRecorder, auditRec *audit.Recorder) *AIHandler {
	return &AIHandler{Analyzer: analyzer, Training: training, Audit: auditRec}
}

// AnalyzeRequest represents the request body for document analysis.
type AnalyzeRequest struct {
	Text string `json:"text" binding:"required"`
}

// AnalyzeDocument runs document text through the configured analysis
// strategy. The analyzer never fails; a misbehaving cloud service
// yields a degraded result, not an error response.
func (h *AIHandler) AnalyzeDocument(c *gin.Context) {
	var req AnalyzeRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result := h.Analyzer.Analyze(c.Request.Context(), req.Text)

	userID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("DocumentAnalysis", fmt.Sprintf("Analyzed document of %d chars", len(req.Text)), userID, c.ClientIP())

	utils.Success(c, "Document analyzed successfully", result)
}

// PredictRiskRequest represents an inline vitals snapshot for risk scoring.
type PredictRiskRequest struct {
	BirthYear     int    `json:"birthYear"`
	BloodPressure string `json:"bloodPressure"`
	HeartRate     int    `json:"heartRate"`
	Condition     string `json:"condition"`
}

// PredictRisk scores an inline vitals snapshot without touching any
// stored patient record.
func (h *AIHandler) PredictRisk(c *gin.Context) {
	var req PredictRiskRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	snapshot := ai.PatientSnapshot{
		BirthYear:     req.BirthYear,
		BloodPressure: req.BloodPressure,
		HeartRate:     req.HeartRate,
		Condition:     req.Condition,
	}
	assessment := ai.Score(snapshot)

	userID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("RiskAnalysis", ai.DescribeSnapshot(snapshot), userID, c.ClientIP())

	utils.Success(c, "Risk assessment completed", assessment)
}

// GetTrainingHistory returns the training history, newest first.
func (h *AIHandler) GetTrainingHistory(c *gin.Context) {
	entries, err := h.Training.ListAll()
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch training history: "+err.Error())
		return
	}
	utils.Success(c, "Training history fetched successfully", entries)
}

// LogTrainingRequest represents a manually reported training result.
type LogTrainingRequest struct {
	FileName      string  `json:"fileName" binding:"required"`
	Excerpt       string  `json:"excerpt"`
	Epochs        int     `json:"epochs"`
	FinalAccuracy float64 `json:"finalAccuracy"`
	FinalLoss     float64 `json:"finalLoss"`
	ModelPath     string  `json:"modelPath"`
}

// LogTrainingResult appends a training entry reported by an external
// training pipeline.
func (h *AIHandler) LogTrainingResult(c *gin.Context) {
	var req LogTrainingRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	h.Training.Append(models.TrainingLog{
		FileName:      req.FileName,
		Excerpt:       req.Excerpt,
		Epochs:        req.Epochs,
		FinalAccuracy: req.FinalAccuracy,
		FinalLoss:     req.FinalLoss,
		ModelPath:     req.ModelPath,
	})
	utils.Created(c, "Training log saved successfully", nil)
}

// GetAuditTrail returns the audit trail, newest first. Admin only.
func (h *AIHandler) GetAuditTrail(c *gin.Context) {
	entries, err := h.Audit.ListAll()
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch audit trail: "+err.Error())
		return
	}
	utils.Success(c, "Audit trail fetched successfully", entries)
}
