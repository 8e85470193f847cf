package handlers

import (
	"encoding/json"
	"fmt"

	"healthpulse-server/internal/ai"
	"healthpulse-server/internal/audit"
	"healthpulse-server/internal/middleware"
	"healthpulse-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// DocumentHandler handles document intake. Text extraction (OCR) is an
// external collaborator: callers submit the already-extracted plain text.
type DocumentHandler struct {
	Analyzer ai.Analyzer
	Audit    *audit.Recorder
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(analyzer ai.Analyzer, auditRec *audit.Recorder) *DocumentHandler {
	return &DocumentHandler{Analyzer: analyzer, Audit: auditRec}
}

// IntakeDocumentRequest represents an intake submission.
type IntakeDocumentRequest struct {
	FileName     string `json:"fileName" binding:"required"`
	Text         string `json:"text" binding:"required"`
	DocumentType string `json:"documentType"`
}

// IntakeDocumentResponse is the intake result returned to the caller.
type IntakeDocumentResponse struct {
	FileName string          `json:"fileName"`
	Analysis json.RawMessage `json:"analysis"`
}

// IntakeDocument analyzes an incoming document and schedules a training
// run on its text. The training run is fire-and-forget: this request
// completes regardless of its outcome.
func (h *DocumentHandler) IntakeDocument(c *gin.Context) {
	var req IntakeDocumentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	documentType := req.DocumentType
	if documentType == "" {
		documentType = "LabReport"
	}

	analysis := h.Analyzer.Analyze(c.Request.Context(), req.Text)

	h.Analyzer.TriggerTraining(req.Text, documentType)

	userID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("DocumentUpload", fmt.Sprintf("Processed document %q (%s)", req.FileName, documentType), userID, c.ClientIP())

	utils.Success(c, "Document processed successfully", IntakeDocumentResponse{
		FileName: req.FileName,
		Analysis: analysis,
	})
}
