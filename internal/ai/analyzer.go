package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"healthpulse-server/internal/config"
	"healthpulse-server/internal/models"
)

// AnalysisResult is the document-analysis payload produced locally or
// synthesized when the cloud service fails. Successful cloud responses
// bypass this struct entirely and are passed through verbatim.
type AnalysisResult struct {
	Summary     string   `json:"summary"`
	Precautions []string `json:"precautions"`
	RiskLevel   string   `json:"riskLevel"`
}

// TrainingSink receives training-history entries. Appends must never
// fail the caller; implementations swallow persistence errors.
type TrainingSink interface {
	Append(entry models.TrainingLog)
}

// Analyzer is the document analysis strategy. Exactly one
// implementation is selected at startup from configuration; the choice
// never changes at runtime.
//
// Analyze never fails: every cloud failure mode is converted into a
// well-formed degraded result. TriggerTraining is fire-and-forget; its
// completion and failures are not observable by the caller.
type Analyzer interface {
	Analyze(ctx context.Context, documentText string) json.RawMessage
	TriggerTraining(documentText, documentType string)
}

// NewAnalyzer builds the analyzer selected by configuration.
func NewAnalyzer(cfg config.AIConfig, training TrainingSink, logger zerolog.Logger) Analyzer {
	if cfg.UseCloud {
		return &CloudAnalyzer{
			client:   NewCloudClient(cfg.CloudURL, time.Duration(cfg.TimeoutSeconds)*time.Second),
			training: training,
			timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
			log:      logger.With().Str("analyzer", "cloud").Logger(),
		}
	}
	return &LocalAnalyzer{
		log: logger.With().Str("analyzer", "local").Logger(),
	}
}

// ---------------------------------------------------------------------------
// Local strategy
// ---------------------------------------------------------------------------

// LocalAnalyzer simulates analysis on-device. It is used when no cloud
// inference endpoint is configured and for air-gapped deployments.
type LocalAnalyzer struct {
	log zerolog.Logger
}

var localPrecautions = []string{
	"Monitor symptoms",
	"Stay hydrated",
	"Schedule a follow-up if symptoms persist",
}

// Analyze returns a deterministic simulated result for the document.
func (a *LocalAnalyzer) Analyze(_ context.Context, documentText string) json.RawMessage {
	a.log.Info().Int("length", len(documentText)).Msg("analyzing document locally")

	result := AnalysisResult{
		Summary:     fmt.Sprintf("Local Analysis: Processed %d words. No anomalies detected by the on-device model.", len(strings.Fields(documentText))),
		Precautions: localPrecautions,
		RiskLevel:   "Moderate",
	}
	return mustMarshal(result)
}

// TriggerTraining is a no-op in local mode; no training entry is written.
func (a *LocalAnalyzer) TriggerTraining(_, documentType string) {
	a.log.Info().Str("documentType", documentType).Msg("local mode: training trigger ignored")
}

// ---------------------------------------------------------------------------
// Cloud strategy
// ---------------------------------------------------------------------------

// CloudAnalyzer delegates analysis to the remote inference service and
// degrades gracefully when it misbehaves.
type CloudAnalyzer struct {
	client   *CloudClient
	training TrainingSink
	timeout  time.Duration
	log      zerolog.Logger
}

// trainingSource labels entries written from the cloud train endpoint.
const trainingSource = "cloud_training"

// excerptLimit caps the stored slice of the training input.
const excerptLimit = 100

// Analyze posts the document to the cloud predict endpoint. A 2xx body
// is returned verbatim; any failure yields a degraded fallback result.
func (a *CloudAnalyzer) Analyze(ctx context.Context, documentText string) json.RawMessage {
	status, body, err := a.client.Predict(ctx, documentText)
	if err != nil {
		a.log.Warn().Err(err).Msg("cloud predict unreachable, returning fallback result")
		return fallbackResult("Error: Could not connect to Cloud AI.")
	}
	if status < 200 || status > 299 {
		a.log.Warn().Int("status", status).Msg("cloud predict returned non-success status")
		return fallbackResult(fmt.Sprintf("Cloud Error: %d", status))
	}

	// The remote JSON shape is trusted as-is.
	return json.RawMessage(body)
}

// TriggerTraining kicks off a cloud training run in the background. The
// caller's request completes independently of its outcome, so the run
// gets its own context rather than inheriting the request's.
func (a *CloudAnalyzer) TriggerTraining(documentText, documentType string) {
	go a.runTraining(documentText, documentType)
}

func (a *CloudAnalyzer) runTraining(documentText, documentType string) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	status, body, err := a.client.Train(ctx, documentText, documentType)
	if err != nil {
		a.log.Warn().Err(err).Msg("cloud training call failed")
		return
	}
	if status < 200 || status > 299 {
		a.log.Warn().Int("status", status).Msg("cloud training returned non-success status")
		return
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "<") {
		// Markup instead of JSON means the train URL is misconfigured.
		if looksLikeFrontendHTML(trimmed) {
			a.log.Error().Msg("cloud train endpoint returned the front-end application: wrong endpoint configured, check AI_CLOUD_URL")
		} else {
			a.log.Warn().Msg("cloud train endpoint returned HTML, likely a gateway warning page")
		}
		return
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		a.log.Warn().Err(err).Msg("cloud training response is not valid JSON")
		return
	}

	entry := models.TrainingLog{
		FileName:      trainingSource,
		Excerpt:       truncate(documentText, excerptLimit),
		Epochs:        int(numberField(fields, "epochs")),
		FinalAccuracy: numberField(fields, "final_accuracy"),
		FinalLoss:     numberField(fields, "final_loss"),
		ModelPath:     stringField(fields, "model_path", "cloud/colab-session"),
	}
	a.training.Append(entry)

	a.log.Info().
		Int("epochs", entry.Epochs).
		Float64("accuracy", entry.FinalAccuracy).
		Float64("loss", entry.FinalLoss).
		Msg("cloud training completed")
}

// looksLikeFrontendHTML reports whether an HTML body is the SPA shell
// rather than a proxy/gateway interstitial.
func looksLikeFrontendHTML(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, `id="root"`) || strings.Contains(lower, "enable javascript")
}

func fallbackResult(summary string) json.RawMessage {
	return mustMarshal(AnalysisResult{
		Summary:     summary,
		Precautions: []string{},
		RiskLevel:   "Unknown",
	})
}

// numberField extracts an optional numeric field, defaulting to zero
// when the key is absent or not a number.
func numberField(fields map[string]interface{}, key string) float64 {
	if v, ok := fields[key].(float64); ok {
		return v
	}
	return 0
}

func stringField(fields map[string]interface{}, key, fallback string) string {
	if v, ok := fields[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// mustMarshal encodes values that cannot fail to marshal (plain structs
// of strings and slices).
func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{"summary":"Error: internal encoding failure.","precautions":[],"riskLevel":"Unknown"}`)
	}
	return data
}
