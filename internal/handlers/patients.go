package handlers

import (
	"time"

	"healthpulse-server/internal/ai"
	"healthpulse-server/internal/audit"
	"healthpulse-server/internal/middleware"
	"healthpulse-server/internal/models"
	"healthpulse-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PatientHandler handles patient administrative records and the
// risk-prediction entry point over a stored patient's vitals snapshot.
type PatientHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(db *gorm.DB, auditRec *audit.Recorder) *PatientHandler {
	return &PatientHandler{DB: db, Audit: auditRec}
}

// CreatePatientRequest represents the request body for creating a patient.
type CreatePatientRequest struct {
	FirstName     string `json:"firstName" binding:"required"`
	LastName      string `json:"lastName" binding:"required"`
	DateOfBirth   string `json:"dateOfBirth"` // ISO 8601
	Gender        string `json:"gender"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	MRN           string `json:"mrn"`
	Condition     string `json:"condition"`
	BloodPressure string `json:"bloodPressure"`
	HeartRate     int    `json:"heartRate"`
}

// CreatePatient handles creating a new patient record.
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var req CreatePatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patient := models.Patient{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Gender:        req.Gender,
		Phone:         req.Phone,
		Address:       req.Address,
		MRN:           req.MRN,
		Condition:     req.Condition,
		BloodPressure: req.BloodPressure,
		HeartRate:     req.HeartRate,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse(time.RFC3339, req.DateOfBirth)
		if err != nil {
			utils.BadRequest(c, "Invalid date format for dateOfBirth. Please use ISO 8601 format (YYYY-MM-DDTHH:MM:SSZ)")
			return
		}
		patient.DateOfBirth = &dob
	}
	if patient.Condition == "" {
		patient.Condition = "Healthy Checkup"
	}
	if patient.BloodPressure == "" {
		patient.BloodPressure = "120/80"
	}
	if patient.HeartRate == 0 {
		patient.HeartRate = 70
	}

	if err := h.DB.Create(&patient).Error; err != nil {
		utils.InternalServerError(c, "Failed to create patient: "+err.Error())
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("PatientCreated", "Created patient "+patient.ID, userID, c.ClientIP())

	utils.Created(c, "Patient created successfully", patient)
}

// GetPatients handles listing all patients, optionally filtered by status.
func (h *PatientHandler) GetPatients(c *gin.Context) {
	query := h.DB.Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var patients []models.Patient
	if err := query.Find(&patients).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch patients: "+err.Error())
		return
	}

	utils.Success(c, "Patients fetched successfully", patients)
}

// GetPatientByID handles fetching a single patient by ID.
func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid Patient ID format")
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", patientID.String()).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Patient fetched successfully", patient)
}

// UpdatePatientRequest represents the request body for updating a patient.
type UpdatePatientRequest struct {
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	Condition     string `json:"condition,omitempty"`
	Status        string `json:"status,omitempty"`
	BloodPressure string `json:"bloodPressure,omitempty"`
	HeartRate     int    `json:"heartRate,omitempty"`
}

// UpdatePatient handles updating an existing patient record.
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid Patient ID format")
		return
	}

	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", patientID.String()).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if req.FirstName != "" {
		patient.FirstName = req.FirstName
	}
	if req.LastName != "" {
		patient.LastName = req.LastName
	}
	if req.Phone != "" {
		patient.Phone = req.Phone
	}
	if req.Address != "" {
		patient.Address = req.Address
	}
	if req.Condition != "" {
		patient.Condition = req.Condition
	}
	if req.Status != "" {
		patient.Status = models.PatientStatus(req.Status)
	}
	if req.BloodPressure != "" {
		patient.BloodPressure = req.BloodPressure
	}
	if req.HeartRate != 0 {
		patient.HeartRate = req.HeartRate
	}

	if err := h.DB.Save(&patient).Error; err != nil {
		utils.InternalServerError(c, "Failed to update patient: "+err.Error())
		return
	}

	utils.Success(c, "Patient updated successfully", patient)
}

// DeletePatient handles deleting a patient record. Admin only.
func (h *PatientHandler) DeletePatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid Patient ID format")
		return
	}

	result := h.DB.Delete(&models.Patient{}, "id = ?", patientID.String())
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to delete patient: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFound(c, "Patient not found")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("PatientDeleted", "Deleted patient "+patientID.String(), userID, c.ClientIP())

	utils.Success(c, "Patient deleted successfully", nil)
}

// PredictRisk scores the stored vitals snapshot of a patient.
func (h *PatientHandler) PredictRisk(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid Patient ID format")
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", patientID.String()).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	snapshot := ai.PatientSnapshot{
		BloodPressure: patient.BloodPressure,
		HeartRate:     patient.HeartRate,
		Condition:     patient.Condition,
	}
	if patient.DateOfBirth != nil {
		snapshot.BirthYear = patient.DateOfBirth.Year()
	}

	assessment := ai.Score(snapshot)

	userID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("RiskAnalysis", "Patient "+patient.ID+": "+ai.DescribeSnapshot(snapshot), userID, c.ClientIP())

	utils.Success(c, "Risk assessment completed", assessment)
}
