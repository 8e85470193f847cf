package handlers

import (
	"time"

	"healthpulse-server/internal/audit"
	"healthpulse-server/internal/middleware"
	"healthpulse-server/internal/models"
	"healthpulse-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentHandler handles the provider schedule: booking visits,
// the check-in flow and rescheduling.
type AppointmentHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, auditRec *audit.Recorder) *AppointmentHandler {
	return &AppointmentHandler{DB: db, Audit: auditRec}
}

// CreateAppointmentRequest represents the request body for booking a visit.
type CreateAppointmentRequest struct {
	PatientID       string    `json:"patientId" binding:"required,uuid"`
	ProviderID      string    `json:"providerId" binding:"required,uuid"`
	AppointmentDate time.Time `json:"appointmentDate" binding:"required"`
	DurationMinutes int       `json:"durationMinutes" binding:"omitempty,gt=0,lte=240"`
	AppointmentType string    `json:"appointmentType" binding:"omitempty,oneof=Checkup Follow-up Emergency"`
	Reason          string    `json:"reason"`
	Notes           string    `json:"notes"`
}

// CreateAppointment books a visit for a patient with a provider. Patient
// and provider names are captured at booking time so the schedule keeps
// displaying them even if the source records change later.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if req.AppointmentDate.Before(time.Now()) {
		utils.BadRequest(c, "Appointment date must be in the future")
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", req.PatientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error verifying patient: "+err.Error())
		}
		return
	}

	var provider models.User
	if err := h.DB.Where("id = ? AND role = ?", req.ProviderID, models.RoleDoctor).First(&provider).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Provider not found or user is not a provider")
		} else {
			utils.InternalServerError(c, "Database error verifying provider: "+err.Error())
		}
		return
	}

	appointment := models.Appointment{
		PatientID:       patient.ID,
		PatientName:     patient.FirstName + " " + patient.LastName,
		ProviderID:      provider.ID,
		ProviderName:    provider.FirstName + " " + provider.LastName,
		AppointmentDate: req.AppointmentDate,
		DurationMinutes: req.DurationMinutes,
		AppointmentType: req.AppointmentType,
		Status:          models.AppointmentScheduled,
		Reason:          req.Reason,
		Notes:           req.Notes,
	}
	if appointment.DurationMinutes == 0 {
		appointment.DurationMinutes = 30
	}
	if appointment.AppointmentType == "" {
		appointment.AppointmentType = "Checkup"
	}

	if err := h.DB.Create(&appointment).Error; err != nil {
		utils.InternalServerError(c, "Failed to create appointment: "+err.Error())
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("AppointmentScheduled", "Appointment "+appointment.ID+" for patient "+patient.ID, userID, c.ClientIP())

	utils.Created(c, "Appointment created successfully", appointment)
}

// GetAppointments lists the schedule, optionally narrowed to a single
// day (?date=YYYY-MM-DD), a provider, a patient or a status.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	query := h.DB.Order("appointment_date asc")

	if day := c.Query("date"); day != "" {
		start, err := time.Parse("2006-01-02", day)
		if err != nil {
			utils.BadRequest(c, "Invalid date filter. Use YYYY-MM-DD")
			return
		}
		query = query.Where("appointment_date >= ? AND appointment_date < ?", start, start.AddDate(0, 0, 1))
	}
	if providerID := c.Query("providerId"); providerID != "" {
		query = query.Where("provider_id = ?", providerID)
	}
	if patientID := c.Query("patientId"); patientID != "" {
		query = query.Where("patient_id = ?", patientID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointmentByID handles fetching a single appointment by its ID.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid Appointment ID format")
		return
	}

	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", appointmentID.String()).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Appointment fetched successfully", appointment)
}

// UpdateAppointmentStatusRequest represents the request body for moving
// a visit through the check-in flow.
type UpdateAppointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status" binding:"required,oneof='Checked-In' Completed Cancelled"`
	Notes  string                   `json:"notes"` // e.g. cancellation reason
}

// UpdateAppointmentStatus advances a visit through
// Scheduled -> Checked-In -> Completed, or cancels it. Completed and
// Cancelled visits cannot change status again.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid Appointment ID format")
		return
	}

	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", appointmentID.String()).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if !appointment.Status.CanTransitionTo(req.Status) {
		utils.BadRequest(c, "Cannot move appointment from "+string(appointment.Status)+" to "+string(req.Status))
		return
	}

	appointment.Status = req.Status
	if req.Notes != "" {
		appointment.Notes = req.Notes
	}

	if err := h.DB.Save(&appointment).Error; err != nil {
		utils.InternalServerError(c, "Failed to update appointment status: "+err.Error())
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("AppointmentStatusChanged", "Appointment "+appointment.ID+" moved to "+string(req.Status), userID, c.ClientIP())

	utils.Success(c, "Appointment status updated successfully", appointment)
}

// RescheduleAppointmentRequest represents the request body for moving a
// visit to a new date.
type RescheduleAppointmentRequest struct {
	AppointmentDate time.Time `json:"appointmentDate" binding:"required"`
	Notes           string    `json:"notes"`
}

// RescheduleAppointment moves a not-yet-started visit to a new date.
// Completed or cancelled visits must be rebooked instead.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid Appointment ID format")
		return
	}

	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if req.AppointmentDate.Before(time.Now()) {
		utils.BadRequest(c, "New appointment date must be in the future")
		return
	}

	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", appointmentID.String()).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if appointment.Status != models.AppointmentScheduled {
		utils.BadRequest(c, "Only scheduled appointments can be rescheduled")
		return
	}

	appointment.AppointmentDate = req.AppointmentDate
	if req.Notes != "" {
		appointment.Notes = req.Notes
	}

	if err := h.DB.Save(&appointment).Error; err != nil {
		utils.InternalServerError(c, "Failed to reschedule appointment: "+err.Error())
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("AppointmentRescheduled", "Appointment "+appointment.ID+" moved to "+req.AppointmentDate.Format(time.RFC3339), userID, c.ClientIP())

	utils.Success(c, "Appointment rescheduled successfully", appointment)
}

// DeleteAppointment removes a visit from the schedule. Admin only.
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid Appointment ID format")
		return
	}

	result := h.DB.Delete(&models.Appointment{}, "id = ?", appointmentID.String())
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to delete appointment: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFound(c, "Appointment not found")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("AppointmentDeleted", "Deleted appointment "+appointmentID.String(), userID, c.ClientIP())

	utils.Success(c, "Appointment deleted successfully", nil)
}
