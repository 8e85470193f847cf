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

// BillingHandler handles invoice related requests.
type BillingHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(db *gorm.DB, auditRec *audit.Recorder) *BillingHandler {
	return &BillingHandler{DB: db, Audit: auditRec}
}

// CreateInvoiceRequest represents the request body for creating an invoice.
type CreateInvoiceRequest struct {
	PatientID   string  `json:"patientId" binding:"required,uuid"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	DueDate     string  `json:"dueDate" binding:"required"` // ISO 8601
}

// CreateInvoice handles creating a new invoice for a patient.
func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	dueDate, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		utils.BadRequest(c, "Invalid date format for dueDate. Please use ISO 8601 format (YYYY-MM-DDTHH:MM:SSZ)")
		return
	}

	// Verify patient exists
	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", req.PatientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error verifying patient: "+err.Error())
		}
		return
	}

	invoice := models.Invoice{
		PatientID:   patient.ID,
		PatientName: patient.FirstName + " " + patient.LastName,
		Description: req.Description,
		Amount:      req.Amount,
		Status:      models.InvoiceUnpaid,
		DueDate:     dueDate,
	}
	if invoice.Description == "" {
		invoice.Description = "Medical Service"
	}

	if err := h.DB.Create(&invoice).Error; err != nil {
		utils.InternalServerError(c, "Failed to create invoice: "+err.Error())
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("InvoiceCreated", "Invoice "+invoice.ID+" for patient "+patient.ID, userID, c.ClientIP())

	utils.Created(c, "Invoice created successfully", invoice)
}

// GetInvoices handles listing invoices, optionally filtered by patient
// or status.
func (h *BillingHandler) GetInvoices(c *gin.Context) {
	query := h.DB.Order("created_at desc")
	if patientID := c.Query("patientId"); patientID != "" {
		query = query.Where("patient_id = ?", patientID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch invoices: "+err.Error())
		return
	}

	utils.Success(c, "Invoices fetched successfully", invoices)
}

// GetInvoiceByID handles fetching a single invoice by its ID.
func (h *BillingHandler) GetInvoiceByID(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid Invoice ID format")
		return
	}

	var invoice models.Invoice
	if err := h.DB.First(&invoice, "id = ?", invoiceID.String()).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Invoice not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Invoice fetched successfully", invoice)
}

// PayInvoiceRequest represents the request body for settling an invoice.
type PayInvoiceRequest struct {
	PaymentMethod string `json:"paymentMethod" binding:"required,oneof='Credit Card' Insurance Cash"`
}

// PayInvoice marks an invoice as paid.
func (h *BillingHandler) PayInvoice(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid Invoice ID format")
		return
	}

	var req PayInvoiceRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var invoice models.Invoice
	if err := h.DB.First(&invoice, "id = ?", invoiceID.String()).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Invoice not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if invoice.Status == models.InvoicePaid {
		utils.BadRequest(c, "Invoice is already paid")
		return
	}
	if invoice.Status == models.InvoiceCancelled {
		utils.BadRequest(c, "Cancelled invoices cannot be paid")
		return
	}

	now := time.Now()
	invoice.Status = models.InvoicePaid
	invoice.PaymentMethod = req.PaymentMethod
	invoice.PaidAt = &now

	if err := h.DB.Save(&invoice).Error; err != nil {
		utils.InternalServerError(c, "Failed to update invoice: "+err.Error())
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("InvoicePaid", "Invoice "+invoice.ID+" paid via "+req.PaymentMethod, userID, c.ClientIP())

	utils.Success(c, "Invoice paid successfully", invoice)
}
