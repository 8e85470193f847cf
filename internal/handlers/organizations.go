package handlers

import (
	"healthpulse-server/internal/audit"
	"healthpulse-server/internal/middleware"
	"healthpulse-server/internal/models"
	"healthpulse-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrganizationHandler handles care-network partner records.
type OrganizationHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(db *gorm.DB, auditRec *audit.Recorder) *OrganizationHandler {
	return &OrganizationHandler{DB: db, Audit: auditRec}
}

// CreateOrganizationRequest represents the request body for creating an organization.
type CreateOrganizationRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	Type       string `json:"type" binding:"omitempty,oneof=Provider Payer Supplier"`
	Identifier string `json:"identifier"`
}

// CreateOrganization registers a new organization. Admin only.
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	var req CreateOrganizationRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	org := models.Organization{
		Name:       req.Name,
		Type:       req.Type,
		Identifier: req.Identifier,
	}
	if org.Type == "" {
		org.Type = "Provider"
	}

	if err := h.DB.Create(&org).Error; err != nil {
		utils.InternalServerError(c, "Failed to create organization: "+err.Error())
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("OrganizationCreated", "Created organization "+org.ID+" ("+org.Name+")", userID, c.ClientIP())

	utils.Created(c, "Organization created successfully", org)
}

// GetOrganizations lists organizations sorted by name, optionally
// filtered by type.
func (h *OrganizationHandler) GetOrganizations(c *gin.Context) {
	query := h.DB.Order("name asc")
	if orgType := c.Query("type"); orgType != "" && orgType != "All" {
		query = query.Where("type = ?", orgType)
	}

	var orgs []models.Organization
	if err := query.Find(&orgs).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch organizations: "+err.Error())
		return
	}

	utils.Success(c, "Organizations fetched successfully", orgs)
}

// GetOrganizationByID handles fetching a single organization by its ID.
func (h *OrganizationHandler) GetOrganizationByID(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid Organization ID format")
		return
	}

	var org models.Organization
	if err := h.DB.First(&org, "id = ?", orgID.String()).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Organization not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Organization fetched successfully", org)
}

// UpdateOrganizationRequest represents the request body for updating an organization.
type UpdateOrganizationRequest struct {
	Name       string `json:"name" binding:"omitempty,max=100"`
	Type       string `json:"type" binding:"omitempty,oneof=Provider Payer Supplier"`
	Identifier string `json:"identifier"`
}

// UpdateOrganization handles updating an organization. Admin only.
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid Organization ID format")
		return
	}

	var req UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var org models.Organization
	if err := h.DB.First(&org, "id = ?", orgID.String()).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Organization not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if req.Name != "" {
		org.Name = req.Name
	}
	if req.Type != "" {
		org.Type = req.Type
	}
	if req.Identifier != "" {
		org.Identifier = req.Identifier
	}

	if err := h.DB.Save(&org).Error; err != nil {
		utils.InternalServerError(c, "Failed to update organization: "+err.Error())
		return
	}

	utils.Success(c, "Organization updated successfully", org)
}

// DeleteOrganization removes an organization that no user or patient
// references anymore. Admin only.
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid Organization ID format")
		return
	}

	var members int64
	if err := h.DB.Model(&models.User{}).Where("organization_id = ?", orgID.String()).Count(&members).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}
	var patients int64
	if err := h.DB.Model(&models.Patient{}).Where("organization_id = ?", orgID.String()).Count(&patients).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}
	if members > 0 || patients > 0 {
		utils.BadRequest(c, "Organization still has members or patients attached")
		return
	}

	result := h.DB.Delete(&models.Organization{}, "id = ?", orgID.String())
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to delete organization: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFound(c, "Organization not found")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("OrganizationDeleted", "Deleted organization "+orgID.String(), userID, c.ClientIP())

	utils.Success(c, "Organization deleted successfully", nil)
}
