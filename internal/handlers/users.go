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

// UserHandler handles account administration and the provider directory.
type UserHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB, auditRec *audit.Recorder) *UserHandler {
	return &UserHandler{DB: db, Audit: auditRec}
}

// CreateUserRequest represents the request body for creating a user by an admin.
type CreateUserRequest struct {
	FirstName      string `json:"firstName" binding:"required"`
	LastName       string `json:"lastName" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	Role           string `json:"role" binding:"required,oneof=patient doctor staff admin"`
	OrganizationID string `json:"organizationId" binding:"omitempty,uuid"`
}

// CreateUser handles creating a new user account (admin).
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var existingUser models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		utils.BadRequest(c, "User with this email already exists")
		return
	} else if err != gorm.ErrRecordNotFound {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	if req.OrganizationID != "" {
		var org models.Organization
		if err := h.DB.First(&org, "id = ?", req.OrganizationID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFound(c, "Organization not found")
			} else {
				utils.InternalServerError(c, "Database error verifying organization: "+err.Error())
			}
			return
		}
	}

	user := models.User{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Role:           models.Role(req.Role),
		OrganizationID: req.OrganizationID,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	if err := h.DB.Create(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to create user: "+err.Error())
		return
	}

	actorID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("UserCreated", "Created "+req.Role+" account "+user.ID, actorID, c.ClientIP())

	utils.Created(c, "User created successfully", user.Sanitize())
}

// GetUsers lists accounts, optionally filtered by role or organization (admin).
func (h *UserHandler) GetUsers(c *gin.Context) {
	query := h.DB.Order("created_at desc")
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if orgID := c.Query("organizationId"); orgID != "" {
		query = query.Where("organization_id = ?", orgID)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch users: "+err.Error())
		return
	}

	sanitized := make([]models.UserSanitized, len(users))
	for i, u := range users {
		sanitized[i] = u.Sanitize()
	}

	utils.Success(c, "Users fetched successfully", sanitized)
}

// GetUserByID handles fetching a single user by ID (admin).
func (h *UserHandler) GetUserByID(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid User ID format")
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID.String()).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "User fetched successfully", user.Sanitize())
}

// UpdateUserRequest represents the request body for updating a user by an admin.
// Passwords change through the profile endpoints, not here.
type UpdateUserRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email" binding:"omitempty,email"`
	Role           string `json:"role" binding:"omitempty,oneof=patient doctor staff admin"`
	OrganizationID string `json:"organizationId" binding:"omitempty,uuid"`
}

// UpdateUser handles updating a user account by ID (admin).
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid User ID format")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID.String()).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Email != "" && req.Email != user.Email {
		var existingUser models.User
		if err := h.DB.Where("email = ? AND id != ?", req.Email, user.ID).First(&existingUser).Error; err == nil {
			utils.BadRequest(c, "New email is already in use")
			return
		} else if err != gorm.ErrRecordNotFound {
			utils.InternalServerError(c, "Database error checking email: "+err.Error())
			return
		}
		user.Email = req.Email
	}
	if req.Role != "" {
		user.Role = models.Role(req.Role)
	}
	if req.OrganizationID != "" {
		var org models.Organization
		if err := h.DB.First(&org, "id = ?", req.OrganizationID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFound(c, "Organization not found")
			} else {
				utils.InternalServerError(c, "Database error verifying organization: "+err.Error())
			}
			return
		}
		user.OrganizationID = req.OrganizationID
	}

	if err := h.DB.Save(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to update user: "+err.Error())
		return
	}

	actorID, _ := middleware.GetUserIDFromContext(c)
	h.Audit.Log("UserUpdated", "Updated account "+user.ID, actorID, c.ClientIP())

	utils.Success(c, "User updated successfully", user.Sanitize())
}

// DeleteUser handles deleting a user account by ID (admin). Admins
// cannot delete their own account.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid User ID format")
		return
	}

	actorID, _ := middleware.GetUserIDFromContext(c)
	if actorID == userID.String() {
		utils.BadRequest(c, "You cannot delete your own account")
		return
	}

	result := h.DB.Delete(&models.User{}, "id = ?", userID.String())
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to delete user: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFound(c, "User not found")
		return
	}

	h.Audit.Log("UserDeleted", "Deleted account "+userID.String(), actorID, c.ClientIP())

	utils.Success(c, "User deleted successfully", nil)
}

// GetProviders lists accounts with the doctor role, the directory used
// when booking appointments. Optionally filtered by organization.
func (h *UserHandler) GetProviders(c *gin.Context) {
	query := h.DB.Where("role = ?", models.RoleDoctor).Order("last_name asc")
	if orgID := c.Query("organizationId"); orgID != "" {
		query = query.Where("organization_id = ?", orgID)
	}

	var providers []models.User
	if err := query.Find(&providers).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch providers: "+err.Error())
		return
	}

	sanitized := make([]models.UserSanitized, len(providers))
	for i, p := range providers {
		sanitized[i] = p.Sanitize()
	}

	utils.Success(c, "Providers fetched successfully", sanitized)
}
