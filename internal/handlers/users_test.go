package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"healthpulse-server/internal/audit"
	"healthpulse-server/internal/handlers"
	"healthpulse-server/internal/models"
)

func setupUserTest(t *testing.T) (*gin.Engine, *gorm.DB, *audit.Recorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.Migrate(db))

	auditRecorder := audit.NewRecorder(db, zerolog.Nop())
	handler := handlers.NewUserHandler(db, auditRecorder)

	router := gin.New()
	// Stands in for the JWT middleware so handlers see an acting user.
	router.Use(func(c *gin.Context) {
		if actor := c.GetHeader("X-Acting-User"); actor != "" {
			c.Set("userID", actor)
		}
	})
	router.POST("/users", handler.CreateUser)
	router.GET("/users", handler.GetUsers)
	router.GET("/users/providers", handler.GetProviders)
	router.GET("/users/:id", handler.GetUserByID)
	router.PUT("/users/:id", handler.UpdateUser)
	router.DELETE("/users/:id", handler.DeleteUser)
	return router, db, auditRecorder
}

func seedUser(t *testing.T, db *gorm.DB, firstName, lastName string, role models.Role) models.User {
	t.Helper()
	user := models.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     fmt.Sprintf("%s.%s.%s@clinic.test", t.Name(), firstName, lastName),
		Role:      role,
	}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestCreateUserValidatesOrganization(t *testing.T) {
	router, db, auditRecorder := setupUserTest(t)

	payload := map[string]string{
		"firstName":      "Alice",
		"lastName":       "Meyer",
		"email":          fmt.Sprintf("%s@clinic.test", t.Name()),
		"password":       "password123",
		"role":           "staff",
		"organizationId": "6f1e1f5e-0000-4000-8000-000000000000",
	}
	w := doJSON(t, router, http.MethodPost, "/users", payload)
	assert.Equal(t, http.StatusNotFound, w.Code)

	org := models.Organization{Name: "Mercy General"}
	require.NoError(t, db.Create(&org).Error)

	payload["organizationId"] = org.ID
	w = doJSON(t, router, http.MethodPost, "/users", payload)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data models.UserSanitized `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, org.ID, resp.Data.OrganizationID)
	assert.Equal(t, models.RoleStaff, resp.Data.Role)

	entries, err := auditRecorder.ListAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "UserCreated", entries[0].Action)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	router, db, _ := setupUserTest(t)
	existing := seedUser(t, db, "Alice", "Meyer", models.RoleDoctor)

	w := doJSON(t, router, http.MethodPost, "/users", map[string]string{
		"firstName": "Another",
		"lastName":  "Person",
		"email":     existing.Email,
		"password":  "password123",
		"role":      "staff",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUsersFiltersByRole(t *testing.T) {
	router, db, _ := setupUserTest(t)
	seedUser(t, db, "Alice", "Meyer", models.RoleDoctor)
	seedUser(t, db, "Bob", "Frontdesk", models.RoleStaff)

	w := doJSON(t, router, http.MethodGet, "/users?role=doctor", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.UserSanitized `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, models.RoleDoctor, resp.Data[0].Role)
}

func TestGetProvidersListsDoctorsSorted(t *testing.T) {
	router, db, _ := setupUserTest(t)
	seedUser(t, db, "Zoe", "Zimmer", models.RoleDoctor)
	seedUser(t, db, "Alice", "Meyer", models.RoleDoctor)
	seedUser(t, db, "Bob", "Frontdesk", models.RoleStaff)

	w := doJSON(t, router, http.MethodGet, "/users/providers", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.UserSanitized `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Meyer", resp.Data[0].LastName)
	assert.Equal(t, "Zimmer", resp.Data[1].LastName)
}

func TestDeleteUserCannotDeleteSelf(t *testing.T) {
	router, db, auditRecorder := setupUserTest(t)
	admin := seedUser(t, db, "Ada", "Root", models.RoleAdmin)
	other := seedUser(t, db, "Bob", "Frontdesk", models.RoleStaff)

	req := func(targetID, actorID string) int {
		r := httptest.NewRequest(http.MethodDelete, "/users/"+targetID, nil)
		r.Header.Set("X-Acting-User", actorID)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusBadRequest, req(admin.ID, admin.ID))
	assert.Equal(t, http.StatusOK, req(other.ID, admin.ID))

	entries, err := auditRecorder.ListAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "UserDeleted", entries[0].Action)
	assert.Equal(t, admin.ID, entries[0].UserID)
}
