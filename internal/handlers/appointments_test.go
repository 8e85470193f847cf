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

	"healthpulse-server/internal/audit"
	"healthpulse-server/internal/handlers"
	"healthpulse-server/internal/models"
)

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func setupAppointmentTest(t *testing.T) (*gin.Engine, *gorm.DB, *audit.Recorder) {
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
	handler := handlers.NewAppointmentHandler(db, auditRecorder)

	router := gin.New()
	router.POST("/appointments", handler.CreateAppointment)
	router.GET("/appointments", handler.GetAppointments)
	router.GET("/appointments/:id", handler.GetAppointmentByID)
	router.PATCH("/appointments/:id/status", handler.UpdateAppointmentStatus)
	router.PATCH("/appointments/:id/reschedule", handler.RescheduleAppointment)
	router.DELETE("/appointments/:id", handler.DeleteAppointment)
	return router, db, auditRecorder
}

func seedProvider(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	provider := models.User{
		FirstName: "Alice",
		LastName:  "Meyer",
		Email:     fmt.Sprintf("%s.provider@clinic.test", t.Name()),
		Role:      models.RoleDoctor,
	}
	require.NoError(t, provider.SetPassword("password123"))
	require.NoError(t, db.Create(&provider).Error)
	return provider
}

func seedPatientRecord(t *testing.T, db *gorm.DB) models.Patient {
	t.Helper()
	patient := models.Patient{FirstName: "John", LastName: "Doe"}
	require.NoError(t, db.Create(&patient).Error)
	return patient
}

func TestCreateAppointmentDenormalizesNames(t *testing.T) {
	router, db, auditRecorder := setupAppointmentTest(t)
	provider := seedProvider(t, db)
	patient := seedPatientRecord(t, db)

	w := doJSON(t, router, http.MethodPost, "/appointments", map[string]interface{}{
		"patientId":       patient.ID,
		"providerId":      provider.ID,
		"appointmentDate": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"reason":          "Annual physical",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data models.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "John Doe", resp.Data.PatientName)
	assert.Equal(t, "Alice Meyer", resp.Data.ProviderName)
	assert.Equal(t, 30, resp.Data.DurationMinutes)
	assert.Equal(t, "Checkup", resp.Data.AppointmentType)
	assert.Equal(t, models.AppointmentScheduled, resp.Data.Status)

	entries, err := auditRecorder.ListAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "AppointmentScheduled", entries[0].Action)
}

func TestCreateAppointmentRejectsUnknownPatient(t *testing.T) {
	router, db, _ := setupAppointmentTest(t)
	provider := seedProvider(t, db)

	w := doJSON(t, router, http.MethodPost, "/appointments", map[string]interface{}{
		"patientId":       "6f1e1f5e-0000-4000-8000-000000000000",
		"providerId":      provider.ID,
		"appointmentDate": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAppointmentRejectsNonProviderUser(t *testing.T) {
	router, db, _ := setupAppointmentTest(t)
	patient := seedPatientRecord(t, db)

	clerk := models.User{
		FirstName: "Bob",
		LastName:  "Frontdesk",
		Email:     fmt.Sprintf("%s.clerk@clinic.test", t.Name()),
		Role:      models.RoleStaff,
	}
	require.NoError(t, clerk.SetPassword("password123"))
	require.NoError(t, db.Create(&clerk).Error)

	w := doJSON(t, router, http.MethodPost, "/appointments", map[string]interface{}{
		"patientId":       patient.ID,
		"providerId":      clerk.ID,
		"appointmentDate": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAppointmentRejectsPastDate(t *testing.T) {
	router, db, _ := setupAppointmentTest(t)
	provider := seedProvider(t, db)
	patient := seedPatientRecord(t, db)

	w := doJSON(t, router, http.MethodPost, "/appointments", map[string]interface{}{
		"patientId":       patient.ID,
		"providerId":      provider.ID,
		"appointmentDate": time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAppointmentsFiltersByDay(t *testing.T) {
	router, db, _ := setupAppointmentTest(t)
	provider := seedProvider(t, db)
	patient := seedPatientRecord(t, db)

	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	seed := func(date time.Time) {
		appt := models.Appointment{
			PatientID:       patient.ID,
			PatientName:     "John Doe",
			ProviderID:      provider.ID,
			ProviderName:    "Alice Meyer",
			AppointmentDate: date,
			Status:          models.AppointmentScheduled,
		}
		require.NoError(t, db.Create(&appt).Error)
	}
	seed(day.Add(15 * time.Hour)) // afternoon slot
	seed(day.Add(9 * time.Hour))  // morning slot
	seed(day.AddDate(0, 0, 1).Add(10 * time.Hour))

	w := doJSON(t, router, http.MethodGet, "/appointments?date=2026-09-14", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.True(t, resp.Data[0].AppointmentDate.Before(resp.Data[1].AppointmentDate))
}

func TestGetAppointmentsRejectsMalformedDate(t *testing.T) {
	router, _, _ := setupAppointmentTest(t)

	w := doJSON(t, router, http.MethodGet, "/appointments?date=tomorrow", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAppointmentStatusFlow(t *testing.T) {
	router, db, auditRecorder := setupAppointmentTest(t)
	provider := seedProvider(t, db)
	patient := seedPatientRecord(t, db)

	appt := models.Appointment{
		PatientID:       patient.ID,
		ProviderID:      provider.ID,
		AppointmentDate: time.Now().Add(24 * time.Hour),
		Status:          models.AppointmentScheduled,
	}
	require.NoError(t, db.Create(&appt).Error)

	// Scheduled visits cannot complete without checking in first.
	w := doJSON(t, router, http.MethodPatch, "/appointments/"+appt.ID+"/status", map[string]string{"status": "Completed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPatch, "/appointments/"+appt.ID+"/status", map[string]string{"status": "Checked-In"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPatch, "/appointments/"+appt.ID+"/status", map[string]string{"status": "Completed"})
	require.Equal(t, http.StatusOK, w.Code)

	// Completed is terminal.
	w = doJSON(t, router, http.MethodPatch, "/appointments/"+appt.ID+"/status", map[string]string{"status": "Cancelled"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	entries, err := auditRecorder.ListAll()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "AppointmentStatusChanged", entries[0].Action)
}

func TestRescheduleRequiresScheduledStatus(t *testing.T) {
	router, db, _ := setupAppointmentTest(t)
	provider := seedProvider(t, db)
	patient := seedPatientRecord(t, db)

	appt := models.Appointment{
		PatientID:       patient.ID,
		ProviderID:      provider.ID,
		AppointmentDate: time.Now().Add(24 * time.Hour),
		Status:          models.AppointmentCancelled,
	}
	require.NoError(t, db.Create(&appt).Error)

	w := doJSON(t, router, http.MethodPatch, "/appointments/"+appt.ID+"/reschedule", map[string]string{
		"appointmentDate": time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRescheduleMovesDate(t *testing.T) {
	router, db, _ := setupAppointmentTest(t)
	provider := seedProvider(t, db)
	patient := seedPatientRecord(t, db)

	appt := models.Appointment{
		PatientID:       patient.ID,
		ProviderID:      provider.ID,
		AppointmentDate: time.Now().Add(24 * time.Hour),
		Status:          models.AppointmentScheduled,
	}
	require.NoError(t, db.Create(&appt).Error)

	newDate := time.Now().Add(96 * time.Hour).UTC().Truncate(time.Second)
	w := doJSON(t, router, http.MethodPatch, "/appointments/"+appt.ID+"/reschedule", map[string]string{
		"appointmentDate": newDate.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data models.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.AppointmentDate.Equal(newDate))
	assert.Equal(t, models.AppointmentScheduled, resp.Data.Status)
}

func TestDeleteAppointment(t *testing.T) {
	router, db, auditRecorder := setupAppointmentTest(t)
	provider := seedProvider(t, db)
	patient := seedPatientRecord(t, db)

	appt := models.Appointment{
		PatientID:       patient.ID,
		ProviderID:      provider.ID,
		AppointmentDate: time.Now().Add(24 * time.Hour),
		Status:          models.AppointmentScheduled,
	}
	require.NoError(t, db.Create(&appt).Error)

	w := doJSON(t, router, http.MethodDelete, "/appointments/"+appt.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/appointments/"+appt.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	entries, err := auditRecorder.ListAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "AppointmentDeleted", entries[0].Action)
}
