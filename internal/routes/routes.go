package routes

import (
	"healthpulse-server/internal/ai"
	"healthpulse-server/internal/audit"
	"healthpulse-server/internal/config"
	"healthpulse-server/internal/handlers"
	"healthpulse-server/internal/middleware"
	"healthpulse-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, logger zerolog.Logger) {
	// Shared recorders and the analysis strategy, fixed at startup.
	auditRecorder := audit.NewRecorder(db, logger)
	trainingRecorder := ai.NewTrainingRecorder(db, logger)
	analyzer := ai.NewAnalyzer(cfg.AI, trainingRecorder, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg, auditRecorder)
	userHandler := handlers.NewUserHandler(db, auditRecorder)
	organizationHandler := handlers.NewOrganizationHandler(db, auditRecorder)
	patientHandler := handlers.NewPatientHandler(db, auditRecorder)
	appointmentHandler := handlers.NewAppointmentHandler(db, auditRecorder)
	medicalRecordHandler := handlers.NewMedicalRecordHandler(db, auditRecorder)
	billingHandler := handlers.NewBillingHandler(db, auditRecorder)
	documentHandler := handlers.NewDocumentHandler(analyzer, auditRecorder)
	aiHandler := handlers.NewAIHandler(analyzer, trainingRecorder, auditRecorder)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg)) // Apply JWT authentication middleware
	{
		// Auth related (profile, logout)
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// User management routes (typically admin-only)
		userRoutes := private.Group("/users")
		{
			userRoutes.GET("/providers", userHandler.GetProviders)

			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin)) // Only Admins
			{
				adminRoutes.POST("", userHandler.CreateUser)
				adminRoutes.GET("", userHandler.GetUsers)
				adminRoutes.GET("/:id", userHandler.GetUserByID)
				adminRoutes.PUT("/:id", userHandler.UpdateUser)
				adminRoutes.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		// Patient administrative records and risk prediction
		patientRoutes := private.Group("/patients")
		{
			patientRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleStaff, models.RoleAdmin), patientHandler.CreatePatient)
			patientRoutes.GET("", patientHandler.GetPatients)
			patientRoutes.GET("/:id", patientHandler.GetPatientByID)
			patientRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleStaff, models.RoleAdmin), patientHandler.UpdatePatient)
			patientRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), patientHandler.DeletePatient)
			patientRoutes.POST("/:id/predict-risk", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), patientHandler.PredictRisk)
		}

		// Organization routes
		organizationRoutes := private.Group("/organizations")
		{
			organizationRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleAdmin), organizationHandler.CreateOrganization)
			organizationRoutes.GET("", organizationHandler.GetOrganizations)
			organizationRoutes.GET("/:id", organizationHandler.GetOrganizationByID)
			organizationRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), organizationHandler.UpdateOrganization)
			organizationRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), organizationHandler.DeleteOrganization)
		}

		// Appointment routes
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleStaff, models.RoleAdmin), appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PATCH("/:id/status", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleStaff, models.RoleAdmin), appointmentHandler.UpdateAppointmentStatus)
			appointmentRoutes.PATCH("/:id/reschedule", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleStaff, models.RoleAdmin), appointmentHandler.RescheduleAppointment)
			appointmentRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), appointmentHandler.DeleteAppointment)
		}

		// Medical Record routes
		medicalRecordRoutes := private.Group("/medical-records")
		{
			medicalRecordRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor), medicalRecordHandler.CreateMedicalRecord)
			medicalRecordRoutes.GET("/patient/:patientId", medicalRecordHandler.GetMedicalRecordsForPatient)
			medicalRecordRoutes.GET("/:id", medicalRecordHandler.GetMedicalRecordByID)
			medicalRecordRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), medicalRecordHandler.UpdateMedicalRecord)
			medicalRecordRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), medicalRecordHandler.DeleteMedicalRecord)

			attachmentRoutes := medicalRecordRoutes.Group("/:id/attachments")
			attachmentRoutes.Use(middleware.RoleAuthMiddleware(models.RoleDoctor))
			{
				attachmentRoutes.POST("", medicalRecordHandler.UploadMedicalRecordAttachment)
			}

			private.GET("/medical-records/attachments/:attachmentId", medicalRecordHandler.GetMedicalRecordAttachment)
		}

		// Billing routes
		billingRoutes := private.Group("/billing")
		{
			billingRoutes.POST("/invoices", middleware.RoleAuthMiddleware(models.RoleStaff, models.RoleAdmin), billingHandler.CreateInvoice)
			billingRoutes.GET("/invoices", billingHandler.GetInvoices)
			billingRoutes.GET("/invoices/:id", billingHandler.GetInvoiceByID)
			billingRoutes.PATCH("/invoices/:id/pay", billingHandler.PayInvoice)
		}

		// Document intake
		documentRoutes := private.Group("/documents")
		{
			documentRoutes.POST("/intake", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleStaff, models.RoleAdmin), documentHandler.IntakeDocument)
		}

		// Clinical analysis bridge
		aiRoutes := private.Group("/ai")
		{
			aiRoutes.POST("/analyze", aiHandler.AnalyzeDocument)
			aiRoutes.POST("/predict-risk", aiHandler.PredictRisk)
			aiRoutes.POST("/training-log", middleware.RoleAuthMiddleware(models.RoleAdmin), aiHandler.LogTrainingResult)
			aiRoutes.GET("/training-history", aiHandler.GetTrainingHistory)
			aiRoutes.GET("/audit-log", middleware.RoleAuthMiddleware(models.RoleAdmin), aiHandler.GetAuditTrail)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
