package handler

import (
	"hospital-appointments/internal/config"
	"hospital-appointments/internal/metrics"
	"hospital-appointments/internal/middleware"
	"hospital-appointments/pkg/logger"
	"hospital-appointments/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps is everything the HTTP surface needs
type RouterDeps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Tokens   *utils.TokenManager
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	Auth        *AuthHandler
	Hospitals   *HospitalHandler
	Doctors     *DoctorHandler
	Appointment *AppointmentHandler
}

// NewRouter registers every route on a fresh gin engine
func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.CORS(d.Config.CORS))

	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"service": "hospital-appointments",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	authn := middleware.AuthMiddleware(d.Tokens)

	// Hospital (tenant administrator) accounts
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", d.Auth.Register)
		auth.POST("/login", d.Auth.Login)
		auth.POST("/refresh", d.Auth.Refresh)
		auth.POST("/logout", d.Auth.Logout)
		auth.GET("/me", authn, middleware.RequireHospital(), d.Auth.Me)
	}

	patients := r.Group("/api/patients")
	{
		patients.POST("/signup", d.Auth.PatientSignup)
		patients.POST("/login", d.Auth.PatientLogin)
		patients.GET("/me", authn, middleware.RequirePatient(), d.Auth.PatientMe)
	}

	// Public directory
	hospitals := r.Group("/api/hospitals")
	{
		hospitals.GET("", d.Hospitals.GetAllHospitals)
		hospitals.GET("/:hospitalId/doctors", d.Hospitals.GetHospitalDoctors)
	}

	admin := r.Group("/api/admin")
	admin.Use(authn, middleware.RequireHospital())
	{
		admin.GET("/doctors", d.Doctors.GetAllDoctors)
		admin.POST("/doctors", d.Doctors.CreateDoctor)
		admin.GET("/doctors/:id", d.Doctors.GetDoctor)
		admin.PATCH("/doctors/:id", d.Doctors.UpdateDoctor)
		admin.DELETE("/doctors/:id", d.Doctors.DeleteDoctor)
		admin.GET("/audit", d.Hospitals.GetAuditTrail)
	}

	// Hospitals and patients share these; the services scope what each may see
	appointments := r.Group("/api/appointments")
	appointments.Use(authn)
	{
		appointments.POST("", d.Appointment.CreateAppointment)
		appointments.GET("", d.Appointment.GetAppointments)
		appointments.GET("/:id", d.Appointment.GetAppointment)
		appointments.PUT("/:id/status", d.Appointment.UpdateStatus)
		appointments.PUT("/:id/assign", middleware.RequireHospital(), d.Appointment.AssignAppointment)
		appointments.DELETE("/:id", middleware.RequireHospital(), d.Appointment.DeleteAppointment)
	}

	return r
}
