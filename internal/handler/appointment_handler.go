package handler

import (
	"fmt"

	"hospital-appointments/internal/middleware"
	"hospital-appointments/internal/service"
	"hospital-appointments/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AppointmentHandler struct {
	appointmentService *service.AppointmentService
	assignmentService  *service.AssignmentService
}

func NewAppointmentHandler(appointmentService *service.AppointmentService, assignmentService *service.AssignmentService) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentService: appointmentService,
		assignmentService:  assignmentService,
	}
}

type CreateAppointmentRequest struct {
	HospitalID  string `json:"hospitalId"`
	PatientID   string `json:"patientId"`
	IsEmergency bool   `json:"isEmergency"`
	Description string `json:"description"`
}

type AssignRequest struct {
	DoctorID string `json:"doctorId" binding:"required"`
	Time     string `json:"time" binding:"required"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateAppointment records a new pending appointment
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	appointment, err := h.appointmentService.CreateAppointment(middleware.Actor(c), service.CreateAppointmentInput{
		HospitalID:  req.HospitalID,
		PatientID:   req.PatientID,
		IsEmergency: req.IsEmergency,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err, "Error creating new appointment")
		return
	}

	utils.CreatedResponse(c, "Appointment created successfully", appointment)
}

// GetAppointments lists appointments visible to the caller, optionally by ?status=
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	appointments, err := h.appointmentService.ListAppointments(middleware.Actor(c), c.Query("status"))
	if err != nil {
		respondError(c, err, "Error fetching appointments")
		return
	}

	utils.SuccessResponse(c, appointments)
}

// GetAppointment returns one appointment
func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	appointment, err := h.appointmentService.GetAppointment(middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Cannot fetch appointment")
		return
	}

	utils.SuccessResponse(c, appointment)
}

// AssignAppointment binds a pending appointment to a doctor and time
func (h *AppointmentHandler) AssignAppointment(c *gin.Context) {
	var req AssignRequest
	if !bindJSON(c, &req) {
		return
	}

	at, err := service.ParseAppointmentTime(req.Time)
	if err != nil {
		respondError(c, err, "")
		return
	}

	id := c.Param("id")
	appointment, err := h.assignmentService.Assign(middleware.Actor(c), id, req.DoctorID, at)
	if err != nil {
		respondError(c, err, "Something went wrong in assigning")
		return
	}

	utils.DataMessageResponse(c, fmt.Sprintf("Successfully assigned appointment %s to doctor %s", id, req.DoctorID), appointment)
}

// UpdateStatus applies a status transition
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if !bindJSON(c, &req) {
		return
	}

	id := c.Param("id")
	appointment, err := h.appointmentService.SetStatus(middleware.Actor(c), id, req.Status)
	if err != nil {
		respondError(c, err, "Something went wrong in updating status")
		return
	}

	utils.DataMessageResponse(c, fmt.Sprintf("Status of appointment %s updated to %s", id, appointment.Status), appointment)
}

// DeleteAppointment removes an appointment
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	id := c.Param("id")
	appointment, err := h.appointmentService.DeleteAppointment(middleware.Actor(c), id)
	if err != nil {
		respondError(c, err, "Something went wrong")
		return
	}

	utils.DataMessageResponse(c, "Deleted appointment with id "+id, appointment)
}
