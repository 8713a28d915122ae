package handler

import (
	"hospital-appointments/internal/apperr"
	"hospital-appointments/internal/middleware"
	"hospital-appointments/internal/models"
	"hospital-appointments/internal/service"
	"hospital-appointments/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DoctorHandler struct {
	doctorService *service.DoctorService
}

func NewDoctorHandler(doctorService *service.DoctorService) *DoctorHandler {
	return &DoctorHandler{
		doctorService: doctorService,
	}
}

// CreateDoctorRequest accepts the admin panel's "specialization" spelling as well
type CreateDoctorRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
	Specialisation string `json:"specialisation"`
	Start          *int   `json:"start"`
	End            *int   `json:"end"`
}

type UpdateDoctorRequest struct {
	Name           *string       `json:"name"`
	Email          *string       `json:"email"`
	Specialisation *string       `json:"specialisation"`
	Shift          *models.Shift `json:"shift"`
	IsActive       *bool         `json:"isActive"`
}

// GetAllDoctors lists the doctors of the authenticated hospital
func (h *DoctorHandler) GetAllDoctors(c *gin.Context) {
	doctors, err := h.doctorService.ListDoctors(middleware.Actor(c))
	if err != nil {
		respondError(c, err, "Something went wrong fetching doctors")
		return
	}

	utils.SuccessResponse(c, doctors)
}

// CreateDoctor adds a doctor to the authenticated hospital
func (h *DoctorHandler) CreateDoctor(c *gin.Context) {
	var req CreateDoctorRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Start == nil || req.End == nil {
		respondError(c, apperr.Validation("shift start and end are required"), "")
		return
	}

	specialisation := req.Specialisation
	if specialisation == "" {
		specialisation = req.Specialization
	}

	actor := middleware.Actor(c)
	doctor, err := h.doctorService.CreateDoctor(actor, service.CreateDoctorInput{
		Name:           req.Name,
		Email:          req.Email,
		Specialisation: specialisation,
		Shift:          models.Shift{Start: *req.Start, End: *req.End},
	})
	if err != nil {
		respondError(c, err, "Failed to create new Doctor")
		return
	}

	utils.CreatedResponse(c, "Created new doctor successfully in hospital "+actor.HospitalID, doctor)
}

// GetDoctor returns one doctor of the authenticated hospital
func (h *DoctorHandler) GetDoctor(c *gin.Context) {
	doctor, err := h.doctorService.GetDoctor(middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Something went wrong fetching doctor")
		return
	}

	utils.SuccessResponse(c, doctor)
}

// UpdateDoctor applies a partial update
func (h *DoctorHandler) UpdateDoctor(c *gin.Context) {
	var req UpdateDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	doctor, err := h.doctorService.UpdateDoctor(middleware.Actor(c), c.Param("id"), service.DoctorPatch{
		Name:           req.Name,
		Email:          req.Email,
		Specialisation: req.Specialisation,
		Shift:          req.Shift,
		IsActive:       req.IsActive,
	})
	if err != nil {
		respondError(c, err, "Something went wrong updating doctor")
		return
	}

	utils.DataMessageResponse(c, "Updated doctor", doctor)
}

// DeleteDoctor removes a doctor without appointed appointments
func (h *DoctorHandler) DeleteDoctor(c *gin.Context) {
	doctor, err := h.doctorService.DeleteDoctor(middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Something went wrong deleting doctor")
		return
	}

	utils.DataMessageResponse(c, "Doctor deleted successfully", doctor)
}
