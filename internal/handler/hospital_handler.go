package handler

import (
	"strconv"

	"hospital-appointments/internal/middleware"
	"hospital-appointments/internal/service"
	"hospital-appointments/pkg/utils"

	"github.com/gin-gonic/gin"
)

type HospitalHandler struct {
	hospitalService *service.HospitalService
}

func NewHospitalHandler(hospitalService *service.HospitalService) *HospitalHandler {
	return &HospitalHandler{
		hospitalService: hospitalService,
	}
}

// GetAllHospitals lists the hospital directory
func (h *HospitalHandler) GetAllHospitals(c *gin.Context) {
	hospitals, err := h.hospitalService.GetAllHospitals()
	if err != nil {
		respondError(c, err, "Failed to fetch hospitals")
		return
	}

	utils.SuccessResponse(c, hospitals)
}

// GetHospitalDoctors lists the active doctors of one hospital
func (h *HospitalHandler) GetHospitalDoctors(c *gin.Context) {
	doctors, err := h.hospitalService.GetActiveDoctors(c.Param("hospitalId"))
	if err != nil {
		respondError(c, err, "Failed to fetch doctors")
		return
	}

	utils.SuccessResponse(c, doctors)
}

// GetAuditTrail returns recent audit entries of the authenticated hospital
func (h *HospitalHandler) GetAuditTrail(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	logs, err := h.hospitalService.GetAuditTrail(middleware.Actor(c), limit)
	if err != nil {
		respondError(c, err, "Failed to fetch audit trail")
		return
	}

	utils.SuccessResponse(c, logs)
}
