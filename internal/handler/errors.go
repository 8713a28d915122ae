package handler

import (
	"net/http"

	"hospital-appointments/internal/apperr"
	"hospital-appointments/pkg/utils"

	"github.com/gin-gonic/gin"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:        http.StatusBadRequest,
	apperr.KindNotFound:          http.StatusNotFound,
	apperr.KindDuplicateKey:      http.StatusConflict,
	apperr.KindInvalidTransition: http.StatusConflict,
	apperr.KindTenantMismatch:    http.StatusConflict,
	apperr.KindSlotConflict:      http.StatusConflict,
	apperr.KindDoctorBusy:        http.StatusConflict,
	apperr.KindDoctorInactive:    http.StatusUnprocessableEntity,
	apperr.KindOutsideShift:      http.StatusUnprocessableEntity,
	apperr.KindUnauthorized:      http.StatusUnauthorized,
	apperr.KindForbidden:         http.StatusForbidden,
}

// respondError maps a service error onto the response envelope. Unclassified
// errors are attached to the context for the request logger and answered with 500.
func respondError(c *gin.Context, err error, fallback string) {
	kind := apperr.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		_ = c.Error(err)
		utils.ErrorResponse(c, http.StatusInternalServerError, fallback)
		return
	}

	c.JSON(status, gin.H{
		"success": false,
		"message": err.Error(),
		"error":   kind,
	})
}

// bindJSON binds the body and answers 400 on malformed input
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
