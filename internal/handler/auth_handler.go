package handler

import (
	"net/http"
	"strings"
	"time"

	"hospital-appointments/internal/apperr"
	"hospital-appointments/internal/middleware"
	"hospital-appointments/internal/service"
	"hospital-appointments/pkg/utils"

	"github.com/gin-gonic/gin"
)

const refreshCookie = "refresh_token"

type AuthHandler struct {
	authService *service.AuthService
	cookieTTL   time.Duration
}

func NewAuthHandler(authService *service.AuthService, cookieTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookieTTL:   cookieTTL,
	}
}

type RegisterRequest struct {
	HospitalID string `json:"hospitalId"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Address    string `json:"address"`
}

type LoginRequest struct {
	HospitalID string `json:"hospitalId" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type PatientSignupRequest struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
	DateOfBirth string `json:"dateOfBirth"`
}

type PatientLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register handles hospital registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	hospital, err := h.authService.RegisterHospital(service.RegisterHospitalInput{
		HospitalID: req.HospitalID,
		Email:      req.Email,
		Password:   req.Password,
		Address:    req.Address,
	})
	if err != nil {
		respondError(c, err, "Something went wrong during registration")
		return
	}

	utils.CreatedResponse(c, "New Hospital Registered with ID: "+hospital.HospitalID, hospital)
}

// Login handles hospital authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.authService.LoginHospital(req.HospitalID, req.Password)
	if err != nil {
		respondError(c, err, "Something went wrong")
		return
	}

	h.setRefreshCookie(c, response.RefreshToken)
	utils.SuccessResponse(c, response)
}

// Me returns the authenticated hospital
func (h *AuthHandler) Me(c *gin.Context) {
	claims, _ := middleware.Claims(c)

	hospital, err := h.authService.GetHospital(claims.ID)
	if err != nil {
		respondError(c, err, "Something went wrong")
		return
	}

	utils.SuccessResponse(c, hospital)
}

// PatientSignup creates a patient account
func (h *AuthHandler) PatientSignup(c *gin.Context) {
	var req PatientSignupRequest
	if !bindJSON(c, &req) {
		return
	}

	in := service.SignupPatientInput{
		FullName:    req.FullName,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	}
	if dob := strings.TrimSpace(req.DateOfBirth); dob != "" {
		parsed, err := time.Parse("2006-01-02", dob)
		if err != nil {
			respondError(c, apperr.Validation("dateOfBirth must be YYYY-MM-DD"), "")
			return
		}
		in.DateOfBirth = &parsed
	}

	response, err := h.authService.SignupPatient(in)
	if err != nil {
		respondError(c, err, "Something went wrong during signup")
		return
	}

	h.setRefreshCookie(c, response.RefreshToken)
	utils.CreatedResponse(c, "Signed up successfully", response)
}

// PatientLogin handles patient authentication
func (h *AuthHandler) PatientLogin(c *gin.Context) {
	var req PatientLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.authService.LoginPatient(req.Email, req.Password)
	if err != nil {
		respondError(c, err, "Something went wrong")
		return
	}

	h.setRefreshCookie(c, response.RefreshToken)
	utils.SuccessResponse(c, response)
}

// PatientMe returns the authenticated patient
func (h *AuthHandler) PatientMe(c *gin.Context) {
	claims, _ := middleware.Claims(c)

	patient, err := h.authService.GetPatient(claims.ID)
	if err != nil {
		respondError(c, err, "Something went wrong")
		return
	}

	utils.SuccessResponse(c, patient)
}

// Refresh issues a new access token from the refresh token in the body or cookie
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := h.refreshToken(c)
	if refreshToken == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Refresh token not found")
		return
	}

	accessToken, err := h.authService.RefreshAccessToken(refreshToken)
	if err != nil {
		respondError(c, err, "Something went wrong")
		return
	}

	utils.SuccessResponse(c, gin.H{"token": accessToken})
}

// Logout revokes the refresh token
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken := h.refreshToken(c)
	if refreshToken != "" {
		if err := h.authService.Logout(refreshToken); err != nil {
			respondError(c, err, "Failed to logout")
			return
		}
	}

	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
	utils.MessageResponse(c, "Logged out successfully")
}

func (h *AuthHandler) refreshToken(c *gin.Context) string {
	var req RefreshRequest
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&req)
	}
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	cookie, err := c.Cookie(refreshCookie)
	if err != nil {
		return ""
	}
	return cookie
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetCookie(
		refreshCookie,
		token,
		int(h.cookieTTL.Seconds()),
		"/",
		"",    // domain (empty means current domain)
		false, // secure (set to true in production with HTTPS)
		true,  // httpOnly
	)
}
