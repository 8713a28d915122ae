package middleware

import (
	"net/http"
	"strings"

	"hospital-appointments/internal/service"
	"hospital-appointments/pkg/utils"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// AuthMiddleware validates the bearer access token and stores its claims
func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Access token required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>")
			c.Abort()
			return
		}

		claims, err := tokens.ValidateAccessToken(parts[1])
		if err != nil {
			utils.ErrorResponse(c, http.StatusForbidden, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireHospital admits only hospital (tenant administrator) sessions
func RequireHospital() gin.HandlerFunc {
	return requireSubject(utils.SubjectHospital)
}

// RequirePatient admits only patient sessions
func RequirePatient() gin.HandlerFunc {
	return requireSubject(utils.SubjectPatient)
}

func requireSubject(subjectType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}

		if claims.Type != subjectType {
			utils.ErrorResponse(c, http.StatusForbidden, subjectType+" access required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// Claims returns the claims stored by AuthMiddleware
func Claims(c *gin.Context) (*utils.Claims, bool) {
	value, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*utils.Claims)
	return claims, ok
}

// Actor converts the session claims into the service-level caller
func Actor(c *gin.Context) service.Actor {
	claims, ok := Claims(c)
	if !ok {
		return service.Actor{}
	}
	if claims.Type == utils.SubjectHospital {
		return service.HospitalActor(claims.ID, claims.HospitalID)
	}
	return service.PatientActor(claims.ID)
}
