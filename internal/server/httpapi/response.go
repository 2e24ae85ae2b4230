package httpapi

import (
	"errors"
	"net/http"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// envelope is the body of every API response.
type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type tokenData struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func newTokenData(t *auth.IssuedToken) tokenData {
	return tokenData{AccessToken: t.Token, TokenType: t.Type, ExpiresIn: t.ExpiresIn}
}

func respond(c *gin.Context, code int, message string, data any) {
	c.JSON(code, envelope{Status: statusSuccess, Message: message, Data: data})
}

func abortWith(c *gin.Context, code int, message string, fields map[string]string) {
	c.AbortWithStatusJSON(code, envelope{Status: statusError, Message: message, Errors: fields})
}

// errorStatus maps a service error onto an HTTP status and a client-facing
// message. Internal details never reach the client.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrDuplicateEmail):
		return http.StatusUnprocessableEntity, "This email is already in use by another account."
	case errors.Is(err, common.ErrDuplicatePhone):
		return http.StatusUnprocessableEntity, "This phone number is already in use by another account."
	case errors.Is(err, common.ErrCurrentPasswordMismatch):
		return http.StatusUnprocessableEntity, "Current password is incorrect"
	case errors.Is(err, common.ErrValidationFailed):
		return http.StatusUnprocessableEntity, "Invalid input data"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "Token has expired"
	case errors.Is(err, common.ErrTokenRevoked):
		return http.StatusUnauthorized, "Token has been revoked"
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, common.ErrPermissionDenied):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, "Server error. Please try again later."
	}
}

func fieldErrors(err error) map[string]string {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	switch {
	case errors.Is(err, common.ErrDuplicateEmail):
		return map[string]string{"email": "This email is already registered"}
	case errors.Is(err, common.ErrDuplicatePhone):
		return map[string]string{"phone": "This phone number is already registered"}
	case errors.Is(err, common.ErrCurrentPasswordMismatch):
		return map[string]string{"current_password": "is incorrect"}
	case errors.Is(err, common.ErrPasswordUnchanged):
		return map[string]string{"new_password": "must differ from the current password"}
	}
	return nil
}

func failWith(c *gin.Context, err error) {
	code, msg := errorStatus(err)
	_ = c.Error(err)
	abortWith(c, code, msg, fieldErrors(err))
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	abortWith(c, http.StatusBadRequest, "Malformed request body", nil)
}
