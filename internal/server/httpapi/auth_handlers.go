package httpapi

import (
	"net/http"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
	"github.com/ThanhLuuv/user-management-backend/internal/server/services"
	"github.com/gin-gonic/gin"
)

// registerRequest accepts the profile fields next to the credentials. The
// outer Name shadows the embedded ProfilePatch.Name.
type registerRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Name                 string `json:"name"`
	models.ProfilePatch
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword         string `json:"current_password"`
	NewPassword             string `json:"new_password"`
	NewPasswordConfirmation string `json:"new_password_confirmation"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

type authResponse struct {
	Account *models.Account `json:"account"`
	Profile *models.Profile `json:"profile,omitempty"`
	tokenData
}

// confirmationMismatch reports a *_confirmation field that was sent but
// does not match. An omitted confirmation is accepted.
func confirmationMismatch(field, value, confirmation string) error {
	if confirmation == "" || confirmation == value {
		return nil
	}
	return common.NewValidationError(field, "confirmation does not match")
}

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := confirmationMismatch("password_confirmation", req.Password, req.PasswordConfirmation); err != nil {
		failWith(c, err)
		return
	}

	res, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Profile:  req.ProfilePatch,
	})
	h.metrics.authEvent("register", err)
	if err != nil {
		failWith(c, err)
		return
	}

	respond(c, http.StatusCreated, "User registered successfully", authResponse{
		Account:   res.Account,
		Profile:   res.Profile,
		tokenData: newTokenData(res.Token),
	})
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	h.metrics.authEvent("login", err)
	if err != nil {
		failWith(c, err)
		return
	}

	respond(c, http.StatusOK, "Login successful", authResponse{
		Account:   res.Account,
		Profile:   res.Profile,
		tokenData: newTokenData(res.Token),
	})
}

func (h *handler) logout(c *gin.Context) {
	err := h.auth.Logout(c.Request.Context(), principal(c).Token)
	h.metrics.authEvent("logout", err)
	if err != nil {
		failWith(c, err)
		return
	}
	respond(c, http.StatusOK, "Successfully logged out", nil)
}

func (h *handler) refresh(c *gin.Context) {
	t, err := h.auth.Refresh(c.Request.Context(), principal(c).Token)
	h.metrics.authEvent("refresh", err)
	if err != nil {
		failWith(c, err)
		return
	}
	respond(c, http.StatusOK, "Token refreshed successfully", newTokenData(t))
}

func (h *handler) me(c *gin.Context) {
	v, err := h.auth.Me(c.Request.Context(), actorID(c))
	if err != nil {
		failWith(c, err)
		return
	}
	respond(c, http.StatusOK, "", v)
}

func (h *handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := confirmationMismatch("new_password_confirmation", req.NewPassword, req.NewPasswordConfirmation); err != nil {
		failWith(c, err)
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), actorID(c), req.CurrentPassword, req.NewPassword)
	h.metrics.authEvent("change_password", err)
	if err != nil {
		failWith(c, err)
		return
	}
	respond(c, http.StatusOK, "Password changed successfully", nil)
}

func (h *handler) forgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		failWith(c, err)
		return
	}
	respond(c, http.StatusOK, "If your email is registered, you will receive password reset instructions.", nil)
}

func (h *handler) verifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.auth.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		failWith(c, err)
		return
	}
	respond(c, http.StatusOK, "Email verification is not available yet", nil)
}

func (h *handler) resendVerification(c *gin.Context) {
	if err := h.auth.ResendEmailVerification(c.Request.Context(), actorID(c)); err != nil {
		failWith(c, err)
		return
	}
	respond(c, http.StatusOK, "Email verification is not available yet", nil)
}
