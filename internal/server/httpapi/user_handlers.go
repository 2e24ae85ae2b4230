package httpapi

import (
	"net/http"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
	"github.com/ThanhLuuv/user-management-backend/internal/server/services"
	"github.com/gin-gonic/gin"
)

type createUserRequest struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Name     string          `json:"name"`
	Role     models.RoleName `json:"role"`
	models.ProfilePatch
}

// updateUserRequest is a flat document mixing account and profile keys.
// Absent keys are left unchanged and null clears a nullable field.
type updateUserRequest struct {
	models.AccountPatch
	models.ProfilePatch
}

func (r updateUserRequest) input() services.UpdateUserInput {
	return services.UpdateUserInput{Account: r.AccountPatch, Profile: r.ProfilePatch}
}

func (h *handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), actorID(c))
	if err != nil {
		failWith(c, err)
		return
	}
	respond(c, http.StatusOK, "", users)
}

func (h *handler) getUser(c *gin.Context) {
	v, err := h.users.Get(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}
	respond(c, http.StatusOK, "", v)
}

func (h *handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	v, err := h.users.Create(c.Request.Context(), actorID(c), services.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
		Profile:  req.ProfilePatch,
	})
	if err != nil {
		failWith(c, err)
		return
	}
	respond(c, http.StatusCreated, "User created successfully", v)
}

func (h *handler) updateUser(c *gin.Context) {
	h.update(c, c.Param("id"))
}

func (h *handler) deleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		failWith(c, err)
		return
	}
	respond(c, http.StatusOK, "User deleted successfully", nil)
}

func (h *handler) profile(c *gin.Context) {
	id := actorID(c)
	v, err := h.users.Get(c.Request.Context(), id, id)
	if err != nil {
		failWith(c, err)
		return
	}
	respond(c, http.StatusOK, "", v)
}

func (h *handler) updateProfile(c *gin.Context) {
	h.update(c, actorID(c))
}

func (h *handler) update(c *gin.Context, targetID string) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Password.IsSet() && targetID == actorID(c) {
		failWith(c, common.NewValidationError("password", "use /api/auth/change-password"))
		return
	}

	v, err := h.users.Update(c.Request.Context(), actorID(c), targetID, req.input())
	if err != nil {
		failWith(c, err)
		return
	}
	respond(c, http.StatusOK, "User updated successfully", v)
}

func (h *handler) avatarUpload(c *gin.Context) {
	up, err := h.avatars.PresignUpload(c.Request.Context(), actorID(c))
	if err != nil {
		failWith(c, err)
		return
	}
	respond(c, http.StatusOK, "", up)
}

func (h *handler) avatarDownload(c *gin.Context) {
	url, err := h.avatars.PresignDownload(c.Request.Context(), actorID(c))
	if err != nil {
		failWith(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"url": url})
}
