// Package httpapi exposes the account services as a JSON REST API over gin.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/logging"
	"github.com/ThanhLuuv/user-management-backend/internal/server/auth"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
	"github.com/ThanhLuuv/user-management-backend/internal/server/services"
	"github.com/gin-gonic/gin"
)

// AuthAPI is satisfied by *services.AuthService.
type AuthAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Logout(ctx context.Context, token string) error
	Refresh(ctx context.Context, token string) (*auth.IssuedToken, error)
	Authenticate(ctx context.Context, token string) (*services.Principal, error)
	Me(ctx context.Context, actorID string) (*services.UserView, error)
	ChangePassword(ctx context.Context, actorID, currentPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, token string) error
	ResendEmailVerification(ctx context.Context, actorID string) error
}

// UserAPI is satisfied by *services.UserService.
type UserAPI interface {
	List(ctx context.Context, actorID string) ([]*services.UserView, error)
	Get(ctx context.Context, actorID, targetID string) (*services.UserView, error)
	Create(ctx context.Context, actorID string, in services.CreateUserInput) (*services.UserView, error)
	Update(ctx context.Context, actorID, targetID string, in services.UpdateUserInput) (*services.UserView, error)
	Delete(ctx context.Context, actorID, targetID string) error
}

// AvatarAPI is satisfied by *services.AvatarService.
type AvatarAPI interface {
	PresignUpload(ctx context.Context, actorID string) (*services.AvatarUpload, error)
	PresignDownload(ctx context.Context, actorID string) (string, error)
}

// Deps wires the router. Avatars is optional; without it the avatar routes
// are not registered. Health defaults to always healthy.
type Deps struct {
	Auth    AuthAPI
	Users   UserAPI
	Avatars AvatarAPI
	Health  func(ctx context.Context) error
	Metrics *Metrics
	Logger  logging.Logger
}

type handler struct {
	auth    AuthAPI
	users   UserAPI
	avatars AvatarAPI
	health  func(ctx context.Context) error
	metrics *Metrics
}

const healthTimeout = 2 * time.Second

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = logging.Nop{}
	}
	logger = logger.With("module", "http")

	h := &handler{
		auth:    d.Auth,
		users:   d.Users,
		avatars: d.Avatars,
		health:  d.Health,
		metrics: d.Metrics,
	}

	r := gin.New()
	r.Use(recovery(logger), accessLog(logger, d.Metrics))
	r.NoRoute(func(c *gin.Context) {
		abortWith(c, http.StatusNotFound, "Not found", nil)
	})

	r.GET("/healthz", h.healthz)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	bearer := requireBearer(d.Auth)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.register)
			authGroup.POST("/login", h.login)
			authGroup.POST("/forgot-password", h.forgotPassword)
			authGroup.POST("/verify-email", h.verifyEmail)

			authGroup.POST("/logout", bearer, h.logout)
			authGroup.POST("/refresh", bearer, h.refresh)
			authGroup.GET("/me", bearer, h.me)
			authGroup.PUT("/change-password", bearer, h.changePassword)
			authGroup.POST("/email/resend", bearer, h.resendVerification)
		}

		users := api.Group("/users")
		users.Use(bearer)
		{
			users.GET("/profile", h.profile)
			users.PUT("/profile", h.updateProfile)
			users.PUT("/:id", h.updateUser)
			if d.Avatars != nil {
				users.POST("/profile/avatar", h.avatarUpload)
				users.GET("/profile/avatar", h.avatarDownload)
			}
		}

		admin := api.Group("/admin")
		admin.Use(bearer, requireRole(models.RoleAdmin))
		{
			admin.GET("/users", h.listUsers)
			admin.POST("/users", h.createUser)
			admin.GET("/users/:id", h.getUser)
			admin.PUT("/users/:id", h.updateUser)
			admin.DELETE("/users/:id", h.deleteUser)
		}
	}

	return r
}

func (h *handler) healthz(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := h.health(ctx); err != nil {
			_ = c.Error(err)
			abortWith(c, http.StatusServiceUnavailable, "unavailable", nil)
			return
		}
	}
	respond(c, http.StatusOK, "ok", nil)
}
