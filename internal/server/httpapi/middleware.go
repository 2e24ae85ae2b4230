package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/logging"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
	"github.com/ThanhLuuv/user-management-backend/internal/server/services"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requireBearer resolves the caller from the bearer token and stores the
// principal on the gin context.
func requireBearer(a AuthAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader(common.AuthorizationHeaderName))
		if !ok {
			abortWith(c, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}

		p, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			failWith(c, err)
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// requireRole lets through callers holding one of roles. It must run after
// requireBearer.
func requireRole(roles ...models.RoleName) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principal(c)
		if p == nil {
			abortWith(c, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}
		for _, r := range roles {
			if p.Account.Role.Name == r {
				c.Next()
				return
			}
		}
		abortWith(c, http.StatusForbidden, "Forbidden", nil)
	}
}

func principal(c *gin.Context) *services.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*services.Principal)
	return p
}

// actorID is only called behind requireBearer.
func actorID(c *gin.Context) string {
	if p := principal(c); p != nil {
		return p.Account.ID
	}
	return ""
}

// accessLog logs one line per request and feeds the request metrics. The
// route label is the matched pattern, not the raw path.
func accessLog(logger logging.Logger, m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.observeRequest(c.Request.Method, route, status, elapsed)

		args := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency", elapsed,
		}
		if id := actorID(c); id != "" {
			args = append(args, "actor_id", id)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.Last().Error())
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			logger.Error(ctx, "request", args...)
		case status >= 400:
			logger.Warn(ctx, "request", args...)
		default:
			logger.Info(ctx, "request", args...)
		}
	}
}

// recovery turns a panic into an enveloped 500.
func recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		logger.Error(c.Request.Context(), "panic serving request", "panic", rec, "path", c.Request.URL.Path)
		abortWith(c, http.StatusInternalServerError, "Server error. Please try again later.", nil)
	})
}
