package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Saikiran-Avusula/portfolio/internal/logger"
)

const (
	sessionCookie   = "portfolio_session"
	requestIDHeader = "X-Request-ID"
)

// requestLogger writes one access log line per request through the
// application logger.
func requestLogger(log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		c.Next()

		details := map[string]interface{}{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("http", "request failed", details)
		case status >= http.StatusBadRequest:
			log.Warn("http", "request rejected", details)
		default:
			log.Debug("http", "request served", details)
		}
	}
}

func recovery(log logger.ILogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("http", "panic recovered", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}

// requireAdmin rejects requests without a live admin session.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.authenticated(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) authenticated(c *gin.Context) bool {
	token, err := c.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	return s.opts.Gate.IsAuthenticated(c.Request.Context(), token)
}

func (s *Server) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(s.opts.Gate.TTL().Seconds()), "/", "", s.opts.SecureCookie, true)
}

func (s *Server) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.opts.SecureCookie, true)
}

// clientTag identifies the client in logs without recording its address.
func (s *Server) clientTag(c *gin.Context) string {
	if s.opts.Visits == nil {
		return ""
	}
	return s.opts.Visits.HashIP(c.ClientIP())
}
