package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) apiLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	token, ok := s.opts.Gate.Login(req.Email, req.Password)
	if !ok {
		s.log.Warn("auth", "failed admin login", map[string]interface{}{"client": s.clientTag(c)})
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false, "error": "Invalid credentials"})
		return
	}

	s.setSession(c, token)
	s.log.Info("auth", "admin login", map[string]interface{}{"client": s.clientTag(c)})
	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}

func (s *Server) apiLogout(c *gin.Context) {
	s.logout(c)
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

func (s *Server) apiSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"authenticated": s.authenticated(c)})
}

func (s *Server) adminPage(c *gin.Context) {
	if !s.authenticated(c) {
		c.HTML(http.StatusOK, "login.html", gin.H{"email": ""})
		return
	}

	data := gin.H{"Slots": s.adminSlots(c)}
	if s.opts.Visits != nil {
		stats, err := s.opts.Visits.Stats(c.Request.Context())
		if err != nil {
			s.log.Error("visits", "failed to load visit stats", map[string]interface{}{"error": err})
		} else {
			data["Stats"] = stats
		}
	}
	c.HTML(http.StatusOK, "admin.html", data)
}

func (s *Server) adminLogin(c *gin.Context) {
	email := c.PostForm("email")
	token, ok := s.opts.Gate.Login(email, c.PostForm("password"))
	if !ok {
		s.log.Warn("auth", "failed admin login", map[string]interface{}{"client": s.clientTag(c)})
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"error": "Invalid credentials",
			"email": email,
		})
		return
	}

	s.setSession(c, token)
	s.log.Info("auth", "admin login", map[string]interface{}{"client": s.clientTag(c)})
	c.Redirect(http.StatusSeeOther, "/admin")
}

func (s *Server) adminLogout(c *gin.Context) {
	s.logout(c)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil {
		s.opts.Gate.Logout(c.Request.Context(), token)
	}
	s.clearSession(c)
}
