// Package server is the HTTP surface of the portfolio: the public page, the
// admin panel, the asset endpoints, the chat relay and the contact form.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Saikiran-Avusula/portfolio/internal/asset"
	"github.com/Saikiran-Avusula/portfolio/internal/auth"
	"github.com/Saikiran-Avusula/portfolio/internal/chat"
	"github.com/Saikiran-Avusula/portfolio/internal/contact"
	"github.com/Saikiran-Avusula/portfolio/internal/content"
	"github.com/Saikiran-Avusula/portfolio/internal/logger"
	"github.com/Saikiran-Avusula/portfolio/internal/visits"
	"github.com/Saikiran-Avusula/portfolio/web"
)

// Converser answers a chat message given the earlier turns.
type Converser interface {
	Converse(ctx context.Context, message string, prior []chat.Turn) string
}

// ContactSender delivers contact form submissions.
type ContactSender interface {
	Send(msg contact.Message) error
}

type Options struct {
	Portfolio *content.Portfolio
	Resume    *asset.Service
	Image     *asset.Service
	Gate      *auth.Gate
	Chat      Converser
	Mailer    ContactSender
	// Visits is optional; without it page views are not recorded.
	Visits *visits.Tracker
	Log    logger.ILogger

	ChatRate     rate.Limit
	ChatBurst    int
	SecureCookie bool
	Version      string
}

type Server struct {
	opts    Options
	log     logger.ILogger
	limiter *rate.Limiter
	engine  *gin.Engine
}

func New(opts Options) (*Server, error) {
	if opts.ChatRate <= 0 {
		opts.ChatRate = 1
	}
	if opts.ChatBurst <= 0 {
		opts.ChatBurst = 5
	}

	s := &Server{
		opts:    opts,
		log:     opts.Log,
		limiter: rate.NewLimiter(opts.ChatRate, opts.ChatBurst),
	}

	engine, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() (*gin.Engine, error) {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(requestLogger(s.log), recovery(s.log))
	if s.opts.Visits != nil {
		r.Use(s.opts.Visits.Middleware())
	}

	tmpl, err := template.ParseFS(web.FS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return nil, fmt.Errorf("loading static files: %w", err)
	}
	r.StaticFS("/static", http.FS(static))

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	// Pages
	r.GET("/", s.index)
	r.GET("/healthz", s.healthz)
	r.POST("/contact", s.sendContact)
	r.GET("/admin", s.adminPage)
	r.POST("/admin/login", s.adminLogin)
	r.POST("/admin/logout", s.adminLogout)

	// Public asset reads
	r.GET("/get-resume", s.getAsset(s.opts.Resume, "resume"))
	r.GET("/get-image", s.getAsset(s.opts.Image, "image"))
	r.GET("/assets/"+asset.ResumeSlot, s.streamAsset(s.opts.Resume))
	r.GET("/assets/"+asset.ProfileImageSlot, s.streamAsset(s.opts.Image))

	// Admin asset writes
	admin := r.Group("/", s.requireAdmin())
	admin.POST("/upload-resume", s.uploadAsset(s.opts.Resume))
	admin.DELETE("/delete-resume", s.deleteAsset(s.opts.Resume))
	admin.POST("/upload-image", s.uploadAsset(s.opts.Image))
	admin.DELETE("/delete-image", s.deleteAsset(s.opts.Image))

	api := r.Group("/api")
	api.POST("/chat", s.converse)
	api.POST("/auth/login", s.apiLogin)
	api.POST("/auth/logout", s.apiLogout)
	api.GET("/auth/session", s.apiSession)

	return r, nil
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server", "listening", map[string]interface{}{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("server", "shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
