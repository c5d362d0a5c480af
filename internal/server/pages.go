package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Saikiran-Avusula/portfolio/internal/asset"
	"github.com/Saikiran-Avusula/portfolio/internal/contact"
)

func (s *Server) index(c *gin.Context) {
	ctx := c.Request.Context()
	p := s.opts.Portfolio
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Portfolio": p,
		"Skills":    p.SkillsByCategory(),
		"Resume":    s.currentRecord(ctx, s.opts.Resume),
		"Image":     s.currentRecord(ctx, s.opts.Image),
		"Year":      time.Now().Year(),
	})
}

// currentRecord hides storage failures from the public page; the page
// renders without the asset instead.
func (s *Server) currentRecord(ctx context.Context, svc *asset.Service) *asset.Record {
	rec, err := svc.Get(ctx)
	if err != nil {
		s.log.Error("asset", "failed to load record for page", map[string]interface{}{
			"kind":  svc.Kind().Slot,
			"error": err,
		})
		return nil
	}
	return rec
}

type adminSlot struct {
	Label      string
	Accept     string
	UploadPath string
	DeletePath string
	Record     *asset.Record
}

func (s *Server) adminSlots(c *gin.Context) []adminSlot {
	ctx := c.Request.Context()
	return []adminSlot{
		{
			Label:      "Resume",
			Accept:     "application/pdf",
			UploadPath: "/upload-resume",
			DeletePath: "/delete-resume",
			Record:     s.currentRecord(ctx, s.opts.Resume),
		},
		{
			Label:      "Profile Image",
			Accept:     "image/*",
			UploadPath: "/upload-image",
			DeletePath: "/delete-image",
			Record:     s.currentRecord(ctx, s.opts.Image),
		},
	}
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.opts.Version})
}

// sendContact answers with an HTML fragment the page swaps in.
func (s *Server) sendContact(c *gin.Context) {
	msg := contact.Message{
		Name:  c.PostForm("name"),
		Email: c.PostForm("email"),
		Body:  c.PostForm("message"),
	}
	if msg.Name == "" {
		msg.Name = c.PostForm("fullName")
	}

	if err := msg.Validate(); err != nil {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Please check the form: " + err.Error() + ".",
		})
		return
	}

	if err := s.opts.Mailer.Send(msg); err != nil {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
		return
	}

	c.HTML(http.StatusOK, "contact-success.html", gin.H{
		"success": "Thank you for your message! I'll get back to you soon.",
	})
}
