package server

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Saikiran-Avusula/portfolio/internal/asset"
)

// multipartOverhead allows for the multipart framing around the file.
const multipartOverhead = 1 << 20

func (s *Server) uploadAsset(svc *asset.Service) gin.HandlerFunc {
	kind := svc.Kind()
	limit := kind.MaxSize + multipartOverhead

	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.JSON(http.StatusBadRequest, gin.H{"error": kind.SizeMessage})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

		fh, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusBadRequest, gin.H{"error": kind.SizeMessage})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
			return
		}

		f, err := fh.Open()
		if err != nil {
			s.assetError(c, kind, "upload", err)
			return
		}
		defer f.Close()

		rec, err := svc.Upload(c.Request.Context(), asset.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     f,
		})
		if err != nil {
			s.assetError(c, kind, "upload", err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

// getAsset answers {field: Record} or {field: null} when the slot is empty.
func (s *Server) getAsset(svc *asset.Service, field string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := svc.Get(c.Request.Context())
		if err != nil {
			s.assetError(c, svc.Kind(), "fetch", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{field: rec})
	}
}

func (s *Server) deleteAsset(svc *asset.Service) gin.HandlerFunc {
	kind := svc.Kind()
	return func(c *gin.Context) {
		ref := c.Query("url")
		if ref == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No URL provided"})
			return
		}

		deleted, err := svc.DeleteIfCurrent(c.Request.Context(), ref)
		if err != nil {
			s.assetError(c, kind, "delete", err)
			return
		}
		if !deleted {
			s.log.Info("asset", "delete named a non-current object, nothing removed", map[string]interface{}{
				"kind": kind.Slot,
				"url":  ref,
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("%s deleted successfully", kind.Label),
		})
	}
}

// streamAsset serves the current content. ?download=1 asks the browser to
// save it instead of displaying it.
func (s *Server) streamAsset(svc *asset.Service) gin.HandlerFunc {
	kind := svc.Kind()
	return func(c *gin.Context) {
		rec, data, err := svc.Open(c.Request.Context())
		if err != nil {
			s.assetError(c, kind, "fetch", err)
			return
		}
		if rec == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("%s not found", kind.Label)})
			return
		}

		disposition := "inline"
		if c.Query("download") != "" && c.Query("download") != "0" {
			disposition = "attachment"
		}
		if v := mime.FormatMediaType(disposition, map[string]string{"filename": rec.FileName}); v != "" {
			disposition = v
		}
		c.Header("Content-Disposition", disposition)
		c.Header("Cache-Control", "no-cache")
		c.Data(http.StatusOK, rec.ContentType, data)
	}
}

// assetError maps validation failures to 400 with their message and anything
// else to a generic 500.
func (s *Server) assetError(c *gin.Context, kind asset.Kind, op string, err error) {
	var vErr *asset.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
		return
	}

	s.log.Error("asset", "asset request failed", map[string]interface{}{
		"kind":  kind.Slot,
		"op":    op,
		"error": err,
	})
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": fmt.Sprintf("Failed to %s %s", op, strings.ToLower(kind.Label)),
	})
}
