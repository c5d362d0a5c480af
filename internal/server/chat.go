package server

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/Saikiran-Avusula/portfolio/internal/chat"
)

const maxChatMessage = 2000

type chatTurn struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type chatRequest struct {
	Message string     `json:"message"`
	History []chatTurn `json:"history"`
}

func (s *Server) converse(c *gin.Context) {
	if !s.limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please slow down."})
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}
	if utf8.RuneCountInString(message) > maxChatMessage {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is too long"})
		return
	}

	prior := make([]chat.Turn, 0, len(req.History))
	for _, t := range req.History {
		speaker, err := chat.ParseSpeaker(t.Role)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid history role: " + t.Role})
			return
		}
		ts, _ := time.Parse(time.RFC3339, t.Timestamp)
		prior = append(prior, chat.Turn{Speaker: speaker, Text: t.Text, Timestamp: ts})
	}

	reply := s.opts.Chat.Converse(c.Request.Context(), message, prior)
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
