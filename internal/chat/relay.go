// Package chat relays visitor questions to a hosted Gemini model that answers
// as the portfolio owner's assistant. The relay is stateless: the caller sends
// the whole conversation on every call.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Saikiran-Avusula/portfolio/internal/logger"
)

const DefaultModel = "gemini-2.5-flash"

// Replies used instead of model text. The relay never returns an error to its
// caller.
const (
	MissingKeyReply  = "I'm sorry, my brain (API Key) is missing. Please check the configuration."
	TransportReply   = "I'm having trouble connecting to my knowledge base right now. Please try again later."
	EmptyResultReply = "I couldn't generate a response. Please try again."
)

type Speaker string

const (
	Visitor   Speaker = "visitor"
	Assistant Speaker = "assistant"
)

// ParseSpeaker accepts both the display names and the model's role names.
func ParseSpeaker(s string) (Speaker, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "visitor", "user":
		return Visitor, nil
	case "assistant", "model":
		return Assistant, nil
	}
	return "", fmt.Errorf("unknown speaker %q", s)
}

func (s Speaker) role() genai.Role {
	if s == Assistant {
		return genai.Role(genai.RoleModel)
	}
	return genai.Role(genai.RoleUser)
}

// Turn is one message of a conversation.
type Turn struct {
	Speaker   Speaker
	Text      string
	Timestamp time.Time
}

// Generator is the part of the genai client the relay uses.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Relay struct {
	gen     Generator
	model   string
	persona string
	log     logger.ILogger
}

// NewRelay builds a relay over gen. A nil gen means no API key is configured
// and every call answers MissingKeyReply.
func NewRelay(gen Generator, model, persona string, log logger.ILogger) *Relay {
	if model == "" {
		model = DefaultModel
	}
	return &Relay{gen: gen, model: model, persona: persona, log: log}
}

// NewGeminiRelay connects to the Gemini API. An empty apiKey yields a relay
// that always answers MissingKeyReply.
func NewGeminiRelay(ctx context.Context, apiKey, model, persona string, log logger.ILogger) (*Relay, error) {
	if apiKey == "" {
		log.Warn("chat", "GEMINI_API_KEY not set, chat will answer with the missing key reply", nil)
		return NewRelay(nil, model, persona, log), nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return NewRelay(client.Models, model, persona, log), nil
}

// Converse sends prior plus message in one request and returns the reply
// text, or one of the fixed fallback replies.
func (r *Relay) Converse(ctx context.Context, message string, prior []Turn) string {
	if r.gen == nil {
		return MissingKeyReply
	}

	contents := make([]*genai.Content, 0, len(prior)+1)
	for _, t := range prior {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		contents = append(contents, genai.NewContentFromText(t.Text, t.Speaker.role()))
	}
	contents = append(contents, genai.NewContentFromText(message, Visitor.role()))

	cfg := &genai.GenerateContentConfig{}
	if r.persona != "" {
		cfg.SystemInstruction = genai.NewContentFromText(r.persona, Visitor.role())
	}

	start := time.Now()
	resp, err := r.gen.GenerateContent(ctx, r.model, contents, cfg)
	if err != nil {
		r.log.Error("chat", "generate content failed", map[string]interface{}{
			"model": r.model,
			"error": err,
		})
		return TransportReply
	}

	text := responseText(resp)
	if text == "" {
		r.log.Warn("chat", "model returned no text", map[string]interface{}{"model": r.model})
		return EmptyResultReply
	}

	r.log.Debug("chat", "reply generated", map[string]interface{}{
		"model":    r.model,
		"turns":    len(contents),
		"duration": time.Since(start).String(),
	})
	return text
}

// responseText joins the text parts of the first candidate, skipping
// thought parts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}
