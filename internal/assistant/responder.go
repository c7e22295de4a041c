package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/askfredo/memo-backend/internal/llm"
	"github.com/askfredo/memo-backend/internal/logging"
)

// Responder generates grounded conversational replies. Its contract is to
// always return non-empty text; provider failures degrade to a fixed
// fallback string rather than an error reply.
type Responder struct {
	gen TextGenerator
	log *logging.Logger
}

// NewResponder creates a responder backed by a text generation capability.
func NewResponder(gen TextGenerator) *Responder {
	return &Responder{
		gen: gen,
		log: logging.WithField("component", "responder"),
	}
}

const (
	respondTimeout   = 30 * time.Second
	replyTokenBudget = 300
	replyCharLimit   = 400

	fallbackReply = "Sorry, I couldn't process that right now. Could you rephrase it?"
)

const personaPreamble = `You are Fredo, a warm and concise personal assistant.
Answer in the same language the user writes in. Keep replies to 2-3 short
sentences. Ground every answer in the PERSONAL CONTEXT section when one is
present; when it is empty or missing, say plainly that you have no saved
information about that, and never invent notes or events.`

// debugLeakMarkers are provider artifacts that must never reach the user.
var debugLeakMarkers = []string{
	"<|", "[DEBUG]", "SAFETY_", "FinishReason", "```json",
}

// Respond builds the grounded prompt and generates a reply.
func (r *Responder) Respond(ctx context.Context, message, contextBlock string, turns []Turn) string {
	if !r.gen.IsConfigured() {
		return fallbackReply
	}

	ctx, cancel := context.WithTimeout(ctx, respondTimeout)
	defer cancel()

	system := personaPreamble
	if contextBlock != "" {
		system += "\n\nPERSONAL CONTEXT:\n" + contextBlock
	}

	history := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == "assistant" {
			role = "assistant"
		}
		history = append(history, llm.Message{Role: role, Content: t.Text})
	}

	reply, err := r.gen.Generate(ctx, llm.Request{
		System:          system,
		Prompt:          message,
		History:         history,
		Temperature:     0.7,
		MaxOutputTokens: replyTokenBudget,
	})
	if err != nil {
		r.log.Warn("generation failed: %v", err)
		return fallbackReply
	}

	return sanitizeReply(reply)
}

// sanitizeReply guards against runaway or leaked output. Overlong replies
// are cut at a sentence boundary; empty or marker-tainted replies become
// the fallback string.
func sanitizeReply(reply string) string {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return fallbackReply
	}
	for _, marker := range debugLeakMarkers {
		if strings.Contains(reply, marker) {
			return fallbackReply
		}
	}
	if len(reply) > replyCharLimit {
		reply = truncateAtSentence(reply, replyCharLimit)
	}
	return reply
}

func truncateAtSentence(s string, limit int) string {
	cut := truncateRunes(s, limit)
	for _, sep := range []string{". ", "! ", "? "} {
		if i := strings.LastIndex(cut, sep); i > limit/2 {
			return cut[:i+1]
		}
	}
	if i := strings.LastIndex(cut, " "); i > 0 {
		return cut[:i] + "…"
	}
	return cut
}
