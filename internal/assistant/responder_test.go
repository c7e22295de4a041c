package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestResponder_GroundedReply(t *testing.T) {
	gen := &stubGenerator{configured: true, reply: "You have a dentist appointment tomorrow at 3pm."}
	r := NewResponder(gen)

	got := r.Respond(context.Background(), "what do I have tomorrow?",
		"UPCOMING EVENTS:\n- Tue Sep 30 15:00: 🦷 Dentist\n", nil)

	if got != "You have a dentist appointment tomorrow at 3pm." {
		t.Errorf("Respond() = %q", got)
	}
	if !strings.Contains(gen.requests[0].System, "PERSONAL CONTEXT:\n") {
		t.Error("context section missing from system prompt")
	}
	if !strings.Contains(gen.requests[0].System, "Dentist") {
		t.Error("event missing from system prompt")
	}
}

func TestResponder_EmptyContextStillReplies(t *testing.T) {
	// A user with no data must get a real answer, not an error.
	gen := &stubGenerator{configured: true, reply: "I don't have anything saved for today yet."}
	r := NewResponder(gen)

	got := r.Respond(context.Background(), "what do I have today?", "", nil)
	if got == "" {
		t.Fatal("Respond() returned empty reply")
	}
	// The preamble mentions the section by name; only the section marker
	// itself must be absent.
	if strings.Contains(gen.requests[0].System, "PERSONAL CONTEXT:\n") {
		t.Error("empty context should not add a context section")
	}
}

func TestResponder_FallbackOnProviderError(t *testing.T) {
	gen := &stubGenerator{configured: true, err: errors.New("quota exceeded")}
	got := NewResponder(gen).Respond(context.Background(), "hello", "", nil)
	if got != fallbackReply {
		t.Errorf("Respond() = %q, want fallback", got)
	}
}

func TestResponder_FallbackOnEmptyOutput(t *testing.T) {
	gen := &stubGenerator{configured: true, reply: "   "}
	got := NewResponder(gen).Respond(context.Background(), "hello", "", nil)
	if got != fallbackReply {
		t.Errorf("Respond() = %q, want fallback", got)
	}
}

func TestResponder_FallbackOnDebugLeak(t *testing.T) {
	gen := &stubGenerator{configured: true, reply: "sure <|endoftext|> here you go"}
	got := NewResponder(gen).Respond(context.Background(), "hello", "", nil)
	if got != fallbackReply {
		t.Errorf("Respond() leaked markers: %q", got)
	}
}

func TestResponder_TruncatesRunawayOutput(t *testing.T) {
	long := strings.Repeat("This is a sentence. ", 60)
	gen := &stubGenerator{configured: true, reply: long}
	got := NewResponder(gen).Respond(context.Background(), "hello", "", nil)

	if len(got) > replyCharLimit {
		t.Errorf("reply is %d chars, limit %d", len(got), replyCharLimit)
	}
	if !strings.HasSuffix(got, ".") {
		t.Errorf("truncation did not land on a sentence boundary: %q", got)
	}
}

func TestResponder_HistoryRolesMapped(t *testing.T) {
	gen := &stubGenerator{configured: true, reply: "ok"}
	turns := []Turn{
		{Role: "user", Text: "hi"},
		{Role: "assistant", Text: "hello"},
	}
	NewResponder(gen).Respond(context.Background(), "again", "", turns)

	hist := gen.requests[0].History
	if len(hist) != 2 {
		t.Fatalf("history length = %d, want 2", len(hist))
	}
	if hist[0].Role != "user" || hist[1].Role != "assistant" {
		t.Errorf("history roles = %q, %q", hist[0].Role, hist[1].Role)
	}
}
