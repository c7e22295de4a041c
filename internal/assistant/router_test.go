package assistant

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/askfredo/memo-backend/internal/core"
	"github.com/askfredo/memo-backend/internal/llm"
)

// scriptedGenerator routes each Generate call through a function, letting
// one stub answer the intent, classification and chat prompts differently.
type scriptedGenerator struct {
	fn       func(req llm.Request) (string, error)
	requests []llm.Request
}

func (s *scriptedGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	s.requests = append(s.requests, req)
	return s.fn(req)
}

func (s *scriptedGenerator) IsConfigured() bool { return true }

func testRouter(t *testing.T, gen TextGenerator) *Router {
	t.Helper()
	notes, events, notifications := testStores(t)
	r := NewRouter(gen, nil, notes, events, notifications)
	r.now = func() time.Time { return refDate }
	return r
}

func recentTurns(n int) []Turn {
	turns := make([]Turn, n)
	for i := range turns {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		turns[i] = Turn{Role: role, Text: "turn", Timestamp: refDate.Add(-time.Minute)}
	}
	return turns
}

func TestRouter_EmptyMessage(t *testing.T) {
	r := testRouter(t, &stubGenerator{configured: true})
	if _, err := r.Process(context.Background(), Request{Message: "  "}); err != core.ErrInvalidInput {
		t.Errorf("Process() error = %v, want ErrInvalidInput", err)
	}
}

func TestRouter_SaveConversation_ShortCircuits(t *testing.T) {
	gen := &stubGenerator{configured: true, reply: "should never be used"}
	r := testRouter(t, gen)

	res, err := r.Process(context.Background(), Request{
		Message: "please save this conversation",
		History: []Turn{
			{Role: "user", Text: "how do I roast garlic?", Timestamp: refDate.Add(-time.Minute)},
			{Role: "assistant", Text: "Wrap it in foil at 200C for 40 minutes.", Timestamp: refDate.Add(-30 * time.Second)},
		},
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if res.Type != ResultConversationSaved {
		t.Errorf("type = %q, want conversation_saved", res.Type)
	}
	// Short circuit means no model calls at all.
	if len(gen.requests) != 0 {
		t.Errorf("save-conversation made %d model calls, want 0", len(gen.requests))
	}
	if res.Note == nil {
		t.Fatal("no note returned")
	}
	if res.Note.Hashtags[0] != "conversation" || res.Note.Hashtags[1] != "assistant" {
		t.Errorf("hashtags = %v", res.Note.Hashtags)
	}
	if !strings.Contains(res.Note.Content, "roast garlic") {
		t.Error("conversation content missing from saved note")
	}
}

func TestRouter_SaveConversation_NoHistoryFallsThrough(t *testing.T) {
	gen := &scriptedGenerator{fn: func(req llm.Request) (string, error) {
		if strings.Contains(req.Prompt, "QUESTION or ACTION") {
			return "QUESTION", nil
		}
		return "Sure, what should I save?", nil
	}}
	r := testRouter(t, gen)

	res, err := r.Process(context.Background(), Request{Message: "save this conversation"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Type != ResultConversation {
		t.Errorf("type = %q, want conversation", res.Type)
	}
}

func TestRouter_ActionCreatesEvent(t *testing.T) {
	gen := &scriptedGenerator{fn: func(req llm.Request) (string, error) {
		if strings.Contains(req.Prompt, "QUESTION or ACTION") {
			return "ACTION", nil
		}
		return `{"intent": "calendar_event",
			"entities": {"date": "2025-09-30", "time": "15:00", "hashtags": ["health"]},
			"suggested_title": "Dentist", "emoji": "🦷", "summary": "Dentist visit"}`, nil
	}}
	r := testRouter(t, gen)

	res, err := r.Process(context.Background(), Request{Message: "tomorrow at 3pm dentist"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if res.Type != ResultEventCreated {
		t.Fatalf("type = %q, want event_created", res.Type)
	}
	if res.Event == nil || res.Note == nil {
		t.Fatal("event or note missing from result")
	}
	want := time.Date(2025, 9, 30, 15, 0, 0, 0, time.UTC)
	if !res.Event.StartDatetime.Equal(want) {
		t.Errorf("start = %v, want %v", res.Event.StartDatetime, want)
	}
	if res.Event.Title != "🦷 Dentist" {
		t.Errorf("title = %q", res.Event.Title)
	}
	if res.Event.NoteID != res.Note.ID {
		t.Error("event not linked to its note")
	}
	if res.Note.Type != core.NoteEvent {
		t.Errorf("note type = %q", res.Note.Type)
	}
}

func TestRouter_EventCreatesReminderNotification(t *testing.T) {
	gen := &scriptedGenerator{fn: func(req llm.Request) (string, error) {
		if strings.Contains(req.Prompt, "QUESTION or ACTION") {
			return "ACTION", nil
		}
		return `{"intent": "calendar_event",
			"entities": {"date": "2025-09-30", "hashtags": ["social"]},
			"suggested_title": "Party", "emoji": "🎉", "summary": "s"}`, nil
	}}
	notes, events, notifications := testStores(t)
	r := NewRouter(gen, nil, notes, events, notifications)
	r.now = func() time.Time { return refDate }

	if _, err := r.Process(context.Background(), Request{Message: "party on the 30th"}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	unread, err := notifications.UnreadCount(core.DefaultUserID)
	if err != nil {
		t.Fatalf("UnreadCount() error = %v", err)
	}
	if unread != 1 {
		t.Errorf("unread notifications = %d, want 1", unread)
	}
}

func TestRouter_ActionCreatesPlainNote(t *testing.T) {
	gen := &scriptedGenerator{fn: func(req llm.Request) (string, error) {
		if strings.Contains(req.Prompt, "QUESTION or ACTION") {
			return "ACTION", nil
		}
		return `{"intent": "simple_note", "entities": {"hashtags": ["shopping"]},
			"suggested_title": "Buy milk", "emoji": "🛒", "summary": "s"}`, nil
	}}
	r := testRouter(t, gen)

	res, err := r.Process(context.Background(), Request{Message: "buy milk"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Type != ResultNoteCreated {
		t.Errorf("type = %q, want note_created", res.Type)
	}
	if res.Event != nil {
		t.Error("no event expected for dateless note")
	}
}

func TestRouter_QuestionPath(t *testing.T) {
	gen := &scriptedGenerator{fn: func(req llm.Request) (string, error) {
		if strings.Contains(req.Prompt, "QUESTION or ACTION") {
			return "QUESTION", nil
		}
		return "Nothing on your calendar today.", nil
	}}
	r := testRouter(t, gen)

	res, err := r.Process(context.Background(), Request{Message: "what do I have today?"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Type != ResultConversation {
		t.Errorf("type = %q, want conversation", res.Type)
	}
	if res.Response == "" {
		t.Error("empty conversational reply")
	}
	if res.Note != nil || res.Event != nil {
		t.Error("question path should not persist anything")
	}
}

func TestRouter_ShouldOfferSave(t *testing.T) {
	tests := []struct {
		name    string
		history []Turn
		want    bool
	}{
		{"short conversation", recentTurns(4), false},
		{"long conversation", recentTurns(10), true},
		{
			"recent offer suppresses",
			append(recentTurns(9), Turn{
				Role: "assistant", Text: "Want me to save this chat?",
				Timestamp: refDate.Add(-time.Second),
			}),
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldOfferSave(tt.history); got != tt.want {
				t.Errorf("shouldOfferSave() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrimHistory(t *testing.T) {
	now := refDate
	history := []Turn{
		{Role: "user", Text: "old", Timestamp: now.Add(-10 * time.Minute)},
		{Role: "user", Text: "recent", Timestamp: now.Add(-time.Minute)},
	}
	got := trimHistory(history, now)
	if len(got) != 1 || got[0].Text != "recent" {
		t.Errorf("trimHistory() = %v, want only the recent turn", got)
	}

	long := recentTurns(40)
	if got := trimHistory(long, now); len(got) != turnCap {
		t.Errorf("trimHistory() kept %d turns, want cap %d", len(got), turnCap)
	}
}

func TestQuestionHeuristic(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"what do I have tomorrow?", true},
		{"when is the party", true},
		{"buy milk", false},
		{"dentist tomorrow at 3pm", false},
		{"tengo algo el viernes", true},
	}
	for _, tt := range tests {
		if got := questionHeuristic(tt.message); got != tt.want {
			t.Errorf("questionHeuristic(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}
