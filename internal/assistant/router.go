package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/askfredo/memo-backend/internal/core"
	"github.com/askfredo/memo-backend/internal/llm"
	"github.com/askfredo/memo-backend/internal/logging"
	"github.com/askfredo/memo-backend/internal/storage"
)

// Result types returned by Process.
const (
	ResultConversation      = "conversation"
	ResultNoteCreated       = "note_created"
	ResultEventCreated      = "event_created"
	ResultConversationSaved = "conversation_saved"
)

// Conversation window: only turns this recent and this many count as
// "recent conversation" for routing decisions.
const (
	turnWindow  = 5 * time.Minute
	turnCap     = 30
	offerAtLen  = 8
	speechLimit = 60 * time.Second
)

// Request is one inbound assistant turn.
type Request struct {
	Message        string
	History        []Turn
	UserID         string
	WantAudio      bool
	SessionContext string // client-supplied hint: last viewed note/search
}

// Result is the routed outcome of one turn.
type Result struct {
	Type            string              `json:"type"`
	Response        string              `json:"response"`
	Note            *core.Note          `json:"note,omitempty"`
	Event           *core.CalendarEvent `json:"event,omitempty"`
	Notification    *core.Notification  `json:"notification,omitempty"`
	Classification  *Classification     `json:"classification,omitempty"`
	AudioData       string              `json:"audioData,omitempty"`
	AudioMimeType   string              `json:"audioMimeType,omitempty"`
	ShouldOfferSave bool                `json:"shouldOfferSave,omitempty"`
}

// Router is the top-level decision function: save-conversation command,
// conversational question, or content-creation action.
type Router struct {
	classifier    *Classifier
	responder     *Responder
	contextBuild  *ContextBuilder
	gen           TextGenerator
	speech        SpeechSession
	notes         *storage.NoteStore
	events        *storage.EventStore
	notifications *storage.NotificationStore
	sessions      *lru.Cache[string, string]
	log           *logging.Logger
	now           func() time.Time
}

// NewRouter wires the full pipeline over the stores and capabilities.
// speech may be nil when no voice provider is configured.
func NewRouter(
	gen TextGenerator,
	speech SpeechSession,
	notes *storage.NoteStore,
	events *storage.EventStore,
	notifications *storage.NotificationStore,
) *Router {
	sessions, _ := lru.New[string, string](256)
	return &Router{
		classifier:    NewClassifier(gen),
		responder:     NewResponder(gen),
		contextBuild:  NewContextBuilder(notes, events),
		gen:           gen,
		speech:        speech,
		notes:         notes,
		events:        events,
		notifications: notifications,
		sessions:      sessions,
		log:           logging.WithField("component", "router"),
		now:           time.Now,
	}
}

// saveConversationRe matches explicit save-this-conversation phrasing in
// English and Spanish.
var saveConversationRe = regexp.MustCompile(
	`(?i)\b(save|guarda(r)?)\b.{0,20}\b(conversation|conversaci[oó]n|chat|charla)\b`)

// Process routes one turn. Errors only surface for persistence failures;
// provider failures degrade inside the components.
func (r *Router) Process(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, core.ErrInvalidInput
	}
	if req.UserID == "" {
		req.UserID = core.DefaultUserID
	}

	history := trimHistory(req.History, r.now())

	// 1. Save-conversation command short-circuits everything.
	if saveConversationRe.MatchString(req.Message) && len(history) > 0 {
		return r.saveConversation(req.UserID, history)
	}

	// 2. Question or action?
	if r.isQuestion(ctx, req.Message, req.SessionContext, req.UserID) {
		return r.converse(ctx, req, history)
	}

	// 3. Action: classify, validate, persist.
	return r.createContent(ctx, req)
}

// Converse answers the message as a conversational question, skipping
// routing. Backs the plain chat endpoint.
func (r *Router) Converse(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, core.ErrInvalidInput
	}
	if req.UserID == "" {
		req.UserID = core.DefaultUserID
	}
	return r.converse(ctx, req, trimHistory(req.History, r.now()))
}

// SaveConversation persists the trailing window as a tagged note. Exposed
// for the explicit save endpoint as well as the regex short circuit.
func (r *Router) SaveConversation(userID string, history []Turn) (*Result, error) {
	trimmed := trimHistory(history, r.now())
	if len(trimmed) == 0 {
		return nil, core.ErrInvalidInput
	}
	return r.saveConversation(userID, trimmed)
}

func (r *Router) saveConversation(userID string, history []Turn) (*Result, error) {
	var sb strings.Builder
	sb.WriteString("Conversation from ")
	sb.WriteString(r.now().Format("Jan 2, 2006 15:04"))
	sb.WriteString("\n\n")
	for _, t := range history {
		speaker := "You"
		if t.Role == "assistant" {
			speaker = "Fredo"
		}
		sb.WriteString(speaker)
		sb.WriteString(": ")
		sb.WriteString(t.Text)
		sb.WriteString("\n")
	}

	note := &core.Note{
		ID:       uuid.NewString(),
		UserID:   userID,
		Content:  sb.String(),
		Type:     core.NoteSimple,
		Hashtags: []string{"conversation", "assistant"},
	}
	if err := r.notes.Create(note); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}

	r.log.Info("conversation saved as note %s (%d turns)", note.ID, len(history))
	return &Result{
		Type:     ResultConversationSaved,
		Response: "Done, I saved our conversation as a note.",
		Note:     note,
	}, nil
}

const intentPrompt = `Decide whether the user message is a QUESTION (asking
about their data, chatting, requesting information) or an ACTION (content to
save: a note, task, event, reminder or list).
%sReply with exactly one word: QUESTION or ACTION.

Message: %q`

// isQuestion asks the model to disambiguate, with the cached session
// context as a hint for references like "that" or "the ingredients".
// Unavailable or unparseable output falls back to a punctuation heuristic.
func (r *Router) isQuestion(ctx context.Context, message, sessionContext, userID string) bool {
	if sessionContext != "" {
		r.sessions.Add(userID, sessionContext)
	} else if cached, ok := r.sessions.Get(userID); ok {
		sessionContext = cached
	}

	if !r.gen.IsConfigured() {
		return questionHeuristic(message)
	}

	hint := ""
	if sessionContext != "" {
		hint = "Context from the user's session: " + sessionContext + "\n"
	}

	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	reply, err := r.gen.Generate(ctx, llm.Request{
		Prompt:      fmt.Sprintf(intentPrompt, hint, message),
		Temperature: 0,
	})
	if err != nil {
		r.log.Warn("intent detection failed: %v", err)
		return questionHeuristic(message)
	}

	switch {
	case strings.Contains(strings.ToUpper(reply), "QUESTION"):
		return true
	case strings.Contains(strings.ToUpper(reply), "ACTION"):
		return false
	default:
		return questionHeuristic(message)
	}
}

var questionWordRe = regexp.MustCompile(
	`(?i)^\s*(what|when|where|who|which|how|why|do i|can you|qué|que|cuándo|cuando|dónde|donde|quién|quien|cómo|como|tengo)\b`)

func questionHeuristic(message string) bool {
	return strings.Contains(message, "?") || questionWordRe.MatchString(message)
}

func (r *Router) converse(ctx context.Context, req Request, history []Turn) (*Result, error) {
	contextBlock, err := r.contextBuild.Build(req.UserID, r.now(), req.Message)
	if err != nil {
		// A context failure should not kill the conversation.
		r.log.Error("context build failed: %v", err)
		contextBlock = ""
	}

	result := &Result{
		Type:            ResultConversation,
		ShouldOfferSave: shouldOfferSave(history),
	}

	if req.WantAudio && r.speech != nil && r.speech.IsConfigured() {
		speechCtx, cancel := context.WithTimeout(ctx, speechLimit)
		defer cancel()

		turn, err := r.speech.SendTurn(speechCtx, speechPrompt(req.Message, contextBlock))
		if err == nil {
			result.Response = turn.Text
			result.AudioData = turn.AudioData
			result.AudioMimeType = turn.MimeType
			if result.Response == "" {
				result.Response = fallbackReply
			}
			return result, nil
		}
		r.log.Warn("speech turn failed, falling back to text: %v", err)
	}

	result.Response = r.responder.Respond(ctx, req.Message, contextBlock, history)
	return result, nil
}

func speechPrompt(message, contextBlock string) string {
	if contextBlock == "" {
		return message
	}
	return "PERSONAL CONTEXT:\n" + contextBlock + "\n\nUser: " + message
}

func (r *Router) createContent(ctx context.Context, req Request) (*Result, error) {
	now := r.now()
	classification := r.classifier.Classify(ctx, req.Message, now)

	content := req.Message
	if classification.ReformattedContent != "" {
		content = classification.ReformattedContent
	}

	serialized, _ := marshalClassification(classification)
	note := &core.Note{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		Content:        content,
		Type:           classification.Intent,
		Hashtags:       classification.Entities.Hashtags,
		Classification: serialized,
	}

	if !classification.HasDate() {
		if err := r.notes.Create(note); err != nil {
			return nil, fmt.Errorf("create note: %w", err)
		}
		return &Result{
			Type:           ResultNoteCreated,
			Response:       confirmationText(classification),
			Note:           note,
			Classification: &classification,
		}, nil
	}

	start, err := classification.StartDatetime()
	if err != nil {
		// A malformed date from the model demotes the input to a note.
		r.log.Warn("unusable event date %q: %v", classification.Entities.Date, err)
		note.Type = core.NoteSimple
		if err := r.notes.Create(note); err != nil {
			return nil, fmt.Errorf("create note: %w", err)
		}
		return &Result{
			Type:           ResultNoteCreated,
			Response:       confirmationText(classification),
			Note:           note,
			Classification: &classification,
		}, nil
	}

	event := &core.CalendarEvent{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		Title:         classification.Emoji + " " + classification.SuggestedTitle,
		Description:   classification.Summary,
		StartDatetime: start,
		Location:      classification.Entities.Location,
		IsSocial:      len(classification.Entities.Participants) > 0,
	}

	// Note and event land in one transaction; a failure rolls both back.
	if err := r.notes.CreateWithEvent(note, event); err != nil {
		return nil, fmt.Errorf("create note with event: %w", err)
	}

	reminder := &core.Notification{
		ID:                uuid.NewString(),
		UserID:            req.UserID,
		Title:             "Event saved",
		Message:           event.Title + " on " + start.Format("Mon Jan 2 at 15:04"),
		Type:              core.NotifyReminder,
		RelatedEntityType: "calendar_event",
		RelatedEntityID:   event.ID,
	}
	if err := r.notifications.Create(reminder); err != nil {
		// The event exists; a lost notification is logged, not fatal.
		r.log.Error("create reminder notification: %v", err)
		reminder = nil
	}

	return &Result{
		Type:           ResultEventCreated,
		Response:       confirmationText(classification),
		Note:           note,
		Event:          event,
		Notification:   reminder,
		Classification: &classification,
	}, nil
}

func confirmationText(c Classification) string {
	switch c.Intent {
	case core.NoteEvent:
		when := c.Entities.Date
		if c.Entities.Time != "" {
			when += " at " + c.Entities.Time
		}
		return fmt.Sprintf("%s Saved \"%s\" for %s.", c.Emoji, c.SuggestedTitle, when)
	case core.NoteReminder:
		return fmt.Sprintf("%s I'll remember: %s", c.Emoji, c.SuggestedTitle)
	case core.NoteChecklist:
		return fmt.Sprintf("%s List saved with %d items.", c.Emoji, countBullets(c.ReformattedContent))
	default:
		return fmt.Sprintf("%s Noted: %s", c.Emoji, c.SuggestedTitle)
	}
}

// trimHistory keeps only turns inside the trailing time window, capped.
func trimHistory(history []Turn, now time.Time) []Turn {
	cutoff := now.Add(-turnWindow)
	var recent []Turn
	for _, t := range history {
		if t.Timestamp.IsZero() || t.Timestamp.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) > turnCap {
		recent = recent[len(recent)-turnCap:]
	}
	return recent
}

// shouldOfferSave suggests saving once a conversation has substance, unless
// an offer already appeared in the last few assistant turns.
func shouldOfferSave(history []Turn) bool {
	if len(history) < offerAtLen {
		return false
	}
	tail := history
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}
	for _, t := range tail {
		if t.Role == "assistant" && strings.Contains(strings.ToLower(t.Text), "save") {
			return false
		}
	}
	return true
}

func marshalClassification(c Classification) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
