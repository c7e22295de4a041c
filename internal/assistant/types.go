// Package assistant implements the classification and context-retrieval
// pipeline: one shared entity extractor, validator, context assembler,
// intent router and grounded responder used by every route.
package assistant

import (
	"context"
	"time"

	"github.com/askfredo/memo-backend/internal/core"
	"github.com/askfredo/memo-backend/internal/llm"
)

// Intent mirrors core.NoteType for classification output.
type Intent = core.NoteType

// Entities holds the structured fields extracted from free text.
type Entities struct {
	Date         string   `json:"date,omitempty"` // ISO date, empty when none
	Time         string   `json:"time,omitempty"` // HH:MM 24h, empty when none
	Location     string   `json:"location,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Hashtags     []string `json:"hashtags,omitempty"`
}

// Classification is the structured result of entity extraction. It is
// validated before anything downstream touches it, then serialized onto
// the note it produced.
type Classification struct {
	Intent             Intent   `json:"intent"`
	Entities           Entities `json:"entities"`
	Confidence         float64  `json:"confidence"` // advisory only
	SuggestedTitle     string   `json:"suggested_title"`
	Emoji              string   `json:"emoji"`
	Summary            string   `json:"summary"`
	ReformattedContent string   `json:"reformatted_content,omitempty"`
}

// HasDate reports whether extraction found a concrete date.
func (c *Classification) HasDate() bool {
	return c.Entities.Date != ""
}

// StartDatetime resolves the event start from the extracted date and time.
// Missing time defaults to midnight.
func (c *Classification) StartDatetime() (time.Time, error) {
	hhmm := c.Entities.Time
	if hhmm == "" {
		hhmm = "00:00"
	}
	return time.Parse("2006-01-02 15:04", c.Entities.Date+" "+hhmm)
}

// Turn is one client-supplied conversation turn.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// TextGenerator is the generative text capability the pipeline calls.
// *llm.Client satisfies it.
type TextGenerator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
	IsConfigured() bool
}

// SpeechSession is the speech-capable session used for native-voice replies.
// *llm.LiveSession satisfies it.
type SpeechSession interface {
	SendTurn(ctx context.Context, text string) (*llm.SpeechTurn, error)
	IsConfigured() bool
}
