package assistant

import (
	"strings"

	"github.com/askfredo/memo-backend/internal/core"
)

// Validate repairs a classification the model produced against its own
// stated rules. Pure, deterministic and idempotent: validating twice gives
// the same result as once.
//
// Rules, in order:
//  1. An event without a date is not an event; demote to simple note.
//     A reminder without a date stays a reminder.
//  2. A date is the authoritative event signal; a dated simple note becomes
//     a calendar event.
//  3. Banned generic emojis are replaced via the keyword table.
//  4. A checklist without reformatted content is not actionable as one.
func Validate(c Classification, sourceText string) Classification {
	if c.Entities.Date == "" && c.Intent == core.NoteEvent {
		c.Intent = core.NoteSimple
	}

	if c.Entities.Date != "" && c.Intent == core.NoteSimple {
		c.Intent = core.NoteEvent
	}

	if c.Emoji == "" || bannedEmojis[c.Emoji] {
		c.Emoji = fallbackEmoji(sourceText)
	}

	if c.Intent == core.NoteChecklist && strings.TrimSpace(c.ReformattedContent) == "" {
		c.Intent = core.NoteSimple
		// Re-assert the date coupling so a second pass changes nothing.
		if c.Entities.Date != "" {
			c.Intent = core.NoteEvent
		}
	}

	return c
}
