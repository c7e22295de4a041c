package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/askfredo/memo-backend/internal/core"
	"github.com/askfredo/memo-backend/internal/storage"
)

// Context bounds. One source of truth; every route goes through here.
const (
	contextEventLimit  = 20
	contextNoteLimit   = 20
	contextEventWindow = 30 * 24 * time.Hour
	contextCharBudget  = 4000

	// PrivacyHashtag marks notes that never enter a context block.
	PrivacyHashtag = "private"
)

// ContextBuilder assembles the personal-context block injected into
// conversational prompts.
type ContextBuilder struct {
	notes  *storage.NoteStore
	events *storage.EventStore
}

// NewContextBuilder creates a context builder over the stores.
func NewContextBuilder(notes *storage.NoteStore, events *storage.EventStore) *ContextBuilder {
	return &ContextBuilder{notes: notes, events: events}
}

// Build renders upcoming events and recent notes for a user into a compact
// textual block. An empty query means no keyword filtering. Empty sections
// are omitted entirely; a user with no data gets an empty string.
func (b *ContextBuilder) Build(userID string, now time.Time, query string) (string, error) {
	events, err := b.events.ListUpcoming(userID, now, now.Add(contextEventWindow), contextEventLimit)
	if err != nil {
		return "", fmt.Errorf("list events: %w", err)
	}

	notes, err := b.notes.ListRecent(userID, PrivacyHashtag, contextNoteLimit)
	if err != nil {
		return "", fmt.Errorf("list notes: %w", err)
	}

	if keywords := extractKeywords(query); len(keywords) > 0 {
		notes = filterNotes(notes, keywords)
	}

	return renderContext(events, notes, now), nil
}

// stopwords excluded from keyword extraction, English and Spanish.
var stopwords = map[string]bool{
	"that": true, "this": true, "with": true, "have": true, "what": true,
	"when": true, "where": true, "which": true, "about": true, "tell": true,
	"there": true, "their": true, "them": true, "then": true, "from": true,
	"para": true, "como": true, "cuando": true, "donde": true, "dónde": true,
	"tengo": true, "tiene": true, "esta": true, "está": true, "esto": true,
	"sobre": true, "todo": true, "pero": true, "porque": true, "hacer": true,
}

// extractKeywords tokenizes the query keeping terms longer than three
// characters that are not stopwords.
func extractKeywords(query string) []string {
	if query == "" {
		return nil
	}

	var keywords []string
	for _, tok := range strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') &&
			!strings.ContainsRune("áéíóúñü", r)
	}) {
		if len([]rune(tok)) > 3 && !stopwords[tok] {
			keywords = append(keywords, tok)
		}
	}
	return keywords
}

// filterNotes keeps notes whose content or hashtags contain at least one
// keyword. No match legitimately yields an empty set.
func filterNotes(notes []*core.Note, keywords []string) []*core.Note {
	var matched []*core.Note
	for _, n := range notes {
		haystack := strings.ToLower(n.Content + " " + strings.Join(n.Hashtags, " "))
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				matched = append(matched, n)
				break
			}
		}
	}
	return matched
}

func renderContext(events []*core.CalendarEvent, notes []*core.Note, now time.Time) string {
	var sb strings.Builder

	if len(events) > 0 {
		sb.WriteString("UPCOMING EVENTS:\n")
		for _, e := range events {
			sb.WriteString("- ")
			sb.WriteString(e.StartDatetime.Format("Mon Jan 2 15:04"))
			sb.WriteString(": ")
			sb.WriteString(e.Title)
			if e.Location != "" {
				sb.WriteString(" @ ")
				sb.WriteString(e.Location)
			}
			sb.WriteString("\n")
		}
	}

	if len(notes) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("RECENT NOTES:\n")
		for _, n := range notes {
			sb.WriteString("- ")
			sb.WriteString(strings.ReplaceAll(n.Content, "\n", " "))
			sb.WriteString("\n")
		}
	}

	return enforceBudget(sb.String(), contextCharBudget)
}

// enforceBudget trims whole lines from the end of the block until it fits.
// Notes are listed newest first and events soonest first, so dropping
// trailing lines sheds the least-relevant entries. A header whose entries
// were all trimmed is dropped with them.
func enforceBudget(block string, budget int) string {
	if len(block) <= budget {
		return block
	}

	lines := strings.Split(strings.TrimRight(block, "\n"), "\n")
	for len(lines) > 0 {
		lines = lines[:len(lines)-1]
		for len(lines) > 0 {
			last := lines[len(lines)-1]
			if last != "" && !isSectionHeader(last) {
				break
			}
			lines = lines[:len(lines)-1]
		}
		if len(lines) == 0 {
			return ""
		}
		candidate := strings.Join(lines, "\n") + "\n"
		if len(candidate) <= budget {
			return candidate
		}
	}
	return ""
}

func isSectionHeader(line string) bool {
	return strings.HasSuffix(line, ":") && !strings.HasPrefix(line, "- ")
}
