package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/askfredo/memo-backend/internal/core"
	"github.com/askfredo/memo-backend/internal/llm"
	"github.com/askfredo/memo-backend/internal/logging"
)

// Classifier turns free text plus a reference timestamp into a validated
// Classification. Extraction failures never escape: the zero-knowledge
// fallback result is returned instead.
type Classifier struct {
	gen TextGenerator
	log *logging.Logger
}

// NewClassifier creates a classifier backed by a text generation capability.
func NewClassifier(gen TextGenerator) *Classifier {
	return &Classifier{
		gen: gen,
		log: logging.WithField("component", "classifier"),
	}
}

const classifyTimeout = 30 * time.Second

// classificationPrompt anchors every relative-date word to concrete dates
// supplied by the caller. The model must never resolve "tomorrow" itself.
const classificationPrompt = `You are a classification engine for a personal notes assistant.
Analyze the user input and return ONLY a JSON object, no prose, no markdown.

TODAY is %s (%s). The current time is %s. TOMORROW is %s.
Resolve every relative date ("tomorrow", "next %s", "the 15th") against
these anchors.

JSON shape:
{
  "intent": "calendar_event" | "reminder" | "simple_note" | "checklist_note",
  "entities": {
    "date": "YYYY-MM-DD or null",
    "time": "HH:MM 24-hour or null",
    "location": "string or null",
    "participants": ["names mentioned"],
    "hashtags": ["one single topical tag, lowercase, no # symbol"]
  },
  "confidence": 0.0-1.0,
  "suggested_title": "short title, max 40 chars, same language as input",
  "emoji": "one emoji matching the content. NEVER use 📅 🗓️ 📝 📌 📄",
  "summary": "one sentence, same language as input",
  "reformatted_content": "only for checklist_note: one '• Item' line per item, else null"
}

Rules:
- A concrete date means calendar_event (or reminder when the user asks to be reminded).
- No date and no list means simple_note.
- checklist_note only when the input enumerates 3 or more distinct items.
- Exactly one hashtag.

User input: %q`

// Classify extracts structured entities from text. The returned
// classification is already validated.
func (c *Classifier) Classify(ctx context.Context, text string, now time.Time) Classification {
	result, err := c.classify(ctx, text, now)
	if err != nil {
		c.log.Warn("classification failed, using fallback: %v", err)
		result = fallbackClassification(text)
	}

	c.postProcess(&result, text)
	return Validate(result, text)
}

func (c *Classifier) classify(ctx context.Context, text string, now time.Time) (Classification, error) {
	if !c.gen.IsConfigured() {
		return Classification{}, core.ErrLLMUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	tomorrow := now.AddDate(0, 0, 1)
	prompt := fmt.Sprintf(classificationPrompt,
		now.Format("2006-01-02"),
		now.Weekday().String(),
		now.Format("15:04"),
		tomorrow.Format("2006-01-02"),
		tomorrow.Weekday().String(),
		text,
	)

	raw, err := c.gen.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: 0.3,
		JSONOutput:  true,
	})
	if err != nil {
		return Classification{}, fmt.Errorf("generate: %w", err)
	}

	return parseClassification(raw)
}

// parseClassification decodes model output, stripping markdown fences and
// repairing malformed JSON before giving up.
func parseClassification(raw string) (Classification, error) {
	cleaned := stripFences(raw)

	var result Classification
	if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
		return result, nil
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return Classification{}, fmt.Errorf("unparseable classification output: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return Classification{}, fmt.Errorf("repaired output still invalid: %w", err)
	}
	return result, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// postProcess applies deterministic corrections on top of model output:
// time re-derivation from the source text, the single-hashtag policy and
// checklist detection.
func (c *Classifier) postProcess(result *Classification, text string) {
	// The 12h-to-24h conversion is a numeric transform; re-derive it from
	// the source text rather than trust the model.
	if hhmm, ok := parseTimeHint(text); ok {
		result.Entities.Time = hhmm
	} else if result.Entities.Time != "" {
		if hhmm, ok := normalizeTime(result.Entities.Time); ok {
			result.Entities.Time = hhmm
		}
	}

	// One hashtag by policy.
	if len(result.Entities.Hashtags) > 1 {
		result.Entities.Hashtags = result.Entities.Hashtags[:1]
	}
	if len(result.Entities.Hashtags) == 0 {
		result.Entities.Hashtags = []string{"note"}
	}
	result.Entities.Hashtags[0] = strings.TrimPrefix(
		strings.ToLower(strings.TrimSpace(result.Entities.Hashtags[0])), "#")

	// Checklist detection is deterministic: three or more separable items,
	// or it is not a checklist.
	items := splitListItems(text)
	if len(items) >= 3 && result.Entities.Date == "" {
		result.Intent = core.NoteChecklist
		if result.ReformattedContent == "" || countBullets(result.ReformattedContent) < 3 {
			result.ReformattedContent = formatChecklist(items)
		}
	} else if result.Intent == core.NoteChecklist {
		result.ReformattedContent = ""
	}

	if result.SuggestedTitle == "" {
		result.SuggestedTitle = truncateRunes(text, 30)
	}
	if result.Summary == "" {
		result.Summary = truncateRunes(text, 50)
	}
}

// listSplitRe separates enumeration items on commas and "and"/"y" joiners.
var listSplitRe = regexp.MustCompile(`(?i)\s*(?:,|\band\b|\by\b|\be\b)\s*`)

// listPrefixRe strips a leading verb phrase like "buy" or "comprar" so the
// items themselves become the bullets.
var listPrefixRe = regexp.MustCompile(`(?i)^(buy|get|pick up|comprar|necesito|need|traer)\s+`)

func splitListItems(text string) []string {
	trimmed := listPrefixRe.ReplaceAllString(strings.TrimSpace(text), "")
	parts := listSplitRe.Split(trimmed, -1)

	var items []string
	seen := map[string]bool{}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, p)
	}
	return items
}

func formatChecklist(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + capitalize(item)
	}
	return strings.Join(lines, "\n")
}

func countBullets(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "•") {
			n++
		}
	}
	return n
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func truncateRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}

// fallbackClassification is the safe default when extraction fails: a plain
// note with a generic tag, a keyword-matched emoji and a truncated title.
func fallbackClassification(text string) Classification {
	return Classification{
		Intent:         core.NoteSimple,
		Entities:       Entities{Hashtags: []string{"note"}},
		Confidence:     0,
		SuggestedTitle: truncateRunes(text, 30),
		Emoji:          fallbackEmoji(text),
		Summary:        truncateRunes(text, 50),
	}
}
