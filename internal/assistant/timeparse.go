package assistant

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// clockRe matches 12-hour clock phrases like "3pm", "10:30 am", "7 p.m.".
var clockRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(a\.?m\.?|p\.?m\.?)\b`)

// bareHourRe matches an hour without an am/pm marker so a nearby qualifier
// word ("afternoon", "evening") can disambiguate it.
var bareHourRe = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\b`)

// normalizeTime converts a 12-hour phrase to HH:MM 24h form. It is a strict
// numeric transform: pm with hour 1-11 adds 12, am keeps the hour, noon maps
// to 12:00 and midnight to 00:00. Returns false when the input carries no
// recognizable time.
func normalizeTime(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}

	switch s {
	case "noon", "midday", "mediodia", "mediodía":
		return "12:00", true
	case "midnight", "medianoche":
		return "00:00", true
	}

	if m := clockRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			return "", false
		}
		pm := strings.HasPrefix(m[3], "p")
		if pm && hour < 12 {
			hour += 12
		}
		if !pm && hour == 12 {
			hour = 0
		}
		return fmt.Sprintf("%02d:%02d", hour, minute), true
	}

	// Already 24h
	if m := regexp.MustCompile(`^(\d{1,2}):(\d{2})$`).FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour <= 23 && minute <= 59 {
			return fmt.Sprintf("%02d:%02d", hour, minute), true
		}
	}

	return "", false
}

// afternoonWords promote a bare 1-11 hour into the afternoon.
var afternoonWords = []string{
	"afternoon", "evening", "tonight", "tarde", "noche",
}

// morningWords anchor a bare hour to the morning.
var morningWords = []string{
	"morning", "mañana por la", "manana por la", "madrugada",
}

// middayRe and midnightRe match only whole words so that "afternoon" never
// reads as "noon".
var (
	middayRe   = regexp.MustCompile(`\b(noon|midday|mediod[ií]a)\b`)
	midnightRe = regexp.MustCompile(`\b(midnight|medianoche)\b`)
)

// parseTimeHint scans free text for a time expression and re-derives the
// 24-hour form, using qualifier words when the hour itself is ambiguous.
// An explicit am/pm clock phrase wins over noon and midnight words.
// Used to correct model output rather than trust it.
func parseTimeHint(text string) (string, bool) {
	lower := strings.ToLower(text)

	if m := clockRe.FindStringSubmatch(lower); m != nil {
		return normalizeTime(m[0])
	}

	if midnightRe.MatchString(lower) {
		return "00:00", true
	}
	if middayRe.MatchString(lower) {
		return "12:00", true
	}

	// A bare hour needs a qualifier to be trustworthy.
	qualifier := ""
	for _, w := range afternoonWords {
		if strings.Contains(lower, w) {
			qualifier = "pm"
			break
		}
	}
	if qualifier == "" {
		for _, w := range morningWords {
			if strings.Contains(lower, w) {
				qualifier = "am"
				break
			}
		}
	}
	if qualifier == "" {
		return "", false
	}

	// Only consider hours adjacent to time prepositions to avoid matching
	// dates or quantities.
	atRe := regexp.MustCompile(`(?i)\b(?:at|a las?)\s+(\d{1,2})(?::(\d{2}))?\b`)
	m := atRe.FindStringSubmatch(lower)
	if m == nil {
		return "", false
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour > 23 || minute > 59 {
		return "", false
	}
	if qualifier == "pm" && hour >= 1 && hour <= 11 {
		hour += 12
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
