package assistant

import "regexp"

// bannedEmojis are generic glyphs the model overuses; they carry no signal
// next to a note or event title.
var bannedEmojis = map[string]bool{
	"📅":  true,
	"🗓️": true,
	"📝":  true,
	"📌":  true,
	"📄":  true,
}

const defaultEmoji = "💡"

// emojiRule maps content keywords to a replacement emoji. Rules are
// evaluated in order; the first match wins.
type emojiRule struct {
	pattern *regexp.Regexp
	emoji   string
}

var emojiRules = []emojiRule{
	{regexp.MustCompile(`(?i)doctor|dentist|médic|medic|dentista|hospital|clínic|clinic`), "🏥"},
	{regexp.MustCompile(`(?i)birthday|cumpleaños|cumple\b`), "🎂"},
	{regexp.MustCompile(`(?i)party|fiesta|celebra`), "🎉"},
	{regexp.MustCompile(`(?i)gym|workout|ejercicio|entrena|run\b|correr`), "💪"},
	{regexp.MustCompile(`(?i)buy|compra|shopping|groceries|supermercado|mercado`), "🛒"},
	{regexp.MustCompile(`(?i)coffee|café|cafe\b`), "☕"},
	{regexp.MustCompile(`(?i)dinner|lunch|cena|comida|almuerzo|restaurant`), "🍽️"},
	{regexp.MustCompile(`(?i)meeting|reunión|reunion|llamada|call\b|zoom`), "📞"},
	{regexp.MustCompile(`(?i)travel|viaje|flight|vuelo|trip\b`), "✈️"},
	{regexp.MustCompile(`(?i)movie|película|pelicula|cine|concert|concierto`), "🎬"},
	{regexp.MustCompile(`(?i)pay|pagar|bank|banco|money|dinero|factura|bill\b`), "💰"},
	{regexp.MustCompile(`(?i)class|clase|study|estudiar|exam|examen|school|escuela`), "📚"},
	{regexp.MustCompile(`(?i)car\b|coche|auto\b|mechanic|taller`), "🚗"},
	{regexp.MustCompile(`(?i)clean|limpia|laundry|lavar`), "🧹"},
	{regexp.MustCompile(`(?i)pill|medicin|pastilla|vitamin`), "💊"},
	{regexp.MustCompile(`(?i)idea\b|remember|recordar|recuerda`), "💭"},
}

// fallbackEmoji picks a content-appropriate emoji from the original text.
func fallbackEmoji(text string) string {
	for _, rule := range emojiRules {
		if rule.pattern.MatchString(text) {
			return rule.emoji
		}
	}
	return defaultEmoji
}
