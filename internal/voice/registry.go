// Package voice maps client-facing voice and language names to the
// internal identifiers understood by the inference engine.
//
// Voice resolution is deliberately forgiving: OpenAI-compatible clients
// send arbitrary voice names ("alloy", "Sarah", "deep male narrator") and
// a hard failure would break them. Resolution tries an exact style match,
// then a fixed alias table, then a nearest-match heuristic on gender and
// style prefix, and finally falls back to the default style. Language
// codes are the opposite: they select the pronunciation model, so the set
// is closed and invalid codes are a hard client error.
package voice

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/tonegate/tonegate/internal/speech"
)

// Style describes one voice style shipped with the engine's model assets.
type Style struct {
	ID     speech.VoiceID `json:"id"`
	Gender string         `json:"gender"`
}

const (
	genderMale   = "male"
	genderFemale = "female"
)

// styleCount is the number of styles per gender (M1..M5, F1..F5).
const styleCount = 5

// defaultAliases maps common client voice names onto internal styles.
// The human names follow the published compatibility table; the six
// OpenAI voice names are mapped onto the closest-sounding styles.
var defaultAliases = map[string]speech.VoiceID{
	"alex":    "M1",
	"james":   "M2",
	"robert":  "M3",
	"sam":     "M4",
	"daniel":  "M5",
	"sarah":   "F1",
	"lily":    "F2",
	"jessica": "F3",
	"olivia":  "F4",
	"emily":   "F5",
	"alloy":   "F1",
	"echo":    "M1",
	"fable":   "M2",
	"onyx":    "M3",
	"nova":    "F2",
	"shimmer": "F3",
}

// supportedLanguages is the closed set of pronunciation models.
var supportedLanguages = map[speech.LanguageCode]struct{}{
	"en": {},
	"ko": {},
	"es": {},
	"pt": {},
	"fr": {},
}

// Registry resolves voice names and validates language codes. It is
// read-only after construction and safe for concurrent use.
type Registry struct {
	styles       map[speech.VoiceID]Style
	aliases      map[string]speech.VoiceID
	defaultStyle speech.VoiceID
}

// Options configures a Registry.
type Options struct {
	// DefaultStyle is the style returned on a total resolution miss.
	// Empty means "F1".
	DefaultStyle string

	// Aliases adds or overrides entries in the built-in alias table,
	// mapping client voice names to style IDs.
	Aliases map[string]string
}

// NewRegistry builds the registry from the built-in style set plus the
// given options.
func NewRegistry(opts Options) (*Registry, error) {
	styles := make(map[speech.VoiceID]Style, 2*styleCount)
	for i := 1; i <= styleCount; i++ {
		m := speech.VoiceID(fmt.Sprintf("M%d", i))
		f := speech.VoiceID(fmt.Sprintf("F%d", i))
		styles[m] = Style{ID: m, Gender: genderMale}
		styles[f] = Style{ID: f, Gender: genderFemale}
	}

	aliases := make(map[string]speech.VoiceID, len(defaultAliases)+len(opts.Aliases))
	for name, id := range defaultAliases {
		aliases[name] = id
	}
	for name, id := range opts.Aliases {
		styleID := speech.VoiceID(strings.ToUpper(id))
		if _, ok := styles[styleID]; !ok {
			return nil, fmt.Errorf("voice alias %q targets unknown style %q", name, id)
		}
		aliases[strings.ToLower(name)] = styleID
	}

	defaultStyle := speech.VoiceID("F1")
	if opts.DefaultStyle != "" {
		defaultStyle = speech.VoiceID(strings.ToUpper(opts.DefaultStyle))
		if _, ok := styles[defaultStyle]; !ok {
			return nil, fmt.Errorf("unknown default style %q", opts.DefaultStyle)
		}
	}

	return &Registry{
		styles:       styles,
		aliases:      aliases,
		defaultStyle: defaultStyle,
	}, nil
}

// Resolve maps a client voice name to an internal style. Exact style IDs
// win, then the alias table, then a nearest-match heuristic; a total miss
// returns the default style. Resolve never fails.
func (r *Registry) Resolve(name string) speech.VoiceID {
	trimmed := strings.TrimSpace(name)
	upper := speech.VoiceID(strings.ToUpper(trimmed))
	if _, ok := r.styles[upper]; ok {
		return upper
	}

	lower := strings.ToLower(trimmed)
	if id, ok := r.aliases[lower]; ok {
		return id
	}

	return r.nearest(lower)
}

// nearest applies the compatibility heuristic for names outside the alias
// table. Order matters: "female" contains "male".
func (r *Registry) nearest(lower string) speech.VoiceID {
	switch {
	case strings.Contains(lower, "female") ||
		strings.Contains(lower, "woman") ||
		strings.Contains(lower, "girl"):
		return "F1"
	case strings.Contains(lower, "male") ||
		strings.Contains(lower, "man") ||
		strings.Contains(lower, "boy"):
		return "M1"
	}

	// Style-prefixed names such as "m3-studio" or "f2_custom".
	if len(lower) >= 2 && (lower[0] == 'm' || lower[0] == 'f') && unicode.IsDigit(rune(lower[1])) {
		n := int(lower[1] - '0')
		if n >= 1 && n <= styleCount {
			return speech.VoiceID(strings.ToUpper(lower[:2]))
		}
	}

	return r.defaultStyle
}

// Language validates a code against the closed supported set.
func (r *Registry) Language(code string) (speech.LanguageCode, error) {
	lang := speech.LanguageCode(strings.ToLower(code))
	if _, ok := supportedLanguages[lang]; !ok {
		return "", &speech.ValidationError{
			Field:  "lang",
			Reason: fmt.Sprintf("unsupported language %q, supported: %s", code, strings.Join(languageList(), ", ")),
		}
	}
	return lang, nil
}

// Default returns the style used on a total resolution miss.
func (r *Registry) Default() speech.VoiceID { return r.defaultStyle }

// Styles returns all voice styles sorted by ID.
func (r *Registry) Styles() []Style {
	out := make([]Style, 0, len(r.styles))
	for _, s := range r.styles {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Aliases returns a copy of the alias table.
func (r *Registry) Aliases() map[string]speech.VoiceID {
	out := make(map[string]speech.VoiceID, len(r.aliases))
	for name, id := range r.aliases {
		out[name] = id
	}
	return out
}

// Languages returns the supported language codes sorted alphabetically.
func (r *Registry) Languages() []speech.LanguageCode {
	list := languageList()
	out := make([]speech.LanguageCode, len(list))
	for i, code := range list {
		out[i] = speech.LanguageCode(code)
	}
	return out
}

func languageList() []string {
	out := make([]string, 0, len(supportedLanguages))
	for code := range supportedLanguages {
		out = append(out, string(code))
	}
	sort.Strings(out)
	return out
}
