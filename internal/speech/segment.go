package speech

import "strings"

// Delimiter separates independently synthesized text segments in the
// request input.
const Delimiter = "|"

// Split breaks input on the segment delimiter into ordered, trimmed,
// non-empty segments and pairs segment i with language i. When fewer
// languages than segments are supplied the last language repeats for the
// remaining segments; supplying more languages than segments is an error.
func Split(input string, langs []LanguageCode) ([]Segment, error) {
	var segments []Segment
	for _, part := range strings.Split(input, Delimiter) {
		text := strings.TrimSpace(part)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{Text: text})
	}
	if len(segments) == 0 {
		return nil, &ValidationError{Field: "input", Reason: "no non-empty segments"}
	}
	if len(langs) > len(segments) {
		return nil, &ValidationError{
			Field:  "lang",
			Reason: "more language codes than input segments",
		}
	}
	for i := range segments {
		if i < len(langs) {
			segments[i].Lang = langs[i]
		} else {
			segments[i].Lang = langs[len(langs)-1]
		}
	}
	return segments, nil
}
