package speech

import (
	"fmt"
	"strings"
)

// Normalize validates a raw decoded request and builds its canonical form,
// applying defaults for absent optional fields. All validation happens
// here, before any inference call: a request that fails normalization
// never reaches the engine. Voice resolution goes through the resolver's
// compatibility fallback and never fails; language codes are a closed set
// and do fail hard, since they select the pronunciation model.
func Normalize(raw RawRequest, resolver Resolver) (*Request, error) {
	if strings.TrimSpace(raw.Input) == "" {
		return nil, &ValidationError{Field: "input", Reason: "must not be empty"}
	}
	if raw.Voice == "" {
		return nil, &ValidationError{Field: "voice", Reason: "must not be empty"}
	}

	speed := DefaultSpeed
	if raw.Speed != nil {
		speed = *raw.Speed
	}
	if speed < MinSpeed || speed > MaxSpeed {
		return nil, &ValidationError{
			Field:  "speed",
			Reason: fmt.Sprintf("must be between %g and %g", MinSpeed, MaxSpeed),
		}
	}

	steps := DefaultSteps
	if raw.TotalStep != nil {
		steps = *raw.TotalStep
	}
	if steps < MinSteps || steps > MaxSteps {
		return nil, &ValidationError{
			Field:  "total_step",
			Reason: fmt.Sprintf("must be between %d and %d", MinSteps, MaxSteps),
		}
	}

	format := DefaultFormat
	if raw.ResponseFormat != "" {
		format = AudioFormat(raw.ResponseFormat)
	}
	if !format.Valid() {
		return nil, &ValidationError{
			Field:  "response_format",
			Reason: fmt.Sprintf("unsupported format %q", raw.ResponseFormat),
		}
	}

	langs, err := parseLangs(raw.Lang, resolver)
	if err != nil {
		return nil, err
	}

	segments, err := Split(raw.Input, langs)
	if err != nil {
		return nil, err
	}

	return &Request{
		Segments: segments,
		Voice:    resolver.Resolve(raw.Voice),
		Speed:    speed,
		Steps:    steps,
		Format:   format,
	}, nil
}

// parseLangs splits a comma-separated language list and validates each
// code against the resolver's closed set. An empty list defaults to "en".
func parseLangs(list string, resolver Resolver) ([]LanguageCode, error) {
	if strings.TrimSpace(list) == "" {
		return []LanguageCode{DefaultLang}, nil
	}
	var langs []LanguageCode
	for _, part := range strings.Split(list, ",") {
		code, err := resolver.Language(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		langs = append(langs, code)
	}
	return langs, nil
}
