// Package lang validates transcription languages as BCP 47 tags.
package lang

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// supported lists the ISO 639-1 base languages accepted by the
// transcription API.
var supported = map[string]bool{
	"af": true, "ar": true, "bg": true, "bn": true, "ca": true, "cs": true,
	"da": true, "de": true, "el": true, "en": true, "es": true, "et": true,
	"fa": true, "fi": true, "fr": true, "gu": true, "he": true, "hi": true,
	"hr": true, "hu": true, "id": true, "it": true, "ja": true, "kn": true,
	"ko": true, "lt": true, "lv": true, "mk": true, "ml": true, "mr": true,
	"ms": true, "nl": true, "no": true, "pa": true, "pl": true, "pt": true,
	"ro": true, "ru": true, "sk": true, "sl": true, "sr": true, "sv": true,
	"sw": true, "ta": true, "te": true, "th": true, "tl": true, "tr": true,
	"uk": true, "ur": true, "vi": true, "zh": true,
}

// Normalize lowercases a code and uses '-' as the separator.
// Accepts: "pt-BR", "pt_BR", "PT-BR", "pt-br" -> "pt-br"
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(code, "_", "-"))
}

// Parse returns the tag for code. An empty code is language.Und: the
// language is detected from the audio.
func Parse(code string) (language.Tag, error) {
	if code == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(Normalize(code))
	if err != nil {
		return language.Und, fmt.Errorf("invalid language code %q (use tags like 'en', 'fr', 'pt-BR'): %w", code, ErrInvalid)
	}
	base, _ := tag.Base()
	if !supported[base.String()] {
		return language.Und, fmt.Errorf("unsupported language %q: %w", code, ErrInvalid)
	}
	return tag, nil
}

// Validate reports whether code is empty or a supported language.
func Validate(code string) error {
	_, err := Parse(code)
	return err
}

// BaseCode returns the ISO 639-1 code the transcription API expects:
// "pt-BR" -> "pt". Empty or invalid codes return "".
func BaseCode(code string) string {
	tag, err := Parse(code)
	if err != nil || tag == language.Und {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}

// DisplayName returns the English name of the language, e.g. "Brazilian
// Portuguese". Codes that do not parse are returned unchanged.
func DisplayName(code string) string {
	tag, err := Parse(code)
	if err != nil || tag == language.Und {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}
