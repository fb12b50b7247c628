package common

import (
	"regexp"
	"strings"
)

var (
	cardLabelRegex    = regexp.MustCompile(`(?i)Tarjeta\s+Digital\s+\*+\d+`)
	maskedCardRegex   = regexp.MustCompile(`\*+\d{4}`)
	counterRegex      = regexp.MustCompile(`(?i)\d+\s+DE\s+\d+`)
	separatorRegex    = regexp.MustCompile(`\s*[;,]\s*`)
	cardDigitsRegex   = regexp.MustCompile(`\*+(\d{4})`)
	trailingCodeRegex = regexp.MustCompile(`\b([A-Z]{3,4})$`)
)

// ExtractMerchantName derives a canonical merchant string from a raw
// transaction description. Order matters: the trailing location code can only
// be stripped after normalization, otherwise accents or punctuation hide the
// final token.
func ExtractMerchantName(description string) string {
	if description == "" {
		return ""
	}

	text := cardLabelRegex.ReplaceAllString(description, "")
	text = maskedCardRegex.ReplaceAllString(text, "")
	text = counterRegex.ReplaceAllString(text, "")
	text = separatorRegex.ReplaceAllString(text, " ")

	text = NormalizeDescription(text)

	// Strip the trailing location code, but never a lone merchant word.
	if code, ok := ExtractLocationCode(text); ok {
		if trimmed := strings.TrimSuffix(text, " "+code); trimmed != text {
			text = trimmed
		}
	}
	return NormalizeDescription(text)
}

// ExtractCardDigits pulls the last four digits out of a masked card reference
// like "***1234".
func ExtractCardDigits(text string) (string, bool) {
	m := cardDigitsRegex.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractLocationCode returns the trailing 3-4 letter location token of a
// description ("OXXO GAS TLC" -> "TLC"), if present.
func ExtractLocationCode(description string) (string, bool) {
	m := trailingCodeRegex.FindStringSubmatch(NormalizeDescription(description))
	if m == nil {
		return "", false
	}
	return m[1], true
}
