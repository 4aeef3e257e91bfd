package codec

import "strings"

// DefaultBadgeTemplate targets the shields.io static badge endpoint.
const DefaultBadgeTemplate = "https://img.shields.io/badge/{label}-{status}-{color}"

// EscapeBadgeText applies the badge service's text escaping: literal
// hyphens are doubled and spaces become underscores. The service reads
// single hyphens as field separators, so this has to match byte-for-byte.
func EscapeBadgeText(text string) string {
	escaped := strings.ReplaceAll(text, "-", "--")
	return strings.ReplaceAll(escaped, " ", "_")
}

// BadgeURL builds a badge image URL from a template containing {label},
// {status} and {color} placeholders. Label and status are escaped for the
// badge service; the color is substituted verbatim.
func BadgeURL(template, label, status, color string) string {
	replacer := strings.NewReplacer(
		"{label}", EscapeBadgeText(label),
		"{status}", EscapeBadgeText(status),
		"{color}", color,
	)
	return replacer.Replace(template)
}

// LinkURL appends an encoded statement to a base URL as a fragment. The
// statement alphabet (safe tokens, '~' escapes and the ';' ':' ','
// delimiters) is fragment-safe, so the string is carried unmodified.
func LinkURL(base, encoded string) string {
	return base + "#" + encoded
}
