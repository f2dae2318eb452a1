package engine

import "strings"

// FormatLog turns raw engine stderr into the quoted form returned to callers:
// surrounding whitespace trimmed and every line prefixed with "> ".
// An empty log yields "> ", matching what the reference frontend expects.
func FormatLog(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.TrimSpace(raw)
	return "> " + strings.ReplaceAll(raw, "\n", "\n> ")
}
