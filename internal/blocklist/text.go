package blocklist

import "strings"

// ParseText splits settings text into entries: one per line, with
// comma-separated entries allowed inside a line. Blank entries are dropped.
func ParseText(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		for _, part := range strings.Split(line, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// FormatText renders entries for editing, one per line.
func FormatText(entries []string) string {
	if len(entries) == 0 {
		return ""
	}
	return strings.Join(entries, "\n") + "\n"
}
