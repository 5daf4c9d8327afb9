package scraper

import "strings"

// ParseReviewer splits the reviewer blob ("<name> <sex> / <age>\n...") into
// sex and age. Sex is the last word before the separator. Age is the first
// line after it, or empty when the blob has no second segment.
func ParseReviewer(blob string) (sex, age string) {
	attrs := splitNonEmptyTail(blob, ReviewerSeparator)
	if len(attrs) == 0 {
		return "", ""
	}

	if words := strings.Fields(attrs[0]); len(words) > 0 {
		sex = words[len(words)-1]
	}
	if len(attrs) > 1 {
		age = strings.TrimSpace(strings.SplitN(attrs[1], "\n", 2)[0])
	}
	return sex, age
}

// ParsePostDate returns the text after the last full-width colon,
// e.g. "投稿日：2019/01/10" -> "2019/01/10".
func ParsePostDate(text string) string {
	parts := splitNonEmptyTail(text, PostDateSeparator)
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-1])
}

// ParseComment splits a multi-line comment into a title (first line) and a
// body (remaining lines joined with single spaces).
func ParseComment(text string) (title, body string) {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "", ""
	}
	return lines[0], strings.Join(lines[1:], " ")
}

// splitNonEmptyTail splits s on sep and drops trailing empty segments.
func splitNonEmptyTail(s, sep string) []string {
	parts := strings.Split(s, sep)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
