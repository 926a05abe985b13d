package jsonutils

import (
	"regexp"
	"strings"
)

var reFence = regexp.MustCompile("(?s)^```(?:json|JSON)?[ \t]*\r?\n?(.*?)\r?\n?```$")

// StripCodeFence returns the body of a single fenced block that wraps the
// whole input, e.g. "```json\n{...}\n```". Anything else is returned unchanged.
// Byte-order marks and zero-width characters at the edges are removed first.
func StripCodeFence(input string) string {
	trimmed := strings.TrimSpace(strings.Trim(input, "\uFEFF\u200B\u200C\u200D"))
	if match := reFence.FindStringSubmatch(trimmed); len(match) > 1 {
		return strings.TrimSpace(match[1])
	}
	return input
}
