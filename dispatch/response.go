package dispatch

import (
	"regexp"
	"strings"
)

// Matches a fully delimited reasoning block anywhere in the content. Models
// that emit only the closing marker are handled by the start-anchored
// fallback: everything up to the first closing tag is the reasoning.
var (
	taggedReasoningPattern  = regexp.MustCompile(`(?s)<think>(.*?)</think>`)
	leadingReasoningPattern = regexp.MustCompile(`(?s)\A(.*?)</think>`)
)

// ExtractReasoning splits a delimited reasoning block out of the content.
// Only the first block is extracted; content without a marker comes back
// unchanged with empty reasoning.
func ExtractReasoning(content string) (string, string) {
	match := taggedReasoningPattern.FindStringSubmatchIndex(content)
	if match == nil {
		match = leadingReasoningPattern.FindStringSubmatchIndex(content)
	}
	if match == nil {
		return content, ""
	}
	reasoning := strings.TrimSpace(content[match[2]:match[3]])
	stripped := strings.TrimSpace(content[:match[0]] + content[match[1]:])
	return stripped, reasoning
}
