// Package injection scans free-text input for prompt-injection patterns and
// produces a sanitized copy safe to forward to a model provider.
package injection

import (
	"regexp"
	"strings"
	"unicode"
)

// Severity orders injection risk: None < Low < Medium < High < Critical.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	}
	return "unknown"
}

// Finding is the result of classifying one piece of input. Computed fresh
// per call; persisted only when something was detected.
type Finding struct {
	Detected      bool     `json:"detected"`
	Categories    []string `json:"categories,omitempty"`
	Severity      Severity `json:"severity"`
	SanitizedText string   `json:"-"`
}

// maxInputLen caps sanitized output. Longer input is cut and marked.
const maxInputLen = 8000

// truncationMarker is appended when sanitized text was cut.
const truncationMarker = " [truncated]"

// controlCharLimit is the number of control characters tolerated before the
// severity is forced to at least medium.
const controlCharLimit = 5

type rule struct {
	pattern  *regexp.Regexp
	severity Severity
	category string
}

// rules are evaluated in order on every classification. All patterns are
// case-insensitive. Multiple rules may match the same input; every matched
// category is reported and the maximum severity wins.
var rules = []rule{
	{regexp.MustCompile(`(?i)ignore\s+(all\s+|any\s+)?(previous|prior|above|earlier)\s+(instructions|prompts|directions|rules)`), SeverityCritical, "instruction_override"},
	{regexp.MustCompile(`(?i)disregard\s+(all\s+|any\s+)?(previous|prior|above|earlier|your)\s+(instructions|prompts|directions|rules|guidelines)`), SeverityCritical, "instruction_override"},
	{regexp.MustCompile(`(?i)forget\s+(everything|all)\s+(you|above|before)`), SeverityHigh, "instruction_override"},
	{regexp.MustCompile(`(?i)(reveal|show|print|repeat|output)\s+(me\s+)?(your|the)\s+(system\s+)?(prompt|instructions)`), SeverityHigh, "prompt_extraction"},
	{regexp.MustCompile(`(?i)what\s+(is|are)\s+your\s+(system\s+)?(prompt|instructions)`), SeverityHigh, "prompt_extraction"},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|in)\b`), SeverityMedium, "role_hijack"},
	{regexp.MustCompile(`(?i)pretend\s+(to\s+be|you\s+are)\b`), SeverityMedium, "role_hijack"},
	{regexp.MustCompile(`(?i)act\s+as\s+(if\s+you|a\s+different|an?\s+unrestricted)`), SeverityMedium, "role_hijack"},
	{regexp.MustCompile(`(?i)\b(dan|developer)\s+mode\b`), SeverityHigh, "jailbreak"},
	{regexp.MustCompile(`(?i)\bjailbreak\b`), SeverityHigh, "jailbreak"},
	{regexp.MustCompile(`(?i)without\s+(any\s+)?(restrictions|limitations|filters|guardrails)`), SeverityHigh, "jailbreak"},
	{regexp.MustCompile(`(?i)<\|im_(start|end)\|>`), SeverityMedium, "delimiter_escape"},
	{regexp.MustCompile("(?i)```\\s*system"), SeverityMedium, "delimiter_escape"},
	{regexp.MustCompile(`(?i)\[\s*system\s*\]`), SeverityMedium, "delimiter_escape"},
	{regexp.MustCompile(`(?i)#\s*system\s+prompt`), SeverityMedium, "delimiter_escape"},
	{regexp.MustCompile(`[A-Za-z0-9+/]{120,}={0,2}`), SeverityLow, "encoded_payload"},
}

// Classify runs the rule list over text and returns the finding together
// with a sanitized copy. Pure function: no I/O, no side effects.
func Classify(text string) Finding {
	f := Finding{Severity: SeverityNone, SanitizedText: Sanitize(text)}
	if text == "" {
		return f
	}

	seen := make(map[string]bool)
	for _, r := range rules {
		if !r.pattern.MatchString(text) {
			continue
		}
		f.Detected = true
		if !seen[r.category] {
			seen[r.category] = true
			f.Categories = append(f.Categories, r.category)
		}
		if r.severity > f.Severity {
			f.Severity = r.severity
		}
	}

	if countControlChars(text) > controlCharLimit {
		f.Detected = true
		if !seen["control_characters"] {
			f.Categories = append(f.Categories, "control_characters")
		}
		if f.Severity < SeverityMedium {
			f.Severity = SeverityMedium
		}
	}

	return f
}

// Sanitize strips control and zero-width characters, collapses whitespace
// runs to single spaces and truncates overlong input.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case isZeroWidth(r):
			// dropped
		case unicode.IsControl(r) && r != '\n' && r != '\t':
			// dropped
		default:
			b.WriteRune(r)
		}
	}

	out := strings.Join(strings.Fields(b.String()), " ")
	if len(out) > maxInputLen {
		out = out[:maxInputLen] + truncationMarker
	}
	return out
}

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
		return true
	}
	return false
}

func countControlChars(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			n++
		}
	}
	return n
}
