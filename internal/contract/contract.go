// Package contract checks generated text against the spec output contract:
// the delimiter line, the eight numbered section headers, and Markdown-only content.
package contract

import (
	"regexp"
	"strings"
)

const Delimiter = "---SPEC_START---"

var RequiredSections = []string{
	"### 1. Project Overview",
	"### 2. Technical Stack",
	"### 3. Core Features & User Flows",
	"### 4. Data Models & Architecture",
	"### 5. UI/UX Specifications",
	"### 6. Security & Performance",
	"### 7. Implementation Roadmap",
	"### 8. AI Agent Instructions",
}

type markupPattern struct {
	source string
	re     *regexp.Regexp
}

var markupPatterns = compileMarkup(
	`<div[^>]*>`,
	`<span[^>]*>`,
	`<p[^>]*>`,
	`<button[^>]*>`,
	`className=`,
	`onClick=`,
)

func compileMarkup(sources ...string) []markupPattern {
	out := make([]markupPattern, 0, len(sources))
	for _, s := range sources {
		out = append(out, markupPattern{source: s, re: regexp.MustCompile(`(?i)` + s)})
	}
	return out
}

type Result struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// Validate collects every violation in text. It has no side effects.
func Validate(text string) Result {
	issues := []string{}

	if !strings.Contains(text, Delimiter) {
		issues = append(issues, "Missing "+Delimiter+" delimiter")
	}

	// Only a response that started a full spec is held to the section list.
	// Questions-only replies carry neither of the first two headers.
	if strings.Contains(text, RequiredSections[0]) || strings.Contains(text, RequiredSections[1]) {
		for _, h := range RequiredSections {
			if !strings.Contains(text, h) {
				issues = append(issues, "Missing section: "+h)
			}
		}
	}

	for _, p := range markupPatterns {
		if p.re.MatchString(text) {
			issues = append(issues, "HTML/JSX detected: "+p.source)
			break
		}
	}

	return Result{Valid: len(issues) == 0, Issues: issues}
}

// IsFullSpec reports whether text looks like a generated spec rather than clarifying questions.
func IsFullSpec(text string) bool {
	return strings.Contains(text, RequiredSections[0])
}
