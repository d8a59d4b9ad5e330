package grading

import (
	"fmt"
	"regexp"
	"strings"
)

// Feedback for configuration problems is kept distinct from "wrong answer"
// so lesson authors can spot broken lessons.
const FeedbackInvalidPattern = "Internal error: invalid validation pattern."

// JudgeExactMatch compares free text against the lesson's expected string
// using the configured match type.
func JudgeExactMatch(text string, cfg ExactMatchConfig) Verdict {
	input, expected := text, cfg.Expected
	if !cfg.CaseSensitive {
		input, expected = strings.ToLower(input), strings.ToLower(expected)
	}

	switch cfg.MatchType {
	case MatchExact, "":
		if strings.TrimSpace(input) == strings.TrimSpace(expected) {
			return pass("Perfect! Exact match achieved!")
		}
		return fail(fmt.Sprintf("Not quite. Expected exactly: '%s'", cfg.Expected))

	case MatchContains:
		if strings.Contains(input, expected) {
			return pass("Great job! Your output contains the required content!")
		}
		return fail(fmt.Sprintf("Your output should contain: '%s'", cfg.Expected))

	case MatchRegex:
		re, err := compilePattern(cfg.Expected, cfg.CaseSensitive)
		if err != nil {
			return fail(FeedbackInvalidPattern)
		}
		// the raw submission, not the lowercased one
		if re.MatchString(text) {
			return pass("Excellent! Pattern matched successfully!")
		}
		return fail("The pattern doesn't match. Try a different approach.")
	}

	return fail(fmt.Sprintf("Unknown match type: %q.", cfg.MatchType))
}

// compilePattern compiles an authored pattern, adding the case-insensitive
// flag when requested.
func compilePattern(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

// ValidatePattern reports whether an exact_match regex pattern compiles.
func ValidatePattern(pattern string, caseSensitive bool) error {
	_, err := compilePattern(pattern, caseSensitive)
	return err
}

// normalize strips surrounding whitespace and folds case unless caseSensitive.
func normalize(s string, caseSensitive bool) string {
	s = strings.TrimSpace(s)
	if !caseSensitive {
		s = strings.ToLower(s)
	}
	return s
}
