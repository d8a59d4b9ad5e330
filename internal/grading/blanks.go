package grading

import "fmt"

// JudgeFillBlank compares answers position by position. Partial credit is
// floor(100*correct/total); a length mismatch scores zero.
func JudgeFillBlank(answers []string, cfg FillBlankConfig) Verdict {
	total := len(cfg.Answers)
	if len(answers) != total {
		return fail(fmt.Sprintf("Expected %d answers but received %d.", total, len(answers)))
	}
	if total == 0 {
		return fail("This lesson has no blanks configured.")
	}

	correct := 0
	for i, want := range cfg.Answers {
		if normalize(answers[i], cfg.CaseSensitive) == normalize(want, cfg.CaseSensitive) {
			correct++
		}
	}
	if correct == total {
		return pass("All blanks filled correctly!")
	}
	return Verdict{
		Feedback: fmt.Sprintf("%d/%d blanks correct. Keep trying!", correct, total),
		Score:    partialScore(correct, total),
	}
}

// partialScore truncates toward zero; total must be positive.
func partialScore(correct, total int) int {
	return correct * 100 / total
}
