package grading

import "fmt"

// JudgeReorder passes on an exact sequence match and otherwise awards
// floor(100*k/N) where k counts items already in their correct position.
func JudgeReorder(order []int, cfg ReorderConfig) Verdict {
	if len(order) == 0 {
		return fail("Please arrange the items.")
	}
	total := len(cfg.CorrectOrder)
	if total == 0 {
		return fail("This lesson has no order configured.")
	}

	inPlace := 0
	for i, want := range cfg.CorrectOrder {
		if i < len(order) && order[i] == want {
			inPlace++
		}
	}
	if inPlace == total && len(order) == total {
		return pass("Perfect order!")
	}
	// trailing extras can leave every position right and still fail
	return Verdict{
		Feedback: fmt.Sprintf("%d/%d in the right position.", inPlace, total),
		Score:    partialScore(inPlace, total),
	}
}
