package grading

// JudgeMultipleChoice passes when the selected indices equal the correct
// indices as sets. There is no partial credit.
func JudgeMultipleChoice(selected []int, cfg MultipleChoiceConfig) Verdict {
	if len(selected) == 0 {
		return fail("Please select an answer.")
	}
	if setEqual(toSet(selected), toSet(cfg.Correct)) {
		return pass("Correct! Well done!")
	}
	return fail("Not quite. Review the question and try again.")
}

func toSet(arr []int) map[int]struct{} {
	m := make(map[int]struct{}, len(arr))
	for _, v := range arr {
		m[v] = struct{}{}
	}
	return m
}

func setEqual(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
