package service

import (
	"coder_edu_progress/internal/model"
	"sort"
)

// GateResult 描述课时能否完成。Missing 为 0 基序号，MissingIndices 给出展示用的 1 基序号。
type GateResult struct {
	Allowed bool
	Missing []int
}

func (g GateResult) MissingIndices() []int {
	out := make([]int, len(g.Missing))
	for i, idx := range g.Missing {
		out[i] = idx + 1
	}
	return out
}

// CanComplete 只有实践练习需要提交凭证，理论练习不参与判断
func CanComplete(exercises []model.LessonExercise, submitted map[int]bool) GateResult {
	var missing []int
	for _, ex := range exercises {
		if ex.Type != model.ExercisePractical {
			continue
		}
		if !submitted[ex.Sequence] {
			missing = append(missing, ex.Sequence)
		}
	}
	sort.Ints(missing)

	return GateResult{
		Allowed: len(missing) == 0,
		Missing: missing,
	}
}
