package service

import (
	"bytes"
	"coder_edu_progress/internal/model"
	"coder_edu_progress/internal/util"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Answer 是一道题的原始作答。JSON 中既可以是字符串，也可以是字符串数组。
type Answer []string

func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*a = nil
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("answer must be a string or an array of strings: %w", err)
		}
		*a = list
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return fmt.Errorf("answer must be a string or an array of strings: %w", err)
	}
	*a = Answer{s}
	return nil
}

// GradeResult 是评分的完整输出，不含任何持久化信息
type GradeResult struct {
	Score      int                     `json:"score"`
	MaxScore   int                     `json:"maxScore"`
	Percentage int                     `json:"percentage"`
	Passed     bool                    `json:"passed"`
	Breakdown  []model.QuestionOutcome `json:"breakdown"`
}

// GradeQuiz 按题目顺序评分。作答数量与题目数量不一致时整体拒绝。
func GradeQuiz(quiz *model.Quiz, answers []Answer) (*GradeResult, error) {
	if len(answers) != len(quiz.Questions) {
		return nil, fmt.Errorf("%w: got %d answers for %d questions", util.ErrAnswerCountMismatch, len(answers), len(quiz.Questions))
	}

	result := &GradeResult{Breakdown: make([]model.QuestionOutcome, 0, len(quiz.Questions))}
	for i, q := range quiz.Questions {
		points := q.Points
		if points < 0 {
			points = 0
		}

		correct := IsCorrect(q, answers[i])
		awarded := 0
		if correct {
			awarded = points
		}

		result.Score += awarded
		result.MaxScore += points
		result.Breakdown = append(result.Breakdown, model.QuestionOutcome{
			QuestionID: q.ID,
			Correct:    correct,
			Points:     awarded,
			MaxPoints:  points,
		})
	}

	result.Percentage = Percentage(result.Score, result.MaxScore)
	result.Passed = result.Percentage >= quiz.PassingScore
	return result, nil
}

// Percentage 四舍五入到整数；满分为 0 时返回 0
func Percentage(score, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(maxScore)))
}

// IsCorrect 判断单题作答。空答案总是错误，不会报错。
func IsCorrect(q model.QuizQuestion, answer Answer) bool {
	switch q.Type {
	case model.QuestionSingle, model.QuestionMultiple:
		return matchChoice(q.CorrectAnswers, answer)
	case model.QuestionText:
		return matchText(q.CorrectAnswers, answer)
	default:
		return false
	}
}

// matchChoice 选择题按集合比较：顺序无关、精确匹配、无部分得分
func matchChoice(correctAnswers []string, answer Answer) bool {
	selected := make(map[string]struct{}, len(answer))
	for _, opt := range answer {
		if strings.TrimSpace(opt) == "" {
			continue
		}
		selected[opt] = struct{}{}
	}
	if len(selected) == 0 {
		return false
	}

	correct := make(map[string]struct{}, len(correctAnswers))
	for _, c := range correctAnswers {
		correct[c] = struct{}{}
	}
	if len(selected) != len(correct) {
		return false
	}
	for c := range correct {
		if _, ok := selected[c]; !ok {
			return false
		}
	}
	return true
}

// matchText 忽略大小写和首尾空白。多个标准答案时只认第一个。
func matchText(correctAnswers []string, answer Answer) bool {
	if len(answer) == 0 || len(correctAnswers) == 0 {
		return false
	}
	given := normalizeText(answer[0])
	if given == "" {
		return false
	}
	return given == normalizeText(correctAnswers[0])
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
