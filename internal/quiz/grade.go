package quiz

import (
	"math"
	"strings"
)

type QuestionResult struct {
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
	Answered   bool   `json:"answered"`
}

type GradeResult struct {
	QuizID  string           `json:"quizId"`
	Score   int              `json:"score"`
	Total   int              `json:"total"`
	Results []QuestionResult `json:"results"`
}

// Check reports whether given answers q. Text answers compare
// case-insensitively after trimming.
func (q Question) Check(given Answer) bool {
	if given.IsZero() {
		return false
	}
	switch q.Type {
	case TypeMultipleChoice:
		want, ok := q.Correct.Index()
		if !ok {
			return false
		}
		got, ok := given.AsNumber()
		return ok && got == float64(want)
	case TypeNumber:
		want, ok := q.Correct.AsNumber()
		if !ok {
			return false
		}
		got, ok := given.AsNumber()
		return ok && math.Abs(want-got) < 1e-9
	case TypeText:
		return strings.EqualFold(strings.TrimSpace(q.Correct.String()), strings.TrimSpace(given.String()))
	}
	return false
}

func Grade(q Quiz, answers map[string]Answer) GradeResult {
	res := GradeResult{
		QuizID:  q.ID,
		Total:   len(q.Questions),
		Results: make([]QuestionResult, 0, len(q.Questions)),
	}
	for _, qq := range q.Questions {
		given, answered := answers[qq.ID]
		ok := answered && qq.Check(given)
		if ok {
			res.Score++
		}
		res.Results = append(res.Results, QuestionResult{
			QuestionID: qq.ID,
			Correct:    ok,
			Answered:   answered && !given.IsZero(),
		})
	}
	return res
}
