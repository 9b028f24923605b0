// Package quiz holds the quiz domain: quizzes with embedded questions, the
// score log, the singleton admin credential and the storage contracts the
// backends implement.
package quiz

import "time"

// QuestionType discriminates how a question is answered.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "mc"
	TypeText           QuestionType = "text"
	TypeNumber         QuestionType = "number"
)

// ChoiceCount is the number of choices a multiple-choice question carries.
const ChoiceCount = 4

func (t QuestionType) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeText, TypeNumber:
		return true
	}
	return false
}

type Question struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	Type      QuestionType `json:"type"`
	Choices   []string     `json:"choices,omitempty"`
	Correct   Answer       `json:"correct"`
	CreatedAt time.Time    `json:"createdAt,omitzero"`
}

type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// QuizSummary is a quiz without its question bodies.
type QuizSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (q Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		QuestionCount: len(q.Questions),
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
	}
}

// Clone returns a deep copy so callers can mutate questions freely.
func (q Quiz) Clone() Quiz {
	out := q
	if q.Questions != nil {
		out.Questions = make([]Question, len(q.Questions))
		for i, qq := range q.Questions {
			out.Questions[i] = qq.Clone()
		}
	}
	return out
}

func (q Question) Clone() Question {
	out := q
	if q.Choices != nil {
		out.Choices = append([]string(nil), q.Choices...)
	}
	return out
}

// Score is one recorded quiz attempt. QuizTitle is denormalized so the log
// survives quiz deletion.
type Score struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	QuizID    string    `json:"quizId"`
	QuizTitle string    `json:"quizTitle"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	Date      time.Time `json:"date"`
}
