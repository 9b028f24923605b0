package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Answer is the expected answer of a question: a choice index for
// multiple-choice, a number for numeric questions, or free text.
type Answer struct {
	text     string
	num      float64
	isNumber bool
	set      bool
}

func NumberAnswer(f float64) Answer { return Answer{num: f, isNumber: true, set: true} }

func TextAnswer(s string) Answer { return Answer{text: s, set: true} }

func (a Answer) IsZero() bool    { return !a.set }
func (a Answer) IsNumber() bool  { return a.set && a.isNumber }
func (a Answer) Number() float64 { return a.num }
func (a Answer) Text() string    { return a.text }

// Index reports the answer as a choice index when it is a non-negative integer.
func (a Answer) Index() (int, bool) {
	if !a.IsNumber() || a.num < 0 || a.num != math.Trunc(a.num) {
		return 0, false
	}
	return int(a.num), true
}

// AsNumber parses the answer as a number, accepting numeric strings.
func (a Answer) AsNumber() (float64, bool) {
	if !a.set {
		return 0, false
	}
	if a.isNumber {
		return a.num, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(a.text), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (a Answer) String() string {
	switch {
	case !a.set:
		return ""
	case a.isNumber:
		return strconv.FormatFloat(a.num, 'f', -1, 64)
	default:
		return a.text
	}
}

// Value returns the answer as a plain float64 or string for document stores.
func (a Answer) Value() any {
	switch {
	case !a.set:
		return nil
	case a.isNumber:
		return a.num
	default:
		return a.text
	}
}

// AnswerFromValue is the inverse of Value. It accepts the integer widths a
// document decoder may produce.
func AnswerFromValue(v any) (Answer, error) {
	switch x := v.(type) {
	case nil:
		return Answer{}, nil
	case string:
		return TextAnswer(x), nil
	case float64:
		return NumberAnswer(x), nil
	case float32:
		return NumberAnswer(float64(x)), nil
	case int:
		return NumberAnswer(float64(x)), nil
	case int32:
		return NumberAnswer(float64(x)), nil
	case int64:
		return NumberAnswer(float64(x)), nil
	default:
		return Answer{}, fmt.Errorf("unsupported answer type %T", v)
	}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch {
	case !a.set:
		return []byte("null"), nil
	case a.isNumber:
		return []byte(strconv.FormatFloat(a.num, 'f', -1, 64)), nil
	default:
		return json.Marshal(a.text)
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("answer must be a number or a string")
	}
	*a = NumberAnswer(f)
	return nil
}
