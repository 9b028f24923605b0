package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/myquiz/backend/internal/auth"
	"github.com/myquiz/backend/internal/quiz"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return auth.PasswordStrength(fl.Field().String()) == ""
	})
	v.RegisterStructValidation(questionRules, QuestionRequest{})
	return v
}

// questionRules checks the type-dependent shape of a question.
func questionRules(sl validator.StructLevel) {
	q := sl.Current().Interface().(QuestionRequest)

	switch q.Type {
	case quiz.TypeMultipleChoice:
		if len(q.Choices) != quiz.ChoiceCount {
			sl.ReportError(q.Choices, "choices", "Choices", "choicecount", "")
		} else {
			for _, c := range q.Choices {
				if strings.TrimSpace(c) == "" {
					sl.ReportError(q.Choices, "choices", "Choices", "blankchoice", "")
					break
				}
			}
		}
		if idx, ok := q.Correct.Index(); !ok || idx >= quiz.ChoiceCount {
			sl.ReportError(q.Correct, "correct", "Correct", "choiceindex", "")
		}
	case quiz.TypeNumber:
		if len(q.Choices) > 0 {
			sl.ReportError(q.Choices, "choices", "Choices", "nochoices", "")
		}
		if _, ok := q.Correct.AsNumber(); !ok {
			sl.ReportError(q.Correct, "correct", "Correct", "numericanswer", "")
		}
	case quiz.TypeText:
		if len(q.Choices) > 0 {
			sl.ReportError(q.Choices, "choices", "Choices", "nochoices", "")
		}
		if strings.TrimSpace(q.Correct.String()) == "" {
			sl.ReportError(q.Correct, "correct", "Correct", "required", "")
		}
	}
}

// validateRequest runs struct tags and returns field-level details.
func validateRequest(v any) *quiz.ValidationError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &quiz.ValidationError{Message: "invalid request"}
	}

	out := &quiz.ValidationError{Message: "validation failed"}
	for _, fe := range verrs {
		out.Details = append(out.Details, quiz.FieldError{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}
	return out
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	_, path, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Field()
	}
	return path
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or greater", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "strongpassword":
		s, _ := fe.Value().(string)
		return auth.PasswordStrength(s)
	case "choicecount":
		return fmt.Sprintf("multiple-choice questions need exactly %d choices", quiz.ChoiceCount)
	case "blankchoice":
		return "choices must not be blank"
	case "choiceindex":
		return fmt.Sprintf("must be a choice index from 0 to %d", quiz.ChoiceCount-1)
	case "nochoices":
		return "only multiple-choice questions take choices"
	case "numericanswer":
		return "must be a number"
	}
	return "is invalid"
}
