package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/study-planner/pkg/errors"
)

type changeNotifier interface {
	NotifyChange()
}

// validationError turns the first failed validator rule into a readable message. Other
// errors fall back to the generic message.
func validationError(err error, fallback string) *appErrors.Error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fallback)
	}

	fe := fieldErrs[0]
	field := fieldLabel(fe.Field())
	var message string
	switch fe.Tag() {
	case "required":
		message = fmt.Sprintf("%s is required", field)
	case "min":
		message = fmt.Sprintf("%s must have at least %s characters", field, fe.Param())
	case "gt":
		message = fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "email":
		message = fmt.Sprintf("%s must be a valid email address", field)
	case "eqfield":
		message = fmt.Sprintf("%s must match %s", field, fieldLabel(fe.Param()))
	default:
		message = fmt.Sprintf("%s is invalid", field)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// fieldLabel splits a Go field name into lower-case words, so StudyContent becomes
// "study content" and SubjectID becomes "subject id".
func fieldLabel(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// cleanList trims every entry and drops blanks. The result is never nil.
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
