package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/study-planner/pkg/errors"
)

func TestFieldLabel(t *testing.T) {
	assert.Equal(t, "study content", fieldLabel("StudyContent"))
	assert.Equal(t, "subject id", fieldLabel("SubjectID"))
	assert.Equal(t, "name", fieldLabel("Name"))
	assert.Equal(t, "confirm password", fieldLabel("ConfirmPassword"))
}

func TestValidationErrorFallback(t *testing.T) {
	err := validationError(errors.New("boom"), "invalid subject payload")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, "invalid subject payload", err.Message)
}
