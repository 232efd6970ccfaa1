package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_UnwrapsToErrValidation(t *testing.T) {
	ve := NewValidationError("name is required", "phone is invalid")

	wrapped := fmt.Errorf("register: %w", ve)

	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.Equal(t, []string{"name is required", "phone is invalid"}, ValidationMessages(wrapped))
	assert.Contains(t, ve.Error(), "phone is invalid")
}

func TestValidationError_OrNil(t *testing.T) {
	ve := &ValidationError{}
	assert.NoError(t, ve.OrNil())

	ve.Add("x")
	assert.Error(t, ve.OrNil())

	var nilVE *ValidationError
	assert.NoError(t, nilVE.OrNil())
}

func TestValidationMessages_OtherError(t *testing.T) {
	assert.Nil(t, ValidationMessages(ErrNotFound))
}
