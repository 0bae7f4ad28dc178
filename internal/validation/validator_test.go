package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email  string `json:"email" validate:"required,email"`
	Rating int    `json:"rating" validate:"min=1,max=5"`
}

func TestValidateUsesJSONNames(t *testing.T) {
	err := New().Validate(sample{Email: "nope", Rating: 9})
	require.Error(t, err)
	msg := Message(err)
	assert.Contains(t, msg, "email must be a valid email")
	assert.Contains(t, msg, "rating must be at most 5")
}

func TestValidateOK(t *testing.T) {
	assert.NoError(t, New().Validate(sample{Email: "a@b.io", Rating: 3}))
}
