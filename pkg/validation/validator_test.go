package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string  `json:"username" validate:"required,username"`
	Password string  `json:"password" validate:"required,password"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gt=0"`
}

func TestValidator_Valid(t *testing.T) {
	t.Parallel()

	v := New()
	require.NoError(t, v.Validate(signup{Username: "alice", Password: "Secret123", Quantity: 1}))
}

func TestValidator_MessagesUseJSONNames(t *testing.T) {
	t.Parallel()

	v := New()
	err := v.Validate(signup{Username: "al", Password: "", Price: -1, Quantity: 0})
	require.Error(t, err)

	msg := Message(err)
	assert.Equal(t,
		"password: is required; price: must be greater than or equal to 0; quantity: must be greater than 0; username: must be 3 to 50 characters long",
		msg)
}

func TestMessage_NonValidationError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}
