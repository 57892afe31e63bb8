package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contributionInput struct {
	Amount float64 `json:"amount" validate:"gt=0"`
	Date   string  `json:"date" validate:"required,date"`
	Start  string  `json:"session_start" validate:"omitempty,hhmm"`
	Method string  `json:"method" validate:"omitempty,oneof=CASH CARD"`
}

func TestStruct(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		err := Struct(contributionInput{Amount: 10, Date: "2024-06-12", Start: "10:30", Method: "CASH"})
		assert.NoError(t, err)
	})

	t.Run("field errors keyed by json name", func(t *testing.T) {
		err := Struct(contributionInput{Amount: 0, Date: "12/06/2024", Start: "25:00", Method: "GOLD"})
		require.Error(t, err)

		fe, ok := err.(FieldErrors)
		require.True(t, ok, "error should be FieldErrors, got %T", err)
		assert.Equal(t, []string{"Ensure this value is greater than 0."}, fe["amount"])
		assert.Equal(t, []string{"Enter a valid date (YYYY-MM-DD)."}, fe["date"])
		assert.Equal(t, []string{"Enter a valid time (HH:MM)."}, fe["session_start"])
		assert.Equal(t, []string{"Select one of: CASH CARD."}, fe["method"])
	})

	t.Run("required", func(t *testing.T) {
		err := Struct(contributionInput{Amount: 1})
		fe, ok := err.(FieldErrors)
		require.True(t, ok)
		assert.Equal(t, []string{"This field is required."}, fe["date"])
	})
}

func TestFieldErrors(t *testing.T) {
	fe := FieldErrors{}
	assert.Nil(t, fe.OrNil())

	fe.Add("title", "This field is required.")
	fe.Add("amount", "Enter a positive contribution amount")
	fe.Add("amount", "second")

	assert.Equal(t, "amount: Enter a positive contribution amount; second, title: This field is required.", fe.Error())
	assert.Error(t, fe.OrNil())
	assert.Equal(t, FieldErrors{"x": {"y"}}, Single("x", "y"))
}
