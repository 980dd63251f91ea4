package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupForm struct {
	PostalCode string   `json:"postalCode" validate:"required,postalcode"`
	Codes      []string `json:"codes" validate:"min=1,max=3"`
	Color      string   `json:"color" validate:"omitempty,hexcolor"`
	Hidden     string   `json:"-" validate:"omitempty,email"`
	Query      string   `form:"q" validate:"omitempty,min=2"`
}

func TestToDetailsUsesJSONNames(t *testing.T) {
	err := std.Struct(lookupForm{PostalCode: "123", Color: "red", Query: "x"})
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "must be a postal code with 8 digits", details["postalCode"])
	assert.Equal(t, "must have at least 1 items", details["codes"])
	assert.Equal(t, "must be a valid hexadecimal color", details["color"])
	assert.Equal(t, "must be at least 2 characters long", details["q"])
}

func TestToDetailsPayloadErrors(t *testing.T) {
	var v map[string]any
	syntaxErr := json.Unmarshal([]byte("{nope"), &v)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(syntaxErr))

	var n int
	typeErr := json.Unmarshal([]byte(`"x"`), &n)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(typeErr))

	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(errors.New("boom")))
	assert.Nil(t, ToDetails(nil))
}

func TestSingleValueHelpers(t *testing.T) {
	assert.True(t, IsEmail("ana@email.com"))
	assert.False(t, IsEmail("ana@"))
	assert.False(t, IsEmail(""))

	assert.True(t, IsHexColor("#8B5CF6"))
	assert.True(t, IsHexColor("#fff"))
	assert.False(t, IsHexColor("8B5CF6"))

	assert.True(t, IsURL("https://ana.dev"))
	assert.False(t, IsURL("ana dev"))
}

func TestFormatFieldErrorFallback(t *testing.T) {
	err := std.Var("abc", "uuid4")
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "must be a valid UUID", formatFieldError(verrs[0]))

	err = std.Var("abc", "alpha,len=5")
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "must be exactly 5 characters long", formatFieldError(verrs[0]))
}
