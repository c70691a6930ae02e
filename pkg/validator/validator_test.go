package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addItemBody struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=10"`
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, Validate(addItemBody{ProductID: "p-1", Quantity: 2}))
}

func TestValidate_FieldErrors(t *testing.T) {
	err := Validate(addItemBody{Quantity: 11})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["product_id"])
	assert.Equal(t, "must be less than or equal to 10", fields["quantity"])
	assert.Contains(t, valErr.Error(), "product_id is required")
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"p-1","quantity":3}`))
	var body addItemBody
	require.NoError(t, DecodeAndValidate(req, &body))
	assert.Equal(t, "p-1", body.ProductID)
	assert.Equal(t, 3, body.Quantity)
}

func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":`))
	var body addItemBody
	err := DecodeAndValidate(req, &body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_EmptyBodyStillValidated(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	var body addItemBody
	err := DecodeAndValidate(req, &body)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields(), "product_id")
}

func TestValidate_StringLength(t *testing.T) {
	type body struct {
		Email string `json:"email" validate:"required,email,max=10"`
		Note  string `validate:"max=3"`
	}
	err := Validate(body{Email: "shopper@example.com", Note: "long"})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be at most 10 characters", valErr.Fields()["email"])
	assert.Equal(t, "must be at most 3 characters", valErr.Fields()["Note"])
}

func TestVar_BasketID(t *testing.T) {
	tests := []struct {
		id string
		ok bool
	}{
		{"6f1c2a4e-0b7d-4c55-9b1e-3f2a1d0c9e88", true},
		{"V1StGXR8_Z5jdHi6B-myT", true},
		{"basket 1", false},
		{"basket/../1", false},
		{"bäsket", false},
		{strings.Repeat("a", 128), true},
		{strings.Repeat("a", 129), false},
	}
	for _, tt := range tests {
		err := Var(tt.id, "max=128,basketid")
		if tt.ok {
			assert.NoError(t, err, tt.id)
		} else {
			assert.Error(t, err, tt.id)
		}
	}
}
