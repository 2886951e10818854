package utils

import (
	"encoding/json"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Plan   string `json:"plan" binding:"required,oneof=starter professional"`
	Email  string `json:"email" binding:"required,email"`
	Price  string `json:"price" binding:"omitempty,decimal"`
	Reason string `json:"reason" binding:"max=5"`
}

func TestValidationDetails(t *testing.T) {
	RegisterBindingValidators()
	RegisterBindingValidators()

	err := binding.Validator.ValidateStruct(&sampleRequest{Plan: "gold", Price: "12,5", Reason: "far too long"})
	require.Error(t, err)

	details := ValidationDetails(err)
	assert.Contains(t, details, "plan must be one of [starter professional]")
	assert.Contains(t, details, "email is required")
	assert.Contains(t, details, "price must be a decimal number")
	assert.Contains(t, details, "reason must be at most 5 characters long")

	assert.NoError(t, binding.Validator.ValidateStruct(&sampleRequest{Plan: "starter", Email: "a@b.test", Price: "15000.50"}))
}

func TestValidationDetails_DecodeError(t *testing.T) {
	var v sampleRequest
	err := json.Unmarshal([]byte(`{"plan": 3}`), &v)
	require.Error(t, err)
	assert.Equal(t, err.Error(), ValidationDetails(err))
}
