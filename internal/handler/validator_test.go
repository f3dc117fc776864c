package handler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestValidator_ReportsJSONFieldNames(t *testing.T) {
	v := NewRequestValidator()
	long := make([]byte, 1001)
	for i := range long {
		long[i] = 'x'
	}
	notes := string(long)

	err := v.Validate(&CloseSessionRequest{ActualCash: "", ActualDigital: "10", Notes: &notes})
	require.Error(t, err)

	fields := toValidationErrors(err)
	require.Len(t, fields, 2)
	assert.Equal(t, ValidationError{Field: "actualCash", Message: "Is required"}, fields[0])
	assert.Equal(t, ValidationError{Field: "notes", Message: "Must be 1000 characters or less"}, fields[1])
}

func TestRequestValidator_OneOf(t *testing.T) {
	err := NewRequestValidator().Validate(&RecordSaleRequest{Amount: "10", Channel: "voucher"})

	fields := toValidationErrors(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "channel", fields[0].Field)
	assert.Equal(t, "Must be one of: cash, card, gcash, bank", fields[0].Message)
}

func TestRequestValidator_Valid(t *testing.T) {
	err := NewRequestValidator().Validate(&RecordExpenseRequest{Amount: "10", Description: "Towels"})

	assert.NoError(t, err)
}

func TestToValidationErrors_ForeignError(t *testing.T) {
	assert.Nil(t, toValidationErrors(errors.New("boom")))
}
