package paypal

import (
	"errors"
	"testing"

	paypalsdk "github.com/plutov/paypal/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentsToValue(t *testing.T) {
	assert.Equal(t, "0.00", centsToValue(0))
	assert.Equal(t, "0.05", centsToValue(5))
	assert.Equal(t, "12.34", centsToValue(1234))
	assert.Equal(t, "1999.00", centsToValue(199900))
}

func TestValueToCents(t *testing.T) {
	cents, err := valueToCents("12.34")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), cents)

	cents, err = valueToCents("0.05")
	require.NoError(t, err)
	assert.Equal(t, int64(5), cents)

	_, err = valueToCents("not-a-number")
	assert.Error(t, err)
}

func TestIsAlreadyCaptured(t *testing.T) {
	errResp := &paypalsdk.ErrorResponse{
		Name: "UNPROCESSABLE_ENTITY",
		Details: []paypalsdk.ErrorResponseDetail{
			{Issue: issueOrderAlreadyCaptured},
		},
	}
	assert.True(t, isAlreadyCaptured(errResp))
	assert.False(t, isAlreadyCaptured(errors.New("INSTRUMENT_DECLINED")))
}
