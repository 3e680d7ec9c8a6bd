package errs

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrIs(t *testing.T) {
	err := Range.Printf("sec=%d", 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, Range))
	assert.False(t, errors.Is(err, Full))
	assert.Equal(t, "TICK_RANGE,sec=42", err.Error())
	assert.Equal(t, int32(ErrCode_Range), err.Code())
}

func TestErrWrap(t *testing.T) {
	err := Decode.Wrap(io.ErrUnexpectedEOF)
	assert.True(t, errors.Is(err, Decode))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, "DECODE: unexpected EOF", err.Error())
}
