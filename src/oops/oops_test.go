package oops

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	base := errors.New("connection refused")
	err := New(base, "failed to fetch %s", "posts")

	assert.Equal(t, "failed to fetch posts: connection refused", err.Error())
	assert.True(t, errors.Is(err, base))

	var asOops *Error
	require.True(t, errors.As(err, &asOops))
	require.NotEmpty(t, asOops.Stack)
	assert.True(t, strings.HasSuffix(asOops.Stack[0].Function, "TestNew"), "top frame should be the caller, got %s", asOops.Stack[0].Function)
}

func TestNewWithoutWrapped(t *testing.T) {
	err := New(nil, "nothing underneath")
	assert.Equal(t, "nothing underneath", err.Error())
}

func TestTrace(t *testing.T) {
	frames := Trace()
	require.NotEmpty(t, frames)
	assert.True(t, strings.HasSuffix(frames[0].Function, "TestTrace"))
}

func TestZerologStackMarshaler(t *testing.T) {
	assert.Nil(t, ZerologStackMarshaler(errors.New("plain")))
	assert.NotNil(t, ZerologStackMarshaler(New(nil, "stacked")))
}
