package nntp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTable(t *testing.T) {
	tests := []struct {
		code int
		kind Kind
		text string
	}{
		{0, KindConnection, "error while reading socket data"},
		{211, KindNone, "group selected"},
		{223, KindNone, "article exists"},
		{411, KindProtocol, "no such group"},
		{412, KindProtocol, "no newsgroup has been selected"},
		{420, KindProtocol, "no article has been selected"},
		{421, KindProtocol, "no next article found"},
		{422, KindProtocol, "no previous article found"},
		{423, KindProtocol, "no such article number in this group"},
		{430, KindProtocol, "no such article found"},
		{435, KindProtocol, "article not wanted - do not send"},
		{436, KindProtocol, "transfer failed - try again later"},
		{437, KindProtocol, "article rejected - do not try again"},
		{440, KindProtocol, "posting not allowed"},
		{441, KindProtocol, "posting failed"},
		{500, KindProtocol, "command not recognized"},
		{501, KindProtocol, "command syntax error"},
		{502, KindProtocol, "access restriction or permission denied"},
		{503, KindProtocol, "program fault"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.kind, Classify(tt.code), "code %d", tt.code)
		assert.Equal(t, tt.text, StatusText(tt.code), "code %d", tt.code)
		assert.True(t, Known(tt.code), "code %d", tt.code)
	}
}

func TestClassifyUnknownCodes(t *testing.T) {
	for _, code := range []int{200, 215, 222, 400, 403, 480, 504, 999} {
		assert.Equal(t, KindUnexpected, Classify(code), "code %d", code)
		assert.Equal(t, "unexpected response", StatusText(code))
		assert.False(t, Known(code))
	}
}

func TestPositive(t *testing.T) {
	assert.True(t, Positive(100))
	assert.True(t, Positive(215))
	assert.True(t, Positive(381))
	assert.False(t, Positive(0))
	assert.False(t, Positive(99))
	assert.False(t, Positive(421))
	assert.False(t, Positive(503))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "none", KindNone.String())
	assert.Equal(t, "connection", KindConnection.String())
	assert.Equal(t, "protocol", KindProtocol.String())
	assert.Equal(t, "unexpected", KindUnexpected.String())
}
