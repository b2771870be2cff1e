package upload

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Lifecycle(t *testing.T) {
	session := newSession("id", "https://example.com/upload", 10)
	assert.Equal(t, StateCreated, session.State())

	require.NoError(t, session.transition(StateTransferring))
	session.advance(4)
	session.advance(-3)
	session.advance(6)
	assert.Equal(t, int64(10), session.BytesTransferred())

	require.NoError(t, session.transition(StateFinalizing))
	require.NoError(t, session.transition(StateSucceeded))
	assert.True(t, session.State().Terminal())

	assert.Error(t, session.transition(StateFailed))
}

func TestSession_InvalidTransition(t *testing.T) {
	session := newSession("id", "", 0)

	assert.Error(t, session.transition(StateFinalizing))
	assert.Error(t, session.transition(StateSucceeded))
	assert.Equal(t, StateCreated, session.State())
}

func TestSession_Fail(t *testing.T) {
	session := newSession("id", "", 0)
	require.NoError(t, session.transition(StateTransferring))

	cause := errors.New("boom")
	assert.Equal(t, cause, session.fail(cause))
	assert.Equal(t, StateFailed, session.State())
	assert.Error(t, session.transition(StateFinalizing))
}

func TestEncodeMetadata(t *testing.T) {
	got := EncodeMetadata([]MetadataPair{
		{Key: "name", Value: "cat.png"},
		{Key: "type", Value: "image/png"},
		{Key: "empty", Value: ""},
	})

	assert.Equal(t, "name Y2F0LnBuZw==,type aW1hZ2UvcG5n,empty ", got)
}
